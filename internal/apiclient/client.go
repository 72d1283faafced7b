package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/publicsuffix"

	"github.com/careerhub/hubclient/internal/csrf"
	"github.com/careerhub/hubclient/internal/notify"
	"github.com/careerhub/hubclient/internal/tokensource"
	"github.com/careerhub/hubclient/internal/tokenstore"
)

// Default routes and timeouts.
const (
	DefaultLoginPath  = "/login"
	DefaultLogoutPath = "/logout"
	DefaultTimeout    = 30 * time.Second
)

// CsrfRefresher installs a fresh CSRF cookie and reports whether it succeeded.
type CsrfRefresher interface {
	Refresh(ctx context.Context) bool
}

// CookiePresence reports whether the CSRF cookie is currently available.
type CookiePresence interface {
	Check() bool
}

// Router navigates the user to another route.
type Router interface {
	Redirect(ctx context.Context, path string)
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(ctx context.Context, path string)

func (f RouterFunc) Redirect(ctx context.Context, path string) {
	f(ctx, path)
}

// Option configures a Client.
type Option func(*options)

type options struct {
	jar        http.CookieJar
	transport  http.RoundTripper
	timeout    time.Duration
	presence   CookiePresence
	notifier   notify.Notifier
	router     Router
	logger     *slog.Logger
	registry   prometheus.Registerer
	cookieName string
	headerName string
	loginPath  string
	logoutPath string
}

// WithCookieJar sets the cookie jar. Share it with the csrf.Provider so the
// cookie it installs is sent on API calls.
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *options) {
		o.jar = jar
	}
}

// WithTransport sets the base transport below the XSRF header transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithTimeout bounds each round trip, replays included. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithCookiePresence overrides the jar-based CSRF cookie presence check.
func WithCookiePresence(p CookiePresence) Option {
	return func(o *options) {
		o.presence = p
	}
}

// WithNotifier sets where user notifications go. Defaults to a LogNotifier.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithRouter sets the router used for the login redirect after a 401.
func WithRouter(r Router) Option {
	return func(o *options) {
		o.router = r
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics registers request and CSRF refresh counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithCSRFCookie overrides the CSRF cookie and header names.
func WithCSRFCookie(cookieName, headerName string) Option {
	return func(o *options) {
		o.cookieName = cookieName
		o.headerName = headerName
	}
}

// WithLoginPath sets the route redirected to after a 401.
func WithLoginPath(path string) Option {
	return func(o *options) {
		o.loginPath = path
	}
}

// WithLogoutPath sets the API route Logout posts to.
func WithLogoutPath(path string) Option {
	return func(o *options) {
		o.logoutPath = path
	}
}

// Client sends API calls through the auth and CSRF pipeline. Create one per
// backend and share it; it is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client

	tokens      tokenstore.TokenStore
	tokenSource *tokensource.StoreTokenSource
	csrf        CsrfRefresher
	presence    CookiePresence
	notifier    notify.Notifier
	router      Router
	logger      *slog.Logger
	metrics     *metrics

	loginPath  string
	logoutPath string

	mu      sync.RWMutex
	headers http.Header
}

// New creates a Client for the API at baseURL (including its /api prefix).
// tokens holds the bearer token; refresher installs the CSRF cookie.
func New(baseURL string, tokens tokenstore.TokenStore, refresher CsrfRefresher, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}
	if tokens == nil {
		return nil, fmt.Errorf("missing token store")
	}
	if refresher == nil {
		return nil, fmt.Errorf("missing csrf refresher")
	}

	o := &options{
		timeout:    DefaultTimeout,
		cookieName: csrf.DefaultCookieName,
		headerName: csrf.DefaultHeaderName,
		loginPath:  DefaultLoginPath,
		logoutPath: DefaultLogoutPath,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.notifier == nil {
		o.notifier = notify.NewLogNotifier(o.logger)
	}
	if o.router == nil {
		o.router = RouterFunc(func(ctx context.Context, path string) {
			o.logger.WarnContext(ctx, "session ended, login required", "redirect", path)
		})
	}
	if o.jar == nil {
		o.jar, err = NewCookieJar()
		if err != nil {
			return nil, err
		}
	}
	if o.presence == nil {
		o.presence, err = csrf.NewJarPresence(o.jar, base.String(), o.cookieName)
		if err != nil {
			return nil, err
		}
	}

	m, err := newMetrics(o.registry)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	headers.Set("X-Requested-With", "XMLHttpRequest")

	return &Client{
		baseURL: base,
		http: &http.Client{
			Jar:     o.jar,
			Timeout: o.timeout,
			Transport: &XSRFTransport{
				Base:       o.transport,
				CookieName: o.cookieName,
				HeaderName: o.headerName,
			},
		},
		tokens:      tokens,
		tokenSource: tokensource.New(tokens),
		csrf:        refresher,
		presence:    o.presence,
		notifier:    o.notifier,
		router:      o.router,
		logger:      o.logger,
		metrics:     m,
		loginPath:   o.loginPath,
		logoutPath:  o.logoutPath,
		headers:     headers,
	}, nil
}

// NewCookieJar creates the jar shared by the client and the CSRF provider.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return jar, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Header returns a copy of the headers sent with every call.
func (c *Client) Header() http.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Clone()
}

// Do sends req, replaying it once if the backend rejects its CSRF token.
// Failures are *apierr.Error values unless the request could not be built.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("missing request")
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return c.sendWithCsrfRecovery(ctx, req)
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.call(ctx, http.MethodGet, path, nil, opts)
}

// Post sends a POST request with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.call(ctx, http.MethodPost, path, body, opts)
}

// Put sends a PUT request with body encoded as JSON.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.call(ctx, http.MethodPut, path, body, opts)
}

// Patch sends a PATCH request with body encoded as JSON.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.call(ctx, http.MethodPatch, path, body, opts)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.call(ctx, http.MethodDelete, path, nil, opts)
}

// Logout ends the session on the backend, then clears the local session
// whatever the backend answered. The backend error, if any, is returned.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Post(ctx, c.logoutPath, nil)
	c.clearSession(ctx)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body any, opts []RequestOption) (*Response, error) {
	req, err := NewRequest(method, path, body, opts...)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func (c *Client) setDefaultAuthorization(token string) {
	c.mu.Lock()
	c.headers.Set("Authorization", tokensource.TokenType+" "+token)
	c.mu.Unlock()
}

// clearSession removes the stored token and the default Authorization header.
func (c *Client) clearSession(ctx context.Context) {
	if err := c.tokens.Remove(ctx); err != nil {
		c.logger.ErrorContext(ctx, "failed to remove stored token", "error", err)
	}
	c.mu.Lock()
	c.headers.Del("Authorization")
	c.mu.Unlock()
}
