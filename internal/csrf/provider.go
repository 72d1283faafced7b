package csrf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/careerhub/hubclient/internal/apierr"
)

const (
	// DefaultCookiePath is the Sanctum bootstrap route.
	DefaultCookiePath = "/sanctum/csrf-cookie"
	// DefaultCookieName is the cookie Laravel issues the CSRF token in.
	DefaultCookieName = "XSRF-TOKEN"
	// DefaultHeaderName is the request header Laravel reads the token from.
	DefaultHeaderName = "X-XSRF-TOKEN"
)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets the client used for the bootstrap request. Its Jar is
// replaced by the jar passed to NewProvider.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.client = c
	}
}

// WithCookiePath overrides DefaultCookiePath.
func WithCookiePath(path string) ProviderOption {
	return func(p *Provider) {
		p.path = path
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Provider installs the CSRF cookie from the bootstrap endpoint.
type Provider struct {
	endpoint string
	path     string
	client   *http.Client
	logger   *slog.Logger
}

// NewProvider creates a Provider for the backend at baseURL (scheme and host,
// without the /api prefix). Cookies are installed in jar, which must be the
// jar the API client sends from.
func NewProvider(baseURL string, jar http.CookieJar, opts ...ProviderOption) (*Provider, error) {
	if jar == nil {
		return nil, fmt.Errorf("missing cookie jar")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid csrf base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid csrf base URL %q: scheme and host required", baseURL)
	}

	p := &Provider{
		path:   DefaultCookiePath,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	client := http.Client{Timeout: 30 * time.Second}
	if p.client != nil {
		client = *p.client
	}
	client.Jar = jar
	p.client = &client

	p.endpoint = u.JoinPath(p.path).String()
	return p, nil
}

// InitializeCookie requests the bootstrap endpoint so the backend sets the
// CSRF cookie in the shared jar. Returns an *apierr.Error of KindNetwork when
// no response arrives, or the classified status error for non-2xx answers.
func (p *Provider) InitializeCookie(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return fmt.Errorf("building csrf request: %w", err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := p.client.Do(req)
	if err != nil {
		apiErr := apierr.NewNetworkError(req.Method, p.endpoint, err)
		p.logger.ErrorContext(ctx, "failed to initialize csrf cookie", "error", apiErr)
		return apiErr
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := apierr.NewStatusError(req.Method, p.endpoint, resp.StatusCode, resp.Header, body)
		p.logger.ErrorContext(ctx, "failed to initialize csrf cookie", "error", apiErr)
		return apiErr
	}

	p.logger.DebugContext(ctx, "csrf cookie initialized")
	return nil
}

// Refresh calls InitializeCookie and reports success as a boolean. Failures
// are logged, never returned.
func (p *Provider) Refresh(ctx context.Context) bool {
	if err := p.InitializeCookie(ctx); err != nil {
		p.logger.WarnContext(ctx, "failed to refresh csrf token", "error", err)
		return false
	}
	return true
}
