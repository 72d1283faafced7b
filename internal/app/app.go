package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/careerhub/hubclient/internal/apiclient"
	"github.com/careerhub/hubclient/internal/csrf"
	"github.com/careerhub/hubclient/internal/gateway"
	"github.com/careerhub/hubclient/internal/notify"
)

// Option customizes how App wires the API client.
type Option func(*App)

// WithNotifier sets where user notifications go. Defaults to the log.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// WithRouter sets the handler for the login redirect after a 401.
func WithRouter(r apiclient.Router) Option {
	return func(a *App) {
		a.router = r
	}
}

// App owns the API client and the optional local gateway.
type App struct {
	cfg      *Config
	client   *apiclient.Client
	registry *prometheus.Registry
	notifier notify.Notifier
	router   apiclient.Router
}

// New creates a new App instance. No network I/O happens until the first call.
func New(cfg *Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.notifier == nil {
		a.notifier = notify.NewLogNotifier(slog.Default())
	}
	if a.router == nil {
		a.router = apiclient.RouterFunc(func(ctx context.Context, path string) {
			slog.WarnContext(ctx, "session expired, run `hubclient login` to sign in again", "redirect", path)
		})
	}

	client, err := newClient(cfg, a.registry, a.notifier, a.router)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}
	a.client = client

	return a, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() *Config {
	return a.cfg
}

// Client returns the shared API client.
func (a *App) Client() *apiclient.Client {
	return a.client
}

// Start runs the local gateway and blocks until ctx is canceled or the server fails.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	gw, err := gateway.New(a.client, gateway.WithMetrics(a.registry))
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	slog.InfoContext(gCtx, "starting gateway", "address", address, "upstream", a.client.BaseURL())
	gatewayErrCh, err := gw.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("gateway startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, gw.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-gatewayErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "gateway runtime error", "error", err)
				return fmt.Errorf("gateway: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// newClient wires the CSRF provider and the API client around one cookie jar.
func newClient(cfg *Config, reg prometheus.Registerer, n notify.Notifier, r apiclient.Router) (*apiclient.Client, error) {
	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	jar, err := apiclient.NewCookieJar()
	if err != nil {
		return nil, err
	}

	provider, err := csrf.NewProvider(cfg.API.CSRFBaseURL, jar,
		csrf.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		csrf.WithCookiePath(cfg.API.CSRFPath),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create csrf provider: %w", err)
	}

	return apiclient.New(cfg.API.BaseURL, store, provider,
		apiclient.WithCookieJar(jar),
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithCSRFCookie(cfg.API.CSRFCookie, cfg.API.CSRFHeader),
		apiclient.WithLoginPath(cfg.API.LoginPath),
		apiclient.WithLogoutPath(cfg.API.LogoutPath),
		apiclient.WithNotifier(n),
		apiclient.WithRouter(r),
		apiclient.WithMetrics(reg),
	)
}
