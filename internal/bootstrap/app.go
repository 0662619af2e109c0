package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/apiclient"
	"github.com/target/storefront-go/internal/observability/statsd"
	"github.com/target/storefront-go/internal/ports"
	"github.com/target/storefront-go/internal/service"
)

// App holds the wired client stack.
type App struct {
	Config  config.AppConfig
	Logger  *slog.Logger
	Tokens  ports.TokenStore
	Client  *apiclient.Client
	Session *service.SessionService
	Cart    *service.CartService
	Metrics statsd.Sink

	closers []func() error
}

// AppDeps groups dependencies for NewApp. Only Config is required.
type AppDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger

	// Tokens overrides the configured token store.
	Tokens ports.TokenStore
	// RedisClient is reused by the redis token store instead of dialing.
	RedisClient redis.UniversalClient
	HTTPClient  *http.Client
}

// NewApp wires token store, metrics, API client, session and cart. The cart
// is attached to the session, so Session.Start also loads the cart.
func NewApp(ctx context.Context, deps AppDeps) (*App, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: *deps.Config, Logger: logger}

	app.Tokens = deps.Tokens
	if app.Tokens == nil {
		store, closeFn, err := OpenTokenStore(ctx, TokenStoreDeps{
			Tokens:      deps.Config.Tokens,
			Redis:       deps.Config.Redis,
			RedisClient: deps.RedisClient,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		app.Tokens = store
		app.closers = append(app.closers, closeFn)
	}

	app.Metrics = buildMetrics(logger, deps.Config.Observability.Metrics)
	if c, ok := app.Metrics.(*statsd.Client); ok {
		app.closers = append(app.closers, c.Close)
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:                 deps.Config.API.BaseURL,
		Origin:                  deps.Config.API.Origin,
		Tokens:                  app.Tokens,
		HTTPClient:              deps.HTTPClient,
		Timeout:                 deps.Config.API.Timeout,
		UserAgent:               deps.Config.API.UserAgent,
		UnauthorizedLogCooldown: deps.Config.API.UnauthorizedLogCooldown,
		Logger:                  logger,
		Metrics:                 app.Metrics,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create api client: %w", err), app.Close())
	}
	app.Client = client

	app.Session = service.NewSessionService(service.SessionServiceOptions{
		API:    client,
		Tokens: app.Tokens,
		Logger: logger,
	})
	app.Cart = service.NewCartService(service.CartServiceOptions{
		API:    client,
		Logger: logger,
	})
	app.Cart.Attach(app.Session)

	return app, nil
}

// Close releases the token store and metrics connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

//nolint:ireturn // a Nop sink stands in when metrics are disabled.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) statsd.Sink {
	if !cfg.IsEnabled() {
		return statsd.Nop{}
	}
	sink, err := statsd.New(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return statsd.Nop{}
	}
	return sink
}
