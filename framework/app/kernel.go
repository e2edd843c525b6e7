package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/logging"
	"github.com/km-arc/go-beans/framework/providers"
	"github.com/km-arc/go-beans/framework/routing"
	"github.com/km-arc/go-beans/framework/tracing"
)

// Version is reported by the CLI.
const Version = "0.1.0"

// Application is the top-level application container. It embeds the bean
// container and its ProviderRegistry so callers can register definitions and
// providers on it directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	config *config.Config
	logger *zap.Logger
}

// Options configures New.
type Options struct {
	Config config.Options
	// Logger replaces the logger built from configuration.
	Logger *zap.Logger
	// Providers are registered after the framework providers.
	Providers []container.ServiceProvider
}

// New loads configuration, builds the ambient stack and registers the
// framework providers. Call Boot (or Run) afterwards.
func New(ctx context.Context, opts Options) (*Application, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		if logger, err = logging.New(cfg.Log); err != nil {
			return nil, err
		}
	}

	tp, err := tracing.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	c := container.New(
		container.WithLogger(logger),
		container.WithTracer(tp.Tracer()),
		container.WithCircularReferences(cfg.Container.AllowCircularReferences),
		container.WithDefinitionOverriding(cfg.Container.AllowDefinitionOverriding),
		container.WithRawInjection(cfg.Container.AllowRawInjection),
	)
	registry := container.NewProviderRegistry(c)

	app := &Application{
		Container: c,
		Providers: registry,
		config:    cfg,
		logger:    logger,
	}

	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LogServiceProvider{},
		&providers.TracingServiceProvider{Provider: tp},
		&providers.RoutingServiceProvider{},
		&providers.ScenarioServiceProvider{},
	}
	for _, p := range append(core, opts.Providers...) {
		if err := registry.Register(ctx, p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(ctx context.Context, provider container.ServiceProvider) error {
	return a.Providers.Register(ctx, provider)
}

// Boot runs the Boot phase on all providers and, when configured, creates
// every non-lazy singleton.
func (a *Application) Boot(ctx context.Context) error {
	if a.Providers.Booted() {
		return nil
	}
	if err := a.Providers.Boot(ctx); err != nil {
		return err
	}
	if a.config.Container.PreInstantiate {
		if err := a.PreInstantiateSingletons(ctx); err != nil {
			return err
		}
	}
	a.logger.Debug("application booted",
		zap.Int("definitions", len(a.BeanDefinitionNames())),
		zap.Int("singletons", a.Registry().SingletonCount()))
	return nil
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config { return a.config }

// Router resolves the *routing.Router bean.
func (a *Application) Router(ctx context.Context) (*routing.Router, error) {
	return container.Resolve[*routing.Router](ctx, a.Container, providers.RouterName)
}

// Run boots the application (if needed) and serves the bean inspector until
// ctx is cancelled, then shuts the server down and destroys singletons.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.HTTP.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.config.HTTP.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Boot(ctx); err != nil {
		_ = ln.Close()
		return err
	}
	router, err := a.Router(ctx)
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:     router,
		ReadTimeout: a.config.HTTP.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.logger.Info("serving bean inspector",
		zap.String("app", a.config.App.Name),
		zap.String("addr", ln.Addr().String()),
		zap.String("env", a.config.App.Env))

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down", zap.Error(context.Cause(ctx)))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(fmt.Errorf("server error: %w", err), a.Close())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.HTTP.ShutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	return errors.Join(shutdownErr, a.Close())
}

// Close destroys all singletons in reverse dependency order and flushes the
// logger.
func (a *Application) Close() error {
	err := a.DestroySingletons()
	_ = a.logger.Sync()
	return err
}

func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.config.IsLocal() }
func (a *Application) IsProduction() bool  { return a.config.IsProduction() }
func (a *Application) IsTesting() bool     { return a.config.IsTesting() }
func (a *Application) IsDebug() bool       { return a.config.App.Debug }
