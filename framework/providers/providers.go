// Package providers registers the framework's own beans: configuration,
// logger, tracer, router and the lifecycle scenario beans.
package providers

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	gohttp "github.com/km-arc/go-beans/framework/http"
	"github.com/km-arc/go-beans/framework/routing"
	"github.com/km-arc/go-beans/framework/tracing"
	"github.com/km-arc/go-beans/scenarios"
)

// Bean names registered by the framework providers.
const (
	ConfigName  = "config"
	LoggerName  = scenarios.LoggerName
	TracingName = "tracing"
	TracerName  = "tracer"
	RouterName  = "router"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider exposes the loaded configuration.
//
// Registered beans:
//   - "config"         → *config.Config
//   - "configuration"  → alias of "config"
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(c *container.Container) error {
	cfg := p.Config
	err := container.Supply(func(context.Context, *container.Container) (*config.Config, error) {
		if cfg == nil {
			return config.Load(config.Options{})
		}
		return cfg, nil
	}).Description("application configuration").Register(c, ConfigName)
	if err != nil {
		return err
	}
	return c.RegisterAlias(ConfigName, "configuration")
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider exposes the container's logger as "logger" so beans can
// reference it.
type LogServiceProvider struct {
	container.BaseProvider
}

func (p *LogServiceProvider) Register(c *container.Container) error {
	return container.Supply(func(_ context.Context, c *container.Container) (*zap.Logger, error) {
		return c.Logger(), nil
	}).Description("structured logger").Register(c, LoggerName)
}

// ── TracingServiceProvider ────────────────────────────────────────────────────

// TracingServiceProvider exposes the tracer provider and its tracer.
//
// Registered beans:
//   - "tracing" → *tracing.Provider, shut down with the container
//   - "tracer"  → trace.Tracer
type TracingServiceProvider struct {
	container.BaseProvider
	Provider *tracing.Provider
}

func (p *TracingServiceProvider) Register(c *container.Container) error {
	tp := p.Provider
	err := container.Supply(func(ctx context.Context, c *container.Container) (*tracing.Provider, error) {
		if tp != nil {
			return tp, nil
		}
		cfg, err := container.Resolve[*config.Config](ctx, c, ConfigName)
		if err != nil {
			return nil, err
		}
		return tracing.NewProvider(ctx, cfg.Tracing)
	}).Description("OpenTelemetry tracer provider").Register(c, TracingName)
	if err != nil {
		return err
	}
	return container.Supply(func(ctx context.Context, c *container.Container) (trace.Tracer, error) {
		provider, err := container.Resolve[*tracing.Provider](ctx, c, TracingName)
		if err != nil {
			return nil, err
		}
		return provider.Tracer(), nil
	}).DependsOn(TracingName).Register(c, TracerName)
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router and mounts the bean
// inspector on it during Boot.
//
// Registered beans:
//   - "router" → *routing.Router
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(c *container.Container) error {
	return container.Supply(func(ctx context.Context, c *container.Container) (*routing.Router, error) {
		logger, err := container.Resolve[*zap.Logger](ctx, c, LoggerName)
		if err != nil {
			return nil, err
		}
		return routing.New(logger), nil
	}).Description("HTTP router").Register(c, RouterName)
}

func (p *RoutingServiceProvider) Boot(ctx context.Context, c *container.Container) error {
	router, err := container.Resolve[*routing.Router](ctx, c, RouterName)
	if err != nil {
		return err
	}
	logger, err := container.Resolve[*zap.Logger](ctx, c, LoggerName)
	if err != nil {
		return err
	}
	gohttp.NewInspector(c, logger).Routes(router)
	return nil
}

// ── ScenarioServiceProvider ───────────────────────────────────────────────────

// ScenarioServiceProvider is deferred: the myService ↔ serviceB singleton
// cycle is only registered when one of them is first looked up.
type ScenarioServiceProvider struct {
	container.BaseProvider
}

func (p *ScenarioServiceProvider) Register(c *container.Container) error {
	return scenarios.RegisterCycle(c, container.ScopeSingleton)
}

func (p *ScenarioServiceProvider) Provides() []string {
	return []string{scenarios.MyServiceName, scenarios.ServiceBName}
}

func (p *ScenarioServiceProvider) IsDeferred() bool { return true }
