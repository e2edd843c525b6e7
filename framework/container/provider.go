package container

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the registration of related bean definitions.
//
// Register() only registers definitions. Boot() is called after ALL providers
// have been registered, making it safe to look up beans inside Boot().
//
//	type ScenarioProvider struct{ container.BaseProvider }
//
//	func (p *ScenarioProvider) Register(c *container.Container) error {
//	    return container.Define[MyService]().Property("id", 12345).Register(c, "myService")
//	}
//
//	func (p *ScenarioProvider) Boot(ctx context.Context, c *container.Container) error {
//	    _, err := c.GetBean(ctx, "myService")
//	    return err
//	}
type ServiceProvider interface {
	// Register adds definitions to the container.
	// Do NOT look up beans here; use Boot() for that.
	Register(c *Container) error

	// Boot is called after all providers are registered.
	Boot(ctx context.Context, c *Container) error

	// Provides returns the bean names this provider registers.
	// Only consulted for deferred providers.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily,
	// only when one of its Provides() names is first looked up.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(c *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ context.Context, _ *Container) error { return nil }
func (p *BaseProvider) Provides() []string                         { return nil }
func (p *BaseProvider) IsDeferred() bool                           { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers. Deferred providers are hooked into
// the container's missing-definition handler.
type ProviderRegistry struct {
	c *Container

	mu         sync.Mutex
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // bean name → provider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to c.
func NewProviderRegistry(c *Container) *ProviderRegistry {
	r := &ProviderRegistry{
		c:          c,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
	c.SetMissingDefinitionHandler(r.loadDeferred)
	return r
}

// Register adds a provider and calls its Register() method (unless deferred).
// A provider registered after Boot() is booted immediately.
func (r *ProviderRegistry) Register(ctx context.Context, provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, name := range provider.Provides() {
			r.deferred[name] = provider
		}
		r.mu.Unlock()
		r.c.Logger().Debug("deferred provider", zap.Strings("provides", provider.Provides()))
		return nil
	}
	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if err := provider.Register(r.c); err != nil {
		return fmt.Errorf("register provider %T: %w", provider, err)
	}
	if booted {
		if err := provider.Boot(ctx, r.c); err != nil {
			return fmt.Errorf("boot provider %T: %w", provider, err)
		}
	}
	return nil
}

// loadDeferred registers the deferred provider for name, if any, the first
// time that name is looked up.
func (r *ProviderRegistry) loadDeferred(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	provider, ok := r.deferred[name]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	for _, n := range provider.Provides() {
		delete(r.deferred, n)
	}
	booted := r.booted
	r.mu.Unlock()

	r.c.Logger().Debug("loading deferred provider", zap.String("bean", name))
	if err := provider.Register(r.c); err != nil {
		return false, fmt.Errorf("register provider %T: %w", provider, err)
	}
	if booted {
		if err := provider.Boot(ctx, r.c); err != nil {
			return false, fmt.Errorf("boot provider %T: %w", provider, err)
		}
	}
	return true, nil
}

// Boot calls Boot() on all eager providers, in registration order.
// Must be called after ALL providers have been registered.
func (r *ProviderRegistry) Boot(ctx context.Context) error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	eager := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range eager {
		if err := provider.Boot(ctx, r.c); err != nil {
			return fmt.Errorf("boot provider %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}

// Deferred returns the bean names still waiting on a deferred provider.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.deferred))
	for n := range r.deferred {
		out[n] = true
	}
	return sortedKeys(out)
}
