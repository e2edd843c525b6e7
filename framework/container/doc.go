// Package container provides a named-bean container: bean definitions, a
// singleton pool with early references, a post-processor pipeline and the
// Service Provider system used to assemble an application.
//
// # Overview
//
// The container instantiates beans on demand from definitions, populates
// their properties (literals, references to other beans, inner beans, lists),
// runs initialization callbacks and post-processors, and caches singletons.
// Singletons that reference each other through properties resolve because a
// singleton in creation is exposed early to its collaborators. Prototypes
// cannot be exposed early, so a prototype cycle fails with
// BeanCurrentlyInCreationError.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithLogger(logger))
//  2. Register providers: registry.Register(ctx, &MyProvider{})
//  3. Boot: registry.Boot(ctx)
//  4. Pre-instantiate: c.PreInstantiateSingletons(ctx)
//  5. Shut down: c.DestroySingletons()
//
// # Definitions
//
//	// Struct type; properties are matched to exported fields or SetXxx methods.
//	container.Define[MyService]().
//	    Property("id", "12345").          // converted to int
//	    Ref("serviceB", "serviceB").
//	    Register(c, "myService")
//
//	// Prototype: a new instance on every lookup.
//	container.Define[ServiceB]().Prototype().Ref("myService", "myService").Register(c, "serviceB")
//
//	// Constructor with resolved arguments.
//	container.Construct(NewClient, container.Ref("config"), 3).Register(c, "client")
//
//	// Supplier.
//	container.Supply(func(ctx context.Context, c *container.Container) (*Cache, error) {
//	    return NewCache(), nil
//	}).Register(c, "cache")
//
// # Looking up beans
//
//	raw, err := c.GetBean(ctx, "myService")
//	svc, err := container.Resolve[*MyService](ctx, c, "myService")
//	svc, err := container.GetBeanOfType[*MyService](ctx, c)
//
// # Singleton pool
//
//	c.AddSingleton("myService", svc)
//	obj, err := c.GetSingletonOrCreate("myService", func() (any, error) { return build() })
//
// # Post-processors
//
//	c.AddPostProcessor(container.BeforeInitFunc(func(bean any, name string) (any, error) {
//	    if svc, ok := bean.(*MyService); ok {
//	        return &MyServiceProxy{MyService: svc}, nil
//	    }
//	    return bean, nil
//	}))
//
// A post-processor that wraps beans should also implement
// EarlyReferencePostProcessor; otherwise a wrapped singleton that was already
// handed out early fails with a "raw version" BeanCurrentlyInCreationError.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(c *container.Container) error {
//	    return container.Define[Mailer]().Register(c, "mailer")
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(ctx, &AppServiceProvider{})
//	registry.Boot(ctx)
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(c *container.Container) error {
//	    return container.Define[Heavy]().Register(c, "heavy") // only on first GetBean("heavy")
//	}
package container
