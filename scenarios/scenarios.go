// Package scenarios walks a container through the bean lifecycle: manual
// creation with a substituting post-processor, lookup by type, and circular
// references between singletons and through a prototype.
package scenarios

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/container"
)

const (
	MyServiceName = "myService"
	ServiceBName  = "serviceB"
	LoggerName    = "logger"

	// DefaultID is the identifier every scenario assigns, as a string so it
	// goes through property conversion.
	DefaultID = "12345"
)

// Options carries the ambient stack into each scenario's container.
type Options struct {
	Logger *zap.Logger
	Tracer trace.Tracer
}

// Result is what a scenario observed.
type Result struct {
	Scenario string
	Bean     any
	// Err is the container error a scenario expects, e.g. for an unresolvable cycle.
	Err        error
	Singletons []string
	Elapsed    time.Duration
}

// Scenario is one named lifecycle walk-through.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, o Options) (*Result, error)
}

// All returns every scenario in execution order.
func All() []Scenario {
	return []Scenario{
		{
			Name:        "create-bean",
			Description: "instantiate, populate and initialize a bean by hand, then put it in the singleton pool",
			Run:         CreateBean,
		},
		{
			Name:        "get-bean",
			Description: "register a definition and let the container create the bean on lookup by type",
			Run:         GetBean,
		},
		{
			Name:        "singleton-circular",
			Description: "two singletons referencing each other resolve through early references",
			Run:         SingletonCircularReferences,
		},
		{
			Name:        "prototype-circular",
			Description: "a cycle through a prototype cannot be resolved",
			Run:         PrototypeCircularReferences,
		},
	}
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, bool) {
	i := slices.IndexFunc(All(), func(s Scenario) bool { return s.Name == name })
	if i < 0 {
		return Scenario{}, false
	}
	return All()[i], true
}

// Names returns scenario names in execution order.
func Names() []string {
	var out []string
	for _, s := range All() {
		out = append(out, s.Name)
	}
	return out
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) newContainer(opts ...container.Option) *container.Container {
	c := container.New(append([]container.Option{
		container.WithLogger(o.logger()),
		container.WithTracer(o.Tracer),
	}, opts...)...)
	c.AddSingleton(LoggerName, o.logger())
	return c
}

// myServiceDefinition is MyService with its id and logger set.
func myServiceDefinition() *container.Builder {
	return container.Define[MyService]().
		Property("id", DefaultID).
		Ref("logger", LoggerName)
}

// RegisterCycle registers myService and serviceB referencing each other.
// Only myService takes scope; serviceB is always a singleton.
func RegisterCycle(c *container.Container, scope container.Scope) error {
	if err := myServiceDefinition().Scope(scope).Ref("serviceB", ServiceBName).Register(c, MyServiceName); err != nil {
		return err
	}
	return container.Define[ServiceB]().Ref("myService", MyServiceName).Register(c, ServiceBName)
}

func finish(name string, c *container.Container, bean any, start time.Time) *Result {
	return &Result{
		Scenario:   name,
		Bean:       bean,
		Singletons: c.Registry().SingletonNames(),
		Elapsed:    time.Since(start),
	}
}

// CreateBean creates MyService by hand. A post-processor swaps it for a
// MyServiceProxy before initialization, and the proxy is then added to the
// singleton pool directly and through the factory form of GetSingleton.
func CreateBean(ctx context.Context, o Options) (*Result, error) {
	start := time.Now()
	log := o.logger()
	c := o.newContainer()

	c.AddPostProcessor(container.BeforeInitFunc(func(bean any, _ string) (any, error) {
		if svc, ok := bean.(*MyService); ok {
			return &MyServiceProxy{MyService: svc}, nil
		}
		return bean, nil
	}))

	bean, err := c.DoCreateBean(ctx, MyServiceName, myServiceDefinition().Definition(), nil)
	if err != nil {
		return nil, err
	}

	c.AddSingleton(MyServiceName, bean)
	pooled, err := c.GetSingletonOrCreate(MyServiceName, func() (any, error) { return bean, nil })
	if err != nil {
		return nil, err
	}
	if pooled != bean {
		return nil, fmt.Errorf("singleton pool returned %v, want %v", pooled, bean)
	}

	log.Info("created bean and added it to the singleton pool", zap.Stringer("bean", bean.(fmt.Stringer)))
	return finish("create-bean", c, bean, start), nil
}

// GetBean registers a MyService definition and looks it up by type.
func GetBean(ctx context.Context, o Options) (*Result, error) {
	start := time.Now()
	c := o.newContainer()

	if err := myServiceDefinition().Register(c, MyServiceName); err != nil {
		return nil, err
	}
	bean, err := container.GetBeanOfType[*MyService](ctx, c)
	if err != nil {
		return nil, err
	}

	o.logger().Info("got bean", zap.Stringer("bean", bean))
	return finish("get-bean", c, bean, start), nil
}

// SingletonCircularReferences resolves a myService ↔ serviceB cycle between
// singletons.
func SingletonCircularReferences(ctx context.Context, o Options) (*Result, error) {
	start := time.Now()
	c := o.newContainer()

	if err := RegisterCycle(c, container.ScopeSingleton); err != nil {
		return nil, err
	}
	bean, err := container.GetBeanOfType[*MyService](ctx, c)
	if err != nil {
		return nil, err
	}
	if bean.ServiceB == nil || bean.ServiceB.MyService != Service(bean) {
		return nil, errors.New("serviceB does not point back at myService")
	}

	o.logger().Info("got bean", zap.Stringer("bean", bean), zap.Stringer("serviceB", bean.ServiceB))
	return finish("singleton-circular", c, bean, start), nil
}

// PrototypeCircularReferences makes myService a prototype. Looking it up
// must fail: a prototype cannot be handed out before it is complete.
func PrototypeCircularReferences(ctx context.Context, o Options) (*Result, error) {
	start := time.Now()
	c := o.newContainer()

	if err := RegisterCycle(c, container.ScopePrototype); err != nil {
		return nil, err
	}
	bean, err := container.GetBeanOfType[*MyService](ctx, c)
	if err == nil {
		return nil, fmt.Errorf("expected prototype cycle to fail, got %v", bean)
	}
	if !errors.Is(err, container.ErrCurrentlyInCreation) {
		return nil, err
	}

	o.logger().Info("prototype cycle rejected", zap.Error(err))
	res := finish("prototype-circular", c, nil, start)
	res.Err = err
	return res, nil
}
