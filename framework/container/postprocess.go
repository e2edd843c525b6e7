package container

import (
	"reflect"
	"slices"
)

// PostProcessor intercepts every bean around its initialization callbacks.
// Either hook may return a different object (a proxy, a decorator) which then
// replaces the bean. Returning nil stops the chain and keeps the current bean.
type PostProcessor interface {
	PostProcessBeforeInitialization(bean any, name string) (any, error)
	PostProcessAfterInitialization(bean any, name string) (any, error)
}

// EarlyReferencePostProcessor decides what a collaborator receives when it
// references a singleton that is still being created. Implementations that
// wrap beans after initialization should wrap here too, otherwise the
// container reports that a raw version was injected.
type EarlyReferencePostProcessor interface {
	EarlyBeanReference(bean any, name string) (any, error)
}

// InstantiationPostProcessor hooks around instantiation and population.
type InstantiationPostProcessor interface {
	// PostProcessBeforeInstantiation may return a non-nil object to skip the
	// default creation entirely.
	PostProcessBeforeInstantiation(beanType reflect.Type, name string) (any, error)

	// PostProcessAfterInstantiation returns false to skip property population.
	PostProcessAfterInstantiation(bean any, name string) (bool, error)

	// PostProcessProperties may rewrite the values about to be applied.
	PostProcessProperties(pvs *PropertyValues, bean any, name string) (*PropertyValues, error)
}

// DestructionPostProcessor runs before a singleton's own destroy callbacks.
type DestructionPostProcessor interface {
	PostProcessBeforeDestruction(bean any, name string) error
}

// BeforeInitFunc adapts a function to a PostProcessor acting before init.
//
//	c.AddPostProcessor(container.BeforeInitFunc(func(bean any, name string) (any, error) {
//	    if svc, ok := bean.(*MyService); ok {
//	        return &MyServiceProxy{MyService: svc}, nil
//	    }
//	    return bean, nil
//	}))
type BeforeInitFunc func(bean any, name string) (any, error)

func (f BeforeInitFunc) PostProcessBeforeInitialization(bean any, name string) (any, error) {
	return f(bean, name)
}

func (f BeforeInitFunc) PostProcessAfterInitialization(bean any, _ string) (any, error) {
	return bean, nil
}

// AfterInitFunc adapts a function to a PostProcessor acting after init.
type AfterInitFunc func(bean any, name string) (any, error)

func (f AfterInitFunc) PostProcessBeforeInitialization(bean any, _ string) (any, error) {
	return bean, nil
}

func (f AfterInitFunc) PostProcessAfterInitialization(bean any, name string) (any, error) {
	return f(bean, name)
}

// Extender decorates one named bean after initialization.
type Extender func(bean any, c *Container) any

// extenders applies name-scoped decorators registered through Container.Extend.
type extenders struct {
	c     *Container
	byKey map[string][]Extender
}

func (e *extenders) PostProcessBeforeInitialization(bean any, _ string) (any, error) {
	return bean, nil
}

func (e *extenders) PostProcessAfterInitialization(bean any, name string) (any, error) {
	e.c.ppMu.RLock()
	fns := slices.Clone(e.byKey[name])
	e.c.ppMu.RUnlock()
	for _, ext := range fns {
		bean = ext(bean, e.c)
	}
	return bean, nil
}

// NopPostProcessor passes every bean through unchanged. Embed it to implement
// only the hooks you need.
type NopPostProcessor struct{}

func (NopPostProcessor) PostProcessBeforeInitialization(bean any, _ string) (any, error) {
	return bean, nil
}

func (NopPostProcessor) PostProcessAfterInitialization(bean any, _ string) (any, error) {
	return bean, nil
}
