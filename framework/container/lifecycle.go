package container

import (
	"fmt"
	"reflect"
)

// InitializingBean is invoked once after all properties have been populated.
type InitializingBean interface {
	AfterPropertiesSet() error
}

// DisposableBean is invoked when the container destroys a singleton.
type DisposableBean interface {
	Destroy() error
}

// BeanNameAware receives the name the bean is registered under, before
// post-processors run.
type BeanNameAware interface {
	SetBeanName(name string)
}

// ContainerAware receives the owning container, before post-processors run.
type ContainerAware interface {
	SetContainer(c *Container)
}

// SmartInitializingSingleton is called after PreInstantiateSingletons has
// created every non-lazy singleton.
type SmartInitializingSingleton interface {
	AfterSingletonsInstantiated()
}

// invokeMethod calls a no-arg method by name. The method may return nothing or
// a single error.
func invokeMethod(bean any, method string) error {
	m := reflect.ValueOf(bean).MethodByName(method)
	if !m.IsValid() {
		return fmt.Errorf("%w: method %q not found on %T", ErrInvalidDefinition, method, bean)
	}
	mt := m.Type()
	if mt.NumIn() != 0 {
		return fmt.Errorf("%w: method %q on %T must take no arguments", ErrInvalidDefinition, method, bean)
	}
	out := m.Call(nil)
	if len(out) > 0 && out[len(out)-1].Type() == errorType && !out[len(out)-1].IsNil() {
		return out[len(out)-1].Interface().(error)
	}
	return nil
}

// disposableAdapter runs every destruction step for one singleton.
type disposableAdapter struct {
	name          string
	bean          any
	destroyMethod string
	processors    []DestructionPostProcessor
}

func (d *disposableAdapter) Destroy() error {
	for _, p := range d.processors {
		if err := p.PostProcessBeforeDestruction(d.bean, d.name); err != nil {
			return err
		}
	}
	if db, ok := d.bean.(DisposableBean); ok {
		if err := db.Destroy(); err != nil {
			return err
		}
		if d.destroyMethod == "Destroy" {
			return nil
		}
	}
	if d.destroyMethod != "" {
		return invokeMethod(d.bean, d.destroyMethod)
	}
	return nil
}
