package container_test

import (
	"context"
	"reflect"

	"github.com/km-arc/go-beans/framework/container"
)

// ── stub beans ────────────────────────────────────────────────────────────────

type Greeter interface {
	Greet() string
}

type service struct {
	ID    int
	Name  string
	Peer  *peer
	inits int
}

func (s *service) Greet() string { return "service:" + s.Name }

func (s *service) AfterPropertiesSet() error {
	s.inits++
	return nil
}

// serviceProxy stands in for a bean wrapped by a post-processor.
type serviceProxy struct {
	*service
}

func (p *serviceProxy) Greet() string { return "proxy:" + p.service.Greet() }

type peer struct {
	Service Greeter
}

type named struct {
	beanName string
	c        *container.Container
}

func (n *named) SetBeanName(name string)              { n.beanName = name }
func (n *named) SetContainer(c *container.Container) { n.c = c }

// resource records lifecycle events into a shared log.
type resource struct {
	Name string
	Next *resource
	log  *[]string
}

func (r *resource) Start() { *r.log = append(*r.log, "start:"+r.Name) }

func (r *resource) Close() error {
	*r.log = append(*r.log, "close:"+r.Name)
	return nil
}

type disposable struct {
	destroyed int
}

func (d *disposable) Destroy() error {
	d.destroyed++
	return nil
}

type starter struct {
	started bool
}

func (s *starter) AfterSingletonsInstantiated() { s.started = true }

func newResource(log *[]string) container.Supplier {
	return func(context.Context, *container.Container) (any, error) {
		return &resource{log: log}, nil
	}
}

// ── stub post-processors ─────────────────────────────────────────────────────

// proxyingPostProcessor wraps *service beans before initialization.
func proxyingPostProcessor() container.PostProcessor {
	return container.BeforeInitFunc(func(bean any, _ string) (any, error) {
		if svc, ok := bean.(*service); ok {
			return &serviceProxy{service: svc}, nil
		}
		return bean, nil
	})
}

// earlyProxyCreator wraps *service beans and hands out the same proxy when a
// collaborator asks for an early reference.
type earlyProxyCreator struct {
	container.NopPostProcessor
	early map[string]any
}

func newEarlyProxyCreator() *earlyProxyCreator {
	return &earlyProxyCreator{early: make(map[string]any)}
}

func (p *earlyProxyCreator) EarlyBeanReference(bean any, name string) (any, error) {
	if svc, ok := bean.(*service); ok {
		proxy := &serviceProxy{service: svc}
		p.early[name] = proxy
		return proxy, nil
	}
	return bean, nil
}

func (p *earlyProxyCreator) PostProcessAfterInitialization(bean any, name string) (any, error) {
	if _, ok := p.early[name]; ok {
		return bean, nil
	}
	if svc, ok := bean.(*service); ok {
		return &serviceProxy{service: svc}, nil
	}
	return bean, nil
}

// instantiationHook short-circuits or vetoes population per bean name.
type instantiationHook struct {
	container.NopPostProcessor
	replace map[string]any
	veto    map[string]bool
	extra   map[string]*container.PropertyValues
}

func (h *instantiationHook) PostProcessBeforeInstantiation(_ reflect.Type, name string) (any, error) {
	return h.replace[name], nil
}

func (h *instantiationHook) PostProcessAfterInstantiation(_ any, name string) (bool, error) {
	return !h.veto[name], nil
}

func (h *instantiationHook) PostProcessProperties(pvs *container.PropertyValues, _ any, name string) (*container.PropertyValues, error) {
	if extra, ok := h.extra[name]; ok {
		out := pvs.Clone()
		for _, pv := range extra.All() {
			out.Add(pv.Name, pv.Value)
		}
		return out, nil
	}
	return pvs, nil
}

type destructionRecorder struct {
	container.NopPostProcessor
	seen []string
}

func (d *destructionRecorder) PostProcessBeforeDestruction(_ any, name string) error {
	d.seen = append(d.seen, name)
	return nil
}
