package container

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// SelfName is the singleton name the container registers itself under.
const SelfName = "container"

// Container is a named-bean factory: it holds bean definitions, creates beans
// on demand, keeps singletons in a SingletonRegistry and runs every bean
// through the post-processor pipeline.
//
// Creation is serialised per container. Lookups made from suppliers,
// constructors or deferred providers while a bean is being created must use
// the ctx they were handed; it carries the in-progress creation state.
type Container struct {
	registry *SingletonRegistry

	defMu           sync.RWMutex
	definitions     map[string]*Definition
	definitionNames []string
	aliases         map[string]string
	missing         MissingDefinitionHandler

	ppMu           sync.RWMutex
	postProcessors []PostProcessor
	ext            *extenders

	// reflect.Type identity → []string bean names
	typeCache *gocache.Cache

	creation chan struct{}

	logger *zap.Logger
	tracer trace.Tracer

	allowCircularReferences   bool
	allowDefinitionOverriding bool
	allowRawInjection         bool
	frozen                    atomic.Bool
}

// MissingDefinitionHandler is consulted when a name has no definition. It
// returns true if it registered one, in which case the lookup is retried.
type MissingDefinitionHandler func(ctx context.Context, name string) (bool, error)

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for creation and destruction events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the tracer that records one span per bean creation.
func WithTracer(t trace.Tracer) Option {
	return func(c *Container) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithCircularReferences toggles early exposure of singletons in creation.
// Enabled by default.
func WithCircularReferences(allow bool) Option {
	return func(c *Container) { c.allowCircularReferences = allow }
}

// WithDefinitionOverriding allows registering a name twice; the later
// definition wins and any existing singleton is destroyed.
func WithDefinitionOverriding(allow bool) Option {
	return func(c *Container) { c.allowDefinitionOverriding = allow }
}

// WithRawInjection allows a singleton to be wrapped after its raw early
// reference has already been injected into a collaborator.
func WithRawInjection(allow bool) Option {
	return func(c *Container) { c.allowRawInjection = allow }
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		registry:                NewSingletonRegistry(),
		definitions:             make(map[string]*Definition),
		aliases:                 make(map[string]string),
		typeCache:               gocache.New(gocache.NoExpiration, 0),
		creation:                make(chan struct{}, 1),
		logger:                  zap.NewNop(),
		tracer:                  noop.NewTracerProvider().Tracer(""),
		allowCircularReferences: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ext = &extenders{c: c, byKey: make(map[string][]Extender)}
	c.postProcessors = []PostProcessor{c.ext}
	c.registry.onSingletonAdded = func(string) { c.typeCache.Flush() }
	c.registry.onSingletonRemoved = func(string) { c.typeCache.Flush() }

	// The container is resolvable like any other singleton.
	c.registry.AddSingleton(SelfName, c)
	return c
}

// Registry returns the underlying singleton pool.
func (c *Container) Registry() *SingletonRegistry { return c.registry }

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// Tracer returns the tracer used for bean creation spans.
func (c *Container) Tracer() trace.Tracer { return c.tracer }

// IsConfigurationFrozen reports whether PreInstantiateSingletons has run.
// Definitions registered afterwards still work but are created lazily.
func (c *Container) IsConfigurationFrozen() bool { return c.frozen.Load() }

// SetMissingDefinitionHandler installs the fallback used for unknown names.
func (c *Container) SetMissingDefinitionHandler(h MissingDefinitionHandler) {
	c.defMu.Lock()
	defer c.defMu.Unlock()
	c.missing = h
}

// ── Creation state ───────────────────────────────────────────────────────────

type creationKey struct{ c *Container }

// creationState is the per-lookup state shared by nested lookups. It plays the
// role a thread-local would: it tracks prototypes in creation on this path.
type creationState struct {
	prototypes map[string]int
}

// enter acquires the creation lock unless ctx already holds it.
func (c *Container) enter(ctx context.Context) (context.Context, *creationState, func(), error) {
	if st, ok := ctx.Value(creationKey{c}).(*creationState); ok {
		return ctx, st, func() {}, nil
	}
	select {
	case c.creation <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, nil, ctx.Err()
	}
	st := &creationState{prototypes: make(map[string]int)}
	return context.WithValue(ctx, creationKey{c}, st), st, func() { <-c.creation }, nil
}

// ── Registration ─────────────────────────────────────────────────────────────

// RegisterBeanDefinition registers def under name.
//
//	def := container.DefinitionFor[MyService]()
//	def.Properties.Add("id", "12345")
//	err := c.RegisterBeanDefinition("myService", def)
func (c *Container) RegisterBeanDefinition(name string, def *Definition) error {
	if name == "" {
		return ErrInvalidName
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("bean %q: %w", name, err)
	}

	c.defMu.Lock()
	if target, ok := c.aliases[name]; ok {
		if !c.allowDefinitionOverriding {
			c.defMu.Unlock()
			return fmt.Errorf("%w: %q is already an alias for %q", ErrDefinitionOverride, name, target)
		}
		delete(c.aliases, name)
	}
	old, exists := c.definitions[name]
	if exists && !c.allowDefinitionOverriding {
		c.defMu.Unlock()
		return fmt.Errorf("%w: cannot register bean definition [%s] for bean %q: there is already [%s] bound",
			ErrDefinitionOverride, describe(def), name, describe(old))
	}
	c.definitions[name] = def
	if !exists {
		c.definitionNames = append(c.definitionNames, name)
	}
	c.defMu.Unlock()

	c.typeCache.Flush()
	if exists || c.registry.ContainsSingleton(name) {
		if err := c.registry.DestroySingleton(name); err != nil {
			c.logger.Warn("destroying overridden singleton failed", zap.String("bean", name), zap.Error(err))
		}
	}
	c.logger.Debug("registered bean definition",
		zap.String("bean", name), zap.String("scope", string(def.Clone().Scope)), zap.Bool("override", exists))
	return nil
}

// RemoveBeanDefinition removes name's definition and destroys its singleton.
func (c *Container) RemoveBeanDefinition(name string) error {
	c.defMu.Lock()
	if _, ok := c.definitions[name]; !ok {
		c.defMu.Unlock()
		return &NoSuchBeanDefinitionError{Name: name}
	}
	delete(c.definitions, name)
	c.definitionNames = slices.DeleteFunc(c.definitionNames, func(n string) bool { return n == name })
	c.defMu.Unlock()

	c.typeCache.Flush()
	return c.registry.DestroySingleton(name)
}

// RegisterAlias makes alias resolve to name.
func (c *Container) RegisterAlias(name, alias string) error {
	if name == "" || alias == "" {
		return ErrInvalidName
	}
	if name == alias {
		return fmt.Errorf("%w: %q is aliased to itself", ErrCircularAlias, name)
	}
	c.defMu.Lock()
	defer c.defMu.Unlock()
	if _, ok := c.definitions[alias]; ok && !c.allowDefinitionOverriding {
		return fmt.Errorf("%w: alias %q collides with a bean definition", ErrDefinitionOverride, alias)
	}
	if c.canonicalLocked(name) == alias {
		return fmt.Errorf("%w: cannot register alias %q for name %q: %q already refers to %q",
			ErrCircularAlias, alias, name, name, alias)
	}
	c.aliases[alias] = name
	return nil
}

// Aliases returns every alias that resolves to name, sorted.
func (c *Container) Aliases(name string) []string {
	c.defMu.RLock()
	defer c.defMu.RUnlock()
	var out []string
	for alias := range c.aliases {
		if alias != name && c.canonicalLocked(alias) == name {
			out = append(out, alias)
		}
	}
	slices.Sort(out)
	return out
}

// CanonicalName resolves aliases to the name they point at.
func (c *Container) CanonicalName(name string) string {
	c.defMu.RLock()
	defer c.defMu.RUnlock()
	return c.canonicalLocked(name)
}

func (c *Container) canonicalLocked(name string) string {
	for range len(c.aliases) + 1 {
		target, ok := c.aliases[name]
		if !ok {
			break
		}
		name = target
	}
	return name
}

// AddPostProcessor appends p to the pipeline. Post-processors apply to beans
// created after registration only.
func (c *Container) AddPostProcessor(p PostProcessor) {
	c.ppMu.Lock()
	defer c.ppMu.Unlock()
	c.postProcessors = append(c.postProcessors, p)
}

// PostProcessorCount returns the number of user post-processors.
func (c *Container) PostProcessorCount() int {
	c.ppMu.RLock()
	defer c.ppMu.RUnlock()
	return len(c.postProcessors) - 1
}

// Extend decorates the named bean after initialization. An already created
// singleton is decorated immediately while holding the creation lock, so
// Extend must not be called from inside a bean creation and fn must not look
// up beans when decorating a pooled singleton.
//
//	c.Extend("logger", func(bean any, c *container.Container) any {
//	    return &TimestampLogger{Inner: bean.(*Logger)}
//	})
func (c *Container) Extend(name string, fn Extender) {
	key := c.CanonicalName(name)
	c.ppMu.Lock()
	c.ext.byKey[key] = append(c.ext.byKey[key], fn)
	c.ppMu.Unlock()

	c.creation <- struct{}{}
	defer func() { <-c.creation }()
	if obj, ok := c.registry.Singleton(key); ok {
		c.registry.AddSingleton(key, fn(obj, c))
	}
}

func (c *Container) processors() []PostProcessor {
	c.ppMu.RLock()
	defer c.ppMu.RUnlock()
	return slices.Clone(c.postProcessors)
}

func (c *Container) instantiationProcessors() []InstantiationPostProcessor {
	var out []InstantiationPostProcessor
	for _, p := range c.processors() {
		if ip, ok := p.(InstantiationPostProcessor); ok {
			out = append(out, ip)
		}
	}
	return out
}

func (c *Container) destructionProcessors() []DestructionPostProcessor {
	var out []DestructionPostProcessor
	for _, p := range c.processors() {
		if dp, ok := p.(DestructionPostProcessor); ok {
			out = append(out, dp)
		}
	}
	return out
}

// ── Singleton registry passthrough ───────────────────────────────────────────

// AddSingleton puts obj into the singleton pool under name.
func (c *Container) AddSingleton(name string, obj any) { c.registry.AddSingleton(name, obj) }

// RegisterSingleton puts obj into the pool, failing if name is taken.
func (c *Container) RegisterSingleton(name string, obj any) error {
	return c.registry.RegisterSingleton(name, obj)
}

// GetSingleton returns the pooled singleton for name, or nil.
func (c *Container) GetSingleton(name string) (any, error) {
	return c.registry.GetSingleton(c.CanonicalName(name))
}

// GetSingletonOrCreate returns the pooled singleton for name, creating and
// pooling it with factory if absent.
func (c *Container) GetSingletonOrCreate(name string, factory ObjectFactory) (any, error) {
	return c.registry.GetSingletonOrCreate(c.CanonicalName(name), factory)
}

// ContainsSingleton reports whether name resolves to a fully initialised
// pooled singleton.
func (c *Container) ContainsSingleton(name string) bool {
	return c.registry.ContainsSingleton(c.CanonicalName(name))
}

// DestroySingletons destroys every singleton and empties the pool.
func (c *Container) DestroySingletons() error {
	c.logger.Debug("destroying singletons", zap.Int("count", c.registry.SingletonCount()))
	err := c.registry.DestroySingletons()
	c.registry.AddSingleton(SelfName, c)
	return err
}

// ── Queries ──────────────────────────────────────────────────────────────────

// ContainsBean reports whether name (or an alias of it) has a definition or a
// pooled singleton.
func (c *Container) ContainsBean(name string) bool {
	name = c.CanonicalName(name)
	return c.ContainsBeanDefinition(name) || c.registry.ContainsSingleton(name)
}

// ContainsBeanDefinition reports whether a definition is registered under
// the canonical name.
func (c *Container) ContainsBeanDefinition(name string) bool {
	c.defMu.RLock()
	defer c.defMu.RUnlock()
	_, ok := c.definitions[name]
	return ok
}

// BeanDefinitionNames returns definition names in registration order.
func (c *Container) BeanDefinitionNames() []string {
	c.defMu.RLock()
	defer c.defMu.RUnlock()
	return slices.Clone(c.definitionNames)
}

// BeanDefinition returns a copy of the definition registered under name.
func (c *Container) BeanDefinition(name string) (*Definition, error) {
	name = c.CanonicalName(name)
	c.defMu.RLock()
	defer c.defMu.RUnlock()
	def, ok := c.definitions[name]
	if !ok {
		return nil, &NoSuchBeanDefinitionError{Name: name}
	}
	return def.Clone(), nil
}

// IsSingleton reports whether name is a singleton. Manually pooled objects
// count as singletons.
func (c *Container) IsSingleton(name string) (bool, error) {
	name = c.CanonicalName(name)
	if def, err := c.BeanDefinition(name); err == nil {
		return def.IsSingleton(), nil
	}
	if c.registry.ContainsSingleton(name) {
		return true, nil
	}
	return false, &NoSuchBeanDefinitionError{Name: name}
}

// IsPrototype reports whether name is defined with prototype scope.
func (c *Container) IsPrototype(name string) (bool, error) {
	def, err := c.BeanDefinition(name)
	if err != nil {
		if c.registry.ContainsSingleton(c.CanonicalName(name)) {
			return false, nil
		}
		return false, err
	}
	return def.IsPrototype(), nil
}

// GetBeanNamesForType returns the names of beans assignable to t: pooled
// singletons by their actual type, everything else by predicted type.
func (c *Container) GetBeanNamesForType(t reflect.Type) []string {
	key := fmt.Sprintf("%p", t)
	if cached, ok := c.typeCache.Get(key); ok {
		return slices.Clone(cached.([]string))
	}

	var names []string
	defNames := c.BeanDefinitionNames()
	for _, n := range defNames {
		if obj, ok := c.registry.Singleton(n); ok {
			if reflect.TypeOf(obj).AssignableTo(t) {
				names = append(names, n)
			}
			continue
		}
		def, err := c.BeanDefinition(n)
		if err != nil {
			continue
		}
		if bt := def.BeanType(); bt != nil && bt.AssignableTo(t) {
			names = append(names, n)
		}
	}
	for _, n := range c.registry.SingletonNames() {
		if slices.Contains(defNames, n) {
			continue
		}
		if obj, ok := c.registry.Singleton(n); ok && reflect.TypeOf(obj).AssignableTo(t) {
			names = append(names, n)
		}
	}

	c.typeCache.Set(key, slices.Clone(names), gocache.NoExpiration)
	return names
}

// ── Lookup ───────────────────────────────────────────────────────────────────

// GetBean returns the bean registered under name, creating it if needed.
func (c *Container) GetBean(ctx context.Context, name string) (any, error) {
	return c.getBean(ctx, name, nil, nil)
}

// GetBeanWithArgs creates the bean with explicit constructor arguments. Args
// only apply to constructor definitions; a pooled singleton is never rebuilt.
func (c *Container) GetBeanWithArgs(ctx context.Context, name string, args ...any) (any, error) {
	return c.getBean(ctx, name, nil, args)
}

func (c *Container) getBean(ctx context.Context, name string, required reflect.Type, args []any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = c.CanonicalName(name)
	if len(args) == 0 {
		if obj, ok := c.registry.Singleton(name); ok {
			return checkType(name, obj, required)
		}
	}

	ctx, st, release, err := c.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return c.doGetBean(ctx, st, name, required, args)
}

func (c *Container) doGetBean(ctx context.Context, st *creationState, name string, required reflect.Type, args []any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		shared, err := c.registry.GetSingleton(name)
		if err != nil {
			return nil, creationError(name, "early reference failed", err)
		}
		if shared != nil {
			if c.registry.IsCurrentlyInCreation(name) {
				c.logger.Debug("returning eagerly cached instance of singleton bean that is not fully initialized yet",
					zap.String("bean", name))
			}
			return checkType(name, shared, required)
		}
	}

	if st.prototypes[name] > 0 {
		return nil, &BeanCurrentlyInCreationError{Name: name}
	}

	def, err := c.mergedDefinition(ctx, name)
	if err != nil {
		return nil, err
	}

	for _, dep := range def.DependsOn {
		dep = c.CanonicalName(dep)
		if c.registry.IsDependent(name, dep) {
			return nil, creationError(name,
				fmt.Sprintf("circular depends-on relationship between %q and %q", name, dep), nil)
		}
		c.registry.RegisterDependentBean(dep, name)
		if _, err := c.doGetBean(ctx, st, dep, nil, nil); err != nil {
			return nil, creationError(name, fmt.Sprintf("%q depends on bean %q", name, dep), err)
		}
	}

	var bean any
	if def.IsSingleton() {
		bean, err = c.registry.GetSingletonOrCreate(name, func() (any, error) {
			return c.createBean(ctx, st, name, def, args)
		})
		if err != nil {
			if !c.registry.IsCurrentlyInCreation(name) {
				_ = c.registry.DestroySingleton(name)
			}
			return nil, err
		}
	} else {
		st.prototypes[name]++
		bean, err = c.createBean(ctx, st, name, def, args)
		if st.prototypes[name]--; st.prototypes[name] == 0 {
			delete(st.prototypes, name)
		}
		if err != nil {
			return nil, err
		}
	}
	return checkType(name, bean, required)
}

func (c *Container) mergedDefinition(ctx context.Context, name string) (*Definition, error) {
	c.defMu.RLock()
	def, ok := c.definitions[name]
	missing := c.missing
	c.defMu.RUnlock()
	if ok {
		return def.Clone(), nil
	}
	if missing != nil {
		registered, err := missing(ctx, name)
		if err != nil {
			return nil, creationError(name, "registering deferred definition failed", err)
		}
		if registered {
			c.defMu.RLock()
			def, ok = c.definitions[name]
			c.defMu.RUnlock()
			if ok {
				return def.Clone(), nil
			}
		}
	}
	return nil, &NoSuchBeanDefinitionError{Name: name}
}

func checkType(name string, bean any, required reflect.Type) (any, error) {
	if required == nil {
		return bean, nil
	}
	if actual := reflect.TypeOf(bean); actual == nil || !actual.AssignableTo(required) {
		return nil, &BeanNotOfRequiredTypeError{Name: name, Required: required, Actual: actual}
	}
	return bean, nil
}

// ── Creation ─────────────────────────────────────────────────────────────────

// DoCreateBean creates a bean from def without registering the definition or
// pooling the result: instantiate, populate, initialize. The returned object
// is whatever the post-processors exposed.
func (c *Container) DoCreateBean(ctx context.Context, name string, def *Definition, args []any) (any, error) {
	if err := def.Validate(); err != nil {
		return nil, creationError(name, "", err)
	}
	ctx, st, release, err := c.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return c.doCreateBean(ctx, st, name, def.Clone(), args)
}

func (c *Container) createBean(ctx context.Context, st *creationState, name string, def *Definition, args []any) (bean any, err error) {
	ctx, span := c.tracer.Start(ctx, "beans.create", trace.WithAttributes(
		attribute.String("bean.name", name),
		attribute.String("bean.scope", string(def.Scope)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	c.logger.Debug("creating instance of bean", zap.String("bean", name), zap.String("scope", string(def.Scope)))

	bean, err = c.resolveBeforeInstantiation(name, def)
	if err != nil {
		return nil, creationError(name, "post-processor before instantiation of bean failed", err)
	}
	if bean != nil {
		return bean, nil
	}
	return c.doCreateBean(ctx, st, name, def, args)
}

func (c *Container) resolveBeforeInstantiation(name string, def *Definition) (any, error) {
	ips := c.instantiationProcessors()
	if len(ips) == 0 {
		return nil, nil
	}
	bt := def.BeanType()
	for _, ip := range ips {
		obj, err := ip.PostProcessBeforeInstantiation(bt, name)
		if err != nil {
			return nil, err
		}
		if obj != nil {
			return c.applyAfterInitialization(obj, name)
		}
	}
	return nil, nil
}

func (c *Container) doCreateBean(ctx context.Context, st *creationState, name string, def *Definition, args []any) (exposed any, err error) {
	defer func() {
		if r := recover(); r != nil {
			exposed, err = nil, creationError(name, fmt.Sprintf("panic during creation: %v", r), nil)
		}
	}()

	instance, err := c.createBeanInstance(ctx, st, name, def, args)
	if err != nil {
		return nil, wrapCreation(name, "instantiation of bean failed", err)
	}

	earlyExposure := def.IsSingleton() && c.allowCircularReferences && c.registry.IsCurrentlyInCreation(name)
	if earlyExposure {
		c.logger.Debug("eagerly caching bean to allow for resolving potential circular references",
			zap.String("bean", name))
		c.registry.AddSingletonFactory(name, func() (any, error) {
			return c.earlyBeanReference(name, instance)
		})
	}

	if err := c.populateBean(ctx, st, name, def, instance); err != nil {
		return nil, wrapCreation(name, "populating bean properties failed", err)
	}
	exposed, err = c.initializeBean(name, instance, def)
	if err != nil {
		return nil, wrapCreation(name, "initialization of bean failed", err)
	}

	if earlyExposure {
		earlyRef, err := c.registry.getSingleton(name, false)
		if err != nil {
			return nil, wrapCreation(name, "early reference failed", err)
		}
		if earlyRef != nil {
			if sameInstance(exposed, instance) {
				exposed = earlyRef
			} else if !c.allowRawInjection && c.registry.HasDependentBean(name) {
				return nil, &BeanCurrentlyInCreationError{Name: name, Msg: fmt.Sprintf(
					"Bean with name %q has been injected into other beans [%s] in its raw version as part of a "+
						"circular reference, but has eventually been wrapped. This means that said other beans "+
						"do not use the final version of the bean.",
					name, strings.Join(c.registry.DependentBeans(name), ","))}
			}
		}
	}

	if def.IsSingleton() && c.registry.IsCurrentlyInCreation(name) {
		c.registerDisposableIfNecessary(name, exposed, def)
	}
	return exposed, nil
}

func (c *Container) createBeanInstance(ctx context.Context, st *creationState, name string, def *Definition, args []any) (any, error) {
	switch {
	case def.Supplier != nil:
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: explicit arguments require a constructor definition", ErrInvalidDefinition)
		}
		obj, err := def.Supplier(ctx, c)
		if err != nil {
			return nil, err
		}
		if isNilValue(reflect.ValueOf(obj)) {
			return nil, fmt.Errorf("%w: supplier returned nil", ErrInvalidDefinition)
		}
		return obj, nil

	case def.Constructor != nil:
		return c.construct(ctx, st, name, def, args)

	default:
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: explicit arguments require a constructor definition", ErrInvalidDefinition)
		}
		return reflect.New(def.Type).Interface(), nil
	}
}

// construct calls the definition's constructor with resolved arguments.
// Constructor cycles cannot be broken because no instance exists yet.
func (c *Container) construct(ctx context.Context, st *creationState, name string, def *Definition, args []any) (any, error) {
	fn := reflect.ValueOf(def.Constructor)
	ft := fn.Type()
	if len(args) == 0 {
		args = def.ConstructorArgs
	}
	if !ft.IsVariadic() && len(args) != ft.NumIn() {
		return nil, fmt.Errorf("%w: constructor %s takes %d args, got %d", ErrInvalidDefinition, ft, ft.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		label := fmt.Sprintf("constructor argument with index %d", i)
		resolved, err := c.resolveValue(ctx, st, name, label, a)
		if err != nil {
			return nil, err
		}
		pt := paramType(ft, i)
		v, err := convertValue(label, resolved, pt)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}

	out := fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	obj := out[0]
	if isNilValue(obj) {
		return nil, fmt.Errorf("%w: constructor returned nil", ErrInvalidDefinition)
	}
	return obj.Interface(), nil
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func (c *Container) earlyBeanReference(name string, bean any) (any, error) {
	exposed := bean
	for _, p := range c.processors() {
		if ep, ok := p.(EarlyReferencePostProcessor); ok {
			next, err := ep.EarlyBeanReference(exposed, name)
			if err != nil {
				return nil, err
			}
			exposed = next
		}
	}
	return exposed, nil
}

// initializeBean runs aware callbacks, before-init post-processors, init
// callbacks and after-init post-processors, in that order.
func (c *Container) initializeBean(name string, bean any, def *Definition) (any, error) {
	if a, ok := bean.(BeanNameAware); ok {
		a.SetBeanName(name)
	}
	if a, ok := bean.(ContainerAware); ok {
		a.SetContainer(c)
	}

	wrapped, err := c.applyBeforeInitialization(bean, name)
	if err != nil {
		return nil, err
	}
	if err := c.invokeInitMethods(name, wrapped, def); err != nil {
		return nil, err
	}
	return c.applyAfterInitialization(wrapped, name)
}

func (c *Container) applyBeforeInitialization(bean any, name string) (any, error) {
	result := bean
	for _, p := range c.processors() {
		next, err := p.PostProcessBeforeInitialization(result, name)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return result, nil
		}
		result = next
	}
	return result, nil
}

func (c *Container) applyAfterInitialization(bean any, name string) (any, error) {
	result := bean
	for _, p := range c.processors() {
		next, err := p.PostProcessAfterInitialization(result, name)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return result, nil
		}
		result = next
	}
	return result, nil
}

func (c *Container) invokeInitMethods(name string, bean any, def *Definition) error {
	_, isInitializing := bean.(InitializingBean)
	if isInitializing {
		c.logger.Debug("invoking AfterPropertiesSet", zap.String("bean", name))
		if err := bean.(InitializingBean).AfterPropertiesSet(); err != nil {
			return err
		}
	}
	if def.InitMethod != "" && !(isInitializing && def.InitMethod == "AfterPropertiesSet") {
		return invokeMethod(bean, def.InitMethod)
	}
	return nil
}

func (c *Container) registerDisposableIfNecessary(name string, bean any, def *Definition) {
	dps := c.destructionProcessors()
	_, disposable := bean.(DisposableBean)
	if !disposable && def.DestroyMethod == "" && len(dps) == 0 {
		return
	}
	c.registry.RegisterDisposableBean(name, &disposableAdapter{
		name:          name,
		bean:          bean,
		destroyMethod: def.DestroyMethod,
		processors:    dps,
	})
}

// ── Bulk lifecycle ───────────────────────────────────────────────────────────

// PreInstantiateSingletons creates every non-lazy singleton in registration
// order, then notifies SmartInitializingSingleton beans.
func (c *Container) PreInstantiateSingletons(ctx context.Context) error {
	c.frozen.Store(true)
	names := c.BeanDefinitionNames()
	for _, n := range names {
		def, err := c.BeanDefinition(n)
		if err != nil || !def.IsSingleton() || def.Lazy {
			continue
		}
		if _, err := c.GetBean(ctx, n); err != nil {
			return err
		}
	}
	for _, n := range names {
		if obj, ok := c.registry.Singleton(n); ok {
			if s, ok := obj.(SmartInitializingSingleton); ok {
				s.AfterSingletonsInstantiated()
			}
		}
	}
	c.logger.Debug("pre-instantiated singletons", zap.Int("count", c.registry.SingletonCount()))
	return nil
}

// ── Generic helpers ──────────────────────────────────────────────────────────

// Resolve returns the bean registered under name as T.
//
//	svc, err := container.Resolve[*MyService](ctx, c, "myService")
func Resolve[T any](ctx context.Context, c *Container, name string) (T, error) {
	var zero T
	obj, err := c.getBean(ctx, name, reflect.TypeOf((*T)(nil)).Elem(), nil)
	if err != nil {
		return zero, err
	}
	return obj.(T), nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](ctx context.Context, c *Container, name string) T {
	obj, err := Resolve[T](ctx, c, name)
	if err != nil {
		panic(err)
	}
	return obj
}

// GetBeanOfType returns the single bean assignable to T. When several match,
// the one whose definition is Primary wins.
//
//	svc, err := container.GetBeanOfType[*MyService](ctx, c)
func GetBeanOfType[T any](ctx context.Context, c *Container) (T, error) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	names := c.GetBeanNamesForType(t)
	var name string
	switch len(names) {
	case 0:
		return zero, &NoSuchBeanDefinitionError{Type: t}
	case 1:
		name = names[0]
	default:
		name = c.primaryCandidate(names)
		if name == "" {
			return zero, &NoUniqueBeanDefinitionError{Type: t, Names: names}
		}
	}
	obj, err := c.getBean(ctx, name, t, nil)
	if err != nil {
		return zero, err
	}
	return obj.(T), nil
}

// BeansOfType returns every bean assignable to T keyed by name.
func BeansOfType[T any](ctx context.Context, c *Container) (map[string]T, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	out := make(map[string]T)
	for _, n := range c.GetBeanNamesForType(t) {
		obj, err := c.getBean(ctx, n, t, nil)
		if err != nil {
			return nil, err
		}
		out[n] = obj.(T)
	}
	return out, nil
}

func (c *Container) primaryCandidate(names []string) string {
	var primary string
	for _, n := range names {
		def, err := c.BeanDefinition(n)
		if err != nil || !def.Primary {
			continue
		}
		if primary != "" {
			return ""
		}
		primary = n
	}
	return primary
}

// ── misc ─────────────────────────────────────────────────────────────────────

func wrapCreation(name, msg string, err error) error {
	var bce *BeanCreationError
	if errors.As(err, &bce) && bce.Name == name {
		return err
	}
	var bcic *BeanCurrentlyInCreationError
	if errors.As(err, &bcic) && bcic.Name == name && errors.Unwrap(err) == nil {
		return err
	}
	return creationError(name, msg, err)
}

// sameInstance compares bean identity without panicking on uncomparable types.
func sameInstance(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if va.Comparable() {
		return va.Equal(vb)
	}
	return false
}

func describe(d *Definition) string {
	switch {
	case d.Supplier != nil:
		return "supplier definition"
	case d.Constructor != nil:
		return "constructor " + reflect.TypeOf(d.Constructor).String()
	case d.Type != nil:
		return "type " + d.Type.String()
	default:
		return "empty definition"
	}
}
