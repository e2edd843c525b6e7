package container

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ObjectFactory produces an object on demand: a singleton being created, or
// the early reference to one.
type ObjectFactory func() (any, error)

// SingletonRegistry is the singleton pool. It keeps three levels of cache so a
// singleton can be referenced before it is fully initialised:
//
//  1. singletonObjects      fully initialised singletons
//  2. earlySingletonObjects early references that were already handed out
//  3. singletonFactories    callbacks producing an early reference on demand
//
// Levels 2 and 3 are only consulted for names currently in creation.
type SingletonRegistry struct {
	mu sync.RWMutex

	singletonObjects      map[string]any
	earlySingletonObjects map[string]any
	singletonFactories    map[string]ObjectFactory
	registeredSingletons  []string

	inCreation    map[string]bool
	inDestruction bool

	disposableBeans  map[string]DisposableBean
	disposableOrder  []string
	dependentBeans   map[string]map[string]bool // bean -> beans that depend on it
	dependenciesOf   map[string]map[string]bool // bean -> beans it depends on

	onSingletonAdded   func(name string)
	onSingletonRemoved func(name string)
}

// NewSingletonRegistry returns an empty registry.
func NewSingletonRegistry() *SingletonRegistry {
	return &SingletonRegistry{
		singletonObjects:      make(map[string]any),
		earlySingletonObjects: make(map[string]any),
		singletonFactories:    make(map[string]ObjectFactory),
		inCreation:            make(map[string]bool),
		disposableBeans:       make(map[string]DisposableBean),
		dependentBeans:        make(map[string]map[string]bool),
		dependenciesOf:        make(map[string]map[string]bool),
	}
}

// RegisterSingleton stores obj under name, failing if the name is taken.
func (r *SingletonRegistry) RegisterSingleton(name string, obj any) error {
	if name == "" {
		return ErrInvalidName
	}
	if obj == nil {
		return fmt.Errorf("%w: nil singleton for %q", ErrInvalidDefinition, name)
	}
	r.mu.Lock()
	if old, ok := r.singletonObjects[name]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: could not register %T under bean name %q: there is already %T bound",
			ErrSingletonExists, obj, name, old)
	}
	r.addSingletonLocked(name, obj)
	r.mu.Unlock()
	r.notifyAdded(name)
	return nil
}

// AddSingleton stores obj as the fully initialised singleton for name and
// drops any early reference or factory kept for it.
func (r *SingletonRegistry) AddSingleton(name string, obj any) {
	r.mu.Lock()
	r.addSingletonLocked(name, obj)
	r.mu.Unlock()
	r.notifyAdded(name)
}

func (r *SingletonRegistry) addSingletonLocked(name string, obj any) {
	r.singletonObjects[name] = obj
	delete(r.singletonFactories, name)
	delete(r.earlySingletonObjects, name)
	if !slices.Contains(r.registeredSingletons, name) {
		r.registeredSingletons = append(r.registeredSingletons, name)
	}
}

func (r *SingletonRegistry) notifyAdded(name string) {
	if r.onSingletonAdded != nil {
		r.onSingletonAdded(name)
	}
}

func (r *SingletonRegistry) notifyRemoved(name string) {
	if r.onSingletonRemoved != nil {
		r.onSingletonRemoved(name)
	}
}

// AddSingletonFactory registers the level-3 factory used to build an early
// reference for name, unless the singleton is already complete.
func (r *SingletonRegistry) AddSingletonFactory(name string, factory ObjectFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.singletonObjects[name]; ok {
		return
	}
	r.singletonFactories[name] = factory
	delete(r.earlySingletonObjects, name)
	if !slices.Contains(r.registeredSingletons, name) {
		r.registeredSingletons = append(r.registeredSingletons, name)
	}
}

// GetSingleton returns the singleton for name, allowing an early reference
// if the singleton is currently in creation.
func (r *SingletonRegistry) GetSingleton(name string) (any, error) {
	return r.getSingleton(name, true)
}

// Singleton returns only fully initialised singletons.
func (r *SingletonRegistry) Singleton(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.singletonObjects[name]
	return obj, ok
}

func (r *SingletonRegistry) getSingleton(name string, allowEarly bool) (any, error) {
	r.mu.RLock()
	obj, ok := r.singletonObjects[name]
	creating := r.inCreation[name]
	r.mu.RUnlock()
	if ok || !creating {
		return obj, nil
	}

	r.mu.Lock()
	if obj, ok := r.singletonObjects[name]; ok {
		r.mu.Unlock()
		return obj, nil
	}
	if obj, ok := r.earlySingletonObjects[name]; ok {
		r.mu.Unlock()
		return obj, nil
	}
	factory, ok := r.singletonFactories[name]
	if !allowEarly || !ok {
		r.mu.Unlock()
		return nil, nil
	}
	delete(r.singletonFactories, name)
	r.mu.Unlock()

	// The factory runs post-processors, so it must not run under mu.
	early, err := factory()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.earlySingletonObjects[name] = early
	r.mu.Unlock()
	return early, nil
}

// GetSingletonOrCreate returns the singleton for name, creating it with
// factory if absent. The name is marked as in creation while factory runs.
func (r *SingletonRegistry) GetSingletonOrCreate(name string, factory ObjectFactory) (any, error) {
	r.mu.Lock()
	if obj, ok := r.singletonObjects[name]; ok {
		r.mu.Unlock()
		return obj, nil
	}
	if r.inDestruction {
		r.mu.Unlock()
		return nil, &BeanCreationError{Name: name, Err: ErrCreationNotAllowed}
	}
	if r.inCreation[name] {
		r.mu.Unlock()
		return nil, &BeanCurrentlyInCreationError{Name: name}
	}
	r.inCreation[name] = true
	r.mu.Unlock()

	obj, err := factory()

	r.mu.Lock()
	delete(r.inCreation, name)
	if err != nil {
		// A singleton registered for name while the factory ran wins over a
		// re-entrant creation failure. Any other failure is returned.
		var inCreation *BeanCurrentlyInCreationError
		if existing, ok := r.singletonObjects[name]; ok && errors.As(err, &inCreation) {
			r.mu.Unlock()
			return existing, nil
		}
		r.mu.Unlock()
		return nil, err
	}
	r.addSingletonLocked(name, obj)
	r.mu.Unlock()
	r.notifyAdded(name)
	return obj, nil
}

// IsCurrentlyInCreation reports whether name is being created.
func (r *SingletonRegistry) IsCurrentlyInCreation(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inCreation[name]
}

// ContainsSingleton reports whether name is fully initialised in the pool.
func (r *SingletonRegistry) ContainsSingleton(name string) bool {
	_, ok := r.Singleton(name)
	return ok
}

// SingletonNames returns names of fully initialised singletons in
// registration order.
func (r *SingletonRegistry) SingletonNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.singletonObjects))
	for _, n := range r.registeredSingletons {
		if _, ok := r.singletonObjects[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// SingletonCount returns the number of fully initialised singletons.
func (r *SingletonRegistry) SingletonCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.singletonObjects)
}

// RemoveSingleton drops name from every cache level.
func (r *SingletonRegistry) RemoveSingleton(name string) {
	r.mu.Lock()
	r.removeSingletonLocked(name)
	r.mu.Unlock()
	r.notifyRemoved(name)
}

func (r *SingletonRegistry) removeSingletonLocked(name string) {
	delete(r.singletonObjects, name)
	delete(r.earlySingletonObjects, name)
	delete(r.singletonFactories, name)
	r.registeredSingletons = slices.DeleteFunc(r.registeredSingletons, func(n string) bool { return n == name })
}

// ── Dependency graph ─────────────────────────────────────────────────────────

// RegisterDependentBean records that dependent needs name.
func (r *SingletonRegistry) RegisterDependentBean(name, dependent string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dependentBeans[name] == nil {
		r.dependentBeans[name] = make(map[string]bool)
	}
	r.dependentBeans[name][dependent] = true
	if r.dependenciesOf[dependent] == nil {
		r.dependenciesOf[dependent] = make(map[string]bool)
	}
	r.dependenciesOf[dependent][name] = true
}

// IsDependent reports whether dependent (transitively) depends on name.
func (r *SingletonRegistry) IsDependent(name, dependent string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isDependentLocked(name, dependent, map[string]bool{})
}

func (r *SingletonRegistry) isDependentLocked(name, dependent string, seen map[string]bool) bool {
	if seen[name] {
		return false
	}
	seen[name] = true
	deps := r.dependentBeans[name]
	if deps[dependent] {
		return true
	}
	for d := range deps {
		if r.isDependentLocked(d, dependent, seen) {
			return true
		}
	}
	return false
}

// DependentBeans returns the beans that depend on name, sorted.
func (r *SingletonRegistry) DependentBeans(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.dependentBeans[name])
}

// DependenciesFor returns the beans name depends on, sorted.
func (r *SingletonRegistry) DependenciesFor(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.dependenciesOf[name])
}

// HasDependentBean reports whether any bean depends on name.
func (r *SingletonRegistry) HasDependentBean(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dependentBeans[name]) > 0
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ── Destruction ──────────────────────────────────────────────────────────────

// RegisterDisposableBean schedules bean to be destroyed with the registry.
func (r *SingletonRegistry) RegisterDisposableBean(name string, bean DisposableBean) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.disposableBeans[name]; !ok {
		r.disposableOrder = append(r.disposableOrder, name)
	}
	r.disposableBeans[name] = bean
}

// DestroySingletons destroys every disposable singleton in reverse
// registration order, then clears all caches. Errors are joined.
func (r *SingletonRegistry) DestroySingletons() error {
	r.mu.Lock()
	r.inDestruction = true
	order := slices.Clone(r.disposableOrder)
	r.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		if err := r.DestroySingleton(order[i]); err != nil {
			errs = append(errs, err)
		}
	}

	r.mu.Lock()
	r.singletonObjects = make(map[string]any)
	r.earlySingletonObjects = make(map[string]any)
	r.singletonFactories = make(map[string]ObjectFactory)
	r.registeredSingletons = nil
	r.dependentBeans = make(map[string]map[string]bool)
	r.dependenciesOf = make(map[string]map[string]bool)
	r.inDestruction = false
	r.mu.Unlock()
	r.notifyRemoved("")
	return errors.Join(errs...)
}

// DestroySingleton removes name from the pool and destroys it, destroying
// the beans that depend on it first.
func (r *SingletonRegistry) DestroySingleton(name string) error {
	r.mu.Lock()
	r.removeSingletonLocked(name)
	disposable := r.disposableBeans[name]
	delete(r.disposableBeans, name)
	r.disposableOrder = slices.DeleteFunc(r.disposableOrder, func(n string) bool { return n == name })
	dependents := sortedKeys(r.dependentBeans[name])
	delete(r.dependentBeans, name)
	r.mu.Unlock()
	r.notifyRemoved(name)

	var errs []error
	for _, d := range dependents {
		if err := r.DestroySingleton(d); err != nil {
			errs = append(errs, err)
		}
	}
	if disposable != nil {
		if err := disposable.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy method on bean with name %q threw an error: %w", name, err))
		}
	}

	r.mu.Lock()
	for _, deps := range r.dependentBeans {
		delete(deps, name)
	}
	delete(r.dependenciesOf, name)
	r.mu.Unlock()
	return errors.Join(errs...)
}
