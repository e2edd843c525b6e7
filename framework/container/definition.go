package container

import (
	"context"
	"fmt"
	"reflect"
	"slices"
)

// Scope controls how many instances a definition produces.
type Scope string

const (
	// ScopeSingleton shares one instance per container. Empty scope means singleton.
	ScopeSingleton Scope = "singleton"

	// ScopePrototype creates a new instance on every lookup.
	ScopePrototype Scope = "prototype"
)

// Supplier builds a bean instance programmatically. Lookups made from inside a
// supplier must use the ctx it was given.
type Supplier func(ctx context.Context, c *Container) (any, error)

// Definition describes how the container builds and configures a bean.
//
// Exactly one instantiation strategy is used, in this order: Supplier,
// Constructor, then reflect.New on a struct Type (producing *Type).
type Definition struct {
	Type            reflect.Type
	Constructor     any
	ConstructorArgs []any
	Supplier        Supplier

	Scope         Scope
	Properties    *PropertyValues
	InitMethod    string
	DestroyMethod string
	DependsOn     []string
	Lazy          bool
	Primary       bool
	Description   string
}

// NewDefinition returns a singleton definition for t. Pointer types are
// normalised to their element so *T and T describe the same bean.
func NewDefinition(t reflect.Type) *Definition {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return &Definition{Type: t, Properties: NewPropertyValues()}
}

// DefinitionFor returns a singleton definition for T.
//
//	def := container.DefinitionFor[MyService]()
//	def.Properties.Add("id", "12345")
func DefinitionFor[T any]() *Definition {
	return NewDefinition(reflect.TypeOf((*T)(nil)).Elem())
}

// SupplierDefinition returns a definition whose instance comes from fn.
// beanType may be nil when the produced type is unknown until creation.
func SupplierDefinition(beanType reflect.Type, fn Supplier) *Definition {
	return &Definition{Type: beanType, Supplier: fn, Properties: NewPropertyValues()}
}

// ConstructorDefinition returns a definition that calls ctor with args.
// ctor must return T or (T, error); args may contain References.
func ConstructorDefinition(ctor any, args ...any) *Definition {
	return &Definition{Constructor: ctor, ConstructorArgs: args, Properties: NewPropertyValues()}
}

// IsSingleton reports whether the scope is singleton; an empty scope is.
func (d *Definition) IsSingleton() bool { return d.Scope == "" || d.Scope == ScopeSingleton }

// IsPrototype reports whether the scope is prototype.
func (d *Definition) IsPrototype() bool { return d.Scope == ScopePrototype }

// Validate reports whether the definition can produce an instance.
func (d *Definition) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	switch d.Scope {
	case "", ScopeSingleton, ScopePrototype:
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidDefinition, d.Scope)
	}
	if d.Supplier != nil {
		return nil
	}
	if d.Constructor != nil {
		ct := reflect.TypeOf(d.Constructor)
		if ct.Kind() != reflect.Func {
			return fmt.Errorf("%w: constructor must be a func, got %s", ErrInvalidDefinition, ct)
		}
		if !validConstructorResults(ct) {
			return fmt.Errorf("%w: constructor %s must return T or (T, error)", ErrInvalidDefinition, ct)
		}
		if !ct.IsVariadic() && ct.NumIn() != len(d.ConstructorArgs) {
			return fmt.Errorf("%w: constructor %s takes %d args, definition has %d",
				ErrInvalidDefinition, ct, ct.NumIn(), len(d.ConstructorArgs))
		}
		return nil
	}
	if d.Type == nil {
		return fmt.Errorf("%w: no type, constructor or supplier", ErrInvalidDefinition)
	}
	if d.Type.Kind() != reflect.Struct {
		return fmt.Errorf("%w: type %s is not a struct and has no constructor or supplier",
			ErrInvalidDefinition, d.Type)
	}
	return nil
}

// BeanType predicts the type of the produced bean, or nil if unknown.
func (d *Definition) BeanType() reflect.Type {
	if d.Constructor != nil && d.Supplier == nil {
		return reflect.TypeOf(d.Constructor).Out(0)
	}
	if d.Type == nil {
		return nil
	}
	if d.Supplier == nil && d.Type.Kind() == reflect.Struct {
		return reflect.PointerTo(d.Type)
	}
	return d.Type
}

// Clone returns a deep enough copy for the container to use during creation
// without observing later mutations by the caller.
func (d *Definition) Clone() *Definition {
	cp := *d
	cp.ConstructorArgs = slices.Clone(d.ConstructorArgs)
	cp.DependsOn = slices.Clone(d.DependsOn)
	cp.Properties = d.Properties.Clone()
	if cp.Scope == "" {
		cp.Scope = ScopeSingleton
	}
	return &cp
}

func validConstructorResults(ct reflect.Type) bool {
	switch ct.NumOut() {
	case 1:
		return true
	case 2:
		return ct.Out(1) == errorType
	default:
		return false
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ── Property values ──────────────────────────────────────────────────────────

// PropertyValue is a single named value to inject into a bean.
type PropertyValue struct {
	Name  string
	Value any
}

// PropertyValues is an ordered set of property values. Adding a name that is
// already present replaces its value in place.
type PropertyValues struct {
	values []PropertyValue
}

// NewPropertyValues returns an empty set.
func NewPropertyValues() *PropertyValues { return &PropertyValues{} }

// Add sets name to value and returns pv for chaining.
//
//	pvs := container.NewPropertyValues().Add("id", "12345").Add("serviceB", container.Ref("serviceB"))
func (pv *PropertyValues) Add(name string, value any) *PropertyValues {
	for i := range pv.values {
		if pv.values[i].Name == name {
			pv.values[i].Value = value
			return pv
		}
	}
	pv.values = append(pv.values, PropertyValue{Name: name, Value: value})
	return pv
}

// Get returns the value for name. A nil set is empty.
func (pv *PropertyValues) Get(name string) (any, bool) {
	if pv == nil {
		return nil, false
	}
	for _, v := range pv.values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

func (pv *PropertyValues) Contains(name string) bool {
	_, ok := pv.Get(name)
	return ok
}

// Remove drops name if present.
func (pv *PropertyValues) Remove(name string) {
	if pv == nil {
		return
	}
	pv.values = slices.DeleteFunc(pv.values, func(v PropertyValue) bool { return v.Name == name })
}

func (pv *PropertyValues) Len() int {
	if pv == nil {
		return 0
	}
	return len(pv.values)
}

// All returns a copy of the values in insertion order.
func (pv *PropertyValues) All() []PropertyValue {
	if pv == nil {
		return nil
	}
	return slices.Clone(pv.values)
}

// Clone copies the set; a nil set clones to an empty one.
func (pv *PropertyValues) Clone() *PropertyValues {
	if pv == nil {
		return NewPropertyValues()
	}
	return &PropertyValues{values: slices.Clone(pv.values)}
}

// ── Value holders ────────────────────────────────────────────────────────────

// Reference points at another bean by name and is resolved at injection time.
type Reference struct {
	BeanName string
}

// Ref returns a Reference to the named bean.
func Ref(name string) Reference { return Reference{BeanName: name} }

// List is a property or constructor value whose elements are resolved
// individually before conversion to the target slice type.
type List []any
