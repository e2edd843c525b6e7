package container

import (
	"context"
	"reflect"
)

// Builder assembles a Definition fluently.
//
//	err := container.Define[MyService]().
//	    Property("id", "12345").
//	    Ref("serviceB", "serviceB").
//	    Register(c, "myService")
type Builder struct {
	def *Definition
}

// Define starts a singleton definition for struct type T.
func Define[T any]() *Builder {
	return &Builder{def: DefinitionFor[T]()}
}

// Supply starts a definition backed by fn. T is the predicted bean type.
//
//	container.Supply(func(ctx context.Context, c *container.Container) (*zap.Logger, error) {
//	    return logging.New(cfg.Log)
//	}).Register(c, "logger")
func Supply[T any](fn func(ctx context.Context, c *Container) (T, error)) *Builder {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return &Builder{def: SupplierDefinition(t, func(ctx context.Context, c *Container) (any, error) {
		return fn(ctx, c)
	})}
}

// Construct starts a definition backed by a constructor func.
func Construct(ctor any, args ...any) *Builder {
	return &Builder{def: ConstructorDefinition(ctor, args...)}
}

// Scope sets the bean scope; Singleton and Prototype are shorthands.
func (b *Builder) Scope(s Scope) *Builder { b.def.Scope = s; return b }
func (b *Builder) Singleton() *Builder    { return b.Scope(ScopeSingleton) }
func (b *Builder) Prototype() *Builder    { return b.Scope(ScopePrototype) }

// Property adds a literal (or Reference, List, inner *Definition) value.
func (b *Builder) Property(name string, value any) *Builder {
	b.def.Properties.Add(name, value)
	return b
}

// Ref injects the bean named beanName into property name.
func (b *Builder) Ref(name, beanName string) *Builder {
	return b.Property(name, Ref(beanName))
}

func (b *Builder) InitMethod(m string) *Builder    { b.def.InitMethod = m; return b }
func (b *Builder) DestroyMethod(m string) *Builder { b.def.DestroyMethod = m; return b }
func (b *Builder) Lazy() *Builder                  { b.def.Lazy = true; return b }
func (b *Builder) Primary() *Builder               { b.def.Primary = true; return b }

func (b *Builder) Description(d string) *Builder { b.def.Description = d; return b }

// DependsOn names beans that must be created first.
func (b *Builder) DependsOn(names ...string) *Builder {
	b.def.DependsOn = append(b.def.DependsOn, names...)
	return b
}

// Definition returns a copy of the definition built so far.
func (b *Builder) Definition() *Definition {
	cp := *b.def
	cp.Properties = b.def.Properties.Clone()
	return &cp
}

// Register registers the definition under name.
func (b *Builder) Register(c *Container, name string) error {
	return c.RegisterBeanDefinition(name, b.Definition())
}
