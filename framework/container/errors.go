package container

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var (
	// ErrNoSuchBean is matched by NoSuchBeanDefinitionError.
	ErrNoSuchBean = errors.New("container: no such bean definition")

	// ErrNoUniqueBean is matched by NoUniqueBeanDefinitionError.
	ErrNoUniqueBean = errors.New("container: no unique bean definition")

	// ErrCurrentlyInCreation is matched by BeanCurrentlyInCreationError.
	ErrCurrentlyInCreation = errors.New("container: bean currently in creation")

	// ErrBeanCreation is matched by BeanCreationError.
	ErrBeanCreation = errors.New("container: bean creation failed")

	// ErrNotOfRequiredType is matched by BeanNotOfRequiredTypeError.
	ErrNotOfRequiredType = errors.New("container: bean not of required type")

	// ErrTypeMismatch is matched by TypeMismatchError.
	ErrTypeMismatch = errors.New("container: property type mismatch")

	// ErrNotWritable is matched by NotWritablePropertyError.
	ErrNotWritable = errors.New("container: property not writable")

	ErrInvalidDefinition  = errors.New("container: invalid bean definition")
	ErrDefinitionOverride = errors.New("container: bean definition override not allowed")
	ErrSingletonExists    = errors.New("container: singleton already registered")
	ErrCreationNotAllowed = errors.New("container: singleton creation not allowed while singletons are being destroyed")
	ErrCircularAlias      = errors.New("container: circular alias reference")
	ErrInvalidName        = errors.New("container: bean name must not be empty")
)

// NoSuchBeanDefinitionError is returned when a bean is requested by a name or
// type that has no definition and no manually registered singleton.
type NoSuchBeanDefinitionError struct {
	Name string
	Type reflect.Type
}

func (e *NoSuchBeanDefinitionError) Error() string {
	if e.Type != nil {
		return "container: no qualifying bean of type " + e.Type.String() + " available"
	}
	return "container: no bean named " + strconv.Quote(e.Name) + " available"
}

func (e *NoSuchBeanDefinitionError) Is(target error) bool { return target == ErrNoSuchBean }

// NoUniqueBeanDefinitionError is returned by type lookups that match more than
// one bean without a single primary candidate.
type NoUniqueBeanDefinitionError struct {
	Type  reflect.Type
	Names []string
}

func (e *NoUniqueBeanDefinitionError) Error() string {
	return fmt.Sprintf("container: expected single matching bean of type %s but found %d: %s",
		e.Type, len(e.Names), strings.Join(e.Names, ","))
}

func (e *NoUniqueBeanDefinitionError) Is(target error) bool { return target == ErrNoUniqueBean }

// BeanCurrentlyInCreationError reports a reference to a bean that is still
// being created and cannot be handed out early.
type BeanCurrentlyInCreationError struct {
	Name string
	Msg  string
}

func (e *BeanCurrentlyInCreationError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "Requested bean is currently in creation: Is there an unresolvable circular reference?"
	}
	return "container: error creating bean with name " + strconv.Quote(e.Name) + ": " + msg
}

func (e *BeanCurrentlyInCreationError) Is(target error) bool {
	return target == ErrCurrentlyInCreation
}

// BeanCreationError wraps the cause of a failed creation step for a named bean.
// Nested failures produce a chain naming every bean on the path.
type BeanCreationError struct {
	Name string
	Msg  string
	Err  error
}

func (e *BeanCreationError) Error() string {
	var b strings.Builder
	b.WriteString("container: error creating bean with name ")
	b.WriteString(strconv.Quote(e.Name))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(strings.TrimPrefix(e.Err.Error(), "container: "))
	}
	return b.String()
}

func (e *BeanCreationError) Unwrap() error { return e.Err }

func (e *BeanCreationError) Is(target error) bool { return target == ErrBeanCreation }

// BeanNotOfRequiredTypeError is returned when a typed lookup finds a bean whose
// actual type does not satisfy the requested one.
type BeanNotOfRequiredTypeError struct {
	Name     string
	Required reflect.Type
	Actual   reflect.Type
}

func (e *BeanNotOfRequiredTypeError) Error() string {
	return fmt.Sprintf("container: bean named %q is expected to be of type %s but was actually of type %s",
		e.Name, e.Required, e.Actual)
}

func (e *BeanNotOfRequiredTypeError) Is(target error) bool { return target == ErrNotOfRequiredType }

// TypeMismatchError is returned when a property value cannot be converted to
// the target field type.
type TypeMismatchError struct {
	Property string
	Required reflect.Type
	Value    any
	Err      error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("container: failed to convert property %q value of type %T to required type %s",
		e.Property, e.Value, e.Required)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// NotWritablePropertyError is returned when a property names neither a setter
// nor an exported field of the bean.
type NotWritablePropertyError struct {
	Property string
	Type     reflect.Type
}

func (e *NotWritablePropertyError) Error() string {
	return fmt.Sprintf("container: invalid property %q of bean type %s: no exported field or setter",
		e.Property, e.Type)
}

func (e *NotWritablePropertyError) Is(target error) bool { return target == ErrNotWritable }

func creationError(name, msg string, err error) error {
	return &BeanCreationError{Name: name, Msg: msg, Err: err}
}
