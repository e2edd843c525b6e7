package container

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// innerBeanPrefix names anonymous beans declared as property values.
const innerBeanPrefix = "(inner bean)#"

// populateBean applies the definition's property values to bean.
func (c *Container) populateBean(ctx context.Context, st *creationState, name string, def *Definition, bean any) error {
	for _, ip := range c.instantiationProcessors() {
		proceed, err := ip.PostProcessAfterInstantiation(bean, name)
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
	}

	pvs := def.Properties
	for _, ip := range c.instantiationProcessors() {
		next, err := ip.PostProcessProperties(pvs, bean, name)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		pvs = next
	}

	for _, pv := range pvs.All() {
		value, err := c.resolveValue(ctx, st, name, "bean property '"+pv.Name+"'", pv.Value)
		if err != nil {
			return err
		}
		if err := setProperty(bean, pv.Name, value); err != nil {
			return err
		}
	}
	return nil
}

// resolveValue turns references, inner definitions and lists into concrete
// objects. Everything else is returned unchanged.
func (c *Container) resolveValue(ctx context.Context, st *creationState, beanName, label string, v any) (any, error) {
	switch x := v.(type) {
	case Reference:
		ref := c.CanonicalName(x.BeanName)
		obj, err := c.doGetBean(ctx, st, ref, nil, nil)
		if err != nil {
			return nil, creationError(beanName,
				fmt.Sprintf("cannot resolve reference to bean %q while setting %s", x.BeanName, label), err)
		}
		c.registry.RegisterDependentBean(ref, beanName)
		return obj, nil
	case *Reference:
		return c.resolveValue(ctx, st, beanName, label, *x)
	case *Definition:
		inner := innerBeanPrefix + uuid.NewString()
		if err := x.Validate(); err != nil {
			return nil, creationError(beanName, "cannot create inner bean while setting "+label, err)
		}
		c.logger.Debug("creating inner bean", zap.String("bean", beanName), zap.String("inner", inner))
		obj, err := c.createBean(ctx, st, inner, x.Clone(), nil)
		if err != nil {
			return nil, creationError(beanName, "cannot create inner bean while setting "+label, err)
		}
		return obj, nil
	case List:
		out := make([]any, len(x))
		for i, el := range x {
			r, err := c.resolveValue(ctx, st, beanName, fmt.Sprintf("%s with key [%d]", label, i), el)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// setProperty writes value into bean under the property name. A SetXxx
// method takes precedence over a matching exported field.
func setProperty(bean any, name string, value any) error {
	rv := reflect.ValueOf(bean)
	if setter := rv.MethodByName("Set" + upperFirst(name)); setter.IsValid() && setter.Type().NumIn() == 1 {
		arg, err := convertValue(name, value, setter.Type().In(0))
		if err != nil {
			return err
		}
		out := setter.Call([]reflect.Value{arg})
		if len(out) > 0 && out[len(out)-1].Type() == errorType && !out[len(out)-1].IsNil() {
			return out[len(out)-1].Interface().(error)
		}
		return nil
	}

	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return &NotWritablePropertyError{Property: name, Type: rv.Type()}
	}
	field, ok := findField(rv.Elem(), name)
	if !ok {
		return &NotWritablePropertyError{Property: name, Type: rv.Type()}
	}
	conv, err := convertValue(name, value, field.Type())
	if err != nil {
		return err
	}
	field.Set(conv)
	return nil
}

// findField matches, in order: a `bean:"name"` tag, the exact field name,
// then a case-insensitive field name. Only exported fields are writable.
func findField(sv reflect.Value, name string) (reflect.Value, bool) {
	fields := reflect.VisibleFields(sv.Type())
	match := func(pred func(f reflect.StructField) bool) (reflect.Value, bool) {
		for _, f := range fields {
			if !f.IsExported() || !pred(f) {
				continue
			}
			fv, err := sv.FieldByIndexErr(f.Index)
			if err != nil || !fv.CanSet() {
				continue
			}
			return fv, true
		}
		return reflect.Value{}, false
	}
	if fv, ok := match(func(f reflect.StructField) bool { return f.Tag.Get("bean") == name }); ok {
		return fv, true
	}
	if fv, ok := match(func(f reflect.StructField) bool { return f.Name == name }); ok {
		return fv, true
	}
	return match(func(f reflect.StructField) bool { return strings.EqualFold(f.Name, name) })
}

var durationType = reflect.TypeOf(time.Duration(0))

// convertValue converts v to target. Assignable values pass through; scalar
// kinds, string slices and string maps go through cast.
func convertValue(name string, v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}

	mismatch := func(err error) (reflect.Value, error) {
		return reflect.Value{}, &TypeMismatchError{Property: name, Required: target, Value: v, Err: err}
	}

	if target == durationType {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return mismatch(err)
		}
		return reflect.ValueOf(d), nil
	}

	var (
		out any
		err error
	)
	switch target.Kind() {
	case reflect.String:
		out, err = cast.ToStringE(v)
	case reflect.Bool:
		out, err = cast.ToBoolE(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out, err = cast.ToInt64E(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out, err = cast.ToUint64E(v)
	case reflect.Float32, reflect.Float64:
		out, err = cast.ToFloat64E(v)
	case reflect.Slice:
		return convertSlice(name, v, target)
	case reflect.Map:
		if target.Key().Kind() == reflect.String && target.Elem().Kind() == reflect.String {
			out, err = cast.ToStringMapStringE(v)
		} else if target.Key().Kind() == reflect.String && target.Elem().Kind() == reflect.Interface {
			out, err = cast.ToStringMapE(v)
		} else {
			return mismatch(nil)
		}
	default:
		if rv.Type().ConvertibleTo(target) && rv.Kind() == target.Kind() {
			return rv.Convert(target), nil
		}
		return mismatch(nil)
	}
	if err != nil {
		return mismatch(err)
	}
	if err := checkOverflow(out, target); err != nil {
		return mismatch(err)
	}
	cv := reflect.ValueOf(out)
	if !cv.Type().ConvertibleTo(target) {
		return mismatch(nil)
	}
	return cv.Convert(target), nil
}

// checkOverflow rejects numbers that do not fit the sized target kind.
func checkOverflow(out any, target reflect.Type) error {
	zero := reflect.Zero(target)
	var overflow bool
	switch n := out.(type) {
	case int64:
		overflow = zero.OverflowInt(n)
	case uint64:
		overflow = zero.OverflowUint(n)
	case float64:
		overflow = zero.OverflowFloat(n)
	default:
		return nil
	}
	if overflow {
		return fmt.Errorf("value %v overflows %s", out, target)
	}
	return nil
}

func convertSlice(name string, v any, target reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		if target.Elem().Kind() == reflect.String {
			ss, err := cast.ToStringSliceE(v)
			if err != nil {
				return reflect.Value{}, &TypeMismatchError{Property: name, Required: target, Value: v, Err: err}
			}
			return reflect.ValueOf(ss).Convert(target), nil
		}
		return reflect.Value{}, &TypeMismatchError{Property: name, Required: target, Value: v}
	}
	out := reflect.MakeSlice(target, rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el, err := convertValue(fmt.Sprintf("%s[%d]", name, i), rv.Index(i).Interface(), target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(el)
	}
	return out, nil
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
