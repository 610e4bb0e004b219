package call

import (
	"reflect"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/errors"
	"github.com/wippyai/bindkit/registry"
)

// Invoke binds args to the named function's parameters, calls it, and
// wraps the result under the ownership strategy of its exposed type.
// Binding is all-or-nothing: if any argument fails, references
// retained for earlier arguments are released and the function is
// never entered.
func (a *Adapter) Invoke(name string, args ...any) (any, error) {
	f, err := a.Lookup(name)
	if err != nil {
		return nil, err
	}
	if len(args) != len(f.params) {
		return nil, errors.New(errors.PhaseBind, errors.KindTypeMismatch).
			Target(name).
			Detail("expected %d arguments, got %d", len(f.params), len(args)).
			Build()
	}

	bound := make([]BoundValue, 0, len(args))
	releaseAll := func() {
		for i := len(bound) - 1; i >= 0; i-- {
			bound[i].Release()
		}
	}
	for i, arg := range args {
		b, err := a.bindArg(arg, f.params[i])
		if err != nil {
			releaseAll()
			if e, ok := err.(*errors.Error); ok {
				e.Path = append([]string{name, "arg", strconv.Itoa(i)}, e.Path...)
				return nil, e
			}
			return nil, err
		}
		bound = append(bound, b)
	}

	in := make([]reflect.Value, len(bound))
	for i, b := range bound {
		in[i] = b.rv
	}
	out := f.fn.Call(in)
	releaseAll()

	return a.unpackResults(f, out)
}

// unpackResults separates the trailing error and wraps the value
// result, if any.
func (a *Adapter) unpackResults(f *Func, out []reflect.Value) (any, error) {
	if f.hasErr {
		ev := out[len(out)-1]
		if !ev.IsNil() {
			err := ev.Interface().(error)
			logger.Debug("invoked function returned error",
				zap.String("name", f.name), zap.Error(err))
			return nil, err
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return a.wrapResult(out[0])
}

// wrapResult wraps a returned native under its exposed type's
// ownership strategy. Handles and primitives pass through unchanged.
func (a *Adapter) wrapResult(rv reflect.Value) (any, error) {
	switch rv.Type() {
	case refType, sharedType:
		return rv.Interface(), nil
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}

	v := rv.Interface()
	t, ok := a.reg.TypeOfValue(v)
	if !ok {
		return nil, errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
			Source(rv.Type().String()).
			Detail("result's Go type is not a registered type").
			Build()
	}
	return a.wrap(t, v), nil
}

// wrap places a fresh native under t's ownership strategy.
func (a *Adapter) wrap(t *registry.Type, v any) any {
	switch t.Strategy {
	case bindkit.RefCounted:
		return a.arena.NewRef(t.ID, v)
	case bindkit.SharedExternal:
		return a.arena.NewShared(t.ID, v)
	}
	return v
}

// Construct builds an instance of the named type through its
// registered constructors (or a constructible-from conversion) and
// wraps it under the type's ownership strategy.
func (a *Adapter) Construct(typeName string, args ...any) (any, error) {
	t, err := a.reg.Resolve(typeName)
	if err != nil {
		return nil, err
	}
	v, err := a.reg.Construct(t, args)
	if err != nil {
		return nil, err
	}
	return a.wrap(t, v), nil
}
