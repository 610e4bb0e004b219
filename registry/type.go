package registry

import (
	"reflect"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/errors"
)

// Type describes one exposed type: its identifier, ownership strategy,
// optional base, constructor set, and methods. Descriptors are immutable
// after registration.
type Type struct {
	GoType   reflect.Type
	Base     *Type
	Name     string
	ctors    []*constructor
	methods  map[string]reflect.Value
	ID       bindkit.TypeID
	Strategy bindkit.Strategy
}

// IsSubtypeOf reports whether t is other or derives from it through the
// base chain.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for cur := t; cur != nil; cur = cur.Base {
		if cur == other {
			return true
		}
	}
	return false
}

// LookupMethod walks the base chain for a method, returning not_found
// when the chain is exhausted.
func (t *Type) LookupMethod(name string) (reflect.Value, error) {
	for cur := t; cur != nil; cur = cur.Base {
		if fn, ok := cur.methods[name]; ok {
			return fn, nil
		}
	}
	return reflect.Value{}, errors.NotFound(errors.PhaseInvoke, "method", t.Name+"."+name)
}

// Constructors returns the number of registered constructors.
func (t *Type) Constructors() int {
	return len(t.ctors)
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// constructor wraps a factory function returning the type's Go
// representation, optionally with a trailing error. For a
// pointer-represented type the factory may return the value form;
// addr marks those so call boxes the result.
type constructor struct {
	fn     reflect.Value
	params []reflect.Type
	hasErr bool
	addr   bool
}

func newConstructor(t *Type, fn any) (*constructor, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Target(t.Name).
			Detail("constructor must be a function, got %T", fn).
			Build()
	}
	ft := rv.Type()
	if ft.IsVariadic() {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Target(t.Name).
			Detail("variadic constructors are not supported").
			Build()
	}

	switch ft.NumOut() {
	case 1:
	case 2:
		if !ft.Out(1).Implements(errType) && ft.Out(1) != errType {
			return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
				Target(t.Name).
				Detail("second constructor return must be error, got %s", ft.Out(1)).
				Build()
		}
	default:
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Target(t.Name).
			Detail("constructor must return the value, optionally with an error").
			Build()
	}
	addr := false
	if ft.Out(0) != t.GoType {
		if t.GoType.Kind() != reflect.Pointer || ft.Out(0) != t.GoType.Elem() {
			return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
				Target(t.Name).
				Detail("constructor returns %s, type is represented by %s", ft.Out(0), t.GoType).
				Build()
		}
		addr = true
	}

	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	return &constructor{fn: rv, params: params, hasErr: ft.NumOut() == 2, addr: addr}, nil
}

// matches requires the argument dynamic types to equal the declared
// parameter types exactly. There is no implicit numeric coercion.
func (c *constructor) matches(args []any) bool {
	if len(args) != len(c.params) {
		return false
	}
	for i, a := range args {
		if a == nil || reflect.TypeOf(a) != c.params[i] {
			return false
		}
	}
	return true
}

func (c *constructor) call(args []any) (any, error) {
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = reflect.ValueOf(a)
	}
	out := c.fn.Call(in)
	if c.hasErr && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	if c.addr {
		p := reflect.New(out[0].Type())
		p.Elem().Set(out[0])
		return p.Interface(), nil
	}
	return out[0].Interface(), nil
}

// construct tries the registered constructor signatures in order.
// matched reports whether any signature accepted the arguments.
func (t *Type) construct(args []any) (value any, err error, matched bool) {
	for _, c := range t.ctors {
		if c.matches(args) {
			v, err := c.call(args)
			return v, err, true
		}
	}
	return nil, nil, false
}
