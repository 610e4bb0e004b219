package call

import (
	"fmt"
	"reflect"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/errors"
	"github.com/wippyai/bindkit/ownership"
	"github.com/wippyai/bindkit/registry"
)

// BoundValue is an argument resolved against a declared parameter.
// Release returns any reference retained while binding; it is safe to
// call on a zero release.
type BoundValue struct {
	rv      reflect.Value
	release func()
}

// Value returns the bound Go value as it will be passed to the
// function.
func (b BoundValue) Value() any {
	if !b.rv.IsValid() {
		return nil
	}
	return b.rv.Interface()
}

// Release drops whatever the binding retained. Called exactly once
// per bound argument, after the call completes or when a later
// argument fails to bind.
func (b BoundValue) Release() {
	if b.release != nil {
		b.release()
	}
}

// BindArgument resolves value against the named declared type under
// the given access mode. Used directly by transports that bind one
// argument at a time; Invoke goes through the same path.
func (a *Adapter) BindArgument(value any, declared string, mode bindkit.AccessMode) (BoundValue, error) {
	t, err := a.reg.Resolve(declared)
	if err != nil {
		return BoundValue{}, err
	}
	goType := t.GoType
	switch mode {
	case bindkit.AccessCopy:
		if goType.Kind() == reflect.Pointer {
			goType = goType.Elem()
		}
	case bindkit.AccessShared:
		if t.Strategy == bindkit.SharedExternal {
			goType = sharedType
		} else {
			goType = refType
		}
	case bindkit.AccessHandleRef:
		if t.Strategy == bindkit.SharedExternal {
			goType = sharedPtrType
		} else {
			goType = refPtrType
		}
	}
	if !t.Strategy.Supports(mode) {
		return BoundValue{}, errors.UnsupportedAccess(t.Name, t.Strategy.String(), mode.String())
	}
	return a.bindArg(value, param{typ: t, goType: goType, mode: mode})
}

// dynamicOf resolves an argument's exposed type and unwraps handles to
// their native value.
func (a *Adapter) dynamicOf(value any) (*registry.Type, any, error) {
	switch v := value.(type) {
	case ownership.Ref:
		if !v.Alive() {
			return nil, nil, errors.DeadHandle(errors.PhaseBind, "argument reference handle is dead")
		}
		id, _ := a.arena.TypeID(v.Handle())
		t, ok := a.reg.ResolveID(id)
		if !ok {
			return nil, nil, errors.NotFound(errors.PhaseBind, "type", fmt.Sprintf("id %d", id))
		}
		return t, v.Value(), nil
	case ownership.Shared:
		if !v.Alive() {
			return nil, nil, errors.DeadHandle(errors.PhaseBind, "argument shared handle is dead")
		}
		id, _ := a.arena.TypeID(v.Handle())
		t, ok := a.reg.ResolveID(id)
		if !ok {
			return nil, nil, errors.NotFound(errors.PhaseBind, "type", fmt.Sprintf("id %d", id))
		}
		return t, v.Value(), nil
	case nil:
		return nil, nil, errors.InvalidInput(errors.PhaseBind, "argument is nil")
	}
	nv := registry.Normalize(value)
	t, ok := a.reg.TypeOfValue(nv)
	if !ok {
		return nil, nil, errors.TypeMismatch(errors.PhaseBind,
			reflect.TypeOf(value).String(), "", "value's Go type is not a registered type")
	}
	return t, nv, nil
}

// bindArg resolves one argument against one parameter: a direct or
// subtype match binds under the parameter's access mode, otherwise a
// single registered conversion hop is tried.
func (a *Adapter) bindArg(value any, p param) (BoundValue, error) {
	dyn, native, err := a.dynamicOf(value)
	if err != nil {
		return BoundValue{}, err
	}

	if dyn.IsSubtypeOf(p.typ) {
		return a.bindDirect(value, native, p)
	}

	if fn, ok := a.reg.Rules().LookupAlong(dyn, p.typ.ID); ok {
		converted, err := fn(native)
		if err != nil {
			return BoundValue{}, errors.Conversion(dyn.Name, p.typ.Name, err)
		}
		return a.bindConverted(converted, p)
	}

	return BoundValue{}, errors.TypeMismatch(errors.PhaseBind, dyn.Name, p.typ.Name,
		"no subtype relationship and no conversion rule")
}

// bindDirect binds an argument whose exposed type already satisfies
// the declared type.
func (a *Adapter) bindDirect(value, native any, p param) (BoundValue, error) {
	switch p.mode {
	case bindkit.AccessRaw:
		rv := reflect.ValueOf(native)
		if !rv.Type().AssignableTo(p.goType) {
			return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
				rv.Type().String(), p.goType.String(),
				"value is not assignable to the declared Go representation")
		}
		return BoundValue{rv: rv}, nil

	case bindkit.AccessCopy:
		return a.bindCopy(value, native, p)

	case bindkit.AccessShared:
		switch h := value.(type) {
		case ownership.Ref:
			if p.goType != refType {
				return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
					p.typ.Name, p.typ.Name, "parameter expects a shared handle, got a reference handle")
			}
			clone, err := h.Clone()
			if err != nil {
				return BoundValue{}, err
			}
			return BoundValue{rv: reflect.ValueOf(clone), release: func() { _ = clone.Release() }}, nil
		case ownership.Shared:
			if p.goType != sharedType {
				return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
					p.typ.Name, p.typ.Name, "parameter expects a reference handle, got a shared handle")
			}
			clone, err := h.Clone()
			if err != nil {
				return BoundValue{}, err
			}
			return BoundValue{rv: reflect.ValueOf(clone), release: func() { _ = clone.Release() }}, nil
		}
		return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
			p.typ.Name, p.typ.Name, "caller-owned value cannot bind to a handle parameter")

	case bindkit.AccessHandleRef:
		switch h := value.(type) {
		case ownership.Ref:
			if p.goType != refPtrType {
				return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
					p.typ.Name, p.typ.Name, "parameter expects a shared handle, got a reference handle")
			}
			clone, err := h.Clone()
			if err != nil {
				return BoundValue{}, err
			}
			return BoundValue{rv: reflect.ValueOf(&clone), release: func() { _ = clone.Release() }}, nil
		case ownership.Shared:
			if p.goType != sharedPtrType {
				return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
					p.typ.Name, p.typ.Name, "parameter expects a reference handle, got a shared handle")
			}
			clone, err := h.Clone()
			if err != nil {
				return BoundValue{}, err
			}
			return BoundValue{rv: reflect.ValueOf(&clone), release: func() { _ = clone.Release() }}, nil
		}
		return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
			p.typ.Name, p.typ.Name, "caller-owned value cannot bind to a handle parameter")
	}

	return BoundValue{}, errors.InvalidInput(errors.PhaseBind,
		fmt.Sprintf("unknown access mode %d", p.mode))
}

// bindCopy produces an independent copy of the argument. Arena-held
// arguments copy through the arena so lifecycle observers see the
// copy; caller-owned values copy directly.
func (a *Adapter) bindCopy(value, native any, p param) (BoundValue, error) {
	var (
		dup     any
		release func()
	)
	switch h := value.(type) {
	case ownership.Ref:
		cp, err := a.arena.CopyRef(h)
		if err != nil {
			return BoundValue{}, err
		}
		dup = cp.Value()
		release = func() { _ = cp.Release() }
	case ownership.Shared:
		cp, err := a.arena.CopyShared(h)
		if err != nil {
			return BoundValue{}, err
		}
		dup = cp.Value()
		release = func() { _ = cp.Release() }
	default:
		c, ok := native.(ownership.Copier)
		if !ok {
			return BoundValue{}, errors.New(errors.PhaseBind, errors.KindUnsupportedAccess).
				Target(p.typ.Name).
				Detail("value does not implement ownership.Copier").
				Build()
		}
		dup = c.CopyValue()
	}

	rv := reflect.ValueOf(dup)
	if rv.Kind() == reflect.Pointer && p.goType.Kind() != reflect.Pointer {
		rv = rv.Elem()
	}
	if !rv.Type().AssignableTo(p.goType) {
		if release != nil {
			release()
		}
		return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
			rv.Type().String(), p.goType.String(), "copied value is not assignable to the parameter")
	}
	return BoundValue{rv: rv, release: release}, nil
}

// bindConverted binds the product of a conversion rule. The converted
// value is a fresh temporary owned by the call: handle-mode parameters
// see it wrapped under the declared strategy and it is destroyed when
// the binding releases, unless the callee retains its own reference.
func (a *Adapter) bindConverted(converted any, p param) (BoundValue, error) {
	switch p.mode {
	case bindkit.AccessRaw:
		rv := reflect.ValueOf(converted)
		if !rv.Type().AssignableTo(p.goType) {
			return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
				rv.Type().String(), p.goType.String(),
				"conversion rule produced a value of the wrong Go type")
		}
		return BoundValue{rv: rv}, nil

	case bindkit.AccessCopy:
		rv := reflect.ValueOf(converted)
		if rv.Kind() == reflect.Pointer && p.goType.Kind() != reflect.Pointer {
			rv = rv.Elem()
		}
		if !rv.Type().AssignableTo(p.goType) {
			return BoundValue{}, errors.TypeMismatch(errors.PhaseBind,
				rv.Type().String(), p.goType.String(),
				"conversion rule produced a value of the wrong Go type")
		}
		return BoundValue{rv: rv}, nil

	case bindkit.AccessShared, bindkit.AccessHandleRef:
		switch p.typ.Strategy {
		case bindkit.RefCounted:
			ref := a.arena.NewRef(p.typ.ID, converted)
			rv := reflect.ValueOf(ref)
			if p.mode == bindkit.AccessHandleRef {
				rv = reflect.ValueOf(&ref)
			}
			return BoundValue{rv: rv, release: func() { _ = ref.Release() }}, nil
		case bindkit.SharedExternal:
			sh := a.arena.NewShared(p.typ.ID, converted)
			rv := reflect.ValueOf(sh)
			if p.mode == bindkit.AccessHandleRef {
				rv = reflect.ValueOf(&sh)
			}
			return BoundValue{rv: rv, release: func() { _ = sh.Release() }}, nil
		}
		return BoundValue{}, errors.UnsupportedAccess(p.typ.Name, p.typ.Strategy.String(), p.mode.String())
	}

	return BoundValue{}, errors.InvalidInput(errors.PhaseBind,
		fmt.Sprintf("unknown access mode %d", p.mode))
}
