package call

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/errors"
	"github.com/wippyai/bindkit/ownership"
	"github.com/wippyai/bindkit/registry"
)

var (
	refType       = reflect.TypeOf(ownership.Ref{})
	refPtrType    = reflect.TypeOf((*ownership.Ref)(nil))
	sharedType    = reflect.TypeOf(ownership.Shared{})
	sharedPtrType = reflect.TypeOf((*ownership.Shared)(nil))
	copierType    = reflect.TypeOf((*ownership.Copier)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

// Adapter exposes registered functions to callers holding handles,
// raw pointers, or primitive values. It owns the binding of arguments
// to parameters and the wrapping of results.
type Adapter struct {
	reg   *registry.Registry
	arena *ownership.Arena
	funcs map[string]*Func
	mu    sync.RWMutex
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithArena supplies the arena managing handle lifetimes. Without it
// the adapter creates its own.
func WithArena(a *ownership.Arena) AdapterOption {
	return func(ad *Adapter) {
		ad.arena = a
	}
}

// NewAdapter creates an adapter bound to a type registry.
func NewAdapter(reg *registry.Registry, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		reg:   reg,
		funcs: make(map[string]*Func),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.arena == nil {
		a.arena = ownership.NewArena()
	}
	return a
}

// Arena returns the arena managing handles the adapter creates.
func (a *Adapter) Arena() *ownership.Arena {
	return a.arena
}

// Registry returns the type registry the adapter binds against.
func (a *Adapter) Registry() *registry.Registry {
	return a.reg
}

// param describes one resolved parameter of a registered function.
type param struct {
	typ    *registry.Type
	goType reflect.Type
	mode   bindkit.AccessMode
}

// Func is a registered function together with its resolved parameter
// and result descriptors.
type Func struct {
	name   string
	fn     reflect.Value
	params []param
	result reflect.Type
	hasErr bool
}

// Name returns the name the function was registered under.
func (f *Func) Name() string { return f.name }

// ParamInfo describes a parameter for introspection.
type ParamInfo struct {
	Type string
	Mode bindkit.AccessMode
}

// Params returns the resolved parameter descriptors in order.
func (f *Func) Params() []ParamInfo {
	out := make([]ParamInfo, len(f.params))
	for i, p := range f.params {
		out[i] = ParamInfo{Type: p.typ.Name, Mode: p.mode}
	}
	return out
}

// Result returns the Go type name of the function's value result, or
// the empty string when the function only returns an error or nothing.
func (f *Func) Result() string {
	if f.result == nil {
		return ""
	}
	return f.result.String()
}

// FuncOption configures a function registration.
type FuncOption func(*funcConfig)

type funcConfig struct {
	paramTypes map[int]string
}

// WithParamType names the exposed type of a handle-typed parameter.
// Parameters of type ownership.Ref or ownership.Shared (and pointers
// to them) carry no Go-level type information and must be named.
func WithParamType(index int, typeName string) FuncOption {
	return func(c *funcConfig) {
		if c.paramTypes == nil {
			c.paramTypes = make(map[int]string)
		}
		c.paramTypes[index] = typeName
	}
}

// RegisterFunc exposes fn under name. Parameter access modes derive
// from the Go signature; a mode the declared type's strategy cannot
// satisfy fails here rather than at call time.
func (a *Adapter) RegisterFunc(name string, fn any, opts ...FuncOption) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if name == "" {
		return errors.InvalidInput(errors.PhaseRegister, "function name cannot be empty")
	}
	if _, exists := a.funcs[name]; exists {
		return errors.New(errors.PhaseRegister, errors.KindRegistration).
			Target(name).
			Detail("function %q already registered", name).
			Build()
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return errors.InvalidInput(errors.PhaseRegister,
			fmt.Sprintf("function %q must be a func, got %T", name, fn))
	}
	rt := rv.Type()
	if rt.IsVariadic() {
		return errors.InvalidInput(errors.PhaseRegister,
			fmt.Sprintf("function %q cannot be variadic", name))
	}

	cfg := funcConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &Func{name: name, fn: rv}
	for i := 0; i < rt.NumIn(); i++ {
		p, err := a.classifyParam(name, i, rt.In(i), cfg.paramTypes)
		if err != nil {
			return err
		}
		f.params = append(f.params, p)
	}

	switch rt.NumOut() {
	case 0:
	case 1:
		if rt.Out(0) == errorType {
			f.hasErr = true
		} else {
			f.result = rt.Out(0)
		}
	case 2:
		if rt.Out(1) != errorType {
			return errors.InvalidInput(errors.PhaseRegister,
				fmt.Sprintf("function %q second result must be error", name))
		}
		f.result = rt.Out(0)
		f.hasErr = true
	default:
		return errors.InvalidInput(errors.PhaseRegister,
			fmt.Sprintf("function %q has too many results", name))
	}
	if f.result != nil {
		if err := a.checkResult(name, f.result); err != nil {
			return err
		}
	}

	a.funcs[name] = f
	logger.Debug("function registered",
		zap.String("name", name),
		zap.Int("params", len(f.params)))
	return nil
}

// classifyParam resolves a parameter's exposed type and access mode
// from its Go type, rejecting mode/strategy mismatches.
func (a *Adapter) classifyParam(fname string, i int, pt reflect.Type, named map[int]string) (param, error) {
	switch pt {
	case refType, refPtrType, sharedType, sharedPtrType:
		name, ok := named[i]
		if !ok {
			return param{}, errors.InvalidInput(errors.PhaseRegister,
				fmt.Sprintf("function %q parameter %d is handle-typed and needs WithParamType", fname, i))
		}
		t, err := a.reg.Resolve(name)
		if err != nil {
			return param{}, err
		}
		mode := bindkit.AccessShared
		if pt == refPtrType || pt == sharedPtrType {
			mode = bindkit.AccessHandleRef
		}
		if !t.Strategy.Supports(mode) {
			return param{}, errors.UnsupportedAccess(t.Name, t.Strategy.String(), mode.String())
		}
		if (pt == refType || pt == refPtrType) && t.Strategy != bindkit.RefCounted {
			return param{}, errors.UnsupportedAccess(t.Name, t.Strategy.String(), "ref handle")
		}
		if (pt == sharedType || pt == sharedPtrType) && t.Strategy != bindkit.SharedExternal {
			return param{}, errors.UnsupportedAccess(t.Name, t.Strategy.String(), "shared handle")
		}
		return param{typ: t, goType: pt, mode: mode}, nil
	}

	// Builtins and pointer/interface representations bind raw. Builtin
	// widths are exact; no implicit numeric coercion.
	if t, ok := a.reg.ResolveGo(pt); ok {
		return param{typ: t, goType: pt, mode: bindkit.AccessRaw}, nil
	}

	if pt.Kind() == reflect.Struct {
		if t, ok := a.reg.ResolveGo(reflect.PointerTo(pt)); ok {
			if !reflect.PointerTo(pt).Implements(copierType) {
				return param{}, errors.New(errors.PhaseRegister, errors.KindUnsupportedAccess).
					Target(t.Name).
					Detail("copy parameter needs *%s to implement ownership.Copier", pt).
					Build()
			}
			return param{typ: t, goType: pt, mode: bindkit.AccessCopy}, nil
		}
	}

	return param{}, errors.InvalidInput(errors.PhaseRegister,
		fmt.Sprintf("function %q parameter %d: %s is not a registered type", fname, i, pt))
}

// checkResult validates that a value result can be wrapped: a builtin,
// a registered representation, or a handle passed through unchanged.
func (a *Adapter) checkResult(fname string, rt reflect.Type) error {
	switch rt {
	case refType, sharedType:
		return nil
	}
	if _, ok := a.reg.ResolveGo(rt); ok {
		return nil
	}
	if rt.Kind() == reflect.Interface {
		// Dynamic result types resolve per call.
		return nil
	}
	return errors.InvalidInput(errors.PhaseRegister,
		fmt.Sprintf("function %q result type %s is not a registered type", fname, rt))
}

// Lookup returns a registered function descriptor.
func (a *Adapter) Lookup(name string) (*Func, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	f, ok := a.funcs[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseInvoke, "function", name)
	}
	return f, nil
}

// EachFunc iterates over registered functions in name order.
func (a *Adapter) EachFunc(fn func(*Func) bool) {
	a.mu.RLock()
	names := make([]string, 0, len(a.funcs))
	for n := range a.funcs {
		names = append(names, n)
	}
	a.mu.RUnlock()
	sort.Strings(names)
	for _, n := range names {
		a.mu.RLock()
		f := a.funcs[n]
		a.mu.RUnlock()
		if f == nil {
			continue
		}
		if !fn(f) {
			return
		}
	}
}
