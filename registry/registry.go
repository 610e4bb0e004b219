package registry

import (
	"reflect"
	"sync"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/errors"
)

// Registry holds the exposed type table and conversion rules.
// Registration is guarded by a mutex; after Freeze all lookups are
// lock-free reads.
type Registry struct {
	byName map[string]*Type
	byGo   map[reflect.Type]*Type
	byID   map[bindkit.TypeID]*Type
	rules  *RuleTable
	nextID bindkit.TypeID
	frozen bool
	mu     sync.Mutex
}

// New creates a registry with the builtin primitive types pre-registered.
func New() *Registry {
	r := &Registry{
		byName: make(map[string]*Type),
		byGo:   make(map[reflect.Type]*Type),
		byID:   make(map[bindkit.TypeID]*Type),
		nextID: bindkit.FirstUserType,
	}
	r.rules = newRuleTable(r)

	builtins := []struct {
		id bindkit.TypeID
		t  reflect.Type
	}{
		{bindkit.TypeBool, reflect.TypeOf(false)},
		{bindkit.TypeInt64, reflect.TypeOf(int64(0))},
		{bindkit.TypeFloat64, reflect.TypeOf(float64(0))},
		{bindkit.TypeString, reflect.TypeOf("")},
	}
	for _, b := range builtins {
		t := &Type{
			ID:       b.id,
			Name:     b.t.String(),
			Strategy: bindkit.RawOwned,
			GoType:   b.t,
		}
		r.byName[t.Name] = t
		r.byGo[t.GoType] = t
		r.byID[t.ID] = t
	}
	return r
}

// Option configures a type registration.
type Option func(*Type) error

// WithBase declares the single base type for attribute and conversion
// fallthrough.
func WithBase(base *Type) Option {
	return func(t *Type) error {
		if base == nil {
			return errors.InvalidInput(errors.PhaseRegister, "base type is nil")
		}
		t.Base = base
		return nil
	}
}

// WithConstructor registers a factory function: func(args...) T or
// func(args...) (T, error), where T is the type's Go representation.
func WithConstructor(fn any) Option {
	return func(t *Type) error {
		c, err := newConstructor(t, fn)
		if err != nil {
			return err
		}
		t.ctors = append(t.ctors, c)
		return nil
	}
}

// WithMethod exposes a function as a named method of the type. Lookups
// fall through the base chain.
func WithMethod(name string, fn any) Option {
	return func(t *Type) error {
		rv := reflect.ValueOf(fn)
		if rv.Kind() != reflect.Func {
			return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
				Target(t.Name).
				Detail("method %q must be a function, got %T", name, fn).
				Build()
		}
		if t.methods == nil {
			t.methods = make(map[string]reflect.Value)
		}
		if _, exists := t.methods[name]; exists {
			return errors.New(errors.PhaseRegister, errors.KindRegistration).
				Target(t.Name).
				Detail("method %q already registered", name).
				Build()
		}
		t.methods[name] = rv
		return nil
	}
}

// RegisterType registers T as an exposed type. T is the Go representation
// handed to bound functions (usually a pointer type).
func RegisterType[T any](r *Registry, name string, strategy bindkit.Strategy, opts ...Option) (*Type, error) {
	goType := reflect.TypeOf((*T)(nil)).Elem()
	return r.register(name, strategy, goType, opts...)
}

// RegisterPrototype registers a type from a prototype value instead of a
// type parameter, for callers wiring registrations from declarative
// input. The prototype itself is discarded; only its Go type matters.
func (r *Registry) RegisterPrototype(name string, strategy bindkit.Strategy, prototype any, opts ...Option) (*Type, error) {
	if prototype == nil {
		return nil, errors.InvalidInput(errors.PhaseRegister, "prototype value is nil")
	}
	return r.register(name, strategy, reflect.TypeOf(prototype), opts...)
}

func (r *Registry) register(name string, strategy bindkit.Strategy, goType reflect.Type, opts ...Option) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, errors.InvalidInput(errors.PhaseRegister, "registry is frozen")
	}
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseRegister, "type name cannot be empty")
	}
	if _, exists := r.byName[name]; exists {
		return nil, errors.DuplicateType(name)
	}
	if prior, exists := r.byGo[goType]; exists {
		return nil, errors.New(errors.PhaseRegister, errors.KindDuplicateType).
			Target(name).
			Detail("Go type %s already exposed as %q; one ownership strategy per concrete type", goType, prior.Name).
			Build()
	}

	t := &Type{
		ID:       r.nextID,
		Name:     name,
		Strategy: strategy,
		GoType:   goType,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	r.nextID++
	r.byName[name] = t
	r.byGo[goType] = t
	r.byID[t.ID] = t
	return t, nil
}

// Freeze marks the end of registration. Subsequent registrations fail;
// lookups no longer take locks.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether registration has ended.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Rules returns the conversion rule table.
func (r *Registry) Rules() *RuleTable {
	return r.rules
}

// Resolve returns the descriptor for an exposed type name.
func (r *Registry) Resolve(name string) (*Type, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseRegister, "type", name)
	}
	return t, nil
}

// ResolveID returns the descriptor for a type ID.
func (r *Registry) ResolveID(id bindkit.TypeID) (*Type, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// ResolveGo returns the descriptor whose Go representation is rt.
func (r *Registry) ResolveGo(rt reflect.Type) (*Type, bool) {
	t, ok := r.byGo[rt]
	return t, ok
}

// TypeOfValue resolves the exposed type of a host-side value from its
// dynamic Go type. Integer and float widths normalize to the builtin
// int64/float64 types.
func (r *Registry) TypeOfValue(v any) (*Type, bool) {
	switch v.(type) {
	case bool:
		return r.byID[bindkit.TypeBool], true
	case int, int8, int16, int32, int64:
		return r.byID[bindkit.TypeInt64], true
	case float32, float64:
		return r.byID[bindkit.TypeFloat64], true
	case string:
		return r.byID[bindkit.TypeString], true
	}
	t, ok := r.byGo[reflect.TypeOf(v)]
	return t, ok
}

// Each iterates over registered types in ID order, builtins first.
func (r *Registry) Each(fn func(*Type) bool) {
	for id := bindkit.TypeID(1); id < r.nextID; id++ {
		t, ok := r.byID[id]
		if !ok {
			continue
		}
		if !fn(t) {
			return
		}
	}
}

// Construct builds an instance of t from args. A registered constructor
// signature must match exactly; failing that, a single argument whose
// exposed type has a conversion rule into t is converted directly
// (constructible-from whitelist).
func (r *Registry) Construct(t *Type, args []any) (any, error) {
	if v, err, matched := t.construct(args); matched {
		return v, err
	}

	if len(args) == 1 {
		if src, ok := r.TypeOfValue(args[0]); ok {
			if fn, ok := r.rules.Lookup(src.ID, t.ID); ok {
				v, err := fn(Normalize(args[0]))
				if err != nil {
					return nil, errors.Conversion(src.Name, t.Name, err)
				}
				return v, nil
			}
		}
	}

	argTypes := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			argTypes[i] = "nil"
			continue
		}
		argTypes[i] = reflect.TypeOf(a).String()
	}
	return nil, errors.NoMatchingConstructor(t.Name, argTypes)
}

// Normalize widens small integer and float arguments to the builtin
// representations so converters see a single canonical type.
func Normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	}
	return v
}
