package demo

import (
	"fmt"
	"math"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/call"
	"github.com/wippyai/bindkit/ownership"
	"github.com/wippyai/bindkit/registry"
)

// Bindings is the fully wired demo environment.
type Bindings struct {
	Registry *registry.Registry
	Adapter  *call.Adapter
	Arena    *ownership.Arena
}

// Build registers the demo types, conversion rules, and functions, then
// freezes the registry.
func Build() (*Bindings, error) {
	r := registry.New()

	objectT, err := registry.RegisterType[Object](r, "Object", bindkit.RefCounted)
	if err != nil {
		return nil, err
	}
	trackedT, err := registry.RegisterType[*Tracked](r, "Tracked", bindkit.RefCounted,
		registry.WithBase(objectT),
		registry.WithConstructor(NewTracked),
		registry.WithMethod("describe", (*Tracked).Describe))
	if err != nil {
		return nil, err
	}
	boxT, err := registry.RegisterType[*Box](r, "Box", bindkit.SharedExternal,
		registry.WithBase(objectT),
		registry.WithConstructor(NewBox))
	if err != nil {
		return nil, err
	}
	selfBoxT, err := registry.RegisterType[*SelfBox](r, "SelfBox", bindkit.SharedExternal,
		registry.WithBase(objectT),
		registry.WithConstructor(NewSelfBox))
	if err != nil {
		return nil, err
	}
	alphaT, err := registry.RegisterType[*Alpha](r, "Alpha", bindkit.RefCounted,
		registry.WithConstructor(func() *Alpha { return &Alpha{} }))
	if err != nil {
		return nil, err
	}
	betaT, err := registry.RegisterType[*Beta](r, "Beta", bindkit.RefCounted,
		registry.WithBase(alphaT),
		registry.WithConstructor(func() *Beta { return &Beta{} }))
	if err != nil {
		return nil, err
	}
	gammaT, err := registry.RegisterType[*Gamma](r, "Gamma", bindkit.RefCounted,
		registry.WithBase(betaT),
		registry.WithConstructor(func() *Gamma { return &Gamma{} }))
	if err != nil {
		return nil, err
	}

	f64, _ := r.ResolveID(bindkit.TypeFloat64)
	str, _ := r.ResolveID(bindkit.TypeString)
	i64, _ := r.ResolveID(bindkit.TypeInt64)

	rules := []struct {
		src, dst bindkit.TypeID
		fn       registry.ConvertFunc
	}{
		// Whitelists integer construction: Construct("Tracked", int64(n)).
		{i64.ID, trackedT.ID, func(v any) (any, error) {
			return NewTracked(fmt.Sprintf("#%d", v.(int64))), nil
		}},
		{boxT.ID, f64.ID, func(v any) (any, error) {
			return math.Sqrt(v.(*Box).value), nil
		}},
		{selfBoxT.ID, boxT.ID, func(v any) (any, error) {
			return NewBox(4 * v.(*SelfBox).value), nil
		}},
		{alphaT.ID, f64.ID, func(v any) (any, error) {
			return v.(Measurer).Measure(), nil
		}},
		{gammaT.ID, f64.ID, func(v any) (any, error) {
			return v.(Measurer).Measure(), nil
		}},
		{gammaT.ID, str.ID, func(v any) (any, error) {
			return "Pi", nil
		}},
	}
	for _, rule := range rules {
		if err := r.Rules().Register(rule.src, rule.dst, rule.fn); err != nil {
			return nil, err
		}
	}

	adapter := call.NewAdapter(r)

	funcs := []struct {
		name string
		fn   any
		opts []call.FuncOption
	}{
		{"describe", func(o Object) string { return o.Describe() }, nil},
		{"print_double", func(v float64) string { return formatDouble(v) }, nil},
		{"print_string", func(s string) string { return s }, nil},
		{"box_value", func(sh ownership.Shared) float64 {
			return sh.Value().(*Box).Value()
		}, []call.FuncOption{call.WithParamType(0, "Box")}},
		// The print_tracked family takes the same object under each
		// access discipline: raw pointer, value copy, shared handle,
		// handle slot.
		{"print_tracked_ptr", func(t *Tracked) string {
			return "ptr:" + t.Describe()
		}, nil},
		{"print_tracked_copy", func(t Tracked) string {
			return "copy:" + t.Describe()
		}, nil},
		{"print_tracked_ref", func(r ownership.Ref) string {
			return fmt.Sprintf("ref:%s count=%d", r.Value().(*Tracked).Describe(), r.Count())
		}, []call.FuncOption{call.WithParamType(0, "Tracked")}},
		{"print_tracked_handle", func(r *ownership.Ref) string {
			return fmt.Sprintf("handle:%s count=%d", (*r).Value().(*Tracked).Describe(), (*r).Count())
		}, []call.FuncOption{call.WithParamType(0, "Tracked")}},
		{"make_tracked", NewTracked, nil},
		{"make_box", NewBox, nil},
	}
	for _, f := range funcs {
		if err := adapter.RegisterFunc(f.name, f.fn, f.opts...); err != nil {
			return nil, err
		}
	}

	r.Freeze()
	return &Bindings{
		Registry: r,
		Adapter:  adapter,
		Arena:    adapter.Arena(),
	}, nil
}
