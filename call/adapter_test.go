package call

import (
	stderrors "errors"
	"fmt"
	"math"
	"testing"

	"github.com/wippyai/bindkit"
	bkerrors "github.com/wippyai/bindkit/errors"
	"github.com/wippyai/bindkit/ownership"
	"github.com/wippyai/bindkit/registry"
)

// num is a reference-counted fixture whose conversion to float64 takes
// the square root of its value, mirroring the classic implicit
// operator example.
type num struct {
	value float64
}

func (n *num) Destroy() {}

func (n *num) CopyValue() any {
	cp := *n
	return &cp
}

// measurer is the base of the dispatch chain fixtures.
type measurer interface {
	measure() float64
}

type exA struct{}

func (exA) measure() float64 { return 42.0 }

type exB struct{ exA }

type exC struct{ exB }

func (exC) measure() float64 { return math.Pi }

type fixture struct {
	reg     *registry.Registry
	adapter *Adapter

	numT *registry.Type
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := registry.New()

	numT, err := registry.RegisterType[*num](r, "Num", bindkit.RefCounted,
		registry.WithConstructor(func(v int64) *num { return &num{value: float64(v)} }))
	if err != nil {
		t.Fatalf("register Num: %v", err)
	}
	f64, _ := r.ResolveID(bindkit.TypeFloat64)
	if err := r.Rules().Register(numT.ID, f64.ID, func(v any) (any, error) {
		return math.Sqrt(v.(*num).value), nil
	}); err != nil {
		t.Fatalf("register Num->float64: %v", err)
	}

	return &fixture{
		reg:     r,
		adapter: NewAdapter(r),
		numT:    numT,
	}
}

func TestDirectBindRawPointer(t *testing.T) {
	f := newFixture(t)
	var seen *num
	if err := f.adapter.RegisterFunc("inspect", func(n *num) { seen = n }); err != nil {
		t.Fatalf("register inspect: %v", err)
	}

	n := &num{value: 9}
	if _, err := f.adapter.Invoke("inspect", n); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if seen != n {
		t.Fatal("raw binding must pass the caller's pointer through unchanged")
	}
}

func TestSharedBindRetainsForCallOnly(t *testing.T) {
	f := newFixture(t)
	var during int
	err := f.adapter.RegisterFunc("probe", func(r ownership.Ref) {
		during = r.Count()
	}, WithParamType(0, "Num"))
	if err != nil {
		t.Fatalf("register probe: %v", err)
	}

	ref := f.adapter.Arena().NewRef(f.numT.ID, &num{value: 1})
	if _, err := f.adapter.Invoke("probe", ref); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if during != 2 {
		t.Fatalf("count during call = %d, want 2", during)
	}
	if got := ref.Count(); got != 1 {
		t.Fatalf("count after call = %d, want 1", got)
	}
}

func TestHandleRefBindRetainsAndReseats(t *testing.T) {
	f := newFixture(t)
	var during int
	err := f.adapter.RegisterFunc("peek", func(r *ownership.Ref) {
		during = (*r).Count()
	}, WithParamType(0, "Num"))
	if err != nil {
		t.Fatalf("register peek: %v", err)
	}

	ref := f.adapter.Arena().NewRef(f.numT.ID, &num{value: 1})
	defer ref.Release()
	if _, err := f.adapter.Invoke("peek", ref); err != nil {
		t.Fatalf("invoke peek: %v", err)
	}
	if during != 2 {
		t.Fatalf("count during call = %d, want 2", during)
	}
	if got := ref.Count(); got != 1 {
		t.Fatalf("count after call = %d, want 1", got)
	}

	// A callee may reseat the slot: release the incoming reference and
	// point it at another handle. The binding releases whatever the
	// slot holds when the call returns.
	other := f.adapter.Arena().NewRef(f.numT.ID, &num{value: 2})
	defer other.Release()
	err = f.adapter.RegisterFunc("reseat", func(r *ownership.Ref) error {
		if err := (*r).Release(); err != nil {
			return err
		}
		clone, err := other.Clone()
		if err != nil {
			return err
		}
		*r = clone
		return nil
	}, WithParamType(0, "Num"))
	if err != nil {
		t.Fatalf("register reseat: %v", err)
	}

	if _, err := f.adapter.Invoke("reseat", ref); err != nil {
		t.Fatalf("invoke reseat: %v", err)
	}
	if got := ref.Count(); got != 1 {
		t.Fatalf("released original count = %d, want 1", got)
	}
	if got := other.Count(); got != 1 {
		t.Fatalf("reseated clone must be released on return: count = %d, want 1", got)
	}
}

func TestAllOrNothingBinding(t *testing.T) {
	f := newFixture(t)
	entered := false
	err := f.adapter.RegisterFunc("pair", func(r ownership.Ref, s string) {
		entered = true
	}, WithParamType(0, "Num"))
	if err != nil {
		t.Fatalf("register pair: %v", err)
	}

	ref := f.adapter.Arena().NewRef(f.numT.ID, &num{value: 1})
	_, err = f.adapter.Invoke("pair", ref, 3.5)
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseBind, Kind: bkerrors.KindTypeMismatch}) {
		t.Fatalf("expected bind type_mismatch, got %v", err)
	}
	if entered {
		t.Fatal("function must not run when a later argument fails to bind")
	}
	if got := ref.Count(); got != 1 {
		t.Fatalf("failed call leaked a retain: count = %d, want 1", got)
	}
}

func TestConversionSingleHop(t *testing.T) {
	f := newFixture(t)
	if err := f.adapter.RegisterFunc("print_double", func(v float64) string {
		return fmt.Sprintf("%g", v)
	}); err != nil {
		t.Fatalf("register print_double: %v", err)
	}

	obj, err := f.adapter.Construct("Num", int64(9))
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	ref := obj.(ownership.Ref)
	defer ref.Release()

	out, err := f.adapter.Invoke("print_double", ref)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "3" {
		t.Fatalf("print_double(Num(9)) = %q, want %q", out, "3")
	}
}

func TestNoRuleIsTypeMismatch(t *testing.T) {
	f := newFixture(t)
	if err := f.adapter.RegisterFunc("want_string", func(s string) {}); err != nil {
		t.Fatalf("register: %v", err)
	}

	ref := f.adapter.Arena().NewRef(f.numT.ID, &num{value: 1})
	defer ref.Release()
	_, err := f.adapter.Invoke("want_string", ref)
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseBind, Kind: bkerrors.KindTypeMismatch}) {
		t.Fatalf("expected bind type_mismatch, got %v", err)
	}
}

func TestNoChainedConversions(t *testing.T) {
	r := registry.New()
	type stageA struct{ v int64 }
	type stageB struct{ v int64 }
	type stageC struct{ v int64 }
	at, _ := registry.RegisterType[*stageA](r, "StageA", bindkit.RawOwned)
	bt, _ := registry.RegisterType[*stageB](r, "StageB", bindkit.RawOwned)
	ct, _ := registry.RegisterType[*stageC](r, "StageC", bindkit.RawOwned)
	if err := r.Rules().Register(at.ID, bt.ID, func(v any) (any, error) {
		return &stageB{v: v.(*stageA).v}, nil
	}); err != nil {
		t.Fatalf("register A->B: %v", err)
	}
	if err := r.Rules().Register(bt.ID, ct.ID, func(v any) (any, error) {
		return &stageC{v: v.(*stageB).v}, nil
	}); err != nil {
		t.Fatalf("register B->C: %v", err)
	}

	a := NewAdapter(r)
	if err := a.RegisterFunc("sink", func(c *stageC) {}); err != nil {
		t.Fatalf("register sink: %v", err)
	}

	if _, err := a.Invoke("sink", &stageB{v: 1}); err != nil {
		t.Fatalf("one hop must bind: %v", err)
	}
	_, err := a.Invoke("sink", &stageA{v: 1})
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseBind, Kind: bkerrors.KindTypeMismatch}) {
		t.Fatalf("two hops must not chain, got %v", err)
	}
}

func TestDerivedRuleShadowsBase(t *testing.T) {
	r := registry.New()
	at, err := registry.RegisterType[*exA](r, "ExA", bindkit.RefCounted)
	if err != nil {
		t.Fatalf("register ExA: %v", err)
	}
	bt, err := registry.RegisterType[*exB](r, "ExB", bindkit.RefCounted, registry.WithBase(at))
	if err != nil {
		t.Fatalf("register ExB: %v", err)
	}
	ct, err := registry.RegisterType[*exC](r, "ExC", bindkit.RefCounted, registry.WithBase(bt))
	if err != nil {
		t.Fatalf("register ExC: %v", err)
	}
	f64, _ := r.ResolveID(bindkit.TypeFloat64)
	if err := r.Rules().Register(at.ID, f64.ID, func(v any) (any, error) {
		return v.(measurer).measure(), nil
	}); err != nil {
		t.Fatalf("register ExA->float64: %v", err)
	}
	if err := r.Rules().Register(ct.ID, f64.ID, func(v any) (any, error) {
		return v.(measurer).measure(), nil
	}); err != nil {
		t.Fatalf("register ExC->float64: %v", err)
	}

	a := NewAdapter(r)
	if err := a.RegisterFunc("take", func(v float64) float64 { return v }); err != nil {
		t.Fatalf("register take: %v", err)
	}

	cases := []struct {
		name string
		arg  any
		want float64
	}{
		{"base rule", &exA{}, 42.0},
		{"inherited rule", &exB{}, 42.0},
		{"derived override", &exC{}, math.Pi},
	}
	for _, tc := range cases {
		out, err := a.Invoke("take", tc.arg)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if out != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, out, tc.want)
		}
	}
}

func TestHandleParamStrategyCheckedAtRegistration(t *testing.T) {
	r := registry.New()
	type plain struct{ v int64 }
	if _, err := registry.RegisterType[*plain](r, "Plain", bindkit.RawOwned); err != nil {
		t.Fatalf("register Plain: %v", err)
	}
	if _, err := registry.RegisterType[*num](r, "Counted", bindkit.RefCounted); err != nil {
		t.Fatalf("register Counted: %v", err)
	}
	a := NewAdapter(r)

	err := a.RegisterFunc("bad", func(ref ownership.Ref) {}, WithParamType(0, "Plain"))
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseRegister, Kind: bkerrors.KindUnsupportedAccess}) {
		t.Fatalf("raw-owned type behind a handle param must fail registration, got %v", err)
	}
	err = a.RegisterFunc("mixed", func(sh ownership.Shared) {}, WithParamType(0, "Counted"))
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseRegister, Kind: bkerrors.KindUnsupportedAccess}) {
		t.Fatalf("shared handle param over a ref-counted type must fail registration, got %v", err)
	}
	if err := a.RegisterFunc("ok", func(ref ownership.Ref) {}, WithParamType(0, "Counted")); err != nil {
		t.Fatalf("matching handle kind must register: %v", err)
	}
}

func TestHandleParamNeedsDeclaredType(t *testing.T) {
	f := newFixture(t)
	err := f.adapter.RegisterFunc("anon", func(ref ownership.Ref) {})
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseRegister, Kind: bkerrors.KindInvalidInput}) {
		t.Fatalf("handle param without WithParamType must fail, got %v", err)
	}
}

func TestCopyParamIsIndependent(t *testing.T) {
	f := newFixture(t)
	if err := f.adapter.RegisterFunc("mutate", func(n num) float64 {
		n.value = -1
		return n.value
	}); err != nil {
		t.Fatalf("register mutate: %v", err)
	}

	ref := f.adapter.Arena().NewRef(f.numT.ID, &num{value: 7})
	defer ref.Release()
	if _, err := f.adapter.Invoke("mutate", ref); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got := ref.Value().(*num).value; got != 7 {
		t.Fatalf("copy binding mutated the original: value = %v", got)
	}
	if got := ref.Count(); got != 1 {
		t.Fatalf("copy binding changed the original's count: %d", got)
	}
}

func TestResultWrapping(t *testing.T) {
	f := newFixture(t)
	if err := f.adapter.RegisterFunc("make", func(v int64) *num {
		return &num{value: float64(v)}
	}); err != nil {
		t.Fatalf("register make: %v", err)
	}
	if err := f.adapter.RegisterFunc("fail", func() (*num, error) {
		return nil, stderrors.New("boom")
	}); err != nil {
		t.Fatalf("register fail: %v", err)
	}

	out, err := f.adapter.Invoke("make", int64(5))
	if err != nil {
		t.Fatalf("invoke make: %v", err)
	}
	ref, ok := out.(ownership.Ref)
	if !ok {
		t.Fatalf("ref-counted result must wrap as ownership.Ref, got %T", out)
	}
	if got := ref.Count(); got != 1 {
		t.Fatalf("fresh result count = %d, want 1", got)
	}
	if got := ref.Value().(*num).value; got != 5 {
		t.Fatalf("result value = %v, want 5", got)
	}

	if _, err := f.adapter.Invoke("fail"); err == nil || err.Error() != "boom" {
		t.Fatalf("trailing error must propagate unchanged, got %v", err)
	}
}

func TestConstructWrapsByStrategy(t *testing.T) {
	f := newFixture(t)
	out, err := f.adapter.Construct("Num", int64(4))
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	ref, ok := out.(ownership.Ref)
	if !ok {
		t.Fatalf("construct must wrap a ref-counted type, got %T", out)
	}
	if got := ref.Count(); got != 1 {
		t.Fatalf("constructed count = %d, want 1", got)
	}
	ref.Release()

	_, err = f.adapter.Construct("Num", "nine")
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseConstruct, Kind: bkerrors.KindNoMatchingConstructor}) {
		t.Fatalf("expected no_matching_constructor, got %v", err)
	}
}

func TestBindArgumentStandalone(t *testing.T) {
	f := newFixture(t)

	b, err := f.adapter.BindArgument(int64(3), "int64", bindkit.AccessRaw)
	if err != nil {
		t.Fatalf("bind primitive: %v", err)
	}
	if b.Value() != int64(3) {
		t.Fatalf("bound value = %v, want 3", b.Value())
	}
	b.Release()

	_, err = f.adapter.BindArgument("three", "int64", bindkit.AccessRaw)
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseBind, Kind: bkerrors.KindTypeMismatch}) {
		t.Fatalf("expected type_mismatch, got %v", err)
	}

	_, err = f.adapter.BindArgument(int64(3), "int64", bindkit.AccessShared)
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseRegister, Kind: bkerrors.KindUnsupportedAccess}) {
		t.Fatalf("expected unsupported_access, got %v", err)
	}
}

func TestUnknownFunction(t *testing.T) {
	f := newFixture(t)
	_, err := f.adapter.Invoke("missing")
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseInvoke, Kind: bkerrors.KindNotFound}) {
		t.Fatalf("expected invoke not_found, got %v", err)
	}
}
