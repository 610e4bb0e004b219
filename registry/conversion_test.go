package registry

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/bindkit"
	bkerrors "github.com/wippyai/bindkit/errors"
)

func TestRuleRegisterAndLookup(t *testing.T) {
	r := New()
	nt, _ := RegisterType[*num](r, "Num", bindkit.RefCounted)

	f := func(v any) (any, error) { return float64(v.(*num).value), nil }
	if err := r.Rules().Register(nt.ID, bindkit.TypeFloat64, f); err != nil {
		t.Fatal(err)
	}

	got, ok := r.Rules().Lookup(nt.ID, bindkit.TypeFloat64)
	if !ok {
		t.Fatal("registered rule not found")
	}
	v, err := got(&num{value: 2})
	if err != nil || v.(float64) != 2 {
		t.Fatalf("converter returned (%v, %v)", v, err)
	}
}

func TestDuplicateRuleRejected(t *testing.T) {
	r := New()
	nt, _ := RegisterType[*num](r, "Num", bindkit.RefCounted)

	f := func(v any) (any, error) { return 0.0, nil }
	if err := r.Rules().Register(nt.ID, bindkit.TypeFloat64, f); err != nil {
		t.Fatal(err)
	}
	err := r.Rules().Register(nt.ID, bindkit.TypeFloat64, f)
	if !stderrors.Is(err, &bkerrors.Error{Phase: bkerrors.PhaseRegister, Kind: bkerrors.KindDuplicateRule}) {
		t.Fatalf("expected duplicate_rule, got %v", err)
	}
}

func TestRulesAreDirectional(t *testing.T) {
	r := New()
	nt, _ := RegisterType[*num](r, "Num", bindkit.RefCounted)

	if err := r.Rules().Register(nt.ID, bindkit.TypeFloat64, func(v any) (any, error) { return 0.0, nil }); err != nil {
		t.Fatal(err)
	}

	// Registering A -> B says nothing about B -> A.
	if _, ok := r.Rules().Lookup(bindkit.TypeFloat64, nt.ID); ok {
		t.Fatal("reverse lookup must not find the forward rule")
	}
}

func TestRuleUnknownTypesRejected(t *testing.T) {
	r := New()
	f := func(v any) (any, error) { return nil, nil }

	if err := r.Rules().Register(bindkit.TypeID(999), bindkit.TypeFloat64, f); err == nil {
		t.Fatal("unknown source type should be rejected")
	}
	if err := r.Rules().Register(bindkit.TypeFloat64, bindkit.TypeID(999), f); err == nil {
		t.Fatal("unknown target type should be rejected")
	}
	if err := r.Rules().Register(bindkit.TypeInt64, bindkit.TypeFloat64, nil); err == nil {
		t.Fatal("nil converter should be rejected")
	}
}

func TestLookupAlongBaseChain(t *testing.T) {
	r := New()
	a, _ := RegisterType[*struct{ A int }](r, "A", bindkit.RawOwned)
	b, _ := RegisterType[*struct{ B int }](r, "B", bindkit.RawOwned, WithBase(a))
	c, _ := RegisterType[*struct{ C int }](r, "C", bindkit.RawOwned, WithBase(b))

	baseRule := func(v any) (any, error) { return 42.0, nil }
	if err := r.Rules().Register(a.ID, bindkit.TypeFloat64, baseRule); err != nil {
		t.Fatal(err)
	}

	// A rule declared on the base applies to derived instances.
	fn, ok := r.Rules().LookupAlong(c, bindkit.TypeFloat64)
	if !ok {
		t.Fatal("base rule not reachable from derived type")
	}
	v, _ := fn(nil)
	if v.(float64) != 42.0 {
		t.Fatalf("got %v, want base rule result", v)
	}

	// A rule on the derived type shadows the base rule.
	override := func(v any) (any, error) { return 3.141592, nil }
	if err := r.Rules().Register(c.ID, bindkit.TypeFloat64, override); err != nil {
		t.Fatal(err)
	}
	fn, _ = r.Rules().LookupAlong(c, bindkit.TypeFloat64)
	v, _ = fn(nil)
	if v.(float64) != 3.141592 {
		t.Fatalf("got %v, want derived override", v)
	}

	// The base still resolves its own rule.
	fn, _ = r.Rules().LookupAlong(b, bindkit.TypeFloat64)
	v, _ = fn(nil)
	if v.(float64) != 42.0 {
		t.Fatalf("got %v, want base rule for B", v)
	}

	// Exact lookup never walks the chain.
	if _, ok := r.Rules().Lookup(b.ID, bindkit.TypeFloat64); ok {
		t.Fatal("exact lookup must not search the base chain")
	}
}

func TestNoTransitiveClosure(t *testing.T) {
	r := New()
	a, _ := RegisterType[*struct{ A int }](r, "A", bindkit.RawOwned)
	b, _ := RegisterType[*struct{ B int }](r, "B", bindkit.RawOwned)
	c, _ := RegisterType[*struct{ C int }](r, "C", bindkit.RawOwned)

	_ = r.Rules().Register(a.ID, b.ID, func(v any) (any, error) { return nil, nil })
	_ = r.Rules().Register(b.ID, c.ID, func(v any) (any, error) { return nil, nil })

	// A -> B plus B -> C never implies A -> C.
	if _, ok := r.Rules().Lookup(a.ID, c.ID); ok {
		t.Fatal("rules must not chain")
	}
	if _, ok := r.Rules().LookupAlong(a, c.ID); ok {
		t.Fatal("chain lookup must not synthesize multi-hop rules")
	}
}
