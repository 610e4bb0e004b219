package demo

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/ownership"
)

func TestScenarioGolden(t *testing.T) {
	var buf bytes.Buffer
	if err := Scenario(&buf); err != nil {
		t.Fatalf("scenario failed: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "scenario", buf.Bytes())
}

func TestPrintFamilyCoversAccessModes(t *testing.T) {
	b, err := Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	modes := map[string]bindkit.AccessMode{
		"print_tracked_ptr":    bindkit.AccessRaw,
		"print_tracked_copy":   bindkit.AccessCopy,
		"print_tracked_ref":    bindkit.AccessShared,
		"print_tracked_handle": bindkit.AccessHandleRef,
	}
	for name, want := range modes {
		f, err := b.Adapter.Lookup(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		params := f.Params()
		if len(params) != 1 || params[0].Mode != want {
			t.Errorf("%s param mode = %v, want %v", name, params, want)
		}
	}

	obj, err := b.Adapter.Construct("Tracked", "solo")
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	tracked := obj.(ownership.Ref)
	defer tracked.Release()
	for name, want := range map[string]string{
		"print_tracked_ptr":    "ptr:Tracked(solo)",
		"print_tracked_copy":   "copy:Tracked(solo)",
		"print_tracked_ref":    "ref:Tracked(solo) count=2",
		"print_tracked_handle": "handle:Tracked(solo) count=2",
	} {
		out, err := b.Adapter.Invoke(name, tracked)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if out != want {
			t.Errorf("%s = %q, want %q", name, out, want)
		}
		if got := tracked.Count(); got != 1 {
			t.Errorf("%s left count = %d, want 1", name, got)
		}
	}
}

func TestFactoriesWrapByStrategy(t *testing.T) {
	b, err := Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	obj, err := b.Adapter.Invoke("make_tracked", "fresh")
	if err != nil {
		t.Fatalf("make_tracked: %v", err)
	}
	ref, ok := obj.(ownership.Ref)
	if !ok {
		t.Fatalf("make_tracked result = %T, want ownership.Ref", obj)
	}
	if got := ref.Count(); got != 1 {
		t.Fatalf("make_tracked count = %d, want 1", got)
	}
	ref.Release()

	obj, err = b.Adapter.Invoke("make_box", 16.0)
	if err != nil {
		t.Fatalf("make_box: %v", err)
	}
	sh, ok := obj.(ownership.Shared)
	if !ok {
		t.Fatalf("make_box result = %T, want ownership.Shared", obj)
	}
	sh.Release()
}

func TestConstructTrackedFromInt(t *testing.T) {
	b, err := Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	obj, err := b.Adapter.Construct("Tracked", int64(7))
	if err != nil {
		t.Fatalf("construct from int: %v", err)
	}
	ref := obj.(ownership.Ref)
	defer ref.Release()
	if got := ref.Value().(*Tracked).Describe(); got != "Tracked(#7)" {
		t.Fatalf("describe = %q, want %q", got, "Tracked(#7)")
	}

	// Only whitelisted source types construct: a bool has no rule.
	if _, err := b.Adapter.Construct("Tracked", true); err == nil {
		t.Fatal("construction from an unlisted type must fail")
	}
}

func TestDispatchValues(t *testing.T) {
	b, err := Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	cases := []struct {
		typeName string
		want     string
	}{
		{"Alpha", "42"},
		{"Beta", "42"},
		{"Gamma", "3.141592"},
	}
	for _, tc := range cases {
		obj, err := b.Adapter.Construct(tc.typeName)
		if err != nil {
			t.Fatalf("construct %s: %v", tc.typeName, err)
		}
		out, err := b.Adapter.Invoke("print_double", obj)
		if err != nil {
			t.Fatalf("print_double(%s): %v", tc.typeName, err)
		}
		if out != tc.want {
			t.Errorf("print_double(%s) = %q, want %q", tc.typeName, out, tc.want)
		}
	}
}
