package bindkit

import "testing"

func TestStrategySupports(t *testing.T) {
	tests := []struct {
		strategy Strategy
		mode     AccessMode
		want     bool
	}{
		{RawOwned, AccessRaw, true},
		{RawOwned, AccessCopy, true},
		{RawOwned, AccessShared, false},
		{RawOwned, AccessHandleRef, false},
		{RefCounted, AccessRaw, true},
		{RefCounted, AccessCopy, true},
		{RefCounted, AccessShared, true},
		{RefCounted, AccessHandleRef, true},
		{SharedExternal, AccessShared, true},
		{SharedExternal, AccessHandleRef, true},
		{SharedExternal, AccessRaw, true},
	}

	for _, tt := range tests {
		if got := tt.strategy.Supports(tt.mode); got != tt.want {
			t.Errorf("%v.Supports(%v) = %v, want %v", tt.strategy, tt.mode, got, tt.want)
		}
	}
}

func TestTypeIDBuiltin(t *testing.T) {
	if TypeInvalid.Builtin() {
		t.Error("TypeInvalid should not be builtin")
	}
	for _, id := range []TypeID{TypeBool, TypeInt64, TypeFloat64, TypeString} {
		if !id.Builtin() {
			t.Errorf("TypeID %d should be builtin", id)
		}
	}
	if FirstUserType.Builtin() {
		t.Error("FirstUserType should not be builtin")
	}
}

func TestStrategyString(t *testing.T) {
	if RawOwned.String() != "raw-owned" || RefCounted.String() != "ref-counted" || SharedExternal.String() != "shared-external" {
		t.Error("unexpected strategy names")
	}
	if Strategy(99).String() != "unknown" {
		t.Error("out-of-range strategy should stringify as unknown")
	}
}
