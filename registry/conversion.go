package registry

import (
	"fmt"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/errors"
)

// ConvertFunc transforms a source value into the target representation.
type ConvertFunc func(value any) (any, error)

type ruleKey struct {
	src, dst bindkit.TypeID
}

// RuleTable records directed, single-hop conversion rules. At most one
// rule exists per ordered (source, target) pair; registering A -> B says
// nothing about B -> A, and rules are never chained.
type RuleTable struct {
	reg   *Registry
	rules map[ruleKey]ConvertFunc
}

func newRuleTable(r *Registry) *RuleTable {
	return &RuleTable{
		reg:   r,
		rules: make(map[ruleKey]ConvertFunc),
	}
}

// Register adds a rule for the ordered pair (src, dst). Fails with
// duplicate_rule if the pair already has one.
func (rt *RuleTable) Register(src, dst bindkit.TypeID, fn ConvertFunc) error {
	rt.reg.mu.Lock()
	defer rt.reg.mu.Unlock()

	if rt.reg.frozen {
		return errors.InvalidInput(errors.PhaseRegister, "registry is frozen")
	}
	if fn == nil {
		return errors.InvalidInput(errors.PhaseRegister, "converter function is nil")
	}
	srcType, ok := rt.reg.byID[src]
	if !ok {
		return errors.NotFound(errors.PhaseRegister, "conversion source type", fmt.Sprintf("id %d", src))
	}
	dstType, ok := rt.reg.byID[dst]
	if !ok {
		return errors.NotFound(errors.PhaseRegister, "conversion target type", fmt.Sprintf("id %d", dst))
	}

	key := ruleKey{src: src, dst: dst}
	if _, exists := rt.rules[key]; exists {
		return errors.DuplicateRule(srcType.Name, dstType.Name)
	}
	rt.rules[key] = fn
	return nil
}

// Lookup returns the converter for the exact ordered pair. No symmetry,
// no base-chain search, no chaining.
func (rt *RuleTable) Lookup(src, dst bindkit.TypeID) (ConvertFunc, bool) {
	fn, ok := rt.rules[ruleKey{src: src, dst: dst}]
	return fn, ok
}

// LookupAlong walks the dynamic type's base chain and returns the rule
// bound to the nearest declaring ancestor. A rule on the derived type
// shadows one on its base, so conversion dispatch follows the concrete
// type even when the rule was declared on a base. Still a single hop.
func (rt *RuleTable) LookupAlong(dynamic *Type, dst bindkit.TypeID) (ConvertFunc, bool) {
	for cur := dynamic; cur != nil; cur = cur.Base {
		if fn, ok := rt.rules[ruleKey{src: cur.ID, dst: dst}]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Len returns the number of registered rules.
func (rt *RuleTable) Len() int {
	return len(rt.rules)
}

// Each iterates over registered rules.
func (rt *RuleTable) Each(fn func(src, dst *Type) bool) {
	for key := range rt.rules {
		src, dst := rt.reg.byID[key.src], rt.reg.byID[key.dst]
		if src == nil || dst == nil {
			continue
		}
		if !fn(src, dst) {
			return
		}
	}
}
