// Package demo wires a small but complete binding set: a
// reference-counted object, shared objects with conversion rules and a
// weak self-reference, and a three-level dispatch chain. The CLI demo
// command and the golden test both drive it through Scenario.
package demo

import (
	"fmt"

	"github.com/wippyai/bindkit/ownership"
)

// Object is the base every trackable demo type exposes.
type Object interface {
	Describe() string
}

// Tracked is a reference-counted object.
type Tracked struct {
	name string
}

// NewTracked constructs a Tracked with a label.
func NewTracked(name string) *Tracked {
	return &Tracked{name: name}
}

func (t *Tracked) Describe() string {
	return fmt.Sprintf("Tracked(%s)", t.name)
}

// Destroy satisfies ownership.Destroyer.
func (t *Tracked) Destroy() {}

// CopyValue satisfies ownership.Copier.
func (t *Tracked) CopyValue() any {
	cp := *t
	return &cp
}

// Box is a shared object holding one number. Its conversion rule to
// float64 yields the square root of the value.
type Box struct {
	value float64
}

// NewBox constructs a Box.
func NewBox(v float64) *Box {
	return &Box{value: v}
}

func (b *Box) Describe() string {
	return fmt.Sprintf("Box(%g)", b.value)
}

// Value returns the boxed number.
func (b *Box) Value() float64 {
	return b.value
}

func (b *Box) Destroy() {}

func (b *Box) CopyValue() any {
	cp := *b
	return &cp
}

// SelfBox is a shared object that keeps a weak reference to its own
// slot, so methods can hand out new shares in the existing group. Its
// conversion rule to Box quadruples the value.
type SelfBox struct {
	value float64
	self  ownership.Weak
}

// NewSelfBox constructs a SelfBox.
func NewSelfBox(v float64) *SelfBox {
	return &SelfBox{value: v}
}

func (s *SelfBox) Describe() string {
	return fmt.Sprintf("SelfBox(%g)", s.value)
}

// Value returns the held number.
func (s *SelfBox) Value() float64 {
	return s.value
}

// AttachWeak satisfies ownership.WeakAttacher; the arena calls it when
// the object enters a shared slot.
func (s *SelfBox) AttachWeak(w ownership.Weak) {
	s.self = w
}

// Self derives a new share in the object's existing group. It never
// creates a second independent group.
func (s *SelfBox) Self() (ownership.Shared, error) {
	return s.self.Share()
}

func (s *SelfBox) Destroy() {}

// Measurer is the dispatch seam of the Alpha chain: conversion rules
// call through it, so a derived value measured through a base-typed
// rule still reports its own reading.
type Measurer interface {
	Measure() float64
}

// Alpha is the root of the dispatch chain.
type Alpha struct{}

func (Alpha) Measure() float64 { return 42.0 }

func (*Alpha) Destroy() {}

// Beta adds nothing; it exists to show rule inheritance through an
// intermediate type.
type Beta struct {
	Alpha
}

func (*Beta) Destroy() {}

// Gamma overrides the measurement and adds its own rule to string.
type Gamma struct {
	Beta
}

func (Gamma) Measure() float64 { return 3.141592 }

func (*Gamma) Destroy() {}
