package ownership

import (
	"go.uber.org/zap"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/errors"
)

type slot struct {
	value      any
	group      *shareGroup
	typeID     bindkit.TypeID
	refs       int
	generation uint32
	strategy   bindkit.Strategy
	valid      bool
}

// shareGroup is the count external to a SharedExternal object. Every
// Shared handle in the same group aliases this count; destroying the
// object happens exactly once, when the group reaches zero.
type shareGroup struct {
	count int
}

// Arena is the slot table backing all managed handles.
type Arena struct {
	slots     []slot
	freeList  []Handle
	observers []Observer
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		slots:    make([]slot, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Subscribe adds an observer for lifecycle events.
func (a *Arena) Subscribe(o Observer) {
	a.observers = append(a.observers, o)
}

// Unsubscribe removes an observer.
func (a *Arena) Unsubscribe(o Observer) {
	for i, obs := range a.observers {
		if obs == o {
			a.observers = append(a.observers[:i], a.observers[i+1:]...)
			return
		}
	}
}

func (a *Arena) alloc(s slot) Handle {
	if len(a.freeList) > 0 {
		h := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		s.generation = a.slots[h-1].generation
		a.slots[h-1] = s
		return h
	}
	a.slots = append(a.slots, s)
	return Handle(len(a.slots))
}

func (a *Arena) at(h Handle) *slot {
	if h == 0 || int(h) > len(a.slots) {
		return nil
	}
	s := &a.slots[h-1]
	if !s.valid {
		return nil
	}
	return s
}

func (a *Arena) live(h Handle, gen uint32) *slot {
	s := a.at(h)
	if s == nil || s.generation != gen {
		return nil
	}
	return s
}

// Lend registers a caller-owned value and returns its handle. The arena
// never destroys a lent value; Drop merely forgets it.
func (a *Arena) Lend(typeID bindkit.TypeID, value any) Handle {
	h := a.alloc(slot{
		value:    value,
		typeID:   typeID,
		strategy: bindkit.RawOwned,
		valid:    true,
	})
	a.notify(Event{Type: EventCreated, Handle: h, TypeID: typeID, Strategy: bindkit.RawOwned, Value: value})
	return h
}

// Drop forgets a lent value without destroying it. Only RawOwned slots
// may be dropped; managed slots are destroyed by their handles.
func (a *Arena) Drop(h Handle) (any, bool) {
	s := a.at(h)
	if s == nil || s.strategy != bindkit.RawOwned {
		return nil, false
	}
	value := s.value
	a.retire(h, s)
	a.notify(Event{Type: EventReleased, Handle: h, TypeID: s.typeID, Strategy: bindkit.RawOwned, Value: value})
	return value, true
}

// NewRef stores a value under the RefCounted discipline and returns the
// first strong handle. The count starts at one.
func (a *Arena) NewRef(typeID bindkit.TypeID, value any) Ref {
	h := a.alloc(slot{
		value:    value,
		typeID:   typeID,
		strategy: bindkit.RefCounted,
		refs:     1,
		valid:    true,
	})
	s := &a.slots[h-1]
	a.notify(Event{Type: EventCreated, Handle: h, TypeID: typeID, Strategy: bindkit.RefCounted, Value: value, Count: 1})
	return Ref{arena: a, h: h, gen: s.generation}
}

// NewShared stores a value under the SharedExternal discipline. The share
// group starts at one. If the value implements WeakAttacher it receives a
// weak back-reference to its own slot.
func (a *Arena) NewShared(typeID bindkit.TypeID, value any) Shared {
	h := a.alloc(slot{
		value:    value,
		typeID:   typeID,
		strategy: bindkit.SharedExternal,
		group:    &shareGroup{count: 1},
		valid:    true,
	})
	s := &a.slots[h-1]
	if wa, ok := value.(WeakAttacher); ok {
		wa.AttachWeak(Weak{arena: a, h: h, gen: s.generation})
	}
	a.notify(Event{Type: EventCreated, Handle: h, TypeID: typeID, Strategy: bindkit.SharedExternal, Value: value, Count: 1})
	return Shared{arena: a, h: h, gen: s.generation}
}

// retain bumps the strong count of a live managed slot.
func (a *Arena) retain(h Handle, gen uint32) (int, error) {
	s := a.live(h, gen)
	if s == nil {
		return 0, errors.DeadHandle(errors.PhaseLifecycle, "retain on dead or recycled handle")
	}
	var count int
	switch s.strategy {
	case bindkit.RefCounted:
		s.refs++
		count = s.refs
	case bindkit.SharedExternal:
		s.group.count++
		count = s.group.count
	default:
		return 0, errors.InvalidInput(errors.PhaseLifecycle, "retain on unmanaged slot")
	}
	a.notify(Event{Type: EventRetained, Handle: h, TypeID: s.typeID, Strategy: s.strategy, Value: s.value, Count: count})
	return count, nil
}

// release drops one strong count and destroys the value exactly once
// when the count reaches zero.
func (a *Arena) release(h Handle, gen uint32) error {
	s := a.live(h, gen)
	if s == nil {
		return errors.DeadHandle(errors.PhaseLifecycle, "release on dead or recycled handle")
	}
	var count int
	switch s.strategy {
	case bindkit.RefCounted:
		s.refs--
		count = s.refs
	case bindkit.SharedExternal:
		s.group.count--
		count = s.group.count
	default:
		return errors.InvalidInput(errors.PhaseLifecycle, "release on unmanaged slot")
	}
	a.notify(Event{Type: EventReleased, Handle: h, TypeID: s.typeID, Strategy: s.strategy, Value: s.value, Count: count})
	if count == 0 {
		a.destroy(h, s)
	}
	return nil
}

// destroy tears down a slot's value. The valid flag guarantees this runs
// at most once per slot incarnation.
func (a *Arena) destroy(h Handle, s *slot) {
	value := s.value
	if d, ok := value.(Destroyer); ok {
		d.Destroy()
	}
	typeID, strategy := s.typeID, s.strategy
	a.retire(h, s)
	a.notify(Event{Type: EventDestroyed, Handle: h, TypeID: typeID, Strategy: strategy, Value: value})
}

func (a *Arena) retire(h Handle, s *slot) {
	s.valid = false
	s.value = nil
	s.group = nil
	s.refs = 0
	s.generation++
	a.freeList = append(a.freeList, h)
}

// copySlot duplicates a managed value into a fresh slot with a fresh
// count of one. The original's count is untouched.
func (a *Arena) copySlot(h Handle, gen uint32) (Handle, uint32, error) {
	s := a.live(h, gen)
	if s == nil {
		return 0, 0, errors.DeadHandle(errors.PhaseLifecycle, "copy of dead or recycled handle")
	}
	c, ok := s.value.(Copier)
	if !ok {
		return 0, 0, errors.New(errors.PhaseLifecycle, errors.KindInvalidInput).
			Detail("value of type %T does not support copy construction", s.value).
			Build()
	}
	dup := c.CopyValue()
	typeID, strategy := s.typeID, s.strategy

	var ns slot
	switch strategy {
	case bindkit.RefCounted:
		ns = slot{value: dup, typeID: typeID, strategy: strategy, refs: 1, valid: true}
	case bindkit.SharedExternal:
		ns = slot{value: dup, typeID: typeID, strategy: strategy, group: &shareGroup{count: 1}, valid: true}
	default:
		return 0, 0, errors.InvalidInput(errors.PhaseLifecycle, "copy of unmanaged slot")
	}
	nh := a.alloc(ns)
	nsl := &a.slots[nh-1]
	if strategy == bindkit.SharedExternal {
		if wa, ok := dup.(WeakAttacher); ok {
			wa.AttachWeak(Weak{arena: a, h: nh, gen: nsl.generation})
		}
	}
	a.notify(Event{Type: EventCopied, Handle: nh, TypeID: typeID, Strategy: strategy, Value: dup, Count: 1})
	return nh, nsl.generation, nil
}

// CopyRef copy-constructs an independent RefCounted object.
func (a *Arena) CopyRef(r Ref) (Ref, error) {
	h, gen, err := a.copySlot(r.h, r.gen)
	if err != nil {
		return Ref{}, err
	}
	return Ref{arena: a, h: h, gen: gen}, nil
}

// CopyShared copy-constructs an independent SharedExternal object with
// its own share group.
func (a *Arena) CopyShared(s Shared) (Shared, error) {
	h, gen, err := a.copySlot(s.h, s.gen)
	if err != nil {
		return Shared{}, err
	}
	return Shared{arena: a, h: h, gen: gen}, nil
}

// Get retrieves a value by handle.
func (a *Arena) Get(h Handle) (any, bool) {
	s := a.at(h)
	if s == nil {
		return nil, false
	}
	return s.value, true
}

// TypeID returns the exposed type of a live slot.
func (a *Arena) TypeID(h Handle) (bindkit.TypeID, bool) {
	s := a.at(h)
	if s == nil {
		return 0, false
	}
	return s.typeID, true
}

// StrategyOf returns the ownership strategy of a live slot.
func (a *Arena) StrategyOf(h Handle) (bindkit.Strategy, bool) {
	s := a.at(h)
	if s == nil {
		return 0, false
	}
	return s.strategy, true
}

// Count returns the strong count of a live managed slot, or 0.
func (a *Arena) Count(h Handle) int {
	s := a.at(h)
	if s == nil {
		return 0
	}
	switch s.strategy {
	case bindkit.RefCounted:
		return s.refs
	case bindkit.SharedExternal:
		return s.group.count
	default:
		return 0
	}
}

// Len returns the number of live slots.
func (a *Arena) Len() int {
	count := 0
	for i := range a.slots {
		if a.slots[i].valid {
			count++
		}
	}
	return count
}

// Each iterates over all live slots.
func (a *Arena) Each(fn func(Handle, bindkit.TypeID, any) bool) {
	for i := range a.slots {
		if a.slots[i].valid {
			if !fn(Handle(i+1), a.slots[i].typeID, a.slots[i].value) {
				return
			}
		}
	}
}

// notify fans an event out to observers. Observer panics are recovered:
// hooks are diagnostics only and never affect object lifetime.
func (a *Arena) notify(e Event) {
	for _, o := range a.observers {
		a.notifyOne(o, e)
	}
}

func (a *Arena) notifyOne(o Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("lifecycle observer panicked",
				zap.String("event", e.Type.String()),
				zap.Uint32("handle", uint32(e.Handle)),
				zap.Any("panic", r))
		}
	}()
	o.OnLifecycleEvent(e)
}
