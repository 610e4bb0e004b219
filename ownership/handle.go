package ownership

// Ref is a strong handle to a RefCounted slot. Constructing a handle
// (NewRef, Clone) increments the intrusive count; Release decrements it.
// The zero Ref is dead.
type Ref struct {
	arena *Arena
	h     Handle
	gen   uint32
}

// Clone constructs a new strong handle to the same object, incrementing
// the count.
func (r Ref) Clone() (Ref, error) {
	if _, err := r.arena.retain(r.h, r.gen); err != nil {
		return Ref{}, err
	}
	return r, nil
}

// Release destroys this handle. When the count reaches zero the object
// is destroyed, exactly once.
func (r Ref) Release() error {
	return r.arena.release(r.h, r.gen)
}

// Value returns the underlying object, or nil if the handle is dead.
func (r Ref) Value() any {
	s := r.arena.live(r.h, r.gen)
	if s == nil {
		return nil
	}
	return s.value
}

// Count returns the current count, or 0 if the handle is dead.
func (r Ref) Count() int {
	if r.arena.live(r.h, r.gen) == nil {
		return 0
	}
	return r.arena.Count(r.h)
}

// Alive reports whether the handle still resolves to a live slot.
func (r Ref) Alive() bool {
	return r.arena != nil && r.arena.live(r.h, r.gen) != nil
}

// Handle returns the underlying arena handle.
func (r Ref) Handle() Handle { return r.h }

// Shared is a strong handle into a SharedExternal slot's share group.
// The zero Shared is dead.
type Shared struct {
	arena *Arena
	h     Handle
	gen   uint32
}

// Clone derives a new share in the same group, incrementing the group count.
func (s Shared) Clone() (Shared, error) {
	if _, err := s.arena.retain(s.h, s.gen); err != nil {
		return Shared{}, err
	}
	return s, nil
}

// Release drops this share. When the group reaches zero the object is
// destroyed, exactly once.
func (s Shared) Release() error {
	return s.arena.release(s.h, s.gen)
}

// Value returns the underlying object, or nil if the handle is dead.
func (s Shared) Value() any {
	sl := s.arena.live(s.h, s.gen)
	if sl == nil {
		return nil
	}
	return sl.value
}

// Count returns the current share-group count, or 0 if the handle is dead.
func (s Shared) Count() int {
	if s.arena.live(s.h, s.gen) == nil {
		return 0
	}
	return s.arena.Count(s.h)
}

// Alive reports whether the handle still resolves to a live slot.
func (s Shared) Alive() bool {
	return s.arena != nil && s.arena.live(s.h, s.gen) != nil
}

// Handle returns the underlying arena handle.
func (s Shared) Handle() Handle { return s.h }

// Weak is a back-reference to a SharedExternal slot: a slot index plus
// generation counter resolved through the owning arena. It holds no
// strong count and never keeps the object alive.
type Weak struct {
	arena *Arena
	h     Handle
	gen   uint32
}

// Share derives a new strong share in the slot's existing group. It
// never creates a second independent share group. Fails once the object
// has been destroyed.
func (w Weak) Share() (Shared, error) {
	if _, err := w.arena.retain(w.h, w.gen); err != nil {
		return Shared{}, err
	}
	return Shared{arena: w.arena, h: w.h, gen: w.gen}, nil
}

// Alive reports whether the referenced slot is still live.
func (w Weak) Alive() bool {
	return w.arena != nil && w.arena.live(w.h, w.gen) != nil
}
