// Package ownership provides arena-backed handle management for exposed objects.
//
// Every object that crosses the binding boundary under a managed lifetime
// lives in an arena slot. The slot records the object's exposed type, its
// ownership strategy, and the mutable state the strategy needs: an
// intrusive reference count for RefCounted slots, or a share group for
// SharedExternal slots. Slots are recycled through a free list; each slot
// carries a generation counter so stale handles are detected instead of
// resolving to a recycled object.
//
// # Handle Kinds
//
// Three handle kinds correspond to the three lifetime disciplines:
//
//	Lend/Drop - RawOwned: the arena records the object but never destroys it
//	Ref       - RefCounted: Clone increments the count, Release decrements it,
//	            the value is destroyed exactly once when the count reaches zero
//	Shared    - SharedExternal: lifetime is governed by a share group; Weak
//	            back-references can derive new shares from within the object
//	            without creating a second share group
//
// Object copies are always independent. Arena.CopyRef duplicates the
// value into a fresh slot with a fresh count of one; the original's count
// is untouched.
//
// # Lifecycle Events
//
// Creation, copy, retain, release, and destruction emit Events to
// subscribed Observers. Observers are diagnostics only: a panicking
// observer is recovered and logged, and can never affect object lifetime
// or control flow.
//
// # Concurrency
//
// Count mutation is a plain non-atomic increment/decrement. An arena and
// its handles must be confined to a single goroutine or synchronized
// externally; registration-time setup (Subscribe) is expected to happen
// before calls are dispatched.
package ownership
