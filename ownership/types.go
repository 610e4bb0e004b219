package ownership

import "github.com/wippyai/bindkit"

// Handle is an opaque reference to an arena slot.
// Handle 0 is reserved and always invalid.
type Handle uint32

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventCopied
	EventRetained
	EventReleased
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventCopied:
		return "copied"
	case EventRetained:
		return "retained"
	case EventReleased:
		return "released"
	case EventDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event describes a lifecycle transition of an arena slot.
type Event struct {
	Value    any
	Handle   Handle
	TypeID   bindkit.TypeID
	Strategy bindkit.Strategy
	Type     EventType
	Count    int // strong count after the transition
}

// Observer receives lifecycle events. Observers are side-effect-only:
// panics are recovered by the arena and never propagate.
type Observer interface {
	OnLifecycleEvent(Event)
}

// Destroyer is optionally implemented by values that need cleanup when
// their slot is destroyed.
type Destroyer interface {
	Destroy()
}

// Copier is optionally implemented by values that support copy
// construction. CopyValue must return an independent duplicate.
type Copier interface {
	CopyValue() any
}

// WeakAttacher is optionally implemented by SharedExternal values that
// want a weak back-reference to their own slot, mirroring
// self-referencing shared ownership. The arena calls AttachWeak once,
// immediately after the slot is created.
type WeakAttacher interface {
	AttachWeak(Weak)
}
