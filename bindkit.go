package bindkit

// TypeID identifies an exposed type in a registry.
// TypeID 0 is reserved and always invalid.
type TypeID uint32

// Builtin type IDs. Registries reserve these for the host primitive
// types so conversion rules can target them directly.
const (
	TypeInvalid TypeID = iota
	TypeBool
	TypeInt64
	TypeFloat64
	TypeString

	// FirstUserType is the first ID handed out to registered types.
	FirstUserType TypeID = 16
)

// Builtin reports whether id names one of the reserved primitive types.
func (id TypeID) Builtin() bool {
	return id > TypeInvalid && id < FirstUserType
}

// Strategy is the lifetime discipline governing when an exposed object
// is destroyed and who may destroy it.
type Strategy uint8

const (
	// RawOwned objects are never destroyed by the arena; destruction is
	// the caller's responsibility.
	RawOwned Strategy = iota

	// RefCounted objects carry an intrusive count in their arena slot.
	// Handle construction increments, handle destruction decrements,
	// and the object is destroyed exactly once when the count reaches zero.
	RefCounted

	// SharedExternal objects have their lifetime governed by a share
	// group external to the object itself.
	SharedExternal
)

func (s Strategy) String() string {
	switch s {
	case RawOwned:
		return "raw-owned"
	case RefCounted:
		return "ref-counted"
	case SharedExternal:
		return "shared-external"
	default:
		return "unknown"
	}
}

// AccessMode describes how a bound parameter receives an exposed object.
type AccessMode uint8

const (
	// AccessRaw lends the native value for the duration of the call.
	AccessRaw AccessMode = iota

	// AccessCopy hands the callee an independent duplicate.
	AccessCopy

	// AccessShared hands the callee a strong handle, retained for the
	// duration of the call.
	AccessShared

	// AccessHandleRef hands the callee a pointer to the strong handle.
	AccessHandleRef
)

func (m AccessMode) String() string {
	switch m {
	case AccessRaw:
		return "raw"
	case AccessCopy:
		return "copy"
	case AccessShared:
		return "shared"
	case AccessHandleRef:
		return "handle-ref"
	default:
		return "unknown"
	}
}

// Supports reports whether a parameter declared with mode m is
// compatible with strategy s. Requesting an unsupported mode is a
// registration-time configuration error, never a call-time one.
func (s Strategy) Supports(m AccessMode) bool {
	switch m {
	case AccessRaw, AccessCopy:
		return true
	case AccessShared, AccessHandleRef:
		return s == RefCounted || s == SharedExternal
	default:
		return false
	}
}
