package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister  Phase = "register"  // type and rule registration
	PhaseConstruct Phase = "construct" // object construction
	PhaseBind      Phase = "bind"      // argument binding
	PhaseInvoke    Phase = "invoke"    // function invocation
	PhaseManifest  Phase = "manifest"  // declarative manifest processing
	PhaseHost      Phase = "host"      // guest host-module registration
	PhaseLifecycle Phase = "lifecycle" // handle retain/release/copy
)

// Kind categorizes the error
type Kind string

const (
	KindDuplicateType         Kind = "duplicate_type"
	KindDuplicateRule         Kind = "duplicate_rule"
	KindNotFound              Kind = "not_found"
	KindNoMatchingConstructor Kind = "no_matching_constructor"
	KindTypeMismatch          Kind = "type_mismatch"
	KindUnsupportedAccess     Kind = "unsupported_access"
	KindConversion            Kind = "conversion"
	KindInvalidInput          Kind = "invalid_input"
	KindRegistration          Kind = "registration"
	KindDeadHandle            Kind = "dead_handle"
)

// Error is the structured error type used throughout bindkit
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Source string // dynamic (supplied) type name
	Target string // declared (requested) type name
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Source != "" || e.Target != "" {
		b.WriteString(": ")
		switch {
		case e.Source != "" && e.Target != "":
			b.WriteString(e.Source)
			b.WriteString(" -> ")
			b.WriteString(e.Target)
		case e.Source != "":
			b.WriteString("source ")
			b.WriteString(e.Source)
		default:
			b.WriteString("target ")
			b.WriteString(e.Target)
		}
	}

	if e.Detail != "" {
		if e.Source != "" || e.Target != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Source sets the dynamic type name
func (b *Builder) Source(t string) *Builder {
	b.err.Source = t
	return b
}

// Target sets the declared type name
func (b *Builder) Target(t string) *Builder {
	b.err.Target = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// DuplicateType reports a repeated type registration
func DuplicateType(name string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindDuplicateType,
		Target: name,
		Detail: "type already registered",
	}
}

// DuplicateRule reports a repeated conversion rule for an ordered pair
func DuplicateRule(source, target string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindDuplicateRule,
		Source: source,
		Target: target,
		Detail: "conversion rule already registered for ordered pair",
	}
}

// NotFound reports a failed registry lookup
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// NoMatchingConstructor reports that no registered constructor signature
// matched the supplied arguments
func NoMatchingConstructor(typeName string, argTypes []string) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindNoMatchingConstructor,
		Target: typeName,
		Detail: fmt.Sprintf("no constructor accepts (%s)", strings.Join(argTypes, ", ")),
	}
}

// TypeMismatch reports an argument whose dynamic type neither matches the
// declared type nor reaches it through a single conversion hop
func TypeMismatch(phase Phase, source, target, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Source: source,
		Target: target,
		Detail: detail,
	}
}

// UnsupportedAccess reports a parameter access mode incompatible with the
// declared type's ownership strategy. Detected at registration, not at call time.
func UnsupportedAccess(typeName, strategy, mode string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindUnsupportedAccess,
		Target: typeName,
		Detail: fmt.Sprintf("strategy %s does not support %s access", strategy, mode),
	}
}

// Conversion reports a converter function failure
func Conversion(source, target string, cause error) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindConversion,
		Source: source,
		Target: target,
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration wraps a lower-level failure during function registration
func Registration(phase Phase, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %q", name),
		Cause:  cause,
	}
}

// DeadHandle reports use of a handle whose slot has been destroyed or recycled
func DeadHandle(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDeadHandle,
		Detail: detail,
	}
}
