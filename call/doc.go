// Package call binds host-side values to the parameters of registered
// functions and wraps their results under the ownership strategy of
// the returned type.
//
// # Binding Model
//
// Every parameter of a registered function resolves at registration
// time to an exposed type and an access mode derived from the Go
// signature:
//
//	*T                pass by raw pointer (AccessRaw)
//	T                 pass an independent copy (AccessCopy)
//	ownership.Ref     retained reference handle (AccessShared)
//	ownership.Shared  shared-group handle (AccessShared)
//	*ownership.Ref    reference to the handle itself (AccessHandleRef)
//	*ownership.Shared reference to the handle itself (AccessHandleRef)
//
// Handle-typed parameters carry no Go-level type information, so the
// exposed type is named explicitly with WithParamType. A parameter
// whose access mode the declared type's strategy cannot satisfy is a
// registration error, never a call-time one.
//
// # Argument Resolution
//
// At call time each argument binds by the first applicable path:
//
//  1. The argument's exposed type is the declared type or one of its
//     subtypes: bind directly under the parameter's access mode.
//  2. A registered conversion rule leads from the argument's type (or
//     a base of it) to the declared type: apply it and bind the
//     result. Exactly one hop; converted values never convert again.
//  3. Otherwise the call fails with a type mismatch before the target
//     function is entered.
//
// Binding is all-or-nothing. Handles retained while binding earlier
// parameters are released if a later parameter fails, so a failed
// call leaves every reference count unchanged.
package call
