// Package errors provides structured error types for the bindkit library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: the source and declared type names,
// a field path, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBind, errors.KindTypeMismatch).
//		Source("Num").
//		Target("string").
//		Detail("no conversion rule registered").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseBind, "Num", "string", "no conversion rule")
//	err := errors.DuplicateRule("Num", "float64")
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when their Phase and Kind agree,
// so callers branch on the taxonomy rather than message text.
package errors
