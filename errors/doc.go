// Package errors provides structured error types for the tagcast library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the wanted and actual shape names, a field path for
// linear-memory field access, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCast, errors.KindTypeMismatch).
//		Shape("foo").
//		Actual("bar").
//		Detail("object at %#x", ptr).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseCast, "foo", "bar")
//	err := errors.AllocationFailed(errors.PhaseAlloc, 64, 8)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two errors match under errors.Is when their Phase and Kind are equal.
package errors
