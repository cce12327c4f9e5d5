// Package errors provides structured error types for the native-sync library.
//
// Errors are categorized by Phase (where in the primitive lifecycle the error
// occurred) and Kind (error category). The Error type carries the offending
// handle and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCreate, errors.KindValidation).
//		Detail("initial count %d exceeds max count %d", initial, max).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Validation(errors.PhaseCreate, "timer interval must be positive")
//	err := errors.NotFound(errors.PhaseJoin, "thread", uint64(h))
//
// All errors implement the standard error interface and support errors.Is/As.
//
// Only creation-time failures and thread join surface as errors; steady-state
// operations report failure through sentinel returns instead.
package errors
