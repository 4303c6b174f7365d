// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the argument position, slot kind, routine name and
// engine status where they apply, plus a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseClassify, errors.KindParamType).
//		Position(3).
//		Value(arg).
//		Detail("unsupported type %T", arg).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.CapacityExceeded(9, "integer", 8)
//	err := errors.EngineCall("mexec", status, zstatus)
//
// Every class has a sentinel for errors.Is:
//
//	if errors.Is(err, mberrors.ErrCapacity) { ... }
package errors
