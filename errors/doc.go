// Package errors provides structured error types for the fmi-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: the instance name, the
// native entry point involved, the native status code, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCall, errors.KindNativeStatus).
//		Instance("pump").
//		Function("fmi2DoStep").
//		Status(3).
//		Detail("step rejected").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownVariable("ball.h")
//	err := errors.Sequence("enterContinuousTimeMode", "event-mode", "terminated")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
