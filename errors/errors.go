package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // container unpacking, library loading
	PhaseParse    Phase = "parse"    // modelDescription.xml parsing
	PhaseResolve  Phase = "resolve"  // variable selector resolution
	PhaseCall     Phase = "call"     // native FMI calls
	PhaseSequence Phase = "sequence" // lifecycle state machine
	PhaseSample   Phase = "sample"   // Jacobian sampling
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownVariable   Kind = "unknown_variable"
	KindInvalidSelector   Kind = "invalid_selector"
	KindCapability        Kind = "capability"
	KindSequenceViolation Kind = "sequence_violation"
	KindNativeStatus      Kind = "native_status"
	KindUnsupported       Kind = "unsupported"
	KindLiveInstances     Kind = "live_instances"
	KindInvalidData       Kind = "invalid_data"
	KindNotFound          Kind = "not_found"
	KindNotInitialized    Kind = "not_initialized"
	KindInvalidInput      Kind = "invalid_input"
	KindInstantiation     Kind = "instantiation"
	KindMissingSymbol     Kind = "missing_symbol"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause     error
	Phase     Phase
	Kind      Kind
	Instance  string // instance name, if the error is scoped to one
	Function  string // native entry point involved, e.g. "fmi3DoStep"
	Detail    string
	Status    int32 // native status code for KindNativeStatus
	HasStatus bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Instance != "" {
		b.WriteString(" instance ")
		b.WriteString(e.Instance)
	}

	if e.Function != "" {
		b.WriteString(": ")
		b.WriteString(e.Function)
	}

	if e.HasStatus {
		b.WriteString(fmt.Sprintf(" (status %d)", e.Status))
	}

	if e.Detail != "" {
		if e.Function != "" || e.Instance != "" {
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

// Instance sets the instance name
func (b *Builder) Instance(name string) *Builder {
	b.err.Instance = name
	return b
}

// Function sets the native entry point name
func (b *Builder) Function(fn string) *Builder {
	b.err.Function = fn
	return b
}

// Status sets the native status code
func (b *Builder) Status(s int32) *Builder {
	b.err.Status = s
	b.err.HasStatus = true
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

// UnknownVariable creates a resolution error for a name missing from the manifest
func UnknownVariable(name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnknownVariable,
		Detail: fmt.Sprintf("variable %q not declared in model description", name),
	}
}

// InvalidSelector creates a resolution error for an unsupported selector shape
func InvalidSelector(v any) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindInvalidSelector,
		Detail: fmt.Sprintf("cannot resolve value references from %T", v),
	}
}

// Capability creates an error for an operation illegal for the instance's kind
func Capability(instance, op, kind string) *Error {
	return &Error{
		Phase:    PhaseCall,
		Kind:     KindCapability,
		Instance: instance,
		Detail:   fmt.Sprintf("%s is not available for %s instances", op, kind),
	}
}

// Sequence creates an error for an operation issued outside its legal states
func Sequence(op, state string, allowed ...string) *Error {
	return &Error{
		Phase:  PhaseSequence,
		Kind:   KindSequenceViolation,
		Detail: fmt.Sprintf("%s called in state %s (legal in: %s)", op, state, strings.Join(allowed, ", ")),
	}
}

// NativeStatus creates an error carrying a non-OK native status
func NativeStatus(instance, fn string, status int32) *Error {
	return &Error{
		Phase:     PhaseCall,
		Kind:      KindNativeStatus,
		Instance:  instance,
		Function:  fn,
		Status:    status,
		HasStatus: true,
	}
}

// Unsupported creates an error for an optional native capability the FMU lacks
func Unsupported(fn string) *Error {
	return &Error{
		Phase:    PhaseCall,
		Kind:     KindUnsupported,
		Function: fn,
		Detail:   "entry point not exported by loaded module",
	}
}

// MissingSymbol creates an error for a required symbol absent from the library
func MissingSymbol(fn string, cause error) *Error {
	return &Error{
		Phase:    PhaseLoad,
		Kind:     KindMissingSymbol,
		Function: fn,
		Cause:    cause,
	}
}

// LiveInstances creates an error for unloading a module with undisposed instances
func LiveInstances(count int) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLiveInstances,
		Detail: fmt.Sprintf("%d instance(s) still live", count),
	}
}

// NotInitialized creates a not-initialized error for a missing module/instance
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
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

// Instantiation creates an instantiation error
func Instantiation(instance string, cause error) *Error {
	return &Error{
		Phase:    PhaseCall,
		Kind:     KindInstantiation,
		Instance: instance,
		Detail:   "instantiate FMU",
		Cause:    cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
