package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseSession  Phase = "session"  // engine startup and liveness
	PhaseClassify Phase = "classify" // argument decoding
	PhaseAllocate Phase = "allocate" // slot and buffer allocation
	PhaseCall     Phase = "call"     // foreign call
	PhaseResult   Phase = "result"   // result assembly
	PhaseShutdown Phase = "shutdown" // engine exit
	PhaseStore    Phase = "store"    // global storage
	PhaseEval     Phase = "eval"     // in-process M evaluation
)

// Kind categorizes the error
type Kind string

const (
	KindNotConfigured Kind = "not_configured"
	KindInitFailed    Kind = "init_failed"
	KindParamType     Kind = "param_type"
	KindCapacity      Kind = "capacity"
	KindAllocation    Kind = "allocation"
	KindEngineCall    Kind = "engine_call"
	KindInvalidInput  Kind = "invalid_input"
	KindInvalidData   Kind = "invalid_data"
	KindNotFound      Kind = "not_found"
	KindClosed        Kind = "closed"
	KindUnsupported   Kind = "unsupported"
)

// Sentinels for errors.Is. Matching compares Phase and Kind only.
var (
	ErrNotConfigured = &Error{Phase: PhaseSession, Kind: KindNotConfigured}
	ErrInitFailed    = &Error{Phase: PhaseSession, Kind: KindInitFailed}
	ErrParamType     = &Error{Phase: PhaseClassify, Kind: KindParamType}
	ErrCapacity      = &Error{Phase: PhaseAllocate, Kind: KindCapacity}
	ErrAllocation    = &Error{Phase: PhaseAllocate, Kind: KindAllocation}
	ErrEngineCall    = &Error{Phase: PhaseCall, Kind: KindEngineCall}
	ErrClosed        = &Error{Phase: PhaseSession, Kind: KindClosed}
)

// NoPosition marks an error not tied to an argument position.
const NoPosition = -1

// Error is the structured error type used throughout the bridge
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Routine  string
	Slot     string
	Detail   string
	Position int
	Status   int32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Routine != "" {
		b.WriteString(" in ")
		b.WriteString(e.Routine)
	}

	if e.Position > NoPosition {
		b.WriteString(" at parameter ")
		b.WriteString(strconv.Itoa(e.Position))
	}

	if e.Slot != "" {
		b.WriteString(" (slot ")
		b.WriteString(e.Slot)
		b.WriteByte(')')
	}

	if e.Status != 0 {
		b.WriteString(" status ")
		b.WriteString(strconv.FormatInt(int64(e.Status), 10))
	}

	if e.Detail != "" {
		b.WriteString(": ")
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
			Phase:    phase,
			Kind:     kind,
			Position: NoPosition,
		},
	}
}

// Position sets the argument position
func (b *Builder) Position(pos int) *Builder {
	b.err.Position = pos
	return b
}

// Routine sets the call-in routine name
func (b *Builder) Routine(name string) *Builder {
	b.err.Routine = name
	return b
}

// Slot sets the slot kind name
func (b *Builder) Slot(s string) *Builder {
	b.err.Slot = s
	return b
}

// Status sets the engine status code
func (b *Builder) Status(st int32) *Builder {
	b.err.Status = st
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

// NotConfigured reports a missing environment marker
func NotConfigured(marker string) *Error {
	return &Error{
		Phase:    PhaseSession,
		Kind:     KindNotConfigured,
		Position: NoPosition,
		Detail:   fmt.Sprintf("%s environment variable not set", marker),
	}
}

// InitFailed reports a nonzero engine startup status
func InitFailed(status int32, msg string) *Error {
	return &Error{
		Phase:    PhaseSession,
		Kind:     KindInitFailed,
		Position: NoPosition,
		Status:   status,
		Detail:   msg,
	}
}

// ParamType reports an argument that is not one of the recognized kinds
func ParamType(pos int, value any) *Error {
	return &Error{
		Phase:    PhaseClassify,
		Kind:     KindParamType,
		Position: pos,
		Value:    value,
		Detail:   fmt.Sprintf("unable to process parameter of type %T", value),
	}
}

// CapacityExceeded reports a slot kind with no free slot left
func CapacityExceeded(pos int, slot string, capacity int) *Error {
	return &Error{
		Phase:    PhaseAllocate,
		Kind:     KindCapacity,
		Position: pos,
		Slot:     slot,
		Detail:   fmt.Sprintf("more than %d %s parameters", capacity, slot),
	}
}

// AllocationFailed reports a failed buffer acquisition
func AllocationFailed(size int, cause error) *Error {
	return &Error{
		Phase:    PhaseAllocate,
		Kind:     KindAllocation,
		Position: NoPosition,
		Detail:   fmt.Sprintf("failed to allocate %d bytes", size),
		Cause:    cause,
	}
}

// EngineCall reports a nonzero status from a call-in routine
func EngineCall(routine string, status int32, msg string) *Error {
	return &Error{
		Phase:    PhaseCall,
		Kind:     KindEngineCall,
		Position: NoPosition,
		Routine:  routine,
		Status:   status,
		Detail:   msg,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindInvalidInput,
		Position: NoPosition,
		Detail:   detail,
	}
}

// Closed reports use of a terminated session
func Closed(what string) *Error {
	return &Error{
		Phase:    PhaseSession,
		Kind:     KindClosed,
		Position: NoPosition,
		Detail:   fmt.Sprintf("%s is closed", what),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindNotFound,
		Position: NoPosition,
		Detail:   fmt.Sprintf("%s %q not found", what, name),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnsupported,
		Position: NoPosition,
		Detail:   what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     kind,
		Position: NoPosition,
		Detail:   detail,
		Cause:    cause,
	}
}
