package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in a primitive's lifecycle the error occurred
type Phase string

const (
	PhaseCreate  Phase = "create"  // primitive creation
	PhaseAcquire Phase = "acquire" // lock / wait
	PhaseRelease Phase = "release" // unlock / signal
	PhaseJoin    Phase = "join"    // thread join
	PhaseDetach  Phase = "detach"  // thread detach
	PhaseTick    Phase = "tick"    // timer callback invocation
	PhaseDestroy Phase = "destroy" // explicit teardown
	PhaseHost    Phase = "host"    // host function registration/dispatch
)

// Kind categorizes the error
type Kind string

const (
	KindValidation   Kind = "validation"    // malformed or out-of-range arguments
	KindResource     Kind = "resource"      // underlying allocation failure
	KindNotFound     Kind = "not_found"     // unknown or already-removed handle
	KindCallback     Kind = "callback"      // captured failure from a host callback
	KindRegistration Kind = "registration"  // host function registration failure
	KindTypeMismatch Kind = "type_mismatch" // handler is not of the expected shape
	KindClosed       Kind = "closed"        // registry no longer accepting operations
)

// Error is the structured error type used throughout the module.
//
// Creation-time failures surface as *Error; steady-state operational
// failures (lock, wait, signal, detach, destroy) are reported as sentinel
// returns instead so hot paths stay free of error allocation. The one
// exception is thread join, which reports unknown handles as an error.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Handle uint64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Handle != 0 {
		fmt.Fprintf(&b, " handle %d", e.Handle)
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
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Handle sets the handle the operation addressed
func (b *Builder) Handle(h uint64) *Builder {
	b.err.Handle = h
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

// Validation creates a malformed-argument error, reported before any
// resource is allocated.
func Validation(phase Phase, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindValidation,
		Detail: detail,
	}
}

// Resource creates an allocation failure error
func Resource(phase Phase, what string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindResource,
		Detail: fmt.Sprintf("allocate %s", what),
		Cause:  cause,
	}
}

// NotFound creates an unknown-handle error
func NotFound(phase Phase, what string, handle uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("unknown %s handle", what),
		Handle: handle,
	}
}

// Callback wraps a failure captured from a host-supplied callback
func Callback(phase Phase, handle uint64, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCallback,
		Detail: "callback failed",
		Handle: handle,
		Cause:  cause,
	}
}

// Closed creates an error for operations on a closed registry
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s registry closed", what),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindValidation,
		Detail: detail,
	}
}

// Registration creates a host registration error
func Registration(phase Phase, namespace, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", namespace, name),
		Cause:  cause,
	}
}
