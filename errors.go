// Package xdcopy structured error types for planner and executor diagnostics
package xdcopy

import (
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorType categorizes the error taxonomy the planner and executor report:
// contract violations are precondition failures the caller could have
// avoided by calling IsValid first; capability mismatches mean the
// requested properties aren't supported by the backend; backend errors are
// surfaced from the accelerator runtime itself.
type ErrorType int

const (
	ErrContract ErrorType = iota
	ErrCapability
	ErrBackend
)

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrContract:
		return "Contract"
	case ErrCapability:
		return "Capability"
	case ErrBackend:
		return "Backend"
	default:
		return "Unknown"
	}
}

// Error is a structured diagnostic: an operation name, a type, a message,
// and an optional wrapped cause. Every contract violation the planner
// detects is returned as an *Error rather than panicking, so callers that
// validate upstream with IsValid never see one.
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xdcopy %s error in %s: %s (caused by: %v)", e.Type, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("xdcopy %s error in %s: %s", e.Type, e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error { return e.Err }

func newContractError(op, format string, args ...any) *Error {
	return &Error{Type: ErrContract, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewCapabilityError reports that a Strategy's properties cannot be
// satisfied by a Backend's capabilities (see Backend.CanExecute).
func NewCapabilityError(op, format string, args ...any) *Error {
	return &Error{Type: ErrCapability, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewBackendError wraps an error surfaced by the accelerator runtime
// itself (kernel launch failure, device OOM) during execution.
func NewBackendError(op string, err error) *Error {
	return &Error{Type: ErrBackend, Op: op, Message: err.Error(), Err: err}
}

// ensure is the planner's contract-violation helper. Unlike the reference
// implementation's abort-the-process ensure macro, it logs a structured
// diagnostic and panics with an *Error, which a top-level entry point
// (ManifestStrategy, ApplyChunking, ApplyStaging, ApplyD2DImplementation)
// recovers into an error return via recoverContractError. Preconditions on
// data the caller already validated with IsValid are never expected to
// fail; when they do, that is a programming error worth a loud, located
// diagnostic rather than a swallowed error.
func ensure(cond bool, op, format string, args ...any) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	_, file, line, _ := runtime.Caller(1)
	slog.Error("contract violation", "op", op, "location", fmt.Sprintf("%s:%d", file, line), "message", msg)
	panic(newContractError(op, "%s", msg))
}

// recoverContractError turns a panic raised by ensure into an error
// return, leaving any other panic (a genuine programming bug elsewhere) to
// propagate.
func recoverContractError(errp *error) {
	if r := recover(); r != nil {
		if e, ok := r.(*Error); ok && e.Type == ErrContract {
			*errp = e
			return
		}
		panic(r)
	}
}

// IsContractError reports whether err is a contract-violation *Error.
func IsContractError(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrContract
}

// IsCapabilityError reports whether err is a capability-mismatch *Error.
func IsCapabilityError(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrCapability
}
