// Package domainerrors provides coded errors for the service layer.
//
// Services translate store sentinel errors and invariant violations into
// coded errors; the HTTP layer maps codes onto status codes. Codes travel
// with the error through wrapping, so callers test with HasCode rather than
// string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers and the transport layer.
type Code string

const (
	// CodeNotFound: the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidState: a lifecycle transition was attempted from a state
	// that does not permit it (e.g. confirming a dismissed report).
	CodeInvalidState Code = "invalid_state"
	// CodeBadRequest: the request itself is malformed or incomplete.
	CodeBadRequest Code = "bad_request"
	// CodeConflict: the operation lost a uniqueness or concurrency race.
	CodeConflict Code = "conflict"
	// CodeDataIntegrity: persisted reference data is unusable (e.g. a motif
	// with a missing tier amount). Indicates bad catalog data, not a bad
	// request.
	CodeDataIntegrity Code = "data_integrity"
	// CodeUnavailable: an external collaborator (renderer, broker, database)
	// failed mid-operation.
	CodeUnavailable Code = "unavailable"
	// CodeInternal: unexpected failure with no more specific classification.
	CodeInternal Code = "internal"
)

// Error is a coded error. The zero Code is treated as CodeInternal.
type Error struct {
	code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Message returns the top-level message without wrapped cause detail. The
// HTTP layer uses it so internals never leak into response bodies.
func (e *Error) Message() string { return e.msg }

// Code returns the classification of the error.
func (e *Error) Code() Code {
	if e.code == "" {
		return CodeInternal
	}
	return e.code
}

// New creates a coded error with a message.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while keeping it in the chain
// for errors.Is / errors.As.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: msg, err: err}
}

// CodeOf extracts the code from an error chain, or CodeInternal when the
// chain carries no coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code()
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code() == code
	}
	return false
}

// Is is shorthand for HasCode, reading naturally at call sites:
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool { return HasCode(err, code) }
