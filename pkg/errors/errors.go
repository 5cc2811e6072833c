// Package errors provides structured error types for lineagewalk.
//
// Errors carry a machine-readable [Code] so that the CLI and the HTTP API can
// decide how to react without string matching:
//   - INVALID_*: input validation failures, reported before any query runs
//   - UNKNOWN_DOMAIN, CLASSIFICATION_FAILED: a root could not be classified;
//     the driver skips it and keeps going
//   - LINEAGE_QUERY: the lineage oracle failed; the traversal is aborted
//   - NETWORK_ERROR, TIMEOUT: transport faults, retried at the warehouse boundary
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "max distance %d out of range", d)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLineageQuery, origErr, "lineage of %s", key)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidIdentifier Code = "INVALID_IDENTIFIER"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeConfig            Code = "CONFIG"

	// Classification errors (recovered per root)
	ErrCodeUnknownDomain        Code = "UNKNOWN_DOMAIN"
	ErrCodeClassificationFailed Code = "CLASSIFICATION_FAILED"

	// Lineage oracle errors (abort the traversal)
	ErrCodeLineageQuery Code = "LINEAGE_QUERY"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// Only the outermost *Error in the chain is consulted, so a LINEAGE_QUERY
// error wrapping a NETWORK_ERROR reports LINEAGE_QUERY.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
