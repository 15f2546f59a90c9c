// Package apperr provides standardized domain error types for the application.
// The engine classifies every failure with a Kind before it crosses the
// per-offer or per-line boundary, so callers can decide between recording an
// outcome and aborting the batch without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindDiscovery indicates the marketplace search itself failed.
	KindDiscovery
	// KindSubmission indicates an error while interacting with one offer
	// (missing page element, disabled action, rejected form).
	KindSubmission
	// KindTimeout indicates an external call exceeded its deadline.
	KindTimeout
	// KindValidation indicates invalid input data.
	KindValidation
	// KindConflict indicates a conflict with existing state (e.g., a batch
	// already being processed by another run).
	KindConflict
	// KindFatal indicates a batch-wide condition that must abort the run.
	KindFatal
)

// Error is a domain error with a typed Kind.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Convenience constructors for common error types.

// Discovery creates an offer-discovery error.
func Discovery(message string) *Error {
	return New(KindDiscovery, message)
}

// Submission creates a per-offer submission error.
func Submission(message string) *Error {
	return New(KindSubmission, message)
}

// Timeout creates an external-call timeout error.
func Timeout(message string) *Error {
	return New(KindTimeout, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Conflict creates a conflict error (e.g., duplicate batch run).
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Fatal creates a batch-aborting error.
func Fatal(message string) *Error {
	return New(KindFatal, message)
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if no *Error is found in the chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
