// Package dErrors provides coded domain errors for the ledger and decision
// services.
//
// Services return these so transport layers can translate them into HTTP
// statuses without string matching. Infrastructure layers should return
// pkg/platform/sentinel errors instead; services translate at the boundary.
package dErrors

import (
	"errors"
	"fmt"
)

// Code identifies the error class. Codes are part of the API contract: they
// appear verbatim in the JSON error envelope.
type Code string

const (
	// CodeUnauthenticated means no caller identity was presented.
	CodeUnauthenticated Code = "unauthenticated"

	// CodeUnauthorized means the caller identity is not permitted to perform
	// the operation (wrong oracle, wrong owner, wrong requester).
	CodeUnauthorized Code = "unauthorized"

	// CodeNotFound means the referenced entity does not exist.
	CodeNotFound Code = "not_found"

	// State-conflict codes. The caller holds a stale view and must re-read
	// current state rather than retry.
	CodeAlreadyFulfilled Code = "already_fulfilled"
	CodeAlreadyRevealed  Code = "already_revealed"
	CodeAlreadyReviewed  Code = "already_reviewed"

	// CodeNotApproved means the referenced request is not in the
	// fulfilled-and-approved state a review requires.
	CodeNotApproved Code = "not_approved"

	// Validation codes. Caller bugs, never retried.
	CodeInvalidRating Code = "invalid_rating"
	CodeInvalidReveal Code = "invalid_reveal"
	CodeInvalidInput  Code = "invalid_input"
	CodeValidation    Code = "validation_error"
	CodeBadRequest    Code = "bad_request"

	// CodeNoSources means every price provider was unavailable. The only
	// code a higher layer may reasonably retry after a delay.
	CodeNoSources Code = "no_sources_available"

	CodeInternal Code = "internal_error"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error preserving an underlying cause for logs.
// The cause is never exposed in API responses.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, wrapped: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// non-domain errors so unexpected failures never leak detail.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
