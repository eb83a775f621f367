// Package domainerrors provides coded errors for business-rule failures.
//
// Services return these so transports can map them to status codes without
// string matching. Stores return pkg/platform/sentinel errors instead;
// services translate at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and assertions.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal_error"

	// Workflow codes. Each maps to one precondition of the review engine.

	// CodeMissingReason: a negative or escalating decision was submitted
	// without the mandatory reason. Carries the offending field.
	CodeMissingReason Code = "missing_reason"
	// CodeIllegalTransition: the decision kind is not legal from the
	// report's current lifecycle state.
	CodeIllegalTransition Code = "illegal_transition"
	// CodeStaleState: optimistic concurrency conflict; another actor
	// decided first and the caller's view of the report is outdated.
	CodeStaleState Code = "stale_state"
	// CodeAlreadyAssigned: the report has an active assignee and the
	// caller lacks reassignment authority.
	CodeAlreadyAssigned Code = "already_assigned"
	// CodeNotAssignable: the report's lifecycle state does not accept
	// assignment (terminal or not yet queued).
	CodeNotAssignable Code = "not_assignable"
	// CodeSelfApproval: the escalation approver is the actor who issued
	// the original escalation.
	CodeSelfApproval Code = "self_approval"
	// CodeRateLimited: the reporting entity exhausted its intake window.
	CodeRateLimited Code = "rate_limited"
)

// Error is a coded domain error. Field is set for input defects that a
// client should redisplay next to a form field.
type Error struct {
	Code    Code
	Message string
	Field   string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with a code and caller-facing message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// NewField creates a domain error tied to a specific input field.
func NewField(code Code, field, message string) error {
	return &Error{Code: code, Message: message, Field: field}
}

// Wrap annotates an underlying error with a domain code. The cause is
// preserved for errors.Is/As; the message is what callers see.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf extracts the outermost domain code, or CodeInternal when err is
// not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldOf extracts the field name attached to err, if any.
func FieldOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
