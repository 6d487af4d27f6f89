package auth

import (
	"errors"
	"fmt"

	"github.com/jassus213/affilify-gate/plan"
)

// Reason classifies why the gate denied a request.
type Reason string

const (
	ReasonNoCredential      Reason = "NO_CREDENTIAL"
	ReasonInvalidCredential Reason = "INVALID_CREDENTIAL"
	ReasonPrincipalGone     Reason = "PRINCIPAL_GONE"
	ReasonLookupFailed      Reason = "LOOKUP_FAILED"
	ReasonInsufficientPlan  Reason = "INSUFFICIENT_PLAN"
)

// Error is returned for every denial. Reason is kept for logs and metrics;
// the HTTP layer folds the credential reasons into one response.
type Error struct {
	Reason Reason
	// Required is the minimum tier for ReasonInsufficientPlan.
	Required plan.Tier
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := "auth: " + string(e.Reason)
	if e.Reason == ReasonInsufficientPlan {
		msg += fmt.Sprintf(" (requires %s)", e.Required)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error with the same Reason, so the sentinel values
// below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Reason == e.Reason
}

// Sentinel denials for errors.Is.
var (
	ErrNoCredential      = &Error{Reason: ReasonNoCredential}
	ErrInvalidCredential = &Error{Reason: ReasonInvalidCredential}
	ErrPrincipalGone     = &Error{Reason: ReasonPrincipalGone}
	ErrLookupFailed      = &Error{Reason: ReasonLookupFailed}
	ErrInsufficientPlan  = &Error{Reason: ReasonInsufficientPlan}
)

// ReasonOf returns the denial reason carried by err, or "" if err is not
// a gate denial.
func ReasonOf(err error) Reason {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return ""
}

func deny(reason Reason, err error) *Error {
	return &Error{Reason: reason, Err: err}
}
