// Package response defines the uniform JSON error envelope returned by
// AFFILIFY routes when the admission layer denies a request.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/ratelimiter"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeQuotaExceeded     Code = "QUOTA_EXCEEDED"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Messages shown for 401 denials. Every credential problem after the token
// was presented shares one message so a response never tells an
// invalid token apart from a deleted account.
const (
	MessageAuthRequired = "Authentication required"
	MessageAuthInvalid  = "Invalid or expired session"
)

// Error is the body of every admission denial.
type Error struct {
	Status       int    `json:"-"`
	Success      bool   `json:"success"`
	Message      string `json:"error"`
	Code         Code   `json:"code"`
	RetryAfter   *int64 `json:"retryAfter,omitempty"`
	RequiredPlan string `json:"requiredPlan,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Unauthorized builds a 401 envelope.
func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg, Code: CodeUnauthorized}
}

// Internal builds a 500 envelope.
func Internal() *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "Internal server error", Code: CodeInternal}
}

// FromAuth maps a gate denial to its envelope.
func FromAuth(err error) *Error {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		return Internal()
	}
	switch authErr.Reason {
	case auth.ReasonNoCredential:
		return Unauthorized(MessageAuthRequired)
	case auth.ReasonInsufficientPlan:
		return &Error{
			Status:       http.StatusForbidden,
			Message:      "Your plan does not include this feature",
			Code:         CodeForbidden,
			RequiredPlan: authErr.Required.String(),
		}
	default:
		return Unauthorized(MessageAuthInvalid)
	}
}

// RateLimited builds a 429 envelope for an IP-scoped denial.
func RateLimited(msg string, d ratelimiter.Decision) *Error {
	retry := d.RetryAfter
	return &Error{
		Status:     http.StatusTooManyRequests,
		Message:    msg,
		Code:       CodeRateLimitExceeded,
		RetryAfter: &retry,
	}
}

// QuotaExceeded builds a 429 envelope for an exhausted subscription quota.
func QuotaExceeded(d ratelimiter.Decision) *Error {
	retry := d.RetryAfter
	return &Error{
		Status:     http.StatusTooManyRequests,
		Message:    "Plan quota exceeded, upgrade your subscription or try again later",
		Code:       CodeQuotaExceeded,
		RetryAfter: &retry,
	}
}

// Write renders e as JSON on w.
func Write(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}
