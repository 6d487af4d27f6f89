package response_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/ratelimiter"
	"github.com/jassus213/affilify-gate/response"
)

func render(t *testing.T, e *response.Error) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	response.Write(rec, e)
	return rec
}

func TestFromAuth_CredentialReasonsAreIndistinguishable(t *testing.T) {
	reasons := []auth.Reason{auth.ReasonInvalidCredential, auth.ReasonPrincipalGone, auth.ReasonLookupFailed}

	var bodies []string
	for _, reason := range reasons {
		rec := render(t, response.FromAuth(&auth.Error{Reason: reason, Err: errors.New(string(reason))}))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		bodies = append(bodies, rec.Body.String())
	}
	for _, body := range bodies[1:] {
		assert.Equal(t, bodies[0], body)
	}
	assert.JSONEq(t, `{"success":false,"error":"Invalid or expired session","code":"UNAUTHORIZED"}`, bodies[0])
}

func TestFromAuth(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "no credential",
			err:    auth.ErrNoCredential,
			status: http.StatusUnauthorized,
			body:   `{"success":false,"error":"Authentication required","code":"UNAUTHORIZED"}`,
		},
		{
			name:   "insufficient plan",
			err:    &auth.Error{Reason: auth.ReasonInsufficientPlan, Required: plan.Enterprise},
			status: http.StatusForbidden,
			body:   `{"success":false,"error":"Your plan does not include this feature","code":"FORBIDDEN","requiredPlan":"enterprise"}`,
		},
		{
			name:   "not a gate error",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			body:   `{"success":false,"error":"Internal server error","code":"INTERNAL_ERROR"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := render(t, response.FromAuth(tt.err))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestRateLimited(t *testing.T) {
	d := ratelimiter.Decision{Limit: 5, ResetTime: time.Now().Add(time.Minute), RetryAfter: 60}
	rec := render(t, response.RateLimited("Too many authentication attempts, please try again later.", d))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Too many authentication attempts, please try again later.","code":"RATE_LIMIT_EXCEEDED","retryAfter":60}`, rec.Body.String())
}

func TestQuotaExceeded(t *testing.T) {
	rec := render(t, response.QuotaExceeded(ratelimiter.Decision{RetryAfter: 0}))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Plan quota exceeded, upgrade your subscription or try again later","code":"QUOTA_EXCEEDED","retryAfter":0}`, rec.Body.String())
}

func TestError_Error(t *testing.T) {
	assert.Equal(t, "UNAUTHORIZED: Authentication required", response.Unauthorized(response.MessageAuthRequired).Error())
}
