package ratelimiter

import (
	"net/http"
	"strconv"
)

// Header names set on every rate limited response.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Subscription quota headers. They are separate from X-RateLimit-* so both
// stages can report on the same response.
const (
	HeaderQuotaLimit     = "X-Quota-Limit"
	HeaderQuotaRemaining = "X-Quota-Remaining"
	HeaderQuotaReset     = "X-Quota-Reset"
)

// Headers returns the quota headers for d. X-RateLimit-Reset carries the
// window end as unix seconds; Retry-After is only present on denial.
func (d Decision) Headers() http.Header {
	h := make(http.Header, 4)
	h.Set(HeaderLimit, strconv.FormatInt(d.Limit, 10))
	h.Set(HeaderRemaining, strconv.FormatInt(d.Remaining, 10))
	h.Set(HeaderReset, strconv.FormatInt(d.ResetTime.Unix(), 10))
	if !d.Allowed {
		h.Set(HeaderRetryAfter, strconv.FormatInt(d.RetryAfter, 10))
	}
	return h
}

// WriteHeaders copies the quota headers for d into dst.
func (d Decision) WriteHeaders(dst http.Header) {
	for k, v := range d.Headers() {
		dst[k] = v
	}
}

// WriteQuotaHeaders sets the X-Quota-* headers for d on dst, plus
// Retry-After on denial.
func (d Decision) WriteQuotaHeaders(dst http.Header) {
	dst.Set(HeaderQuotaLimit, strconv.FormatInt(d.Limit, 10))
	dst.Set(HeaderQuotaRemaining, strconv.FormatInt(d.Remaining, 10))
	dst.Set(HeaderQuotaReset, strconv.FormatInt(d.ResetTime.Unix(), 10))
	if !d.Allowed {
		dst.Set(HeaderRetryAfter, strconv.FormatInt(d.RetryAfter, 10))
	}
}
