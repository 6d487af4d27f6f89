package ratelimiter

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient is the identity used when no client address can be
// resolved. All such requests share one bucket.
const UnknownClient = "unknown"

// KeyFunc defines a function type that extracts a unique identifier
// from an HTTP request.
//
// The identifier is used to track individual clients for rate limiting.
type KeyFunc func(r *http.Request) string

// ClientIP is the default KeyFunc. It takes the first X-Forwarded-For entry,
// then X-Real-IP, then the host part of the connection address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return UnknownClient
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if r.RemoteAddr == "" {
		return UnknownClient
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if host == "" {
		return UnknownClient
	}
	return host
}

// RateLimitKey builds the store key for an IP-scoped policy.
func RateLimitKey(policy, identity string) string {
	return "rate_limit:" + policy + ":" + identity
}

// UserLimitKey builds the store key for a user quota.
func UserLimitKey(userID, action string) string {
	return "user_limit:" + userID + ":" + action
}
