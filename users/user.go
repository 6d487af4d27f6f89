// Package users provides user-profile stores consulted by the
// authentication gate.
//
// The profile store is authoritative for plan tier and verification status,
// and deleting a profile revokes every session token issued for it.
package users

import (
	"errors"

	"github.com/jassus213/affilify-gate/plan"
)

// ErrNotFound is returned when no profile exists for an id.
var ErrNotFound = errors.New("user not found")

// User is the slice of a profile the admission layer needs.
type User struct {
	ID       string
	Email    string
	Plan     plan.Tier
	Verified bool
}
