package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/users"
)

func TestMemoryStore(t *testing.T) {
	s := users.NewMemoryStore(users.User{ID: "1", Email: "a@example.com", Plan: plan.Pro, Verified: true})
	ctx := context.Background()

	u, err := s.LookupUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, plan.Pro, u.Plan)

	// The returned profile is a copy.
	u.Plan = plan.Free
	again, err := s.LookupUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, plan.Pro, again.Plan)

	s.Put(users.User{ID: "1", Email: "a@example.com", Plan: plan.Enterprise})
	u, err = s.LookupUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, plan.Enterprise, u.Plan)

	s.Delete("1")
	_, err = s.LookupUser(ctx, "1")
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := users.NewMemoryStore(users.User{ID: "1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.LookupUser(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, users.ErrNotFound)
}
