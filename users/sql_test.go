package users_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/users"
)

func newSQLiteStore(t *testing.T) (*users.SQLStore, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s := users.NewSQLStore(db, users.SQLite)
	require.NoError(t, s.Migrate(context.Background()))
	return s, db
}

func TestSQLStore_RoundTrip(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, users.User{ID: "u1", Email: "u1@example.com", Plan: plan.Basic, Verified: true}))

	u, err := s.LookupUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, users.User{ID: "u1", Email: "u1@example.com", Plan: plan.Basic, Verified: true}, *u)

	require.NoError(t, s.Upsert(ctx, users.User{ID: "u1", Email: "u1@example.com", Plan: plan.Enterprise}))
	u, err = s.LookupUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, plan.Enterprise, u.Plan)
	assert.False(t, u.Verified)

	require.NoError(t, s.Delete(ctx, "u1"))
	_, err = s.LookupUser(ctx, "u1")
	assert.ErrorIs(t, err, users.ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "u1"))
}

func TestSQLStore_MigrateIsIdempotent(t *testing.T) {
	s, _ := newSQLiteStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestSQLStore_UnknownPlanIsAnError(t *testing.T) {
	s, db := newSQLiteStore(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO users (id, email, plan, verified) VALUES ('u2', 'u2@example.com', 'gold', 0)`)
	require.NoError(t, err)

	_, err = s.LookupUser(ctx, "u2")
	assert.ErrorIs(t, err, plan.ErrUnknownTier)
	assert.NotErrorIs(t, err, users.ErrNotFound)
}

func TestSQLStore_ClosedDatabase(t *testing.T) {
	s, db := newSQLiteStore(t)
	require.NoError(t, db.Close())

	_, err := s.LookupUser(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, users.ErrNotFound)
}

func TestDialectFor(t *testing.T) {
	d, err := users.DialectFor("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, users.SQLite, d)

	d, err = users.DialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, users.Postgres, d)

	_, err = users.DialectFor("mysql")
	assert.Error(t, err)
}
