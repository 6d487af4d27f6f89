package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jassus213/affilify-gate/plan"
)

// Dialect selects the placeholder syntax of the SQL driver.
type Dialect int

const (
	// SQLite uses ? placeholders (github.com/mattn/go-sqlite3).
	SQLite Dialect = iota
	// Postgres uses $n placeholders (github.com/lib/pq).
	Postgres
)

// DialectFor maps a database/sql driver name to its Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "postgres", "pq":
		return Postgres, nil
	default:
		return SQLite, fmt.Errorf("users: unsupported driver %q", driver)
	}
}

// SQLStore reads profiles from a users table:
//
//	id TEXT PRIMARY KEY, email TEXT, plan TEXT, verified BOOLEAN
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Migrate creates the users table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		plan TEXT NOT NULL DEFAULT 'free',
		verified BOOLEAN NOT NULL DEFAULT FALSE
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("users: migrate: %w", err)
	}
	return nil
}

// LookupUser returns the profile for id or ErrNotFound.
func (s *SQLStore) LookupUser(ctx context.Context, id string) (*User, error) {
	query := "SELECT id, email, plan, verified FROM users WHERE id = " + s.placeholder(1)

	var (
		u        User
		planName string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &planName, &u.Verified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("users: lookup %q: %w", id, err)
	}

	tier, err := plan.Parse(planName)
	if err != nil {
		return nil, fmt.Errorf("users: lookup %q: %w", id, err)
	}
	u.Plan = tier
	return &u, nil
}

// Upsert creates or replaces a profile.
func (s *SQLStore) Upsert(ctx context.Context, u User) error {
	query := fmt.Sprintf(`INSERT INTO users (id, email, plan, verified) VALUES (%s, %s, %s, %s)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email, plan = excluded.plan, verified = excluded.verified`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))
	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Email, u.Plan.String(), u.Verified); err != nil {
		return fmt.Errorf("users: upsert %q: %w", u.ID, err)
	}
	return nil
}

// Delete removes a profile. Deleting a missing profile is not an error.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query := "DELETE FROM users WHERE id = " + s.placeholder(1)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("users: delete %q: %w", id, err)
	}
	return nil
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
