package users

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps profiles in a map. It backs development servers and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryStore returns a store seeded with seed.
func NewMemoryStore(seed ...User) *MemoryStore {
	s := &MemoryStore{users: make(map[string]User, len(seed))}
	for _, u := range seed {
		s.users[u.ID] = u
	}
	return s
}

// LookupUser returns the profile for id or ErrNotFound.
func (s *MemoryStore) LookupUser(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return &u, nil
}

// Put creates or replaces a profile.
func (s *MemoryStore) Put(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// Delete removes a profile.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}
