package storage

import (
	"context"
	"sync"
	"time"
)

// Ensure MemoryStorage implements Storage
var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps pending sign-ins in process memory. It only works for
// a single replica.
type MemoryStorage struct {
	mu      sync.Mutex
	pending map[string]PendingSignIn
	now     func() time.Time
}

// NewMemoryStorage creates a new storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		pending: make(map[string]PendingSignIn),
		now:     time.Now,
	}
}

// SavePendingSignIn stores p unless its ID is already taken
func (s *MemoryStorage) SavePendingSignIn(_ context.Context, p PendingSignIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pending[p.ID]; ok && !existing.IsExpired(s.now()) {
		return ErrSignInExists
	}
	s.pending[p.ID] = p
	return nil
}

// ConsumePendingSignIn removes and checks the record (one-time use)
func (s *MemoryStorage) ConsumePendingSignIn(_ context.Context, id, state string) (*PendingSignIn, error) {
	s.mu.Lock()
	p, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if !ok || p.IsExpired(s.now()) {
		return nil, ErrSignInNotFound
	}
	if !statesMatch(p.State, state) {
		return nil, ErrStateMismatch
	}
	return &p, nil
}

// CleanupExpired removes expired records
func (s *MemoryStorage) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for id, p := range s.pending {
		if p.IsExpired(now) {
			delete(s.pending, id)
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored records, expired included
func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close is a no-op
func (s *MemoryStorage) Close() error {
	return nil
}
