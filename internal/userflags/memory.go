package userflags

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store for single-instance deployments and tests
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[uuid.UUID]map[string]time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[uuid.UUID]map[string]time.Time)}
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, userID uuid.UUID, key string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.flags[userID][key]
	return at, ok, nil
}

// Set implements Store
func (s *MemoryStore) Set(ctx context.Context, userID uuid.UUID, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags[userID] == nil {
		s.flags[userID] = make(map[string]time.Time)
	}
	s.flags[userID][key] = at.UTC()
	return nil
}
