package session

import (
	"context"
	"sync"
	"time"

	"github.com/cappsac/capps-site/internal/booking"
)

type memoryEntry struct {
	snap    booking.Snapshot
	expires time.Time
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns a store whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (booking.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return booking.Snapshot{}, ErrNotFound
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, id)
		return booking.Snapshot{}, ErrNotFound
	}
	return e.snap, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, snap booking.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{snap: snap, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
