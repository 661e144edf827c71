package billing

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore implements Store using an in-memory map.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(ctx context.Context, checkoutID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[checkoutID]
	if !exists {
		return nil, nil
	}

	entry.Events = maps.Clone(entry.Events)
	return &entry, nil
}

func (s *MemoryStore) Save(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	e.Events = maps.Clone(entry.Events)
	s.entries[entry.CheckoutID] = e
	return nil
}
