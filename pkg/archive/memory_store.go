package archive

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotakit/pkg/quota"
)

// MemoryStore implements Store using an in-memory map keyed by user ID.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Entry
}

// NewMemoryStore creates an empty in-memory archive store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID][]Entry)}
}

func (s *MemoryStore) Append(ctx context.Context, record quota.Record, archivedAt time.Time) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Usage = slices.Clone(record.Usage)
	entry := Entry{
		UserID:     record.UserID,
		Seq:        int64(len(s.entries[record.UserID])) + 1,
		Quota:      record,
		ArchivedAt: archivedAt,
	}
	s.entries[record.UserID] = append(s.entries[record.UserID], entry)
	return entry, nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries[userID]), nil
}

func (s *MemoryStore) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries[userID])), nil
}
