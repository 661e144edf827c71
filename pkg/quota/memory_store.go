package quota

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store using an in-memory map. Intended for
// tests and single-process deployments without a document store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

// NewMemoryStore creates an empty in-memory quota store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, userID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[userID]
	if !exists {
		return nil, ErrRecordNotFound
	}

	rec.Usage = slices.Clone(rec.Usage)
	return &rec, nil
}

func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *record
	rec.Usage = slices.Clone(record.Usage)
	s.records[record.UserID] = rec
	return nil
}

func (s *MemoryStore) ListExpiredCancellations(ctx context.Context, now time.Time, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if !rec.Canceled || rec.SubscriptionPeriodEnd == nil {
			continue
		}
		if !now.After(*rec.SubscriptionPeriodEnd) {
			continue
		}
		rec.Usage = slices.Clone(rec.Usage)
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
