package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines quota record persistence. Each user has exactly one
// record, so UserID serves as the primary key.
type Store interface {
	// Get retrieves a record by user ID.
	// Returns ErrRecordNotFound if no record exists.
	Get(ctx context.Context, userID uuid.UUID) (*Record, error)

	// Save creates or replaces a record. Record-level merge semantics:
	// the whole document is written back, never individual fields.
	Save(ctx context.Context, record *Record) error

	// ListExpiredCancellations returns up to limit records that are
	// canceled with a subscription period ending before now. Used by the
	// periodic sweep; repeated calls after downgrades drain the set.
	ListExpiredCancellations(ctx context.Context, now time.Time, limit int) ([]Record, error)
}
