package archive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotakit/pkg/quota"
)

// Entry is a full copy of a quota record taken immediately before the
// record was superseded. Entries are keyed (UserID, Seq) so history grows
// one document per transition instead of one ever-growing array.
type Entry struct {
	UserID     uuid.UUID    `bson:"user_id"`
	Seq        int64        `bson:"seq"`
	Quota      quota.Record `bson:"quota"`
	ArchivedAt time.Time    `bson:"archived_at"`
}

// Store defines append-only archive persistence.
type Store interface {
	// Append stores a superseded record under the user's next sequence
	// number and returns the created entry.
	Append(ctx context.Context, record quota.Record, archivedAt time.Time) (Entry, error)

	// ListByUser returns a user's entries ordered by sequence number.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Entry, error)

	// CountByUser returns the number of entries archived for a user.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
