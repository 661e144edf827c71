package quota

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotakit/pkg/catalog"
)

// FeatureUsage is a feature definition plus the user's live counter for it.
type FeatureUsage struct {
	catalog.Feature `bson:",inline"`

	UsageCount int64      `bson:"usage_count"`
	LastUsed   *time.Time `bson:"last_used,omitempty"`
}

// Record holds a user's live counters for every feature of their current
// tier, along with the subscription state the lifecycle reconciler drives.
// Records are replaced wholesale on tier transitions, never merged.
type Record struct {
	UserID                uuid.UUID      `bson:"_id"`
	TierID                string         `bson:"tier_id"`
	LastSubscriptionDate  time.Time      `bson:"last_subscription_date"`
	Canceled              bool           `bson:"canceled"`
	SubscriptionPeriodEnd *time.Time     `bson:"subscription_period_end,omitempty"`
	Usage                 []FeatureUsage `bson:"usage"`
	CreatedAt             time.Time      `bson:"created_at"`
	UpdatedAt             time.Time      `bson:"updated_at"`
}

// NewRecord creates a fresh record for a user from a tier definition,
// copying the tier's features with zeroed counters.
func NewRecord(userID uuid.UUID, tier catalog.Tier, now time.Time) *Record {
	usage := make([]FeatureUsage, len(tier.Features))
	for i, f := range tier.Features {
		usage[i] = FeatureUsage{Feature: f}
	}

	return &Record{
		UserID:               userID,
		TierID:               tier.Slug,
		LastSubscriptionDate: now,
		Usage:                usage,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// usageFor returns the index of the usage entry for the given feature.
func (r *Record) usageFor(slug catalog.FeatureSlug) (int, bool) {
	for i := range r.Usage {
		if r.Usage[i].Slug == slug {
			return i, true
		}
	}
	return 0, false
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool  `json:"allowed"`
	Count   int64 `json:"count"`
	Limit   int64 `json:"limit"`
}
