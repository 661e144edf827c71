package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the slice of the user record this engine needs: the current
// tier and the two stable links usable for billing correlation.
type User struct {
	ID                 uuid.UUID `bson:"_id"`
	Email              string    `bson:"email"`
	TierID             string    `bson:"tier_id"`
	ExternalCustomerID string    `bson:"external_customer_id,omitempty"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

// UserStore defines user lookups and the tier mutation the lifecycle
// reconciler performs.
type UserStore interface {
	// Get retrieves a user by internal ID.
	// Returns ErrUserNotFound if no user exists.
	Get(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByExternalCustomerID retrieves a user by the payment provider's
	// customer identifier.
	GetByExternalCustomerID(ctx context.Context, customerID string) (*User, error)

	// SetTier updates the user's current tier slug.
	SetTier(ctx context.Context, id uuid.UUID, tierID string) error

	// SetExternalCustomerID links the provider's customer identifier to
	// the user for future correlation.
	SetExternalCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}
