package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Keys are the correlation identifiers an external event may carry.
type Keys struct {
	UserID     string // internal user ID as reported in event metadata
	Email      string // billing email
	CustomerID string // provider's customer identifier
}

// Resolver maps inbound event correlation keys to an internal user.
type Resolver struct {
	users UserStore
}

// NewResolver creates a Resolver. Panics if users is nil to fail fast
// during initialization.
func NewResolver(users UserStore) *Resolver {
	if users == nil {
		panic("identity: UserStore is required")
	}
	return &Resolver{users: users}
}

// Resolve finds the user an event belongs to. Precedence, first match
// wins: internal user ID, then email, then external customer ID.
// Returns ErrNoIdentification when no key was present at all or every
// present key missed.
func (r *Resolver) Resolve(ctx context.Context, keys Keys) (*User, error) {
	if keys.UserID == "" && keys.Email == "" && keys.CustomerID == "" {
		return nil, ErrNoIdentification
	}

	if keys.UserID != "" {
		// A malformed ID is a miss, not a failure; lower-precedence keys
		// may still identify the user.
		if id, err := uuid.Parse(keys.UserID); err == nil {
			user, err := r.users.Get(ctx, id)
			if err == nil {
				return user, nil
			}
			if !errors.Is(err, ErrUserNotFound) {
				return nil, err
			}
		}
	}

	if keys.Email != "" {
		user, err := r.users.GetByEmail(ctx, keys.Email)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
	}

	if keys.CustomerID != "" {
		user, err := r.users.GetByExternalCustomerID(ctx, keys.CustomerID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
	}

	return nil, ErrNoIdentification
}
