package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotakit/pkg/catalog"
)

// Service defines the public interface for feature-consumption accounting.
type Service interface {
	// CheckQuota reports whether the user may consume the feature right
	// now. A missing record is lazily created from the user's current
	// tier before evaluation.
	CheckQuota(ctx context.Context, userID uuid.UUID, feature catalog.FeatureSlug) (Decision, error)

	// IncrementQuota records one consumption of the feature: the
	// effective count is recomputed via the interval-reset rule, then
	// stored as effective+1 with last-used set to now.
	IncrementQuota(ctx context.Context, userID uuid.UUID, feature catalog.FeatureSlug) error

	// ConsumeQuota performs check-then-increment under a per-(user,feature)
	// mutex. Within a single process it guarantees the counter never
	// exceeds the cap; across replicas the race remains.
	ConsumeQuota(ctx context.Context, userID uuid.UUID, feature catalog.FeatureSlug) (Decision, error)
}

// TierResolver resolves the current tier for a user. Wired by the caller
// to the identity store plus the catalog so this package depends on neither.
type TierResolver func(ctx context.Context, userID uuid.UUID) (catalog.Tier, error)

// Option configures the quota service.
type Option func(*service)

// WithClock overrides the time source. Intended for tests pinning
// interval rollovers.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

type service struct {
	store     Store
	tiers     TierResolver
	now       func() time.Time
	log       *slog.Logger
	userLocks *keyedMutex
}

// NewService creates a quota Service.
// Panics if store or tiers is nil to fail fast during initialization.
func NewService(store Store, tiers TierResolver, opts ...Option) Service {
	if store == nil {
		panic("quota: Store is required")
	}
	if tiers == nil {
		panic("quota: TierResolver is required")
	}

	s := &service{
		store:     store,
		tiers:     tiers,
		now:       func() time.Time { return time.Now().UTC() },
		log:       slog.Default(),
		userLocks: newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) CheckQuota(ctx context.Context, userID uuid.UUID, feature catalog.FeatureSlug) (Decision, error) {
	rec, err := s.getOrInit(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	i, exists := rec.usageFor(feature)
	if !exists {
		return Decision{}, catalog.ErrFeatureNotFound
	}

	return s.evaluate(rec.Usage[i]), nil
}

func (s *service) IncrementQuota(ctx context.Context, userID uuid.UUID, feature catalog.FeatureSlug) error {
	rec, err := s.getOrInit(ctx, userID)
	if err != nil {
		return err
	}

	i, exists := rec.usageFor(feature)
	if !exists {
		return catalog.ErrFeatureNotFound
	}

	now := s.now()
	rec.Usage[i].UsageCount = effectiveCount(rec.Usage[i], now) + 1
	rec.Usage[i].LastUsed = &now
	rec.UpdatedAt = now

	return s.store.Save(ctx, rec)
}

func (s *service) ConsumeQuota(ctx context.Context, userID uuid.UUID, feature catalog.FeatureSlug) (Decision, error) {
	unlock := s.userLocks.lock(userID.String() + "/" + string(feature))
	defer unlock()

	decision, err := s.CheckQuota(ctx, userID, feature)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Allowed {
		return decision, ErrQuotaExceeded
	}

	if err := s.IncrementQuota(ctx, userID, feature); err != nil {
		return Decision{}, err
	}

	decision.Count++
	return decision, nil
}

// evaluate applies the unlimited short-circuit before consulting the
// interval-reset rule.
func (s *service) evaluate(u FeatureUsage) Decision {
	if u.MaxQuota == catalog.Unlimited {
		return Decision{Allowed: true, Count: u.UsageCount, Limit: catalog.Unlimited}
	}

	count := effectiveCount(u, s.now())
	return Decision{
		Allowed: count < u.MaxQuota,
		Count:   count,
		Limit:   u.MaxQuota,
	}
}

// getOrInit loads the user's record, creating one from their current
// tier on first use.
func (s *service) getOrInit(ctx context.Context, userID uuid.UUID) (*Record, error) {
	rec, err := s.store.Get(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	tier, err := s.tiers(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrFailedToResolveTier, err)
	}

	rec = NewRecord(userID, tier, s.now())
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "initialized quota record",
		slog.String("user_id", userID.String()),
		slog.String("tier_id", tier.Slug))

	return rec, nil
}
