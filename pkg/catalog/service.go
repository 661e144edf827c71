package catalog

import (
	"context"
	"errors"
)

// Service defines read-only access to the tier catalog.
type Service interface {
	// GetTier returns the tier with the given slug.
	GetTier(ctx context.Context, slug string) (Tier, error)

	// GetTierByProductRef returns the tier mapped to the payment
	// provider's product identifier.
	GetTierByProductRef(ctx context.Context, ref string) (Tier, error)

	// GetFeature returns a feature definition from a specific tier.
	GetFeature(ctx context.Context, tierSlug string, feature FeatureSlug) (Feature, error)

	// Tiers returns all tiers in the catalog.
	Tiers(ctx context.Context) ([]Tier, error)
}

// Source defines how tiers are loaded into the catalog service.
type Source interface {
	Load(ctx context.Context) (map[string]Tier, error)
}

// service implements Service.
type service struct {
	// Treated as immutable after initialization; thread-safety
	// depends on no runtime modification.
	tiers        map[string]Tier
	byProductRef map[string]string
}

// NewService loads tiers from the source and validates every tier's
// quota policy. Invalid configurations fail construction; they are
// never re-checked on the evaluation hot path.
func NewService(ctx context.Context, src Source) (Service, error) {
	if src == nil {
		panic("catalog: Source is required")
	}

	tiers, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadTiers, err)
	}

	byProductRef := make(map[string]string, len(tiers))
	for slug, tier := range tiers {
		if err := ValidateTier(tier); err != nil {
			return nil, err
		}
		if tier.ProductRef != "" {
			byProductRef[tier.ProductRef] = slug
		}
	}

	return &service{
		tiers:        tiers,
		byProductRef: byProductRef,
	}, nil
}

func (s *service) GetTier(ctx context.Context, slug string) (Tier, error) {
	tier, exists := s.tiers[slug]
	if !exists {
		return Tier{}, ErrTierNotFound
	}
	return tier, nil
}

func (s *service) GetTierByProductRef(ctx context.Context, ref string) (Tier, error) {
	slug, exists := s.byProductRef[ref]
	if !exists {
		return Tier{}, ErrTierNotFound
	}
	return s.tiers[slug], nil
}

func (s *service) GetFeature(ctx context.Context, tierSlug string, feature FeatureSlug) (Feature, error) {
	tier, exists := s.tiers[tierSlug]
	if !exists {
		return Feature{}, ErrTierNotFound
	}

	f, exists := tier.Feature(feature)
	if !exists {
		return Feature{}, ErrFeatureNotFound
	}
	return f, nil
}

func (s *service) Tiers(ctx context.Context) ([]Tier, error) {
	out := make([]Tier, 0, len(s.tiers))
	for _, tier := range s.tiers {
		out = append(out, tier)
	}
	return out, nil
}
