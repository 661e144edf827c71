package catalog

import (
	"context"
	"slices"
	"sync"
)

// inMemSource implements the Source interface using an in-memory tier map.
type inMemSource struct {
	mu    sync.RWMutex
	tiers map[string]Tier
}

// NewInMemSource returns an in-memory Source with a deep copy of the given tiers.
func NewInMemSource(tiers map[string]Tier) Source {
	return &inMemSource{tiers: cloneTiers(tiers)}
}

// Load returns a copy of all tiers from memory.
// The returned map is not protected by the mutex after return.
func (s *inMemSource) Load(ctx context.Context) (map[string]Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTiers(s.tiers), nil
}

func cloneTiers(tiers map[string]Tier) map[string]Tier {
	out := make(map[string]Tier, len(tiers))
	for slug, tier := range tiers {
		tier.Features = slices.Clone(tier.Features)
		out[slug] = tier
	}
	return out
}
