package webhook

import (
	"sync"
	"time"
)

// gate is a per-process token-bucket ingress limiter keyed by client.
// State is not shared across replicas, so multi-instance deployments get
// looser effective limits than configured.
type gate struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	capacity int
	refill   time.Duration
	now      func() time.Time
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

func newGate(capacity int, refill time.Duration, now func() time.Time) *gate {
	return &gate{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		refill:   refill,
		now:      now,
	}
}

// allow consumes one token for key, refilling one token per interval up
// to capacity.
func (g *gate) allow(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	b, exists := g.buckets[key]
	if !exists {
		b = &bucket{tokens: g.capacity, lastRefill: now}
		g.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastRefill); elapsed >= g.refill {
		refilled := int(elapsed / g.refill)
		b.tokens = min(b.tokens+refilled, g.capacity)
		b.lastRefill = b.lastRefill.Add(time.Duration(refilled) * g.refill)
	}

	if b.tokens <= 0 {
		return false
	}

	b.tokens--
	return true
}
