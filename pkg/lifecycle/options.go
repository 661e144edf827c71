package lifecycle

import (
	"log/slog"
	"time"
)

// DefaultTier is the fallback tier users are downgraded to on revocation
// or non-renewal.
const DefaultTier = "free"

// maxSweepBatch bounds a single committed sweep batch; it matches the
// backend's batched-write limit.
const maxSweepBatch = 500

// Option configures the Reconciler.
type Option func(*Reconciler)

// WithDefaultTier overrides the fallback tier slug.
func WithDefaultTier(slug string) Option {
	return func(r *Reconciler) {
		if slug != "" {
			r.defaultTier = slug
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSweepBatchSize sets the sweep batch size, capped at the backend's
// batch-write limit of 500.
func WithSweepBatchSize(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.batchSize = min(n, maxSweepBatch)
		}
	}
}
