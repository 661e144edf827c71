// Package lifecycle reconciles asynchronously delivered payment-provider
// events with each user's tier and quota state.
//
// The reconciler is a small state machine over {tier, canceled, period
// end}. Paid-like orders reassign the ordered tier; refunds of the tier
// currently granting access downgrade to the default tier; cancellations
// only flag the record, leaving access intact until the period end, which
// a periodic Sweep enforces; revocations downgrade immediately.
//
// Every transition archives the superseded quota record first. Archival
// and ledger writes are best-effort side effects: failures are logged and
// the primary transition proceeds. There is no locking across the
// archive-then-replace pair; concurrent deliveries for one user can
// interleave, which is an accepted property of the design.
package lifecycle
