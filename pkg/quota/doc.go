// Package quota maintains per-user live usage counters for every metered
// feature of the user's current tier.
//
// The two primitives are CheckQuota and IncrementQuota. Both recompute an
// effective usage count through the interval-reset rule: a limited
// feature's counter is treated as zero once its cadence (daily, weekly by
// ISO week, monthly) has rolled over in UTC since the last use. Yearly
// features never roll over; their counters reset only when a tier
// transition replaces the record.
//
// CheckQuota and IncrementQuota are separate read-modify-write operations.
// Two concurrent callers can both pass the check before either increments,
// overrunning the cap by up to concurrency-1. ConsumeQuota closes this gap
// within a single process by holding a per-(user, feature) mutex across the
// pair; multi-replica deployments keep the documented race.
package quota
