// Package billing decodes raw payment-provider webhook bodies into a
// closed set of event variants and keeps an idempotent per-transaction
// ledger of everything received.
//
// Decode is the trust boundary: arbitrary JSON in, exactly one variant
// out (or Unrecognized), with an error only for bodies that are not JSON
// at all. The Ledger merge-upserts each event under its transaction ID so
// replays and audits have a complete picture regardless of whether
// downstream processing succeeded.
//
// The ledger computes a duplicate-status signal (same transaction, same
// status as last seen) and reports it to callers, but does not suppress
// reprocessing; transitions downstream are idempotent instead.
package billing
