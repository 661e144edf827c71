// Package archive keeps append-only history of superseded quota records.
//
// The lifecycle reconciler appends a full copy of the live record
// immediately before every tier transition replaces it. History is stored
// as one entry per transition keyed (user, sequence number), so a user's
// archive grows linearly in documents rather than in one unbounded array.
//
// Archival is best-effort: callers log append failures and proceed with
// the transition anyway.
package archive
