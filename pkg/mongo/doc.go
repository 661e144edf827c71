// Package mongo provides connection management for the document store
// backing the quota, archive, billing and identity collections.
//
// The client is constructed explicitly and passed into the stores that
// need it; there is no lazily initialized module-level singleton. Open
// with New or NewWithDatabase at startup, Disconnect on shutdown.
// Configuration is environment-driven (see Config tags) so credentials
// stay out of the codebase.
package mongo
