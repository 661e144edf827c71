// Package identity resolves external billing events to internal users.
//
// An event may carry up to three correlation keys: the internal user ID
// placed in checkout metadata, the billing email, and the provider's
// customer ID. Resolve tries them in that precedence order and treats a
// miss on a higher-precedence key as a fall-through, not a failure.
package identity
