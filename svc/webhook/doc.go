// Package webhook is the HTTP boundary of the reconciliation engine: it
// receives arbitrary JSON from the payment provider, gates ingress with a
// per-process token bucket, and hands bodies to the lifecycle reconciler.
// Only a body that is not JSON at all is rejected; everything else is
// acknowledged so the provider does not redeliver into a known failure.
package webhook
