// Package httpserver wraps net/http with graceful shutdown, env-driven
// timeouts and health-check probes.
//
// Run blocks until the context is canceled or an interrupt/TERM signal
// arrives, then drains in-flight requests within the configured shutdown
// deadline. Listen errors are wrapped with ErrStart, shutdown errors with
// ErrShutdown; inspect them with errors.Is.
package httpserver
