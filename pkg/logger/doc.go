// Package logger builds the slog.Logger every engine component accepts
// via its options. JSON for production aggregation, text for local
// debugging, environment-driven defaults via Config.
package logger
