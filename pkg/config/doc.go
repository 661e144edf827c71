// Package config loads environment-driven configuration structs used
// across the engine (document store, logger, webhook receiver).
// Struct fields declare their variables with `env` tags; a local .env
// file is honored in development.
package config
