package logger

import "log/slog"

// Config represents environment-driven logger settings.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// NewFromConfig creates a logger from environment-driven settings.
// Unknown levels fall back to info; unknown formats to JSON.
func NewFromConfig(cfg Config, opts ...Option) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	format := FormatJSON
	if cfg.Format == string(FormatText) {
		format = FormatText
	}

	return New(append([]Option{WithLevel(level), WithFormat(format)}, opts...)...)
}
