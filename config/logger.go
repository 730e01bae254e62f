package config

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a logger for the given environment and level.
// Production uses a JSON handler; otherwise a text handler.
// level may be: debug, info, warn, error (default: info).
func NewLogger(environment, level string) *slog.Logger {
	return newLogger(os.Stdout, environment, level)
}

// Logger returns the logger configured by c.
func (c *Config) Logger() *slog.Logger {
	return NewLogger(c.Environment, c.LogLevel)
}

func newLogger(w io.Writer, environment, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
