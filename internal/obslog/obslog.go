// Package obslog initializes the process-wide structured logger, the way
// reddit-cluster-map/backend/internal/logger initializes its slog default:
// JSON in production, text otherwise, with level controlled by an
// environment variable.
package obslog

import (
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Init initializes the default logger for the given rank, at the given
// level ("debug", "info", "warn", "error"; defaults to "info").
func Init(rank int, levelStr string) *slog.Logger {
	level := parseLevel(levelStr)

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if os.Getenv("ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler).With("rank", rank)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the process-wide logger, initializing a default one (rank
// -1, info level) if Init has not been called yet.
func Get() *slog.Logger {
	if defaultLogger == nil {
		return Init(-1, "info")
	}
	return defaultLogger
}
