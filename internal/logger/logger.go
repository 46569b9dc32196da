// Package logger builds the structured loggers used across the gigbook backend.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// LevelCritical sits above slog.LevelError. It is reserved for failures that
// lose data, such as a review record that could not be stored.
const LevelCritical = slog.Level(12)

const redacted = "[REDACTED]"

// New returns a JSON logger writing to w at the given level name.
// Sensitive attribute values are redacted and LevelCritical prints as CRITICAL.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: replaceAttr,
	}))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical":
		return LevelCritical
	default:
		return slog.LevelInfo
	}
}

// Critical logs msg at LevelCritical.
func Critical(ctx context.Context, log *slog.Logger, msg string, args ...any) {
	log.Log(ctx, LevelCritical, msg, args...)
}

// Component derives a logger tagged with the component name.
func Component(log *slog.Logger, name string) *slog.Logger {
	return log.With(slog.String("component", name))
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
			return slog.String(slog.LevelKey, "CRITICAL")
		}
		return a
	}
	if isSensitiveKey(strings.ToLower(a.Key)) {
		return slog.String(a.Key, redacted)
	}
	return a
}
