package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_RedactsSensitiveAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Info("calling extraction service", slog.String("client_secret", "s3cr3t"), slog.String("tenant", "jazzduo"))

	logEntry := decodeEntry(t, &buf)
	assert.Equal(t, "[REDACTED]", logEntry["client_secret"])
	assert.Equal(t, "jazzduo", logEntry["tenant"])
}

func TestCritical_PrintsCriticalLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "error")

	Critical(context.Background(), log, "review write failed")

	logEntry := decodeEntry(t, &buf)
	assert.Equal(t, "CRITICAL", logEntry["level"])
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Info("ignored")

	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, LevelCritical, ParseLevel("critical"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestComponent_AddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, "info"), "dedup")

	log.Info("checked")

	assert.Equal(t, "dedup", decodeEntry(t, &buf)["component"])
}
