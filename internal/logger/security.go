package logger

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"
)

// SecurityLogger records rejected requests. Each entry's message is its
// event type and carries the client ip and a UTC timestamp. Callers pass
// reasons, never credentials; free-form details under sensitive keys are
// dropped. A nil *SecurityLogger discards everything.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a SecurityLogger writing JSON to stdout.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: New(os.Stdout, "info")}
}

// NewSecurityLoggerWithHandler creates a SecurityLogger on handler.
func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{logger: slog.New(handler)}
}

// Event types.
const (
	EventAuthFailure     = "auth_failure"
	EventRateLimit       = "rate_limit"
	EventWebhookRejected = "webhook_rejected"
	EventInvalidOrigin   = "invalid_origin"
	EventUnsecured       = "unsecured_endpoint"
)

func (s *SecurityLogger) record(event, ip string, attrs ...slog.Attr) {
	if s == nil {
		return
	}
	all := append([]slog.Attr{
		slog.String("event_type", event),
		slog.String("ip", ip),
		slog.Time("timestamp", time.Now().UTC()),
	}, attrs...)
	s.logger.LogAttrs(context.Background(), slog.LevelWarn, event, all...)
}

// AuthFailure records a request turned away for a missing or wrong API key.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.record(EventAuthFailure, ip, slog.String("path", path), slog.String("reason", reason))
}

// RateLimitExceeded records a request refused by the per-IP limiter.
func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.record(EventRateLimit, ip, slog.String("path", path))
}

// WebhookRejected records an inbound webhook whose signature did not verify.
func (s *SecurityLogger) WebhookRejected(ip, path, reason string) {
	s.record(EventWebhookRejected, ip, slog.String("path", path), slog.String("reason", reason))
}

// InvalidOrigin records a websocket handshake from an origin not on the list.
func (s *SecurityLogger) InvalidOrigin(ip, origin string) {
	s.record(EventInvalidOrigin, ip, slog.String("origin", origin))
}

// Unsecured records at startup that an endpoint group runs without auth.
func (s *SecurityLogger) Unsecured(surface string) {
	s.record(EventUnsecured, "", slog.String("surface", surface))
}

// SecurityEvent records any other event with free-form details, in key order.
func (s *SecurityLogger) SecurityEvent(event, ip string, details map[string]string) {
	keys := make([]string, 0, len(details))
	for k := range details {
		if !isSensitiveKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, details[k]))
	}
	s.record(event, ip, attrs...)
}

var sensitiveKeys = map[string]bool{
	"password":            true,
	"api_key":             true,
	"apikey":              true,
	"token":               true,
	"secret":              true,
	"client_secret":       true,
	"authorization":       true,
	"auth":                true,
	"credential":          true,
	"credentials":         true,
	"session":             true,
	"cookie":              true,
	"signature":           true,
	"signing_key":         true,
	"webhook_signing_key": true,
}

func isSensitiveKey(key string) bool {
	return sensitiveKeys[key]
}
