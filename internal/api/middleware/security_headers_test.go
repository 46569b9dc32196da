package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func secureResponse(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Use(SecureHeaders())
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSecureHeaders_AllHeadersPresent(t *testing.T) {
	rec := secureResponse(t, "/health")

	h := rec.Header()
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", h.Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
	assert.Equal(t, "no-store", h.Get("Cache-Control"))
}

func TestSecureHeaders_HSTSNotOnHTTP(t *testing.T) {
	rec := secureResponse(t, "/health")

	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSecureHeaders_HSTSOnHTTPS(t *testing.T) {
	rec := secureResponse(t, "https://api.gigbook.test/health")

	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}
