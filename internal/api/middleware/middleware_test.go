package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestRequestLogger_LogsRequestDetails(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestID())
	e.Use(RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	e.GET("/api/reviews", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// Act
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reviews", nil))

	// Assert
	entry := lastLogLine(t, &buf)
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/api/reviews", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), entry["request_id"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestRequestLogger_LogsErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	e.GET("/api/reviews/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "review not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reviews/9", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	entry := lastLogLine(t, &buf)
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestRequestLogger_ServerErrorsLogAtError(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, "ERROR", lastLogLine(t, &buf)["level"])
}

func TestRecover_CatchesPanicsAndReturns500(t *testing.T) {
	e := echo.New()
	e.Use(Recover())
	e.GET("/panic", func(c echo.Context) error {
		panic("test panic")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBodyLimit_RejectsLargeBodies(t *testing.T) {
	e := echo.New()
	e.Use(BodyLimit("1K"))
	e.POST("/inbound/raw", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inbound/raw", strings.NewReader(strings.Repeat("x", 4096)))
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
