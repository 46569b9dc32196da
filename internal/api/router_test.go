package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	applog "github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/mocks"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/repository"
	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type processorFunc func(ctx context.Context, p inbound.Payload) pipeline.Result

func (f processorFunc) Process(ctx context.Context, p inbound.Payload) pipeline.Result {
	return f(ctx, p)
}

type noReprocess struct{}

func (noReprocess) Reprocess(ctx context.Context, id uint) (pipeline.Result, error) {
	return pipeline.Result{}, repository.ErrNotFound
}

func newTestRouter(t *testing.T, limiter *middleware.IPRateLimiter) (http.Handler, *mocks.MockReviewRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	reviews := new(mocks.MockReviewRepository)
	e := NewRouter(&RouterConfig{
		DB:     db,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Processor: processorFunc(func(ctx context.Context, p inbound.Payload) pipeline.Result {
			return pipeline.Result{RunID: "run-1", Outcome: pipeline.OutcomeCreated}
		}),
		Reprocessor:    noReprocess{},
		Reviews:        reviews,
		Tenants:        new(mocks.MockTenantRepository),
		Limiter:        limiter,
		APIKey:         "secret",
		AllowedOrigins: []string{"https://jazzduo.example"},
	})
	return e, reviews
}

func do(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/ready", "", nil).Code)

	metrics := do(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "go_goroutines")
}

func TestRouter_InboundNeedsNoAPIKey(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(h, http.MethodPost, "/inbound/form", `{"to":"jazzduo@in.gigbook.test"}`,
		map[string]string{"Content-Type": "application/json", "Origin": "https://jazzduo.example"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"created"`)
	assert.Equal(t, "https://jazzduo.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_ReviewsRequireAPIKey(t *testing.T) {
	h, reviews := newTestRouter(t, nil)
	reviews.On("List", mock.Anything, repository.ReviewFilter{}, 20, 0).
		Return([]models.ReviewListItem{}, int64(0), nil)

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/reviews", "", nil).Code)

	rec := do(h, http.MethodGet, "/api/reviews", "", map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_InboundRateLimited(t *testing.T) {
	h, _ := newTestRouter(t, middleware.NewIPRateLimiter(rate.Limit(1), 1))
	headers := map[string]string{"Content-Type": "application/json", "X-Real-IP": "192.0.2.7"}

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/inbound/form", `{}`, headers).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/inbound/form", `{}`, headers).Code)
	// Health checks are never throttled.
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "", headers).Code)
}

func TestRouter_RejectionsGoToSecurityLog(t *testing.T) {
	var buf bytes.Buffer
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	e := NewRouter(&RouterConfig{
		DB:       db,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Security: applog.NewSecurityLoggerWithHandler(slog.NewJSONHandler(&buf, nil)),
		Reviews:  new(mocks.MockReviewRepository),
		Tenants:  new(mocks.MockTenantRepository),
		APIKey:   "secret",
	})

	rec := do(e, http.MethodGet, "/api/reviews?tenant=jazzduo", "", map[string]string{"X-API-Key": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, buf.String(), applog.EventAuthFailure)
	assert.NotContains(t, buf.String(), "wrong")
}
