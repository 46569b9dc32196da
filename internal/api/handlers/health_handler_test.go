package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupHealthTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// GORM pings during initialization
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func serve(handler echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))
	return rec
}

func TestHealthHandler_Health_ReturnsOKWhenHealthy(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing()
	handler := NewHealthHandler(gormDB)

	rec := serve(handler.Health, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthHandler_Health_ReturnsServiceUnavailableWhenUnhealthy(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	handler := NewHealthHandler(gormDB)

	rec := serve(handler.Health, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"database":"unhealthy"`)
}

func TestHealthHandler_Health_ReportsExtraChecks(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing()
	handler := NewHealthHandler(gormDB,
		Check{Name: "redis", Probe: func(ctx context.Context) error { return errors.New("connection refused") }},
		Check{Name: "extraction", Probe: func(ctx context.Context) error { return nil }},
	)

	rec := serve(handler.Health, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"extraction":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
}

func TestHealthHandler_Ready_ReturnsOKWhenReady(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing()
	handler := NewHealthHandler(gormDB)

	rec := serve(handler.Ready, "/ready")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestHealthHandler_Ready_ReturnsServiceUnavailableWhenNotReady(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	handler := NewHealthHandler(gormDB,
		Check{Name: "redis", Probe: func(ctx context.Context) error { return errors.New("down") }})

	rec := serve(handler.Ready, "/ready")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"not ready"`)
	assert.Contains(t, rec.Body.String(), `"reason":"database ping failed"`)
}
