package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// Check probes one dependency, e.g. the redis quota store.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	db     *gorm.DB
	checks []Check
}

// NewHealthHandler creates a new HealthHandler. The database is always
// checked; extra checks are reported alongside it.
func NewHealthHandler(db *gorm.DB, checks ...Check) *HealthHandler {
	return &HealthHandler{db: db, checks: checks}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	services := make(map[string]string, len(h.checks)+1)
	status := "healthy"

	if err := h.pingDB(ctx); err != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}
	for _, check := range h.checks {
		if err := check.Probe(ctx); err != nil {
			services[check.Name] = "unhealthy"
			status = "unhealthy"
			continue
		}
		services[check.Name] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, HealthResponse{
		Status:   status,
		Services: services,
	})
}

// Ready handles GET /ready. Only the database gates readiness; the pipeline
// degrades without the other dependencies.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	if err := h.pingDB(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return errDatabaseConnection
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errDatabasePing
	}
	return nil
}
