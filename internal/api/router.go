package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/api/handlers"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/websocket"
	"gorm.io/gorm"
)

// DefaultBodyLimit caps inbound delivery bodies.
const DefaultBodyLimit = "10M"

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB     *gorm.DB
	Logger *slog.Logger
	// Security records auth, rate limit, webhook and origin rejections.
	// Nil records them through Logger.
	Security *logger.SecurityLogger

	Processor    handlers.Processor
	Reprocessor  handlers.Reprocessor
	Reviews      handlers.ReviewStore
	Tenants      handlers.TenantLookup
	Hub          *websocket.Hub
	HealthChecks []handlers.Check

	// Limiter throttles the public inbound endpoints per client IP. Nil
	// disables rate limiting.
	Limiter *middleware.IPRateLimiter

	APIKey            string   // empty disables API key checks
	AllowedOrigins    []string // widget and dashboard origins
	Production        bool
	WebhookSigningKey string // empty disables webhook signature checks
	BodyLimit         string
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	security := cfg.Security
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(log.Handler())
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.RequestLogger(log))

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.HealthChecks...)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public delivery endpoints: relays, the booking widget and forwarders.
	bodyLimit := cfg.BodyLimit
	if bodyLimit == "" {
		bodyLimit = DefaultBodyLimit
	}
	inboundHandler := handlers.NewInboundHandler(cfg.Processor, cfg.WebhookSigningKey, security)
	in := e.Group("/inbound",
		middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production),
		middleware.BodyLimit(bodyLimit))
	if cfg.Limiter != nil {
		in.Use(cfg.Limiter.Middleware(security))
	}
	in.POST("/email", inboundHandler.Email)
	in.POST("/form", inboundHandler.Form)
	in.POST("/raw", inboundHandler.Raw)

	auth := middleware.APIKeyAuth(cfg.APIKey, security)

	reviewHandler := handlers.NewReviewHandler(cfg.Reviews, cfg.Tenants, cfg.Reprocessor)
	api := e.Group("/api", middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production), auth)
	reviews := api.Group("/reviews")
	reviews.GET("", reviewHandler.List)
	reviews.GET("/:id", reviewHandler.Get)
	reviews.POST("/:id/reprocess", reviewHandler.Reprocess)
	reviews.POST("/:id/dismiss", reviewHandler.Dismiss)

	if cfg.Hub != nil {
		upgrader := websocket.NewSecureUpgrader(cfg.AllowedOrigins, security)
		e.GET("/ws", cfg.Hub.Handler(upgrader), auth)
	}

	return e
}
