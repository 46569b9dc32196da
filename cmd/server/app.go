package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/api/handlers"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/booking"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/config"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/database"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/dedup"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/guard"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/metrics"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/quota"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/repository"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/review"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/tenant"
	"gorm.io/gorm"
)

// app holds the wired pipeline and the stores behind it.
type app struct {
	cfg *config.Config
	log *slog.Logger
	db  *gorm.DB
	rdb *redis.Client

	tenants  repository.TenantRepository
	bookings repository.BookingRepository
	reviews  repository.ReviewRepository

	// memQuota is set when quota counters live in process memory and need
	// sweeping.
	memQuota *quota.MemoryTracker
	writer   *review.Writer
	pipeline *pipeline.Pipeline
}

// loadConfig reads and validates the environment and installs the process
// logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	return cfg, log, nil
}

// openDatabase connects, migrates and seeds tenants.
func openDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg.DatabaseURL, cfg.AppEnv)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	var seeds []config.TenantSeed
	if cfg.TenantsFile != "" {
		if seeds, err = config.LoadTenantSeed(cfg.TenantsFile); err != nil {
			_ = database.Close(db)
			return nil, err
		}
	}
	if err := tenant.Seed(ctx, repository.NewTenantRepository(db), seeds, cfg.AdminTenantSlug); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	log.Info("tenants seeded", slog.Int("count", len(seeds)), slog.String("admin", cfg.AdminTenantSlug))
	return db, nil
}

// newApp wires the pipeline stages. Observers are told about every run.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, observers ...pipeline.Observer) (*app, error) {
	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		tenants:  repository.NewTenantRepository(db),
		bookings: repository.NewBookingRepository(db),
		reviews:  repository.NewReviewRepository(db),
	}

	tracker, err := a.newQuotaTracker()
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	classifier := inbound.NewClassifier(cfg.MarketplaceDomains)
	resolver := tenant.NewResolver(a.tenants, cfg.AdminTenantSlug, log)

	var notifier review.Notifier
	if cfg.MailgunAPIKey != "" && cfg.MailgunDomain != "" {
		notifier = review.NewMailgunNotifier(review.MailgunConfig{
			APIKey: cfg.MailgunAPIKey,
			Domain: cfg.MailgunDomain,
			From:   cfg.ReviewNotifyFrom,
			EU:     cfg.MailgunEU,
		})
	} else {
		log.Warn("Mailgun not configured - review notifications disabled")
	}
	a.writer = review.NewWriter(a.reviews, resolver, classifier, notifier, log)

	a.pipeline = pipeline.New(pipeline.Deps{
		Normalizer:   inbound.NewNormalizer(time.Now),
		Classifier:   classifier,
		Tenants:      resolver,
		Duplicates:   dedup.NewDetector(a.bookings, a.reviews, cfg.DedupLookback, log),
		Guard:        guard.NewLock(metrics.ObserveGuardWait),
		Extractor:    a.newGateway(tracker),
		Fallback:     extraction.NewFallback(classifier, time.Now),
		Materializer: booking.NewMaterializer(a.bookings, classifier),
		Reviews:      a.writer,
		ReviewStore:  a.reviews,
		Observers:    observers,
	}, pipeline.Config{Timeout: cfg.PipelineTimeout}, log)

	return a, nil
}

func (a *app) newQuotaTracker() (quota.Tracker, error) {
	if a.cfg.RedisURL == "" {
		a.memQuota = quota.NewMemoryTracker(a.cfg.ExtractionDailyQuota)
		return a.memQuota, nil
	}
	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	a.rdb = redis.NewClient(opts)
	a.log.Info("extraction quota backed by redis", slog.String("addr", opts.Addr))
	return quota.NewRedisTracker(a.rdb, a.cfg.ExtractionDailyQuota), nil
}

func (a *app) newGateway(tracker quota.Tracker) *extraction.Gateway {
	var service extraction.Service
	if a.cfg.ExtractionURL != "" {
		service = extraction.NewHTTPService(extraction.HTTPServiceConfig{
			URL:          a.cfg.ExtractionURL,
			TokenURL:     a.cfg.ExtractionTokenURL,
			ClientID:     a.cfg.ExtractionClientID,
			ClientSecret: a.cfg.ExtractionClientSecret,
			Timeout:      a.cfg.ExtractionTimeout,
		})
	} else {
		a.log.Warn("extraction service not configured - deterministic extraction only")
	}

	var places extraction.PlaceLookup
	if a.cfg.PlacesURL != "" {
		places = extraction.NewHTTPPlaceLookup(a.cfg.PlacesURL, a.cfg.PlacesAPIKey, a.cfg.PlacesTimeout)
	}

	return extraction.NewGateway(service, tracker, places, extraction.GatewayConfig{
		Timeout:      a.cfg.ExtractionTimeout,
		PlaceTimeout: a.cfg.PlacesTimeout,
	}, a.log)
}

// healthChecks lists the dependencies /health reports on besides the database.
func (a *app) healthChecks() []handlers.Check {
	if a.rdb == nil {
		return nil
	}
	return []handlers.Check{{
		Name:  "redis",
		Probe: func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() },
	}}
}

func (a *app) close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Error("failed to close redis client", slog.String("error", err.Error()))
		}
	}
	if err := database.Close(a.db); err != nil {
		a.log.Error("failed to close database", slog.String("error", err.Error()))
	}
}
