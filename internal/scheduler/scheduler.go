// Package scheduler runs the periodic housekeeping jobs: the placeholder
// date sweep and quota eviction.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/review"
)

// Defaults.
const (
	DefaultSchedule         = "@every 1h"
	DefaultPlaceholderAfter = 14 * 24 * time.Hour
	DefaultBatchSize        = 100
	DefaultQuotaIdle        = 48 * time.Hour
	sweepTimeout            = 5 * time.Minute
)

// PlaceholderStore finds and stamps placeholder-dated bookings.
type PlaceholderStore interface {
	ListPlaceholderDue(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error)
	MarkPlaceholderReviewed(ctx context.Context, id uint, at time.Time) error
}

// TenantGetter loads a booking's tenant.
type TenantGetter interface {
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
}

// ReviewWriter writes review messages.
type ReviewWriter interface {
	Write(ctx context.Context, in review.Input) (*models.ReviewMessage, error)
}

// Evicter drops idle in-memory entries, such as quota counters or
// per-client rate limiters.
type Evicter interface {
	Evict(idle time.Duration) int
}

// Config holds scheduler settings.
type Config struct {
	// Schedule is a cron spec or descriptor such as "@every 1h".
	Schedule string
	// PlaceholderAfter is how long a placeholder date may stand before a
	// reminder review is raised.
	PlaceholderAfter time.Duration
	BatchSize        int
	QuotaIdle        time.Duration
}

// Scheduler owns the cron runner.
type Scheduler struct {
	bookings PlaceholderStore
	tenants  TenantGetter
	reviews  ReviewWriter
	evicters []Evicter
	config   Config
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New creates a Scheduler. quota may be nil when the tracker is not
// in-memory.
func New(bookings PlaceholderStore, tenants TenantGetter, reviews ReviewWriter, quota Evicter, config Config, log *slog.Logger) *Scheduler {
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}
	if config.PlaceholderAfter <= 0 {
		config.PlaceholderAfter = DefaultPlaceholderAfter
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.QuotaIdle <= 0 {
		config.QuotaIdle = DefaultQuotaIdle
	}
	s := &Scheduler{
		bookings: bookings,
		tenants:  tenants,
		reviews:  reviews,
		config:   config,
		logger:   logger.Component(log, "scheduler"),
		now:      time.Now,
	}
	if quota != nil {
		s.evicters = append(s.evicters, quota)
	}
	return s
}

// AddEvicter registers another in-memory store to trim on each run. Call
// it before Start.
func (s *Scheduler) AddEvicter(e Evicter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evicters = append(s.evicters, e)
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	cl := cronLogger{s.logger}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl))
	if _, err := c.AddFunc(s.config.Schedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.config.Schedule, err)
	}
	c.Start()
	s.cron = c
	s.running = true

	s.logger.Info("scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("placeholder_after", s.config.PlaceholderAfter))
	return nil
}

// Stop stops the runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the runner is started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.SweepPlaceholders(ctx); err != nil {
		s.logger.Error("placeholder sweep failed", slog.Any("error", err))
	}
	s.mu.Lock()
	evicters := s.evicters
	s.mu.Unlock()
	for _, e := range evicters {
		if n := e.Evict(s.config.QuotaIdle); n > 0 {
			s.logger.Debug("evicted idle entries", slog.Int("count", n))
		}
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
