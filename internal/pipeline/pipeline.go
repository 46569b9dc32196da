// Package pipeline turns one inbound delivery into exactly one terminal
// outcome: a booking, a duplicate report, or a review message.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/booking"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/dedup"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/review"
)

// Outcome is the terminal state of a run.
type Outcome string

// Outcomes.
const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeReview    Outcome = "review"
	// OutcomeFailed means the message should have gone to review but the
	// review record could not be written.
	OutcomeFailed Outcome = "failed"
)

// Defaults.
const (
	DefaultTimeout       = 60 * time.Second
	DefaultReviewTimeout = 10 * time.Second
)

// Result reports what happened to one message.
type Result struct {
	RunID       string          `json:"run_id"`
	Outcome     Outcome         `json:"outcome"`
	Channel     inbound.Channel `json:"channel,omitempty"`
	TenantID    uint            `json:"tenant_id,omitempty"`
	TenantSlug  string          `json:"tenant,omitempty"`
	BookingID   uint            `json:"booking_id,omitempty"`
	ReviewID    uint            `json:"review_id,omitempty"`
	DuplicateOf uint            `json:"duplicate_of,omitempty"`
	MatchedKind string          `json:"matched_kind,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// TenantResolver maps recipient addresses to tenants.
type TenantResolver interface {
	Resolve(ctx context.Context, recipient string) (*models.Tenant, error)
}

// DuplicateChecker reports whether a key is already on record.
type DuplicateChecker interface {
	Check(ctx context.Context, tenantID uint, key dedup.Key, opts ...dedup.CheckOption) dedup.Decision
}

// Guard serializes the extraction-to-creation section.
type Guard interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Extractor is the intelligent extraction path.
type Extractor interface {
	Extract(ctx context.Context, req extraction.Request) (*extraction.Result, error)
}

// FallbackExtractor is the deterministic extraction path.
type FallbackExtractor interface {
	Extract(text string) *extraction.Result
}

// Materializer creates bookings.
type Materializer interface {
	Materialize(ctx context.Context, in booking.Input) (*models.Booking, error)
}

// ReviewWriter routes messages to the review queue.
type ReviewWriter interface {
	Write(ctx context.Context, in review.Input) (*models.ReviewMessage, error)
}

// ReviewStore is what Reprocess needs from the review queue store.
type ReviewStore interface {
	GetByID(ctx context.Context, id uint) (*models.ReviewMessage, error)
	UpdateStatus(ctx context.Context, id uint, status string, bookingID *uint) error
}

// Observer is told about every finished run.
type Observer interface {
	Observe(res Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(res Result)

// Observe calls f.
func (f ObserverFunc) Observe(res Result) { f(res) }

// Deps are the stages the pipeline drives. ReviewStore is only needed for
// Reprocess.
type Deps struct {
	Normalizer   *inbound.Normalizer
	Classifier   *inbound.Classifier
	Tenants      TenantResolver
	Duplicates   DuplicateChecker
	Guard        Guard
	Extractor    Extractor
	Fallback     FallbackExtractor
	Materializer Materializer
	Reviews      ReviewWriter
	ReviewStore  ReviewStore
	Observers    []Observer
}

// Config bounds a run.
type Config struct {
	// Timeout bounds the whole run.
	Timeout time.Duration
	// ReviewTimeout bounds a review write. It is measured from the moment
	// the write starts so an expired run can still be captured.
	ReviewTimeout time.Duration
}

// Pipeline processes inbound messages. It is safe for concurrent use; the
// guard serializes the creation section.
type Pipeline struct {
	deps          Deps
	timeout       time.Duration
	reviewTimeout time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// New creates a Pipeline.
func New(deps Deps, cfg Config, log *slog.Logger) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ReviewTimeout <= 0 {
		cfg.ReviewTimeout = DefaultReviewTimeout
	}
	if deps.Normalizer == nil {
		deps.Normalizer = inbound.NewNormalizer(nil)
	}
	if deps.Classifier == nil {
		deps.Classifier = inbound.NewClassifier(nil)
	}
	return &Pipeline{
		deps:          deps,
		timeout:       cfg.Timeout,
		reviewTimeout: cfg.ReviewTimeout,
		now:           time.Now,
		logger:        logger.Component(log, "pipeline"),
	}
}

// Process runs one payload to a terminal outcome. Business failures never
// surface as errors; they end in review (or failed, when even the review
// write is lost).
func (p *Pipeline) Process(ctx context.Context, payload inbound.Payload) Result {
	return p.run(ctx, payload, nil)
}

func (p *Pipeline) notify(res Result) {
	for _, o := range p.deps.Observers {
		o.Observe(res)
	}
}
