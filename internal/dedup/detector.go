package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
)

// DefaultLookback is the window duplicates are searched in.
const DefaultLookback = 24 * time.Hour

// BookingFinder looks up recent bookings by duplicate key.
type BookingFinder interface {
	FindRecent(ctx context.Context, tenantID uint, duplicateKey string, since time.Time) ([]models.Booking, error)
}

// ReviewFinder looks up recent review messages by duplicate key.
type ReviewFinder interface {
	FindRecent(ctx context.Context, tenantID uint, duplicateKey string, since time.Time) ([]models.ReviewMessage, error)
}

// Match kinds reported in a Decision.
const (
	MatchBooking = "booking"
	MatchReview  = "review"
)

// Decision is the outcome of a duplicate check.
type Decision struct {
	IsDuplicate bool
	MatchedID   uint
	MatchedKind string
}

// Detector checks duplicate keys against the booking and review stores.
type Detector struct {
	bookings BookingFinder
	reviews  ReviewFinder
	lookback time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewDetector creates a Detector. A non-positive lookback uses DefaultLookback.
func NewDetector(bookings BookingFinder, reviews ReviewFinder, lookback time.Duration, logger *slog.Logger) *Detector {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Detector{
		bookings: bookings,
		reviews:  reviews,
		lookback: lookback,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "dedup")),
	}
}

// CheckOption adjusts a single Check call.
type CheckOption func(*checkOptions)

type checkOptions struct {
	excludeReviewID uint
}

// ExcludeReview ignores the given review message, so reprocessing a review
// does not match itself.
func ExcludeReview(id uint) CheckOption {
	return func(o *checkOptions) { o.excludeReviewID = id }
}

// Check reports whether key matches a booking or review message created for
// the tenant within the lookback window. Lookup errors fail open: the
// message is treated as new and the error is logged.
func (d *Detector) Check(ctx context.Context, tenantID uint, key Key, opts ...CheckOption) Decision {
	if key.IsZero() {
		return Decision{}
	}
	var o checkOptions
	for _, opt := range opts {
		opt(&o)
	}
	since := d.now().Add(-d.lookback)

	bookings, err := d.bookings.FindRecent(ctx, tenantID, key.Value, since)
	if err != nil {
		d.failOpen(tenantID, key, err)
		return Decision{}
	}
	if len(bookings) > 0 {
		return Decision{IsDuplicate: true, MatchedID: bookings[0].ID, MatchedKind: MatchBooking}
	}

	reviews, err := d.reviews.FindRecent(ctx, tenantID, key.Value, since)
	if err != nil {
		d.failOpen(tenantID, key, err)
		return Decision{}
	}
	for _, r := range reviews {
		if r.ID == o.excludeReviewID {
			continue
		}
		return Decision{IsDuplicate: true, MatchedID: r.ID, MatchedKind: MatchReview}
	}
	return Decision{}
}

func (d *Detector) failOpen(tenantID uint, key Key, err error) {
	d.logger.Warn("duplicate check failed, treating message as new",
		slog.Uint64("tenant_id", uint64(tenantID)),
		slog.String("channel", string(key.Channel)),
		slog.String("error", err.Error()),
	)
}
