package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/review"
)

// SweepPlaceholders raises a review for every placeholder-dated booking
// older than PlaceholderAfter that has not been swept yet, then stamps the
// booking. It returns the number of bookings swept.
func (s *Scheduler) SweepPlaceholders(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.config.PlaceholderAfter)
	due, err := s.bookings.ListPlaceholderDue(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range due {
		b := &due[i]
		if err := s.sweepOne(ctx, b); err != nil {
			s.logger.Error("failed to sweep placeholder booking",
				slog.Uint64("booking_id", uint64(b.ID)),
				slog.Any("error", err))
			continue
		}
		swept++
	}

	if swept > 0 {
		s.logger.Info("placeholder bookings sent for review", slog.Int("count", swept))
	}
	return swept, nil
}

func (s *Scheduler) sweepOne(ctx context.Context, b *models.Booking) error {
	t, err := s.tenants.GetByID(ctx, b.TenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant %d: %w", b.TenantID, err)
	}

	id := b.ID
	_, err = s.reviews.Write(ctx, review.Input{
		Tenant: t,
		Message: inbound.Message{
			Sender:     b.SourceSender,
			Subject:    b.SourceSubject,
			ReceivedAt: b.CreatedAt,
		},
		Channel:   inbound.Channel(b.Channel),
		Stage:     review.StageSweep,
		Reason:    fmt.Sprintf("placeholder date never confirmed for %q", b.Title),
		Payload:   b,
		BookingID: &id,
	})
	if err != nil {
		return err
	}
	return s.bookings.MarkPlaceholderReviewed(ctx, b.ID, s.now())
}
