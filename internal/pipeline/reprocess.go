package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/dedup"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
)

// Reprocess runs a pending review message through the pipeline again,
// ignoring the review itself in the duplicate check. When the rerun creates
// a booking or a new review, the old review is marked reprocessed.
func (p *Pipeline) Reprocess(ctx context.Context, reviewID uint) (Result, error) {
	if p.deps.ReviewStore == nil {
		return Result{}, errors.New("review store not configured")
	}
	rm, err := p.deps.ReviewStore.GetByID(ctx, reviewID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load review %d: %w", reviewID, err)
	}
	if rm.Status != models.ReviewPending {
		return Result{}, apperrors.NewAppError(apperrors.ErrInvalidInput,
			fmt.Sprintf("review %d is %s", reviewID, rm.Status), apperrors.CodeInvalidInput)
	}

	res := p.run(ctx, replayPayload(rm), []dedup.CheckOption{dedup.ExcludeReview(rm.ID)})

	var bookingID *uint
	switch res.Outcome {
	case OutcomeCreated:
		id := res.BookingID
		bookingID = &id
	case OutcomeReview:
	default:
		return res, nil
	}
	if err := p.deps.ReviewStore.UpdateStatus(ctx, rm.ID, models.ReviewReprocessed, bookingID); err != nil {
		return res, fmt.Errorf("failed to mark review %d reprocessed: %w", rm.ID, err)
	}
	return res, nil
}

// replayPayload prefers the stored original payload and rebuilds one from
// the captured message when that is missing.
func replayPayload(rm *models.ReviewMessage) inbound.Payload {
	if rm.RawPayload != "" {
		var p inbound.Payload
		if err := json.Unmarshal([]byte(rm.RawPayload), &p); err == nil && len(p) > 0 {
			return p
		}
	}
	p := inbound.Payload{
		"from":    rm.Sender,
		"to":      rm.RecipientAddress,
		"subject": rm.Subject,
		"text":    rm.Body,
	}
	if !rm.ReceivedAt.IsZero() {
		p["timestamp"] = rm.ReceivedAt.UTC().Format(time.RFC3339)
	}
	return p
}
