// Package review persists inbound messages that need a human to finish
// them, and tells the tenant about them.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	sanitize "github.com/welldanyogia/webrana-gigbook-backend/internal/validator"
)

// Pipeline stages recorded on review messages.
const (
	StageNormalize   = "normalize"
	StageTenant      = "tenant"
	StageExtraction  = "extraction"
	StageQuality     = "quality"
	StageMaterialize = "materialize"
	StagePipeline    = "pipeline"
	StageSweep       = "placeholder_sweep"
)

// Store is the review queue store's create operation.
type Store interface {
	Create(ctx context.Context, review *models.ReviewMessage) error
}

// AdminResolver returns the administrative tenant.
type AdminResolver interface {
	Admin(ctx context.Context) (*models.Tenant, error)
}

// Notifier tells a tenant a new review item is waiting.
type Notifier interface {
	NotifyReview(ctx context.Context, tenant *models.Tenant, review *models.ReviewMessage) error
}

// Input describes one message being routed to review. Tenant may be nil,
// in which case the administrative tenant owns the record.
type Input struct {
	Tenant       *models.Tenant
	Message      inbound.Message
	Raw          inbound.Payload
	Channel      inbound.Channel
	Stage        string
	Reason       string
	Err          error
	Result       *extraction.Result
	Form         inbound.FormData
	Payload      any
	DuplicateKey string
	// BookingID links the review to an existing booking, as the
	// placeholder sweep does.
	BookingID *uint
}

// Writer writes review messages.
type Writer struct {
	store      Store
	admin      AdminResolver
	classifier *inbound.Classifier
	notifier   Notifier
	logger     *slog.Logger

	mu               sync.Mutex
	adminTenantCache *models.Tenant
}

// NewWriter creates a Writer. notifier may be nil.
func NewWriter(store Store, admin AdminResolver, classifier *inbound.Classifier, notifier Notifier, log *slog.Logger) *Writer {
	return &Writer{
		store:      store,
		admin:      admin,
		classifier: classifier,
		notifier:   notifier,
		logger:     logger.Component(log, "review_writer"),
	}
}

// Write persists a review message. A failure is logged at CRITICAL and
// returned wrapping ErrReviewWrite; callers log and carry on.
func (w *Writer) Write(ctx context.Context, in Input) (*models.ReviewMessage, error) {
	tenant := in.Tenant
	if tenant == nil {
		admin, err := w.adminTenant(ctx)
		if err != nil {
			return nil, w.fail(ctx, in, fmt.Errorf("no tenant and admin tenant unavailable: %w", err))
		}
		tenant = admin
	}

	rm := w.build(tenant.ID, in)
	if err := w.store.Create(ctx, rm); err != nil {
		return nil, w.fail(ctx, in, err)
	}

	w.logger.Info("message routed to review",
		slog.Uint64("review_id", uint64(rm.ID)),
		slog.Uint64("tenant_id", uint64(rm.TenantID)),
		slog.String("stage", rm.Stage),
		slog.String("reason", rm.Reason),
	)

	if w.notifier != nil {
		if err := w.notifier.NotifyReview(ctx, tenant, rm); err != nil {
			w.logger.Warn("review notification failed",
				slog.Uint64("review_id", uint64(rm.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return rm, nil
}

func (w *Writer) build(tenantID uint, in Input) *models.ReviewMessage {
	m := in.Message
	rm := &models.ReviewMessage{
		PublicID:         uuid.NewString(),
		TenantID:         tenantID,
		Status:           models.ReviewPending,
		Stage:            in.Stage,
		Reason:           in.Reason,
		Channel:          string(in.Channel),
		Sender:           sanitize.SanitizeString(m.Sender, 255),
		Subject:          sanitize.SanitizeString(m.Subject, 0),
		Body:             m.Body,
		RecipientAddress: sanitize.SanitizeString(m.RecipientAddress, 255),
		ReceivedAt:       m.ReceivedAt,
		DuplicateKey:     in.DuplicateKey,
		RawPayload:       encodePayload(in.Raw),
		BookingID:        in.BookingID,
	}
	if rm.ReceivedAt.IsZero() {
		rm.ReceivedAt = time.Now().UTC()
	}
	if rm.Reason == "" && in.Err != nil {
		rm.Reason = in.Err.Error()
	}
	if in.Err != nil {
		rm.ErrorCode = apperrors.GetErrorCode(in.Err)
	}

	var extractedName, extractedEmail string
	if in.Result != nil {
		extractedName = extraction.Str(in.Result.ClientName)
		extractedEmail = extraction.Str(in.Result.ClientEmail)
		c := in.Result.Confidence
		rm.Confidence = &c
		rm.Extraction = encode(in.Result)
	}
	if w.classifier != nil {
		if name := sanitize.SanitizeString(w.classifier.PickName(in.Form.Name, extractedName, m), 255); name != "" {
			rm.ClientName = &name
		}
		if email := sanitize.SanitizeString(w.classifier.PickEmail(in.Form.Email, extractedEmail, m.Sender), 255); email != "" {
			rm.ClientEmail = &email
		}
	}
	if in.Payload != nil {
		rm.Payload = encode(in.Payload)
	}
	return rm
}

func (w *Writer) adminTenant(ctx context.Context) (*models.Tenant, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.adminTenantCache != nil {
		return w.adminTenantCache, nil
	}
	if w.admin == nil {
		return nil, errors.New("admin tenant resolver not configured")
	}
	t, err := w.admin.Admin(ctx)
	if err != nil {
		return nil, err
	}
	w.adminTenantCache = t
	return t, nil
}

func (w *Writer) fail(ctx context.Context, in Input, err error) error {
	wrapped := fmt.Errorf("%w: %w", apperrors.ErrReviewWrite, err)
	logger.Critical(ctx, w.logger, "failed to write review message",
		slog.String("stage", in.Stage),
		slog.String("reason", in.Reason),
		slog.String("sender", in.Message.Sender),
		slog.String("subject", in.Message.Subject),
		slog.String("recipient", in.Message.RecipientAddress),
		slog.String("error", err.Error()),
	)
	return wrapped
}

func encode(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func encodePayload(p inbound.Payload) string {
	if len(p) == 0 {
		return ""
	}
	return encode(p)
}
