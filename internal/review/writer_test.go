package review

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/mocks"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
)

type adminStub struct {
	tenant *models.Tenant
	err    error
	calls  int
}

func (a *adminStub) Admin(ctx context.Context) (*models.Tenant, error) {
	a.calls++
	return a.tenant, a.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleMessage() inbound.Message {
	return inbound.Message{
		Sender:           "jane@example.com",
		SenderName:       "Jane Doe",
		Subject:          "Gig next summer?",
		Body:             "Hi, are you free next summer?",
		RecipientAddress: "jazzduo@in.gigbook.test",
		ReceivedAt:       time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestWrite_PersistsContext(t *testing.T) {
	// Arrange
	store := new(mocks.MockReviewRepository)
	var saved *models.ReviewMessage
	store.On("Create", mock.Anything, mock.AnythingOfType("*models.ReviewMessage")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.ReviewMessage)
			saved.ID = 5
		}).
		Return(nil)
	w := NewWriter(store, &adminStub{}, inbound.NewClassifier(nil), nil, discard)

	// Act
	rm, err := w.Write(context.Background(), Input{
		Tenant:       &models.Tenant{ID: 2, Slug: "jazzduo"},
		Message:      sampleMessage(),
		Raw:          inbound.Payload{"from": "jane@example.com"},
		Channel:      inbound.ChannelEmail,
		Stage:        StageQuality,
		Err:          apperrors.Newf(apperrors.ErrInsufficientConfidence, "confidence 0.30 below floor 0.40"),
		Result:       &extraction.Result{Confidence: 0.3, Source: extraction.SourceFallback},
		DuplicateKey: "fp:abc",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(5), rm.ID)
	assert.Equal(t, uint(2), saved.TenantID)
	assert.Equal(t, models.ReviewPending, saved.Status)
	assert.Equal(t, "confidence 0.30 below floor 0.40", saved.Reason)
	assert.Equal(t, apperrors.CodeInsufficientConfidence, saved.ErrorCode)
	assert.Equal(t, "Jane Doe", *saved.ClientName)
	assert.Equal(t, "jane@example.com", *saved.ClientEmail)
	require.NotNil(t, saved.Confidence)
	assert.Equal(t, 0.3, *saved.Confidence)
	assert.Contains(t, saved.Extraction, `"source":"fallback"`)
	assert.JSONEq(t, `{"from":"jane@example.com"}`, saved.RawPayload)
	assert.Equal(t, "fp:abc", saved.DuplicateKey)
	assert.NotEmpty(t, saved.PublicID)
}

func TestWrite_FallsBackToAdminTenant(t *testing.T) {
	// Arrange
	store := new(mocks.MockReviewRepository)
	store.On("Create", mock.Anything, mock.MatchedBy(func(r *models.ReviewMessage) bool { return r.TenantID == 1 })).Return(nil)
	admin := &adminStub{tenant: &models.Tenant{ID: 1, Slug: "admin", IsAdmin: true}}
	w := NewWriter(store, admin, inbound.NewClassifier(nil), nil, discard)

	// Act
	_, err1 := w.Write(context.Background(), Input{Stage: StageNormalize, Reason: "normalization failed"})
	_, err2 := w.Write(context.Background(), Input{Stage: StageTenant, Reason: "tenant not found", Message: sampleMessage()})

	// Assert
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, 1, admin.calls, "admin tenant is cached")
	store.AssertNumberOfCalls(t, "Create", 2)
}

func TestWrite_StoreFailureLogsCritical(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	store := new(mocks.MockReviewRepository)
	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	w := NewWriter(store, &adminStub{}, inbound.NewClassifier(nil), nil, logger.New(&buf, "info"))

	// Act
	_, err := w.Write(context.Background(), Input{
		Tenant:  &models.Tenant{ID: 2},
		Message: sampleMessage(),
		Stage:   StageMaterialize,
		Reason:  "booking store unavailable",
	})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrReviewWrite)
	assert.Contains(t, buf.String(), `"level":"CRITICAL"`)
	assert.Contains(t, buf.String(), "disk full")
}

func TestWrite_AdminUnavailable(t *testing.T) {
	store := new(mocks.MockReviewRepository)
	w := NewWriter(store, &adminStub{err: errors.New("not found")}, inbound.NewClassifier(nil), nil, discard)

	_, err := w.Write(context.Background(), Input{Stage: StageTenant, Reason: "tenant not found"})

	assert.ErrorIs(t, err, apperrors.ErrReviewWrite)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWrite_NotifierFailureIsIgnored(t *testing.T) {
	store := new(mocks.MockReviewRepository)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	notifier := new(mocks.MockNotifier)
	notifier.On("NotifyReview", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("mailgun down"))
	w := NewWriter(store, &adminStub{}, inbound.NewClassifier(nil), notifier, discard)

	rm, err := w.Write(context.Background(), Input{Tenant: &models.Tenant{ID: 2, Email: "band@example.com"}, Stage: StageQuality, Reason: "x"})

	require.NoError(t, err)
	assert.NotNil(t, rm)
	notifier.AssertExpectations(t)
}

func TestWrite_LongFormNameFitsColumn(t *testing.T) {
	// Arrange
	store := new(mocks.MockReviewRepository)
	var saved *models.ReviewMessage
	store.On("Create", mock.Anything, mock.AnythingOfType("*models.ReviewMessage")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.ReviewMessage) }).
		Return(nil)
	w := NewWriter(store, &adminStub{}, inbound.NewClassifier(nil), nil, discard)
	long := strings.TrimSpace(strings.Repeat("Bartholomew ", 80))

	// Act
	_, err := w.Write(context.Background(), Input{
		Tenant:  &models.Tenant{ID: 2},
		Message: sampleMessage(),
		Channel: inbound.ChannelForm,
		Stage:   StageQuality,
		Reason:  "x",
		Form:    inbound.FormData{Name: long, Email: "jane@example.com"},
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, saved.ClientName)
	assert.Equal(t, long[:255], *saved.ClientName)
}
