package dedup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/mocks"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
)

func newTestDetector(b *mocks.MockBookingRepository, r *mocks.MockReviewRepository) *Detector {
	d := NewDetector(b, r, 24*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestKeyFor_FormUsesNameAndEmail(t *testing.T) {
	msg := inbound.Message{Sender: "forms@studio.test", Subject: "New submission"}
	form := inbound.FormData{Name: "  Jane   DOE ", Email: "Jane@Example.com"}

	key := KeyFor(1, msg, inbound.ChannelForm, form)

	assert.Equal(t, FormIdentity("Jane Doe", "jane@example.com"), key.Value)
	assert.True(t, strings.HasPrefix(key.Value, "form:"))
	assert.Equal(t, inbound.ChannelForm, key.Channel)
}

func TestKeyFor_LongFormValuesFitTheColumn(t *testing.T) {
	form := inbound.FormData{
		Name:  strings.Repeat("Bartholomew ", 80),
		Email: strings.Repeat("a", 200) + "@example.com",
	}

	key := KeyFor(1, inbound.Message{}, inbound.ChannelForm, form)

	assert.Len(t, key.Value, len("form:")+64)
	assert.NotEqual(t, key.Value, FormIdentity("Bartholomew", form.Email))
}

func TestFormIdentity_RequiresNameAndEmail(t *testing.T) {
	assert.Empty(t, FormIdentity("Jane", " "))
	assert.Empty(t, FormIdentity("", "jane@example.com"))
}

func TestKeyFor_FormWithoutEmailFallsBackToFingerprint(t *testing.T) {
	msg := inbound.Message{Sender: "forms@studio.test", Subject: "New submission", Body: "Name: Jane"}

	key := KeyFor(1, msg, inbound.ChannelForm, inbound.FormData{Name: "Jane"})

	assert.True(t, strings.HasPrefix(key.Value, "fp:"))
}

func TestFingerprint_Stable(t *testing.T) {
	a := inbound.Message{Sender: "Client@Example.com", Subject: "Re: Wedding  booking", Body: "Hi there,\n\nAre you free?"}
	b := inbound.Message{Sender: "client@example.com", Subject: "FWD: re: wedding booking", Body: "Hi   there, Are you free?"}

	assert.Equal(t, Fingerprint(1, a), Fingerprint(1, b))
}

func TestFingerprint_TenantScoped(t *testing.T) {
	m := inbound.Message{Sender: "client@example.com", Subject: "Gig", Body: "Are you free?"}

	assert.NotEqual(t, Fingerprint(1, m), Fingerprint(2, m))
}

func TestFingerprint_OnlyPrefixMatters(t *testing.T) {
	body := strings.Repeat("a", bodyPrefixLen)
	a := inbound.Message{Sender: "c@example.com", Subject: "Gig", Body: body + " tail one"}
	b := inbound.Message{Sender: "c@example.com", Subject: "Gig", Body: body + " tail two"}

	assert.Equal(t, Fingerprint(1, a), Fingerprint(1, b))
}

func TestCheck_MatchesBooking(t *testing.T) {
	// Arrange
	bookings := new(mocks.MockBookingRepository)
	reviews := new(mocks.MockReviewRepository)
	since := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	bookings.On("FindRecent", mock.Anything, uint(1), "form:jane|jane@example.com", since).
		Return([]models.Booking{{ID: 42}}, nil)
	d := newTestDetector(bookings, reviews)

	// Act
	dec := d.Check(context.Background(), 1, Key{Channel: inbound.ChannelForm, Value: "form:jane|jane@example.com"})

	// Assert
	assert.True(t, dec.IsDuplicate)
	assert.Equal(t, uint(42), dec.MatchedID)
	assert.Equal(t, MatchBooking, dec.MatchedKind)
	reviews.AssertNotCalled(t, "FindRecent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheck_MatchesReview(t *testing.T) {
	bookings := new(mocks.MockBookingRepository)
	reviews := new(mocks.MockReviewRepository)
	bookings.On("FindRecent", mock.Anything, uint(1), "fp:x", mock.Anything).Return([]models.Booking{}, nil)
	reviews.On("FindRecent", mock.Anything, uint(1), "fp:x", mock.Anything).Return([]models.ReviewMessage{{ID: 9}}, nil)
	d := newTestDetector(bookings, reviews)

	dec := d.Check(context.Background(), 1, Key{Value: "fp:x"})

	assert.True(t, dec.IsDuplicate)
	assert.Equal(t, MatchReview, dec.MatchedKind)
}

func TestCheck_ExcludeReview(t *testing.T) {
	bookings := new(mocks.MockBookingRepository)
	reviews := new(mocks.MockReviewRepository)
	bookings.On("FindRecent", mock.Anything, uint(1), "fp:x", mock.Anything).Return([]models.Booking{}, nil)
	reviews.On("FindRecent", mock.Anything, uint(1), "fp:x", mock.Anything).Return([]models.ReviewMessage{{ID: 9}}, nil)
	d := newTestDetector(bookings, reviews)

	dec := d.Check(context.Background(), 1, Key{Value: "fp:x"}, ExcludeReview(9))

	assert.False(t, dec.IsDuplicate)
}

func TestCheck_FailsOpenOnBookingError(t *testing.T) {
	bookings := new(mocks.MockBookingRepository)
	reviews := new(mocks.MockReviewRepository)
	bookings.On("FindRecent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	d := newTestDetector(bookings, reviews)

	dec := d.Check(context.Background(), 1, Key{Value: "fp:x"})

	assert.False(t, dec.IsDuplicate)
}

func TestCheck_FailsOpenOnReviewError(t *testing.T) {
	bookings := new(mocks.MockBookingRepository)
	reviews := new(mocks.MockReviewRepository)
	bookings.On("FindRecent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]models.Booking{}, nil)
	reviews.On("FindRecent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	d := newTestDetector(bookings, reviews)

	dec := d.Check(context.Background(), 1, Key{Value: "fp:x"})

	assert.False(t, dec.IsDuplicate)
}

func TestCheck_EmptyKeyIsNeverDuplicate(t *testing.T) {
	d := newTestDetector(new(mocks.MockBookingRepository), new(mocks.MockReviewRepository))

	assert.False(t, d.Check(context.Background(), 1, Key{}).IsDuplicate)
}
