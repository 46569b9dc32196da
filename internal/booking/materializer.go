// Package booking builds booking records from validated extractions and
// hands them to the booking store.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	sanitize "github.com/welldanyogia/webrana-gigbook-backend/internal/validator"
)

// Store is the booking store's create operation.
type Store interface {
	Create(ctx context.Context, booking *models.Booking) error
}

// Input is everything needed to build one booking.
type Input struct {
	TenantID     uint
	Message      inbound.Message
	Channel      inbound.Channel
	Result       *extraction.Result
	Form         inbound.FormData
	DuplicateKey string
}

// MaterializationError is returned when a booking could not be built or
// stored. Payload is the booking as built, for manual retry.
type MaterializationError struct {
	Payload *models.Booking
	Err     error
}

func (e *MaterializationError) Error() string {
	return e.Err.Error()
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}

// Materializer creates bookings.
type Materializer struct {
	store      Store
	classifier *inbound.Classifier
	validate   *validator.Validate
}

// NewMaterializer creates a Materializer.
func NewMaterializer(store Store, classifier *inbound.Classifier) *Materializer {
	return &Materializer{
		store:      store,
		classifier: classifier,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Build assembles the booking payload without storing it.
func (m *Materializer) Build(in Input) *models.Booking {
	r := in.Result
	if r == nil {
		r = &extraction.Result{}
	}

	name := m.classifier.PickName(in.Form.Name, extraction.Str(r.ClientName), in.Message)
	email := m.classifier.PickEmail(in.Form.Email, extraction.Str(r.ClientEmail), in.Message.Sender)
	phone := in.Form.Phone
	if phone == "" {
		phone = extraction.Str(r.ClientPhone)
	}

	b := &models.Booking{
		PublicID:            uuid.NewString(),
		TenantID:            in.TenantID,
		Title:               sanitize.SanitizeString(Title(extraction.Str(r.EventType), name), 255),
		Status:              "enquiry",
		Channel:             string(in.Channel),
		ClientName:          optional(name, 255),
		ClientEmail:         optional(email, 255),
		ClientPhone:         optional(phone, 64),
		EventDate:           optionalPtr(r.EventDate, 10),
		EventTime:           optionalPtr(r.EventTime, 5),
		EventEndTime:        optionalPtr(r.EventEndTime, 5),
		Venue:               optionalPtr(r.Venue, 255),
		VenueAddress:        optionalPtr(r.VenueAddress, 0),
		EventType:           optionalPtr(r.EventType, 64),
		Fee:                 r.Fee,
		Deposit:             r.Deposit,
		SpecialRequirements: optionalPtr(r.SpecialRequirements, 0),
		Confidence:          r.Confidence,
		ExtractionSource:    r.Source,
		SourceSender:        sanitize.SanitizeString(in.Message.Sender, 255),
		SourceSubject:       sanitize.SanitizeString(in.Message.Subject, 0),
		DuplicateKey:        in.DuplicateKey,
	}
	if placeholder, _ := r.Metadata["date_is_placeholder"].(bool); placeholder {
		b.DatePlaceholder = true
	}
	b.Metadata = metadataJSON(r, in.Channel)
	return b
}

// Materialize builds, validates and stores a booking. The store is called
// exactly once; failures are returned as *MaterializationError wrapping
// ErrMaterialization and are never retried here.
func (m *Materializer) Materialize(ctx context.Context, in Input) (*models.Booking, error) {
	b := m.Build(in)

	if err := m.validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			err = fmt.Errorf("field %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, &MaterializationError{
			Payload: b,
			Err:     fmt.Errorf("%w: invalid booking payload: %w", apperrors.ErrMaterialization, err),
		}
	}

	if err := m.store.Create(ctx, b); err != nil {
		return nil, &MaterializationError{
			Payload: b,
			Err:     fmt.Errorf("%w: %w", apperrors.ErrMaterialization, err),
		}
	}
	return b, nil
}

// Title derives a booking title from the event type and client name.
func Title(eventType, name string) string {
	eventType = capitalize(strings.TrimSpace(eventType))
	name = strings.TrimSpace(name)
	switch {
	case eventType != "" && name != "":
		return eventType + " - " + name
	case name != "":
		return "Booking - " + name
	case eventType != "":
		return eventType + " enquiry"
	default:
		return "New enquiry"
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func optional(s string, max int) *string {
	s = sanitize.SanitizeString(s, max)
	if s == "" {
		return nil
	}
	return &s
}

func optionalPtr(p *string, max int) *string {
	if p == nil {
		return nil
	}
	return optional(*p, max)
}

func metadataJSON(r *extraction.Result, channel inbound.Channel) string {
	meta := make(map[string]any, len(r.Metadata)+2)
	for k, v := range r.Metadata {
		meta[k] = v
	}
	meta["extraction_source"] = r.Source
	meta["channel"] = string(channel)
	data, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(data)
}
