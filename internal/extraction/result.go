// Package extraction turns free message text into candidate booking fields,
// either through the external extraction service or a deterministic
// pattern-based fallback.
package extraction

import (
	"strings"
)

// Result sources.
const (
	SourceIntelligent = "intelligent"
	SourceFallback    = "fallback"
	SourceMerged      = "merged"
)

// Request is the input to an extraction.
type Request struct {
	Text         string
	ContactHint  string
	LocationHint string
	TenantID     uint
	SubjectHint  string
}

// Result holds candidate booking fields. Nil means "not found"; strings are
// already coerced (dates YYYY-MM-DD, times HH:MM).
type Result struct {
	ClientName          *string        `json:"client_name,omitempty"`
	ClientEmail         *string        `json:"client_email,omitempty"`
	ClientPhone         *string        `json:"client_phone,omitempty"`
	EventDate           *string        `json:"event_date,omitempty"`
	EventTime           *string        `json:"event_time,omitempty"`
	EventEndTime        *string        `json:"event_end_time,omitempty"`
	Venue               *string        `json:"venue,omitempty"`
	VenueAddress        *string        `json:"venue_address,omitempty"`
	EventType           *string        `json:"event_type,omitempty"`
	Fee                 *float64       `json:"fee,omitempty"`
	Deposit             *float64       `json:"deposit,omitempty"`
	SpecialRequirements *string        `json:"special_requirements,omitempty"`
	Confidence          float64        `json:"confidence"`
	Source              string         `json:"source"`
	Metadata            map[string]any `json:"metadata,omitempty"`
}

// HasDate reports whether an event date was found.
func (r *Result) HasDate() bool { return present(r.EventDate) }

// HasType reports whether an event type was found.
func (r *Result) HasType() bool { return present(r.EventType) }

// HasVenue reports whether a venue was found.
func (r *Result) HasVenue() bool { return present(r.Venue) }

// HasContact reports whether any client contact detail was found.
func (r *Result) HasContact() bool {
	return present(r.ClientEmail) || present(r.ClientPhone)
}

// SetMeta records a metadata entry.
func (r *Result) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.ClientName = cloneStr(r.ClientName)
	c.ClientEmail = cloneStr(r.ClientEmail)
	c.ClientPhone = cloneStr(r.ClientPhone)
	c.EventDate = cloneStr(r.EventDate)
	c.EventTime = cloneStr(r.EventTime)
	c.EventEndTime = cloneStr(r.EventEndTime)
	c.Venue = cloneStr(r.Venue)
	c.VenueAddress = cloneStr(r.VenueAddress)
	c.EventType = cloneStr(r.EventType)
	c.SpecialRequirements = cloneStr(r.SpecialRequirements)
	c.Fee = cloneFloat(r.Fee)
	c.Deposit = cloneFloat(r.Deposit)
	if r.Metadata != nil {
		c.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Str returns the pointed-to string or "".
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StrPtr returns a pointer to the trimmed string, or nil when it is blank.
func StrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func present(p *string) bool {
	return p != nil && strings.TrimSpace(*p) != ""
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
