package extraction

import (
	"regexp"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
)

// MaxFallbackConfidence is the most a pattern-based extraction may claim.
const MaxFallbackConfidence = 0.6

var (
	labelledVenueRe = regexp.MustCompile(`(?im)^\s*(?:venue|venue name|location|location of (?:the )?event|event location|event venue)\s*:\s*(\S.*?)\s*$`)
	heldAtRe        = regexp.MustCompile(`(?i)\bheld at\s+([^\n,.;!?]{2,80})`)
	atVenueRe       = regexp.MustCompile(`\bat[ \t]+((?:[Tt]he[ \t]+)?[A-Z][\w'&-]*(?:[ \t]+(?:[A-Z][\w'&-]*|of|the|and|&))*)`)
	emailRe         = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe         = regexp.MustCompile(`\+?\d[\d\s().-]{8,}\d`)
)

// notVenues are capitalised words that follow "at" without naming a place.
var notVenues = map[string]bool{
	"christmas": true, "easter": true, "new year": true, "the moment": true, "the weekend": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true, "noon": true, "midnight": true, "i": true,
}

var trailingConnectors = []string{" of", " the", " and", " &"}

// Fallback is the deterministic extractor used when the extraction service
// cannot be used. Its output never claims more than MaxFallbackConfidence.
type Fallback struct {
	classifier *inbound.Classifier
	now        func() time.Time
}

// NewFallback creates a Fallback. The classifier is used to skip automated
// addresses when picking a contact email.
func NewFallback(classifier *inbound.Classifier, now func() time.Time) *Fallback {
	if now == nil {
		now = time.Now
	}
	return &Fallback{classifier: classifier, now: now}
}

// Extract pulls event type, venue, date and contact details out of text.
// The same text always yields the same result for a given day.
func (f *Fallback) Extract(text string) *Result {
	r := &Result{Source: SourceFallback}
	groups := 0

	if m := inbound.MatchEventType(text); m.Type != "" {
		r.EventType = StrPtr(m.Type)
		groups++
	}
	if v := findVenue(text); v != "" {
		r.Venue = StrPtr(v)
		groups++
	}
	if d := FindDate(text, f.now()); d != nil {
		r.EventDate = d
		groups++
	}

	for _, e := range emailRe.FindAllString(text, -1) {
		e = strings.ToLower(e)
		if f.classifier != nil && f.classifier.IsAutomated(e) {
			continue
		}
		r.ClientEmail = StrPtr(e)
		break
	}
	if p := findPhone(text); p != "" {
		r.ClientPhone = StrPtr(p)
	}
	if r.HasContact() {
		groups++
	}

	r.Confidence = float64(3+groups) / 10
	if r.Confidence > MaxFallbackConfidence {
		r.Confidence = MaxFallbackConfidence
	}
	return r
}

func findVenue(text string) string {
	if m := labelledVenueRe.FindStringSubmatch(text); m != nil {
		return cleanVenue(m[1])
	}
	if m := heldAtRe.FindStringSubmatch(text); m != nil {
		return cleanVenue(m[1])
	}
	for _, m := range atVenueRe.FindAllStringSubmatch(text, -1) {
		v := cleanVenue(m[1])
		if v != "" && !notVenues[strings.ToLower(v)] {
			return v
		}
	}
	return ""
}

func cleanVenue(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	for changed := true; changed; {
		changed = false
		for _, c := range trailingConnectors {
			if strings.HasSuffix(v, c) {
				v = strings.TrimSuffix(v, c)
				changed = true
			}
		}
	}
	return strings.Trim(v, " .,;:-")
}

func findPhone(text string) string {
	for _, m := range phoneRe.FindAllString(text, -1) {
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 10 && digits <= 15 {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
