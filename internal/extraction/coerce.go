package extraction

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
)

// Raw is the untyped field map returned by the extraction service.
type Raw map[string]any

// Coerce validates and normalizes a raw service response into a Result.
// Unusable values become nil; a missing confidence counts as the minimum.
func Coerce(raw Raw, now time.Time) *Result {
	r := &Result{Source: SourceIntelligent}

	r.ClientName = StrPtr(raw.str("clientName", "client_name", "name"))
	r.ClientEmail = StrPtr(strings.ToLower(raw.str("clientEmail", "client_email", "email")))
	r.ClientPhone = StrPtr(raw.str("clientPhone", "client_phone", "phone"))
	r.EventDate = CoerceDate(raw.str("eventDate", "event_date", "date"), now)
	r.EventTime = CoerceTime(raw.str("eventTime", "event_time", "time"))
	r.EventEndTime = CoerceTime(raw.str("eventEndTime", "event_end_time", "end_time"))
	r.Venue = StrPtr(raw.str("venue", "venueName", "venue_name"))
	r.VenueAddress = StrPtr(raw.str("venueAddress", "venue_address"))
	if t := raw.str("eventType", "event_type", "type"); t != "" {
		r.EventType = StrPtr(inbound.CanonicalEventType(t))
	}
	r.Fee = CoerceMoney(raw.first("fee", "price", "budget"))
	r.Deposit = CoerceMoney(raw.first("deposit"))
	r.SpecialRequirements = StrPtr(raw.str("specialRequirements", "special_requirements", "notes"))

	r.Confidence = MinConfidence
	if c, ok := toFloat(raw.first("confidence", "score")); ok {
		r.Confidence = c
	}
	r.Confidence = ClampConfidence(r.Confidence)

	if meta, ok := raw.first("metadata").(map[string]any); ok {
		for k, v := range meta {
			r.SetMeta(k, v)
		}
	}
	if link := raw.str("applyLink", "apply_link"); link != "" {
		r.SetMeta("apply_link", link)
	}
	return r
}

func (raw Raw) first(keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func (raw Raw) str(keys ...string) string {
	switch v := raw.first(keys...).(type) {
	case string:
		s := strings.TrimSpace(v)
		if strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "none") {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// Revalidate checks the result against the text it came from. A venue that
// does not occur in the text, or a date whose day or month cannot be found
// in it, halves the confidence. The year is not looked for, since enquiries
// often leave it out. Fields are kept either way.
func Revalidate(r *Result, text string) {
	lower := strings.ToLower(text)
	var penalties []string

	if r.HasVenue() && !strings.Contains(lower, strings.ToLower(strings.TrimSpace(*r.Venue))) {
		r.Confidence /= 2
		penalties = append(penalties, "venue_not_in_text")
	}
	if r.HasDate() && !dateTokensPresent(*r.EventDate, lower) {
		r.Confidence /= 2
		penalties = append(penalties, "date_not_in_text")
	}
	if len(penalties) > 0 {
		r.SetMeta("revalidation", penalties)
	}
	r.Confidence = ClampConfidence(r.Confidence)
}

// dateTokensPresent reports whether the day and month of date both appear
// as tokens of lower. The month may be a number, a full name or an
// abbreviation of at least three letters.
func dateTokensPresent(date, lower string) bool {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	month := strings.ToLower(t.Month().String())
	var dayFound, monthFound bool
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if n, ok := tokenNumber(tok); ok {
			dayFound = dayFound || n == t.Day()
			monthFound = monthFound || n == int(t.Month())
			continue
		}
		if len(tok) >= 3 && strings.HasPrefix(month, tok) {
			monthFound = true
		}
	}
	return dayFound && monthFound
}

// tokenNumber reads "7", "07" or "7th" as 7.
func tokenNumber(tok string) (int, bool) {
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if t, ok := strings.CutSuffix(tok, suffix); ok {
			tok = t
			break
		}
	}
	n, err := strconv.Atoi(tok)
	return n, err == nil
}
