package inbound

import (
	"regexp"
	"strings"
)

// eventTypes is the fixed event vocabulary. Each entry maps the phrases that
// signal it to the canonical type stored on a booking.
var eventTypes = []struct {
	canonical string
	phrases   []string
}{
	{"wedding", []string{"wedding reception", "wedding ceremony", "wedding breakfast", "wedding", "civil ceremony", "nuptials"}},
	{"engagement", []string{"engagement party", "engagement"}},
	{"anniversary", []string{"anniversary"}},
	{"birthday", []string{"birthday party", "birthday", "bday"}},
	{"corporate", []string{"corporate event", "corporate", "company party", "office party", "product launch", "conference", "awards"}},
	{"christmas party", []string{"christmas party", "xmas party", "festive party"}},
	{"funeral", []string{"funeral", "memorial", "celebration of life"}},
	{"christening", []string{"christening", "baptism", "naming ceremony"}},
	{"bar mitzvah", []string{"bar mitzvah", "bat mitzvah"}},
	{"graduation", []string{"graduation", "prom"}},
	{"festival", []string{"festival", "fete"}},
	{"gala", []string{"gala", "ball", "charity dinner", "fundraiser"}},
	{"concert", []string{"concert", "recital"}},
	{"private party", []string{"private party", "house party", "garden party", "party"}},
	{"dinner", []string{"dinner party", "drinks reception", "dinner", "reception"}},
}

var eventTypeRes []struct {
	canonical string
	re        *regexp.Regexp
}

func init() {
	for _, et := range eventTypes {
		for _, phrase := range et.phrases {
			eventTypeRes = append(eventTypeRes, struct {
				canonical string
				re        *regexp.Regexp
			}{et.canonical, regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)})
		}
	}
}

// EventTypeMatch is a vocabulary hit inside a text.
type EventTypeMatch struct {
	Type  string
	Start int
	End   int
}

// MatchEventType finds the earliest vocabulary phrase in text. Ties at the same
// position go to the longer phrase. The zero value means no match.
func MatchEventType(text string) EventTypeMatch {
	best := EventTypeMatch{Start: -1}
	for _, et := range eventTypeRes {
		loc := et.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if best.Start == -1 || loc[0] < best.Start || (loc[0] == best.Start && loc[1] > best.End) {
			best = EventTypeMatch{Type: et.canonical, Start: loc[0], End: loc[1]}
		}
	}
	if best.Start == -1 {
		return EventTypeMatch{}
	}
	return best
}

// CanonicalEventType maps a free-form type ("Wedding Reception") to the
// vocabulary entry, or returns it lower-cased when nothing matches.
func CanonicalEventType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := MatchEventType(raw); m.Type != "" {
		return m.Type
	}
	return strings.ToLower(raw)
}
