package inbound

import (
	"regexp"
	"strings"
)

var formLineRe = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 '&/()?*-]{0,48}?)\s*:\s*(\S.*?)\s*$`)

// Label synonyms per form field, compared after normalizeLabel.
var (
	nameLabels      = []string{"name", "your name", "full name", "client name", "contact name"}
	firstNameLabels = []string{"first name", "forename"}
	lastNameLabels  = []string{"last name", "surname"}
	emailLabels     = []string{"email", "e-mail", "email address", "e-mail address", "your email", "your email address", "contact email"}
	phoneLabels     = []string{"phone", "telephone", "phone number", "telephone number", "mobile", "mobile number", "tel", "contact number"}
	venueLabels     = []string{"location of event", "location of the event", "venue", "event venue", "venue name", "event location", "location", "where"}
	dateLabels      = []string{"date", "event date", "date of event", "date of the event", "wedding date", "when"}
	typeLabels      = []string{"event type", "type of event", "occasion", "event"}
	comboLabels     = []string{"date and type of event", "event date and type", "date & type of event", "date/type of event"}
	timeLabels      = []string{"time", "start time", "event time"}
	notesLabels     = []string{"message", "details", "additional information", "additional details", "comments", "special requirements", "notes", "enquiry", "tell us more"}
)

var ignoredLabels = map[string]bool{"http": true, "https": true, "mailto": true, "re": true, "fwd": true, "fw": true}

var knownLabels = func() map[string]bool {
	out := make(map[string]bool)
	for _, set := range [][]string{nameLabels, firstNameLabels, lastNameLabels, emailLabels, phoneLabels, venueLabels, dateLabels, typeLabels, comboLabels, timeLabels} {
		for _, l := range set {
			out[l] = true
		}
	}
	return out
}()

// ParseFormFields reads "Label: value" lines from body. Labels are
// normalized; the first occurrence of a label wins.
func ParseFormFields(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		m := formLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label := normalizeLabel(m[1])
		if label == "" || ignoredLabels[label] || strings.HasPrefix(m[2], "//") {
			continue
		}
		if _, ok := fields[label]; !ok {
			fields[label] = m[2]
		}
	}
	return fields
}

// FormData is the subset of form fields the pipeline understands.
// DateText and TimeText are raw; coercion happens downstream.
type FormData struct {
	Name      string
	Email     string
	Phone     string
	Venue     string
	DateText  string
	TimeText  string
	EventType string
	Notes     string
}

// IsZero reports whether no field was recognised.
func (f FormData) IsZero() bool {
	return f == FormData{}
}

// ExtractForm collects form data from the message's explicit fields first and
// its "Label: value" body lines second.
func ExtractForm(m Message) FormData {
	fields := ParseFormFields(m.Body)
	for k, v := range m.fields {
		fields[normalizeLabel(k)] = v
	}

	f := FormData{
		Name:      lookup(fields, nameLabels),
		Email:     strings.ToLower(lookup(fields, emailLabels)),
		Phone:     lookup(fields, phoneLabels),
		Venue:     lookup(fields, venueLabels),
		DateText:  lookup(fields, dateLabels),
		TimeText:  lookup(fields, timeLabels),
		EventType: CanonicalEventType(lookup(fields, typeLabels)),
		Notes:     lookup(fields, notesLabels),
	}
	if f.Name == "" {
		f.Name = strings.TrimSpace(lookup(fields, firstNameLabels) + " " + lookup(fields, lastNameLabels))
	}
	if combo := lookup(fields, comboLabels); combo != "" {
		date, eventType := SplitDateAndType(combo)
		if f.DateText == "" {
			f.DateText = date
		}
		if f.EventType == "" {
			f.EventType = eventType
		}
	}
	return f
}

// SplitDateAndType separates a combined answer such as "12 June 2026 wedding"
// into its date text and canonical event type.
func SplitDateAndType(s string) (dateText, eventType string) {
	m := MatchEventType(s)
	if m.Type == "" {
		return strings.TrimSpace(s), ""
	}
	rest := s[:m.Start] + " " + s[m.End:]
	rest = strings.Trim(strings.Join(strings.Fields(rest), " "), " ,-–/;")
	return rest, m.Type
}

func countKnownLabels(fields map[string]string) int {
	n := 0
	for label := range fields {
		if knownLabels[label] {
			n++
		}
	}
	return n
}

func lookup(fields map[string]string, labels []string) string {
	for _, l := range labels {
		if v := strings.TrimSpace(fields[l]); v != "" {
			return v
		}
	}
	return ""
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.TrimRight(label, "?* ")
	label = strings.ReplaceAll(label, "_", " ")
	return strings.Join(strings.Fields(label), " ")
}
