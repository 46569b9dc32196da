package pipeline

import (
	"strings"
	"time"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
)

// applyForm lets answers the client typed into form fields win over
// whatever extraction guessed. Overridden fields are listed in the
// "form_overrides" metadata entry.
func applyForm(res *extraction.Result, f inbound.FormData, now time.Time) {
	if res == nil || f.IsZero() {
		return
	}

	var applied []string
	set := func(field string, dst **string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = &v
			applied = append(applied, field)
		}
	}
	set("client_name", &res.ClientName, f.Name)
	set("client_email", &res.ClientEmail, f.Email)
	set("client_phone", &res.ClientPhone, f.Phone)
	set("venue", &res.Venue, f.Venue)
	set("event_type", &res.EventType, f.EventType)
	if res.SpecialRequirements == nil {
		set("special_requirements", &res.SpecialRequirements, f.Notes)
	}

	if d := extraction.CoerceDate(f.DateText, now); d != nil {
		res.EventDate = d
		applied = append(applied, "event_date")
	}
	if start, end := extraction.CoerceTimeRange(f.TimeText); start != nil {
		res.EventTime = start
		applied = append(applied, "event_time")
		if end != nil {
			res.EventEndTime = end
		}
	}

	if len(applied) > 0 {
		res.SetMeta("form_overrides", applied)
	}
}
