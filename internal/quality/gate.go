// Package quality decides whether an extraction is good enough to become a
// booking without a human looking at it.
package quality

import (
	"fmt"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
)

// Verdict is the gate's routing decision.
type Verdict string

// Verdicts.
const (
	Sufficient    Verdict = "sufficient"
	NeedsFallback Verdict = "needs-fallback"
	NeedsReview   Verdict = "needs-review"
)

// Thresholds.
const (
	// ConfidenceFloor is the absolute minimum for automatic creation.
	ConfidenceFloor = 0.4
	// PlaceholderFloor is the raised minimum when a placeholder date is used.
	PlaceholderFloor = 0.5
	// MergedConfidenceCap bounds a merge that relied on fallback fields.
	MergedConfidenceCap = 0.6
)

// PlaceholderDate stands in for a date the client has not settled yet. It is
// far enough out that it never looks like a real booking date.
const PlaceholderDate = "2099-12-31"

// Decision is the outcome of the gate.
type Decision struct {
	Verdict         Verdict
	Reason          string
	PlaceholderDate bool
}

// Decide applies the rules in order: the confidence floor, the marketplace
// no-date exception, the default field rule, then the fallback/review split.
func Decide(r *extraction.Result, channel inbound.Channel) Decision {
	if r == nil {
		return Decision{Verdict: NeedsReview, Reason: "no extraction result"}
	}
	if r.Confidence < ConfidenceFloor {
		return Decision{
			Verdict: NeedsReview,
			Reason:  fmt.Sprintf("confidence %.2f below floor %.2f", r.Confidence, ConfidenceFloor),
		}
	}

	if channel == inbound.ChannelMarketplace && !r.HasDate() && r.HasVenue() && r.HasType() {
		if r.Confidence >= PlaceholderFloor {
			return Decision{
				Verdict:         Sufficient,
				Reason:          "marketplace lead without a firm date; placeholder date used",
				PlaceholderDate: true,
			}
		}
		return Decision{
			Verdict: NeedsReview,
			Reason:  fmt.Sprintf("marketplace lead without a date and confidence %.2f below %.2f", r.Confidence, PlaceholderFloor),
		}
	}

	if (r.HasDate() || r.HasType()) && (r.HasContact() || r.HasVenue()) {
		return Decision{Verdict: Sufficient, Reason: "required fields present"}
	}

	reason := missingReason(r)
	if r.Source == extraction.SourceIntelligent {
		return Decision{Verdict: NeedsFallback, Reason: reason}
	}
	return Decision{Verdict: NeedsReview, Reason: reason}
}

func missingReason(r *extraction.Result) string {
	switch {
	case !r.HasDate() && !r.HasType() && !r.HasContact() && !r.HasVenue():
		return "no event date, event type, contact or venue found"
	case !r.HasDate() && !r.HasType():
		return "no event date or event type found"
	default:
		return "no contact details or venue found"
	}
}

// ApplyPlaceholder substitutes PlaceholderDate and flags it in metadata so
// it can be told apart from a parsed date.
func ApplyPlaceholder(r *extraction.Result) {
	d := PlaceholderDate
	r.EventDate = &d
	r.SetMeta("date_is_placeholder", true)
}

// Merge fills the primary result's missing fields from the fallback result.
// When a field the gate looks at came from the fallback, the merged
// confidence is capped at MergedConfidenceCap.
func Merge(primary, fallback *extraction.Result) *extraction.Result {
	if primary == nil {
		return fallback.Clone()
	}
	if fallback == nil {
		return primary.Clone()
	}

	out := primary.Clone()
	usedFallback := false
	fill := func(dst **string, src *string, gateRelevant bool) {
		if extraction.Str(*dst) == "" && extraction.Str(src) != "" {
			v := *src
			*dst = &v
			if gateRelevant {
				usedFallback = true
			}
		}
	}

	fill(&out.EventDate, fallback.EventDate, true)
	fill(&out.EventType, fallback.EventType, true)
	fill(&out.Venue, fallback.Venue, true)
	fill(&out.ClientEmail, fallback.ClientEmail, true)
	fill(&out.ClientPhone, fallback.ClientPhone, true)
	fill(&out.ClientName, fallback.ClientName, false)
	fill(&out.EventTime, fallback.EventTime, false)
	fill(&out.EventEndTime, fallback.EventEndTime, false)
	fill(&out.VenueAddress, fallback.VenueAddress, false)
	fill(&out.SpecialRequirements, fallback.SpecialRequirements, false)
	if out.Fee == nil && fallback.Fee != nil {
		v := *fallback.Fee
		out.Fee = &v
	}
	if out.Deposit == nil && fallback.Deposit != nil {
		v := *fallback.Deposit
		out.Deposit = &v
	}

	if usedFallback && out.Confidence > MergedConfidenceCap {
		out.Confidence = MergedConfidenceCap
	}
	out.Source = extraction.SourceMerged
	out.SetMeta("merged_from", []string{primary.Source, fallback.Source})
	return out
}
