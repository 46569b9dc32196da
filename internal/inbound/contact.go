package inbound

import (
	"strings"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/validator"
)

// PickEmail returns the first candidate that is a valid address and not an
// automated sender. Pass candidates in priority order: form field,
// extraction result, message sender.
func (c *Classifier) PickEmail(candidates ...string) string {
	for _, cand := range candidates {
		if address, _, err := validator.ParseAddress(cand); err == nil {
			cand = address
		}
		if validator.ValidateEmail(cand) != nil || c.IsAutomated(cand) {
			continue
		}
		return cand
	}
	return ""
}

// PickName returns the form name, then the extracted name, then the sender's
// display name when the sender is a person rather than an automated relay.
func (c *Classifier) PickName(formName, extractedName string, m Message) string {
	for _, n := range []string{formName, extractedName} {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	if m.SenderName != "" && !c.IsAutomated(m.Sender) {
		return m.SenderName
	}
	return ""
}
