// Package inbound turns raw channel payloads into canonical messages and
// answers the shape questions later stages ask about them: which channel a
// message came from, which form fields it carries, and who to contact.
package inbound

import (
	"strings"
	"time"
)

// Payload is a raw key-shaped delivery from any upstream channel.
type Payload map[string]any

// Sources name the transport that delivered a payload.
const (
	SourceEmail       = "email"
	SourceSMTP        = "smtp"
	SourceWidget      = "widget"
	SourceMarketplace = "marketplace"
)

// Message is the canonical, immutable form of one delivery. Copy it freely;
// Fields returns a copy so callers cannot mutate the original.
type Message struct {
	Sender           string
	SenderName       string
	Subject          string
	Body             string
	RecipientAddress string
	ReceivedAt       time.Time
	Source           string

	fields map[string]string
}

// Fields returns the structured form fields supplied with the payload.
func (m Message) Fields() map[string]string {
	out := make(map[string]string, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// HasFields reports whether the payload carried structured form fields.
func (m Message) HasFields() bool {
	return len(m.fields) > 0
}

// SenderEmail returns the sender when it is an address, else "".
func (m Message) SenderEmail() string {
	if strings.Contains(m.Sender, "@") {
		return m.Sender
	}
	return ""
}
