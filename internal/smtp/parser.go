package smtp

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
)

var fromHeaderRe = regexp.MustCompile(`^(?:"?([^"<]*)"?\s*)?<?([^<>]+@[^<>]+)>?$`)

// ParsedEmail is an inbound email reduced to what the pipeline reads.
type ParsedEmail struct {
	SenderEmail string
	SenderName  string
	Subject     string
	Date        string
	BodyText    string
	BodyHTML    string
	// Attachments lists attachment file names; content is not kept.
	Attachments []string
}

// ParseEmail parses an email from an io.Reader
func ParseEmail(r io.Reader) (*ParsedEmail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedEmail{
		Subject:  env.GetHeader("Subject"),
		Date:     env.GetHeader("Date"),
		BodyText: env.Text,
		BodyHTML: env.HTML,
	}
	parsed.SenderName, parsed.SenderEmail = parseFromHeader(env.GetHeader("From"))

	for _, att := range env.Attachments {
		if att.FileName != "" {
			parsed.Attachments = append(parsed.Attachments, att.FileName)
		}
	}
	for _, att := range env.Inlines {
		if att.FileName != "" {
			parsed.Attachments = append(parsed.Attachments, att.FileName)
		}
	}

	return parsed, nil
}

// Payload renders the email as a pipeline payload addressed to recipient.
func (e *ParsedEmail) Payload(recipient string) inbound.Payload {
	from := e.SenderEmail
	if e.SenderName != "" && e.SenderEmail != "" {
		from = fmt.Sprintf("%s <%s>", e.SenderName, e.SenderEmail)
	}
	p := inbound.Payload{
		"from":    from,
		"to":      recipient,
		"subject": e.Subject,
		"text":    e.BodyText,
		"html":    e.BodyHTML,
		"source":  inbound.SourceSMTP,
	}
	if e.Date != "" {
		p["date"] = e.Date
	}
	if len(e.Attachments) > 0 {
		p["attachments"] = e.Attachments
	}
	return p
}

// parseFromHeader extracts name and email from a From header
func parseFromHeader(from string) (name, email string) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", ""
	}

	matches := fromHeaderRe.FindStringSubmatch(from)
	if len(matches) >= 3 {
		name = strings.Trim(strings.TrimSpace(matches[1]), `"`)
		email = strings.TrimSpace(matches[2])
	} else {
		email = from
	}
	return name, email
}
