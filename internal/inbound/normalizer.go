package inbound

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/validator"
)

// Payload keys accepted for each message part, in priority order.
var (
	senderKeys    = []string{"from", "sender", "From"}
	recipientKeys = []string{"to", "recipient", "To"}
	subjectKeys   = []string{"subject", "Subject"}
	textKeys      = []string{"text", "body-plain", "stripped-text", "body"}
	htmlKeys      = []string{"html", "body-html", "stripped-html"}
	rawKeys       = []string{"raw", "mime"}
	receivedKeys  = []string{"timestamp", "date", "receivedAt", "Date"}
)

// maxFieldLength bounds any single header-like value taken from a payload.
const maxFieldLength = 998

// Normalizer converts raw payloads into Messages.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer. now defaults to time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize builds a Message from p. It fails with ErrNormalization only when
// sender, subject and body are all empty.
func (n *Normalizer) Normalize(p Payload) (Message, error) {
	var (
		sender    = firstString(p, senderKeys)
		recipient = firstString(p, recipientKeys)
		subject   = firstString(p, subjectKeys)
		text      = firstString(p, textKeys)
		html      = firstString(p, htmlKeys)
		received  = firstString(p, receivedKeys)
	)

	if raw := firstString(p, rawKeys); raw != "" {
		env, err := enmime.ReadEnvelope(strings.NewReader(raw))
		if err == nil {
			sender = orElse(sender, env.GetHeader("From"))
			recipient = orElse(recipient, env.GetHeader("To"))
			subject = orElse(subject, env.GetHeader("Subject"))
			text = orElse(text, env.Text)
			html = orElse(html, env.HTML)
			received = orElse(received, env.GetHeader("Date"))
		}
	}

	msg := Message{
		Subject:    validator.SanitizeString(subject, maxFieldLength),
		ReceivedAt: n.parseReceivedAt(received),
		Source:     strings.ToLower(firstString(p, []string{"source"})),
		fields:     stringFields(p["fields"]),
	}
	msg.Sender, msg.SenderName = splitSender(sender)
	msg.RecipientAddress = firstRecipient(recipient)

	// The HTML part keeps paragraph and line structure that plain-text
	// alternatives produced by some relays flatten away.
	if html != "" {
		msg.Body = HTMLToText(html)
	}
	if msg.Body == "" {
		msg.Body = CleanText(text)
	}
	if len(msg.fields) > 0 {
		msg.Body = appendFieldLines(msg.Body, msg.fields)
	}

	if msg.Sender == "" && msg.Subject == "" && msg.Body == "" {
		return Message{}, apperrors.Newf(apperrors.ErrNormalization,
			"normalization failed: payload has no sender, subject or body")
	}
	return msg, nil
}

func (n *Normalizer) parseReceivedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return n.now().UTC()
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.RFC1123Z, time.RFC1123, "Mon, 2 Jan 2006 15:04:05 -0700"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return n.now().UTC()
}

// HTMLToText renders an HTML body as plain text, turning line and block
// breaks into newlines and dropping markup, scripts and styles.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CleanText(html)
	}

	var b strings.Builder
	renderText(doc.Selection, &b)
	return CleanText(b.String())
}

var (
	skippedElements = map[string]bool{"script": true, "style": true, "head": true, "title": true, "noscript": true, "#comment": true}
	blockElements   = map[string]bool{
		"p": true, "div": true, "tr": true, "li": true, "table": true, "blockquote": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"section": true, "article": true, "header": true, "footer": true, "hr": true, "ul": true, "ol": true,
	}
	cellElements = map[string]bool{"td": true, "th": true}
)

func renderText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(c.Text())
		case skippedElements[name]:
		case name == "br":
			b.WriteString("\n")
		default:
			renderText(c, b)
			if blockElements[name] {
				b.WriteString("\n")
			} else if cellElements[name] {
				b.WriteString(" ")
			}
		}
	})
}

// CleanText collapses whitespace inside each line, drops runs of blank lines
// down to one, and trims the result. Line structure is otherwise kept.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func splitSender(raw string) (address, name string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	address, name, err := validator.ParseAddress(raw)
	if err != nil {
		return validator.SanitizeString(raw, maxFieldLength), ""
	}
	return address, name
}

func firstRecipient(raw string) string {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if address, _, err := validator.ParseAddress(part); err == nil {
			return address
		}
		return strings.ToLower(part)
	}
	return ""
}

func appendFieldLines(body string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(body)
	for _, k := range keys {
		line := fmt.Sprintf("%s: %s", k, fields[k])
		if strings.Contains(body, line) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	return b.String()
}

func firstString(p Payload, keys []string) string {
	for _, k := range keys {
		if s := asString(p[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []string:
		if len(t) > 0 {
			return strings.TrimSpace(t[0])
		}
	case []any:
		if len(t) > 0 {
			return asString(t[0])
		}
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	}
	return ""
}

func stringFields(v any) map[string]string {
	var out map[string]string
	add := func(k string, val any) {
		k = validator.SanitizeString(k, 64)
		s := validator.SanitizeString(asString(val), maxFieldLength)
		if k == "" || s == "" {
			return
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = s
	}
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			add(k, val)
		}
	case map[string]string:
		for k, val := range t {
			add(k, val)
		}
	}
	return out
}

func orElse(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}
