// Package dedup decides whether an inbound message repeats one the tenant
// already has on record.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
)

const (
	subjectPrefixLen = 60
	bodyPrefixLen    = 200
)

var replyPrefixRe = regexp.MustCompile(`(?i)^\s*((re|fw|fwd|aw)\s*(\[\d+\])?\s*:\s*)+`)

// Key is a channel-dependent duplicate key. Value is what gets stored on
// bookings and review messages.
type Key struct {
	Channel inbound.Channel
	Value   string
}

// String returns the stored form of the key.
func (k Key) String() string {
	return k.Value
}

// IsZero reports whether the key is empty.
func (k Key) IsZero() bool {
	return k.Value == ""
}

// KeyFor builds the duplicate key for a message. Form submissions carrying
// both a client name and email are keyed on that pair; everything else is
// keyed on a tenant-scoped content fingerprint. Both forms hash their input
// so the stored key has a fixed length whatever the form values hold.
func KeyFor(tenantID uint, m inbound.Message, channel inbound.Channel, form inbound.FormData) Key {
	if channel == inbound.ChannelForm {
		if v := FormIdentity(form.Name, form.Email); v != "" {
			return Key{Channel: channel, Value: v}
		}
	}
	return Key{Channel: channel, Value: "fp:" + Fingerprint(tenantID, m)}
}

// FormIdentity returns the key for a form client, or "" when the name or
// email is missing. Name whitespace and case are normalized first.
func FormIdentity(name, email string) string {
	name = normalize(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(name + "\x00" + email))
	return "form:" + hex.EncodeToString(sum[:])
}

// Fingerprint hashes the tenant, sender, subject prefix and body prefix.
func Fingerprint(tenantID uint, m inbound.Message) string {
	subject := replyPrefixRe.ReplaceAllString(m.Subject, "")
	h := sha256.New()
	h.Write([]byte(strconv.FormatUint(uint64(tenantID), 10)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(m.Sender))))
	h.Write([]byte{0})
	h.Write([]byte(prefix(normalize(subject), subjectPrefixLen)))
	h.Write([]byte{0})
	h.Write([]byte(prefix(normalize(m.Body), bodyPrefixLen)))
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
