// Package validator checks the addresses and free-text values that arrive on
// inbound channels. Field rules are go-playground validator tags so the same
// vocabulary serves both single values here and struct validation elsewhere.
package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	playground "github.com/go-playground/validator/v10"
)

var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInvalidDomain    = errors.New("invalid domain format")
	ErrInvalidLocalPart = errors.New("invalid local part format")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
	ErrEmptyInput       = errors.New("input cannot be empty")
)

// Labels start and end alphanumeric; playground's hostname tags accept a
// trailing hyphen, so the mail-routing rules are registered as custom tags.
var (
	domainRegex    = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)
	localPartRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

const (
	tagDomain    = "maildomain"
	tagLocalPart = "localpart"
)

var validate = newValidate()

func newValidate() *playground.Validate {
	v := playground.New()
	_ = v.RegisterValidation(tagDomain, func(fl playground.FieldLevel) bool {
		return domainRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(tagLocalPart, func(fl playground.FieldLevel) bool {
		return localPartRegex.MatchString(fl.Field().String())
	})
	return v
}

// check runs tags against value and maps the first failing tag to one of
// the package errors. invalid is returned for format failures.
func check(value, tags string, invalid error) error {
	err := validate.Var(value, tags)
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid
	}
	switch verrs[0].Tag() {
	case "required":
		return ErrEmptyInput
	case "max":
		return ErrInputTooLong
	default:
		return invalid
	}
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEmail checks a bare address. Addresses are limited to 254
// characters (RFC 5321).
func ValidateEmail(email string) error {
	return check(clean(email), "required,max=254,email", ErrInvalidEmail)
}

// ValidateDomain checks a DNS name of at most 253 characters. Single-label
// names such as localhost are accepted.
func ValidateDomain(domain string) error {
	return check(clean(domain), "required,max=253,"+tagDomain, ErrInvalidDomain)
}

// ValidateLocalPart checks a routable mailbox name: lower-case
// alphanumerics, dots, underscores and hyphens, starting alphanumeric, at
// most 64 characters.
func ValidateLocalPart(localPart string) error {
	return check(clean(localPart), "required,max=64,"+tagLocalPart, ErrInvalidLocalPart)
}

// ParseAddress accepts a bare address or a "Name <address>" form and returns
// the lower-cased address with its display name.
func ParseAddress(raw string) (address, name string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrEmptyInput
	}
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return "", "", ErrInvalidEmail
	}
	return strings.ToLower(parsed.Address), strings.TrimSpace(parsed.Name), nil
}

// SplitAddress returns the local part and domain of an address.
func SplitAddress(address string) (localPart, domain string, err error) {
	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		return "", "", ErrInvalidEmail
	}
	return address[:at], address[at+1:], nil
}

// Page sizes for list endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ValidatePagination clamps a requested page to [1, MaxLimit] items and a
// non-negative offset. A non-positive limit means DefaultLimit.
func ValidatePagination(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return limit, max(offset, 0)
}

// SanitizeString drops ASCII control characters, trims the result and cuts
// it to maxLength runes. A maxLength of zero means no limit.
func SanitizeString(input string, maxLength int) string {
	input = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, input))
	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		input = string([]rune(input)[:maxLength])
	}
	return input
}
