package extraction

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Confidence bounds applied to every intelligent extraction.
const (
	MinConfidence = 0.1
	MaxConfidence = 1.0
)

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})(?:\D|$)`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4}|\d{2})(?:\D|$)`)
	dayMonthRe    = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?(?:\s+of)?[\s-]+` + monthPattern + `\b\.?(?:[\s,-]+(\d{4})\b)?`)
	monthDayRe    = regexp.MustCompile(`\b` + monthPattern + `\b\.?\s+(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\b(?:[\s,]+(\d{4})\b)?`)
	nextYearRe    = regexp.MustCompile(`^[\s,]*next\s+year\b`)

	clockRe    = regexp.MustCompile(`\b([01]?\d|2[0-3])[:.]([0-5]\d)(?::[0-5]\d)?\s*(am|pm|a\.m\.|p\.m\.)?`)
	meridiemRe = regexp.MustCompile(`\b(1[0-2]|0?[1-9])\s*(am|pm|a\.m\.|p\.m\.)`)
	namedTimes = map[string]string{"noon": "12:00", "midday": "12:00", "midnight": "00:00"}

	moneyRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(k\b)?`)
)

// vagueDateMarkers null out a raw date value even when it also contains a
// day and month, because the sender is telling us the date is not settled.
var vagueDateMarkers = []string{
	"tbc", "tba", "tbd", "no date", "not sure", "unknown", "don't have", "dont have",
	"do not have", "not yet", "undecided", "to be confirmed",
}

// CoerceDate converts a raw date value to YYYY-MM-DD, or nil when the value
// is vague, partial or impossible. Dates without a year resolve to the next
// occurrence on or after today; "<month day> next year" resolves to next
// year when that day has not yet passed this year, else the year after.
func CoerceDate(raw string, now time.Time) *string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return nil
	}
	for _, marker := range vagueDateMarkers {
		if strings.Contains(s, marker) {
			return nil
		}
	}
	return FindDate(s, now)
}

// FindDate returns the earliest concrete date mentioned in text.
func FindDate(text string, now time.Time) *string {
	s := strings.ToLower(text)
	best := -1
	var found time.Time

	consider := func(start int, t time.Time, ok bool) {
		if ok && (best < 0 || start < best) {
			best = start
			found = t
		}
	}

	for _, m := range isoDateRe.FindAllStringSubmatchIndex(s, -1) {
		y, _ := strconv.Atoi(s[m[2]:m[3]])
		mo, _ := strconv.Atoi(s[m[4]:m[5]])
		d, _ := strconv.Atoi(s[m[6]:m[7]])
		t, ok := makeDate(y, mo, d)
		consider(m[0], t, ok)
	}
	for _, m := range numericDateRe.FindAllStringSubmatchIndex(s, -1) {
		d, _ := strconv.Atoi(s[m[2]:m[3]])
		mo, _ := strconv.Atoi(s[m[4]:m[5]])
		t, ok := resolveYear(mo, d, s[m[6]:m[7]], false, now)
		consider(m[0], t, ok)
	}
	for _, m := range dayMonthRe.FindAllStringSubmatchIndex(s, -1) {
		d, _ := strconv.Atoi(s[m[2]:m[3]])
		mo := monthNumber(s[m[4]:m[5]])
		t, ok := resolveYear(mo, d, group(s, m, 3), followedByNextYear(s, m[1]), now)
		consider(m[0], t, ok)
	}
	for _, m := range monthDayRe.FindAllStringSubmatchIndex(s, -1) {
		mo := monthNumber(s[m[2]:m[3]])
		d, _ := strconv.Atoi(s[m[4]:m[5]])
		t, ok := resolveYear(mo, d, group(s, m, 3), followedByNextYear(s, m[1]), now)
		consider(m[0], t, ok)
	}

	if best < 0 {
		return nil
	}
	out := found.Format("2006-01-02")
	return &out
}

func group(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}

func followedByNextYear(s string, end int) bool {
	return nextYearRe.MatchString(s[end:])
}

func resolveYear(month, day int, year string, nextYear bool, now time.Time) (time.Time, bool) {
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return time.Time{}, false
		}
		if len(year) == 2 {
			y += 2000
		}
		return makeDate(y, month, day)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	y := now.Year()
	passed := !onOrAfter(y, month, day, today)
	switch {
	case nextYear && passed:
		y += 2
	case nextYear, passed:
		y++
	}
	return makeDate(y, month, day)
}

// onOrAfter compares by month and day so Feb 29 in a non-leap year still
// orders correctly.
func onOrAfter(year, month, day int, today time.Time) bool {
	if time.Month(month) != today.Month() {
		return time.Month(month) > today.Month()
	}
	return day >= today.Day()
}

func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func monthNumber(name string) int {
	if len(name) < 3 {
		return 0
	}
	switch name[:3] {
	case "jan":
		return 1
	case "feb":
		return 2
	case "mar":
		return 3
	case "apr":
		return 4
	case "may":
		return 5
	case "jun":
		return 6
	case "jul":
		return 7
	case "aug":
		return 8
	case "sep":
		return 9
	case "oct":
		return 10
	case "nov":
		return 11
	case "dec":
		return 12
	}
	return 0
}

// CoerceTime converts a raw time value to 24-hour HH:MM, or nil.
func CoerceTime(raw string) *string {
	start, _ := CoerceTimeRange(raw)
	return start
}

// CoerceTimeRange reads up to two times from a value such as "7pm - 11pm".
func CoerceTimeRange(raw string) (start, end *string) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return nil, nil
	}

	var hits []timeHit
	for _, m := range clockRe.FindAllStringSubmatchIndex(s, -1) {
		h, _ := strconv.Atoi(s[m[2]:m[3]])
		minute, _ := strconv.Atoi(s[m[4]:m[5]])
		hits = append(hits, timeHit{m[0], m[1], formatClock(h, minute, group(s, m, 3))})
	}
	for _, m := range meridiemRe.FindAllStringSubmatchIndex(s, -1) {
		if overlaps(m[0], hits) {
			continue
		}
		h, _ := strconv.Atoi(s[m[2]:m[3]])
		hits = append(hits, timeHit{m[0], m[1], formatClock(h, 0, s[m[4]:m[5]])})
	}
	for word, value := range namedTimes {
		if i := strings.Index(s, word); i >= 0 {
			hits = append(hits, timeHit{i, i + len(word), value})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	if len(hits) > 0 {
		start = &hits[0].value
	}
	if len(hits) > 1 {
		end = &hits[1].value
	}
	return start, end
}

type timeHit struct {
	start, end int
	value      string
}

func overlaps(pos int, hits []timeHit) bool {
	for _, h := range hits {
		if pos >= h.start && pos < h.end {
			return true
		}
	}
	return false
}

func formatClock(hour, minute int, meridiem string) string {
	switch {
	case strings.HasPrefix(meridiem, "a") && hour == 12:
		hour = 0
	case strings.HasPrefix(meridiem, "p") && hour < 12:
		hour += 12
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// CoerceMoney converts a raw amount ("£1,200", "1.5k", 450) to a
// non-negative number, or nil.
func CoerceMoney(raw any) *float64 {
	var v float64
	switch x := raw.(type) {
	case nil:
		return nil
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		v = f
	case string:
		s := strings.ToLower(strings.ReplaceAll(x, ",", ""))
		if strings.Contains(s, "-") && strings.Index(s, "-") < strings.IndexAny(s, "0123456789") {
			return nil
		}
		m := moneyRe.FindStringSubmatch(s)
		if m == nil {
			return nil
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		if m[2] != "" {
			f *= 1000
		}
		v = f
	default:
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}

// ClampConfidence bounds c to [MinConfidence, MaxConfidence].
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}
