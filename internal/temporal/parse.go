// Package temporal normalizes the heterogeneous date/time strings found in
// clinical records into a single comparable Instant type.
//
// Upstream extraction produces timestamps in several spellings: dotted
// day-first dates ("25.04.2025 14:05"), ISO dates with either a space or a
// "T" separator, bare clock times ("14:05"), and two-digit years. Parse
// accepts all of them. Parsing never returns an error: callers must treat a
// missing instant as a first-class case, not a failure.
package temporal

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Instant is a calendar date-time with minute (or better) precision.
//
// A bare clock time parses into a time-only Instant. Time-only instants carry
// no calendar date and MUST NOT be compared against full instants until the
// caller supplies an anchor date via Anchor. Anchored returns false for them.
type Instant struct {
	t        time.Time
	timeOnly bool
}

// fullFormats are tried in order against the normalized input.
// First successful match wins.
var fullFormats = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// timeFormats produce time-only instants.
var timeFormats = []string{
	"15:04:05",
	"15:04",
}

// dottedDate matches day-first dates with '.', '/' or '-' separators and a
// 2- or 4-digit year, e.g. "25.04.2025", "25/04/25", "1-2-2025 14:05".
var dottedDate = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})(.*)$`)

// Parse converts a timestamp string into an Instant.
//
// The second return value reports whether any candidate format matched.
// Unparseable input yields (Instant{}, false), never an error.
func Parse(s string) (Instant, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}, false
	}
	s = normalize(s)

	for _, layout := range fullFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return Instant{t: t}, true
		}
	}
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return Instant{t: t, timeOnly: true}, true
		}
	}
	return Instant{}, false
}

// MustParse is a test helper: it panics on unparseable input.
func MustParse(s string) Instant {
	i, ok := Parse(s)
	if !ok {
		panic(fmt.Sprintf("temporal: unparseable instant %q", s))
	}
	return i
}

// normalize rewrites the input so the ordered format list can match it:
// timezone suffixes are dropped, day-first dates are zero-padded, and
// two-digit years are expanded to 20YY.
func normalize(s string) string {
	// ISO inputs may carry a zone suffix the clinical rules never need.
	s = strings.TrimSuffix(s, "Z")
	if i := strings.IndexByte(s, '+'); i > 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	m := dottedDate.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	day, month, year, rest := m[1], m[2], m[3], m[4]
	// A leading 4-digit group is an ISO year, not a day.
	if len(day) == 4 {
		return s
	}
	if len(year) == 2 {
		year = "20" + year
	}
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	rest = strings.TrimSpace(strings.TrimLeft(rest, " ,;"))
	// Day-first dates sometimes carry a "г." year marker after the date.
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(rest, "г."), "г"))
	if rest == "" {
		return fmt.Sprintf("%s.%s.%s", day, month, year)
	}
	return fmt.Sprintf("%s.%s.%s %s", day, month, year, rest)
}

// Time returns the underlying wall-clock value.
// For time-only instants the date component is the zero date.
func (i Instant) Time() time.Time {
	return i.t
}

// Anchored reports whether the instant carries a calendar date.
func (i Instant) Anchored() bool {
	return !i.timeOnly
}

// Anchor attaches a calendar date to a time-only instant, keeping its clock.
// Anchoring an already-anchored instant returns it unchanged.
func (i Instant) Anchor(date time.Time) Instant {
	if !i.timeOnly {
		return i
	}
	t := time.Date(date.Year(), date.Month(), date.Day(),
		i.t.Hour(), i.t.Minute(), i.t.Second(), 0, time.UTC)
	return Instant{t: t}
}

// Before reports whether i precedes o. Both instants must be anchored.
func (i Instant) Before(o Instant) bool {
	return i.t.Before(o.t)
}

// Date returns the calendar date as "2006-01-02".
// Returns "" for time-only instants.
func (i Instant) Date() string {
	if i.timeOnly {
		return ""
	}
	return i.t.Format("2006-01-02")
}

// String renders the instant in ISO form without a zone.
// Time-only instants render as "15:04:05".
func (i Instant) String() string {
	if i.timeOnly {
		return i.t.Format("15:04:05")
	}
	return i.t.Format("2006-01-02T15:04:05")
}

// SameDay reports whether two anchored instants fall on the same calendar day.
func SameDay(a, b Instant) bool {
	if !a.Anchored() || !b.Anchored() {
		return false
	}
	ay, am, ad := a.t.Date()
	by, bm, bd := b.t.Date()
	return ay == by && am == bm && ad == bd
}

// MinutesBetween returns the absolute whole-minute delta between two instants.
// The second return value is false when either instant is nil or unanchored.
func MinutesBetween(a, b *Instant) (int, bool) {
	if a == nil || b == nil || !a.Anchored() || !b.Anchored() {
		return 0, false
	}
	d := b.t.Sub(a.t)
	if d < 0 {
		d = -d
	}
	return int(d / time.Minute), true
}

// DatesBetween enumerates every calendar date in [a.Date(), b.Date()],
// inclusive, as "2006-01-02" strings. Returns nil when either instant is
// nil or unanchored, or when b precedes a.
func DatesBetween(a, b *Instant) []string {
	if a == nil || b == nil || !a.Anchored() || !b.Anchored() {
		return nil
	}
	start := truncateToDay(a.t)
	end := truncateToDay(b.t)
	if end.Before(start) {
		return nil
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
