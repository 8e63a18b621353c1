package message

import (
	"net/mail"
	"strings"
	"time"
)

// dateFormats lists the Date header layouts seen in the wild, tried after net/mail.
var dateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Mon, 2 Jan 06 15:04:05 -0700",
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// ParseDate parses a Date header value and returns it in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}
	if t, err := mail.ParseDate(s); err == nil {
		return sane(t)
	}

	// Drop a trailing "(PST)" style comment but keep the numeric offset.
	base := s
	if idx := strings.LastIndex(s, "("); idx > 0 {
		base = strings.TrimSpace(s[:idx])
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, base); err == nil {
			return sane(t)
		}
	}
	return time.Time{}, false
}

// sane rejects dates that are clearly broken (year 0, far future) so they do
// not stretch the report's date range.
func sane(t time.Time) (time.Time, bool) {
	if t.Year() < 1970 || t.Year() > 2200 {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// DateRange is an inclusive span of time. The zero value is empty.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether the range is empty.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() || r.End.IsZero() || r.End.Before(r.Start)
}

// Contains reports whether t falls inside the range. An empty range contains nothing.
func (r DateRange) Contains(t time.Time) bool {
	if r.IsZero() || t.IsZero() {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// Fill returns r with each zero bound taken from fallback.
func (r DateRange) Fill(fallback DateRange) DateRange {
	if r.Start.IsZero() {
		r.Start = fallback.Start
	}
	if r.End.IsZero() {
		r.End = fallback.End
	}
	return r
}

// RangeOf returns the min/max date over records that have one.
func RangeOf(records []*Record) DateRange {
	var r DateRange
	for _, rec := range records {
		d := rec.Date()
		if d.IsZero() {
			continue
		}
		if r.Start.IsZero() || d.Before(r.Start) {
			r.Start = d
		}
		if r.End.IsZero() || d.After(r.End) {
			r.End = d
		}
	}
	return r
}

// ParseDay parses a YYYY-MM-DD day in UTC.
func ParseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

// EndOfDay returns the last nanosecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
