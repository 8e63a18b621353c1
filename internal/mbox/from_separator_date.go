package mbox

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// separatorLayouts covers ctime-style dates with and without weekday, seconds
// and a zone before or after the year. Longer layouts come first so a
// trailing zone is not dropped by a shorter match.
var separatorLayouts = buildSeparatorLayouts()

func buildSeparatorLayouts() []string {
	var out []string
	for _, day := range []string{"Mon Jan 2", "Jan 2"} {
		for _, clock := range []string{"15:04:05", "15:04"} {
			out = append(out, day+" "+clock+" 2006")
			for _, zone := range []string{"-0700", "-07:00", "MST"} {
				out = append(out,
					day+" "+clock+" "+zone+" 2006",
					day+" "+clock+" 2006 "+zone,
				)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b string) int {
		return cmp.Compare(strings.Count(b, " "), strings.Count(a, " "))
	})
	return out
}

// zoneOffsets maps the abbreviations common in mbox exports to offsets.
// time.Parse treats unknown abbreviations as UTC, which is wrong for these.
var zoneOffsets = map[string]int{
	"UTC": 0, "GMT": 0, "UT": 0, "Z": 0,
	"EST": -5 * 3600, "EDT": -4 * 3600,
	"CST": -6 * 3600, "CDT": -5 * 3600,
	"MST": -7 * 3600, "MDT": -6 * 3600,
	"PST": -8 * 3600, "PDT": -7 * 3600,
	"AKST": -9 * 3600, "AKDT": -8 * 3600,
	"HST": -10 * 3600,
	"CET": 1 * 3600, "CEST": 2 * 3600,
	"BST": 1 * 3600,
}

// ParseSeparatorDate parses the date of a "From <sender> <date>" separator
// line. Trailing tokens after the date (such as "remote from host") are
// ignored.
func ParseSeparatorDate(line string) (time.Time, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 || fields[0] != "From" {
		return time.Time{}, false
	}
	for _, layout := range separatorLayouts {
		n := strings.Count(layout, " ") + 1
		if len(fields) < 2+n {
			continue
		}
		date := fields[2 : 2+n]
		t, err := time.Parse(layout, strings.Join(date, " "))
		if err != nil {
			continue
		}
		if i := strings.Index(layout, "MST"); i >= 0 {
			zone := date[strings.Count(layout[:i], " ")]
			if off, ok := zoneOffsets[strings.ToUpper(strings.Trim(zone, "()"))]; ok {
				y, mo, d := t.Date()
				t = time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, time.FixedZone(zone, off))
			}
		}
		return t, true
	}
	return time.Time{}, false
}
