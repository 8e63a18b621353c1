package message

import (
	"testing"
	"time"

	"github.com/wesm/mailtrends/internal/testutil"
)

func TestRecord_AddMailboxUnion(t *testing.T) {
	r := &Record{ID: "x"}
	r.AddMailbox("INBOX")
	r.AddMailbox("Work")
	r.AddMailbox("INBOX")
	testutil.AssertStrings(t, r.Mailboxes(), "INBOX", "Work")
	if !r.InMailbox("Work") || r.InMailbox("Trash") {
		t.Error("InMailbox mismatch")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"Mon, 02 Jan 2006 15:04:05 -0700", time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC), true},
		{"2 Jan 2006 15:04:05 +0000", time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), true},
		{"Mon, 2 Jan 2006 15:04:05 +0000 (UTC)", time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), true},
		{"2006-01-02 15:04:05", time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), true},
		{"garbage", time.Time{}, false},
		{"Thu, 01 Jan 1900 00:00:00 +0000", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDateRange(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }
	recs := []*Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	recs[0].SetRawDate("", d(10))
	recs[1].SetRawDate("", d(2))
	recs[2].SetRawDate("", time.Time{})

	r := RangeOf(recs)
	if !r.Start.Equal(d(2)) || !r.End.Equal(d(10)) {
		t.Fatalf("RangeOf = %+v", r)
	}
	if !r.Contains(d(5)) || r.Contains(d(11)) || r.Contains(time.Time{}) {
		t.Error("Contains mismatch")
	}
	if !RangeOf(nil).IsZero() {
		t.Error("RangeOf(nil) should be empty")
	}
	if (DateRange{}).Contains(d(5)) {
		t.Error("empty range must contain nothing")
	}
}

func TestEndOfDay(t *testing.T) {
	got := EndOfDay(time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC))
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if !got.Equal(want) {
		t.Errorf("EndOfDay = %v, want %v", got, want)
	}
}
