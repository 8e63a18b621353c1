package mbox

import (
	"testing"
	"time"
)

func TestParseSeparatorDate(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"From a@b Mon Jan 1 00:00:00 2024", "2024-01-01T00:00:00Z"},
		{"From a@b Mon Jan 1 00:00:00 PST 2024", "2024-01-01T08:00:00Z"},
		{"From a@b Mon Jan 1 00:00:00 2024 PST", "2024-01-01T08:00:00Z"},
		{"From a@b Mon Jan 1 00:00:00 -0700 2024", "2024-01-01T07:00:00Z"},
		{"From a@b Mon Jan  1 00:00 2024", "2024-01-01T00:00:00Z"},
		{"From a@b Jan 1 12:30:00 2024 remote from host", "2024-01-01T12:30:00Z"},
		{"From a@b Mon Jan 1 00:00:00 2024 CET", "2023-12-31T23:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ts, ok := ParseSeparatorDate(tt.line)
			if !ok {
				t.Fatalf("ParseSeparatorDate(%q) not ok", tt.line)
			}
			if got := ts.UTC().Format(time.RFC3339); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseSeparatorDate_Rejects(t *testing.T) {
	for _, line := range []string{
		"From here on we talk about dates",
		"Subject: From a@b Mon Jan 1 00:00:00 2024",
		"From a@b",
		"",
	} {
		if _, ok := ParseSeparatorDate(line); ok {
			t.Errorf("ParseSeparatorDate(%q) accepted", line)
		}
	}
}
