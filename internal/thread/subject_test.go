package thread

import "testing"

func TestStripPrefixes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello", "Hello"},
		{"Re: Hello", "Hello"},
		{"RE: re: Fwd: Hello", "Hello"},
		{"Re[2]: Hello", "Hello"},
		{"Re(3): Hello", "Hello"},
		{"AW: Hallo", "Hallo"},
		{"Sv: Hej", "Hej"},
		{"Fw : spaced", "spaced"},
		{"[go-nuts] Re: question", "[go-nuts] Re: question"},
		{"Re: [PATCH] fix", "[PATCH] fix"},
		{"Regarding: stuff", "Regarding: stuff"},
		{"Re[x]: odd", "Re[x]: odd"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := StripPrefixes(tt.in); got != tt.want {
			t.Errorf("StripPrefixes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSubjectKey(t *testing.T) {
	if got := SubjectKey("Re:  Weekly   SYNC "); got != "weekly sync" {
		t.Errorf("SubjectKey = %q", got)
	}
}

func TestIsReply(t *testing.T) {
	tests := map[string]bool{
		"Re: x":   true,
		"Fwd: x":  true,
		"x":       false,
		"Reply x": false,
	}
	for in, want := range tests {
		if got := IsReply(in); got != want {
			t.Errorf("IsReply(%q) = %v, want %v", in, got, want)
		}
	}
}
