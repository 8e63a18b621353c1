package textutil

import (
	"testing"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

func encodeWith(t *testing.T, s string, enc *charmap.Charmap) string {
	t.Helper()
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode %q: %v", s, err)
	}
	return string(b)
}

func TestEnsureUTF8_AlreadyValid(t *testing.T) {
	tests := []string{"Hello, World!", "你好世界", "Привет мир", "Hello 👋", ""}
	for _, in := range tests {
		if got := EnsureUTF8(in); got != in {
			t.Errorf("EnsureUTF8(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestEnsureUTF8_LegacyEncodings(t *testing.T) {
	tests := []struct {
		name string
		text string
		enc  *charmap.Charmap
	}{
		{"windows-1252 smart quote", "Rand’s Opponent", charmap.Windows1252},
		{"windows-1252 euro", "Price: €100", charmap.Windows1252},
		{"latin-1 umlaut", "München", charmap.ISO8859_1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := encodeWith(t, tt.text, tt.enc)
			if utf8.ValidString(raw) {
				t.Fatalf("test input %q is already valid UTF-8", raw)
			}
			got := EnsureUTF8(raw)
			if !utf8.ValidString(got) {
				t.Fatalf("EnsureUTF8 returned invalid UTF-8: %q", got)
			}
			if got != tt.text {
				t.Errorf("EnsureUTF8 = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	got := SanitizeUTF8("ab\xffcd")
	if got != "ab�cd" {
		t.Errorf("SanitizeUTF8 = %q", got)
	}
}

func TestEncodingByName(t *testing.T) {
	for _, name := range []string{"windows-1252", "ISO-8859-1", "Shift_JIS", "EUC-KR", "GB18030", "Big5", "KOI8-R"} {
		if EncodingByName(name) == nil {
			t.Errorf("EncodingByName(%q) = nil", name)
		}
	}
	if EncodingByName("x-unknown") != nil {
		t.Error("EncodingByName(x-unknown) should be nil")
	}
}

func TestCleanHeader(t *testing.T) {
	if got := CleanHeader("  Weekly\r\n\tstatus   report "); got != "Weekly status report" {
		t.Errorf("CleanHeader = %q", got)
	}
}

func TestStripControls(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Weekly status", "Weekly status"},
		{"osc title and clear screen", "hi\x1b]0;pwned\a\x1b[2J there", "hi there"},
		{"sgr color", "\x1b[31mred\x1b[0m", "red"},
		{"bell and backspace", "a\a\bb", "ab"},
		{"c1 control", "a\u009bb", "ab"},
		{"whitespace controls", "a\tb\r\nc", "a b  c"},
		{"unicode kept", "Grüße ✓", "Grüße ✓"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripControls(tt.in); got != tt.want {
				t.Errorf("StripControls(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
	if got := CleanHeader("hi\x1b]0;pwned\a\x1b[2J"); got != "hi" {
		t.Errorf("CleanHeader = %q, want hi", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"日本語テキスト", 5, "日本..."},
		{"abc", 2, "ab"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
