package emlx

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/wesm/mailtrends/internal/testutil"
)

const testMIME = "From: alice@example.com\r\nSubject: Hello\r\n\r\nBody\r\n"

func plistDoc(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
` + body + `
</dict>
</plist>`
}

func emlxBytes(mime, trailer string) []byte {
	return []byte(fmt.Sprintf("%d\n%s%s", len(mime), mime, trailer))
}

func TestParse_Metadata(t *testing.T) {
	want2009 := time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		trailer   string
		wantDate  time.Time
		wantFlags int64
		wantOrig  string
	}{
		{
			name: "real date-sent",
			trailer: plistDoc(`<key>date-sent</key><real>252460800</real>
<key>flags</key><integer>8590195713</integer>
<key>original-mailbox</key><string>imap://user@example.com/INBOX</string>`),
			wantDate:  want2009,
			wantFlags: 8590195713,
			wantOrig:  "imap://user@example.com/INBOX",
		},
		{
			name:     "integer date-sent",
			trailer:  plistDoc(`<key>date-sent</key><integer>252460800</integer>`),
			wantDate: want2009,
		},
		{name: "no plist"},
		{name: "garbage trailer", trailer: "NOT XML AT ALL"},
		{name: "empty dict", trailer: plistDoc("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(emlxBytes(testMIME, tt.trailer))
			testutil.MustNoErr(t, err, "Parse")
			if string(msg.Raw) != testMIME {
				t.Errorf("Raw = %q", msg.Raw)
			}
			if !msg.PlistDate.Equal(tt.wantDate) {
				t.Errorf("PlistDate = %v, want %v", msg.PlistDate, tt.wantDate)
			}
			if msg.Flags != tt.wantFlags || msg.OrigMailbox != tt.wantOrig {
				t.Errorf("Flags/OrigMailbox = %d/%q", msg.Flags, msg.OrigMailbox)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for name, data := range map[string]string{
		"empty":         "",
		"no newline":    "42",
		"non-numeric":   "abc\nFrom: test\r\n\r\n",
		"negative":      "-1\nstuff",
		"count too big": "9999\nshort",
	} {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParse_WhitespaceAroundByteCount(t *testing.T) {
	msg, err := Parse([]byte(fmt.Sprintf("  %d  \n%s", len(testMIME), testMIME)))
	testutil.MustNoErr(t, err, "Parse")
	if string(msg.Raw) != testMIME {
		t.Errorf("Raw = %q", msg.Raw)
	}
}

func TestParseFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "1234.emlx", emlxBytes(testMIME, ""))
	msg, err := ParseFile(path)
	testutil.MustNoErr(t, err, "ParseFile")
	if string(msg.Raw) != testMIME {
		t.Errorf("Raw = %q", msg.Raw)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.emlx")); err == nil {
		t.Error("expected error for missing file")
	}
}
