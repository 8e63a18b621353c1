package mbox

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/wesm/mailtrends/internal/testutil"
)

func mboxText(lines ...string) string {
	return strings.Join(lines, "\n")
}

func TestReader_Next_HeadersAndSizes(t *testing.T) {
	data := mboxText(
		"From sender@example.com Mon Jan 1 00:00:00 2024",
		"Message-ID: <one@x>",
		"Subject: One",
		"",
		">From should-not-split",
		"From here on the body continues",
		"Normal",
		"From sender@example.com Mon Jan 1 00:00:01 2024",
		"Subject: Two",
		"",
		"Body2",
		"",
	)

	r := NewReader(strings.NewReader(data))

	e1, err := r.Next()
	testutil.MustNoErr(t, err, "Next")
	if !strings.HasPrefix(e1.Separator, "From sender@example.com") {
		t.Errorf("Separator = %q", e1.Separator)
	}
	if got := string(e1.Header); got != "Message-ID: <one@x>\nSubject: One\n\n" {
		t.Errorf("Header = %q", got)
	}
	wantSize := int64(len("Message-ID: <one@x>\nSubject: One\n\n>From should-not-split\nFrom here on the body continues\nNormal\n"))
	if e1.Size != wantSize {
		t.Errorf("Size = %d, want %d", e1.Size, wantSize)
	}
	if !e1.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", e1.Date)
	}

	e2, err := r.Next()
	testutil.MustNoErr(t, err, "Next (2)")
	if got := string(e2.Header); got != "Subject: Two\n\n" {
		t.Errorf("Header 2 = %q", got)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF again, got %v", err)
	}
}

func TestReader_SkipsLeadingGarbage(t *testing.T) {
	data := mboxText(
		"garbage before first separator",
		"From a@b Mon Jan 1 00:00:00 2024",
		"Subject: Only",
		"",
		"body",
	)
	r := NewReader(strings.NewReader(data))
	e, err := r.Next()
	testutil.MustNoErr(t, err, "Next")
	if string(e.Header) != "Subject: Only\n\n" {
		t.Errorf("Header = %q", e.Header)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReader_CRLF(t *testing.T) {
	data := "From a@b Mon Jan 1 00:00:00 2024\r\nSubject: X\r\n\r\nbody\r\n"
	e, err := NewReader(strings.NewReader(data)).Next()
	testutil.MustNoErr(t, err, "Next")
	if e.Separator != "From a@b Mon Jan 1 00:00:00 2024" {
		t.Errorf("Separator = %q", e.Separator)
	}
	if string(e.Header) != "Subject: X\r\n\r\n" || e.Size != int64(len("Subject: X\r\n\r\nbody\r\n")) {
		t.Errorf("entry = %q size %d", e.Header, e.Size)
	}
}

func TestReader_Empty(t *testing.T) {
	if _, err := NewReader(strings.NewReader("")).Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	ok := mboxText("From a@b Mon Jan 1 00:00:00 2024", "Subject: x", "")
	testutil.MustNoErr(t, Validate(strings.NewReader(ok), 1024), "Validate")

	if err := Validate(strings.NewReader("Subject: not mbox\n\nbody\n"), 1024); err == nil {
		t.Error("Validate accepted non-mbox input")
	}
	if err := Validate(strings.NewReader(ok), 0); err == nil {
		t.Error("Validate accepted maxBytes=0")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestReader_PropagatesReadErrors(t *testing.T) {
	if _, err := NewReader(failingReader{}).Next(); err == nil || err == io.EOF {
		t.Errorf("err = %v, want read error", err)
	}
}
