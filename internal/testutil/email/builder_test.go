package email

import (
	"strings"
	"testing"
)

func TestBuilderDefaults(t *testing.T) {
	raw := string(NewMessage().Bytes())
	for _, want := range []string{"From: sender@example.com\n", "Subject: Test Message\n", "\n\nThis is a test message body.\n"} {
		if !strings.Contains(raw, want) {
			t.Errorf("missing %q in:\n%s", want, raw)
		}
	}
	if strings.Contains(raw, "Message-ID") {
		t.Error("default message should not carry a Message-ID")
	}
}

func TestBuilderThreadingHeaders(t *testing.T) {
	raw := string(NewMessage().
		MessageID("c@x").
		InReplyTo("b@x").
		References("a@x", "<b@x>").
		CRLF().
		Bytes())
	for _, want := range []string{
		"Message-ID: <c@x>\r\n",
		"In-Reply-To: <b@x>\r\n",
		"References: <a@x> <b@x>\r\n",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("missing %q in:\n%q", want, raw)
		}
	}
}

func TestBuilderNoSubject(t *testing.T) {
	raw := string(NewMessage().NoSubject().Bytes())
	if strings.Contains(raw, "Subject:") {
		t.Errorf("unexpected Subject header:\n%s", raw)
	}
}
