// Package email builds raw RFC 5322 messages for adapter and parser tests.
package email

import (
	"strings"
)

// MessageBuilder constructs raw messages with a fluent API.
// By default messages use \n line endings matching Go raw string literals.
type MessageBuilder struct {
	from       string
	to         string
	cc         string
	subject    string
	date       string
	messageID  string
	inReplyTo  string
	references []string
	body       string
	headerKeys []string
	headerVals []string
	crlf       bool
	noSubject  bool
}

// NewMessage creates a MessageBuilder with sensible defaults and no Message-ID.
func NewMessage() *MessageBuilder {
	return &MessageBuilder{
		from:    "sender@example.com",
		to:      "recipient@example.com",
		date:    "Mon, 01 Jan 2024 12:00:00 +0000",
		subject: "Test Message",
		body:    "This is a test message body.",
	}
}

func (b *MessageBuilder) From(v string) *MessageBuilder      { b.from = v; return b }
func (b *MessageBuilder) To(v string) *MessageBuilder        { b.to = v; return b }
func (b *MessageBuilder) Cc(v string) *MessageBuilder        { b.cc = v; return b }
func (b *MessageBuilder) Date(v string) *MessageBuilder      { b.date = v; return b }
func (b *MessageBuilder) Body(v string) *MessageBuilder      { b.body = v; return b }
func (b *MessageBuilder) NoSubject() *MessageBuilder         { b.noSubject = true; return b }
func (b *MessageBuilder) CRLF() *MessageBuilder              { b.crlf = true; return b }
func (b *MessageBuilder) InReplyTo(v string) *MessageBuilder { b.inReplyTo = v; return b }

// Subject sets the Subject header.
func (b *MessageBuilder) Subject(v string) *MessageBuilder {
	b.subject = v
	b.noSubject = false
	return b
}

// MessageID sets the Message-ID header. Angle brackets are added when missing.
func (b *MessageBuilder) MessageID(v string) *MessageBuilder {
	b.messageID = bracket(v)
	return b
}

// References appends ids to the References header.
func (b *MessageBuilder) References(ids ...string) *MessageBuilder {
	for _, id := range ids {
		b.references = append(b.references, bracket(id))
	}
	return b
}

// Header adds an arbitrary header.
func (b *MessageBuilder) Header(key, value string) *MessageBuilder {
	b.headerKeys = append(b.headerKeys, key)
	b.headerVals = append(b.headerVals, value)
	return b
}

// Bytes builds the complete message.
func (b *MessageBuilder) Bytes() []byte {
	nl := "\n"
	if b.crlf {
		nl = "\r\n"
	}

	var s strings.Builder
	if b.messageID != "" {
		s.WriteString("Message-ID: " + b.messageID + nl)
	}
	s.WriteString("From: " + b.from + nl)
	if b.to != "" {
		s.WriteString("To: " + b.to + nl)
	}
	if b.cc != "" {
		s.WriteString("Cc: " + b.cc + nl)
	}
	if !b.noSubject {
		s.WriteString("Subject: " + b.subject + nl)
	}
	if b.date != "" {
		s.WriteString("Date: " + b.date + nl)
	}
	if b.inReplyTo != "" {
		s.WriteString("In-Reply-To: " + bracket(b.inReplyTo) + nl)
	}
	if len(b.references) > 0 {
		s.WriteString("References: " + strings.Join(b.references, " ") + nl)
	}
	for i, k := range b.headerKeys {
		s.WriteString(k + ": " + b.headerVals[i] + nl)
	}
	s.WriteString(`Content-Type: text/plain; charset="utf-8"` + nl)
	s.WriteString(nl)
	s.WriteString(b.body + nl)
	return []byte(s.String())
}

func bracket(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "<") {
		return id
	}
	return "<" + id + ">"
}
