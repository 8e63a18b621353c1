// Package recordtest builds message.Record values directly, bypassing header
// parsing, for corpus, thread and stats tests.
package recordtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/wesm/mailtrends/internal/message"
)

// Builder provides a fluent API for constructing a message.Record.
type Builder struct {
	r          message.Record
	date       time.Time
	inReplyTo  string
	references []string
	mailboxes  []string
}

// New creates a builder for a record with the given Message-ID.
func New(id string) *Builder {
	return &Builder{
		r: message.Record{
			ID:      id,
			Subject: "Test Subject",
			Sender:  message.Address{Name: "Sender", Email: "sender@example.com"},
			Size:    1024,
		},
		date: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *Builder) Subject(s string) *Builder { b.r.Subject = s; return b }
func (b *Builder) Size(n int64) *Builder     { b.r.Size = n; return b }
func (b *Builder) At(t time.Time) *Builder   { b.date = t; return b }
func (b *Builder) NoDate() *Builder          { b.date = time.Time{}; return b }

// From sets the sender. The address is stored as given.
func (b *Builder) From(name, email string) *Builder {
	b.r.Sender = message.Address{Name: name, Email: email}
	return b
}

// To appends a recipient.
func (b *Builder) To(name, email string) *Builder {
	b.r.Recipients = append(b.r.Recipients, message.Address{Name: name, Email: email})
	return b
}

// List sets the List-Id.
func (b *Builder) List(name, id string) *Builder {
	b.r.List = message.Address{Name: name, Email: id}
	return b
}

// InReplyTo sets the parent id written into the generated header block.
func (b *Builder) InReplyTo(id string) *Builder { b.inReplyTo = id; return b }

// References sets the reference chain written into the generated header block.
func (b *Builder) References(ids ...string) *Builder {
	b.references = append(b.references, ids...)
	return b
}

// Mailboxes adds mailbox membership.
func (b *Builder) Mailboxes(names ...string) *Builder {
	b.mailboxes = append(b.mailboxes, names...)
	return b
}

// Build returns the record with a synthesized header block carrying
// Message-ID, Subject, In-Reply-To and References.
func (b *Builder) Build() *message.Record {
	r := b.r
	r.Recipients = append([]message.Address(nil), b.r.Recipients...)
	r.Header = b.header()
	r.SetRawDate("", b.date)
	for _, mb := range b.mailboxes {
		r.AddMailbox(mb)
	}
	return &r
}

func (b *Builder) header() []byte {
	var s strings.Builder
	if b.r.ID != "" {
		fmt.Fprintf(&s, "Message-ID: <%s>\r\n", b.r.ID)
	}
	fmt.Fprintf(&s, "From: %s\r\n", b.r.Sender.String())
	fmt.Fprintf(&s, "Subject: %s\r\n", b.r.Subject)
	if b.inReplyTo != "" {
		fmt.Fprintf(&s, "In-Reply-To: <%s>\r\n", b.inReplyTo)
	}
	if len(b.references) > 0 {
		refs := make([]string, len(b.references))
		for i, id := range b.references {
			refs[i] = "<" + id + ">"
		}
		fmt.Fprintf(&s, "References: %s\r\n", strings.Join(refs, " "))
	}
	s.WriteString("\r\n")
	return []byte(s.String())
}

// Day returns midnight UTC of the given date, for compact test tables.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
