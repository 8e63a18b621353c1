// Package message defines the normalized per-message record every source
// adapter produces and the rest of the pipeline consumes.
package message

import (
	"strings"
	"time"
)

// Address is a display name plus an address. Email is lower-cased at parse time.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// String formats the address the way it appears in a header.
func (a Address) String() string {
	switch {
	case a.Name != "" && a.Email != "":
		return a.Name + " <" + a.Email + ">"
	case a.Email != "":
		return a.Email
	default:
		return a.Name
	}
}

// Label is the best human-readable form: the name if present, else the address.
func (a Address) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}

// IsZero reports whether the address carries neither a name nor an email.
func (a Address) IsZero() bool {
	return a.Name == "" && a.Email == ""
}

// ParseMode controls whether dates are parsed while records are ingested.
// Bulk scans use SkipDates and let Record.Date parse on first use.
type ParseMode int

const (
	ParseDates ParseMode = iota
	SkipDates
)

func (m ParseMode) String() string {
	if m == SkipDates {
		return "skip-dates"
	}
	return "parse-dates"
}

// Record is one message as seen by the analytics pipeline.
//
// The same physical message may be observed once per mailbox it lives in.
// Records are deduplicated by ID at the corpus level, not here.
type Record struct {
	ID         string
	Subject    string
	Sender     Address
	Recipients []Address
	// List is the List-Id header split into description (Name) and id (Email).
	List Address
	Size int64

	// Header is the raw header block, kept for thread reconstruction.
	Header []byte

	FromMe bool
	ToMe   bool

	mailboxes []string

	rawDate    string
	fallback   time.Time
	date       time.Time
	dateParsed bool
}

// ListID returns the mailing-list identifier, or "" when the message has none.
func (r *Record) ListID() string {
	return r.List.Email
}

// AddMailbox records that the message was seen in mailbox name. Duplicates are ignored.
func (r *Record) AddMailbox(name string) {
	for _, mb := range r.mailboxes {
		if mb == name {
			return
		}
	}
	r.mailboxes = append(r.mailboxes, name)
}

// Mailboxes returns the mailboxes the message was seen in, in first-seen order.
func (r *Record) Mailboxes() []string {
	return r.mailboxes
}

// InMailbox reports whether the message was seen in mailbox name.
func (r *Record) InMailbox(name string) bool {
	for _, mb := range r.mailboxes {
		if mb == name {
			return true
		}
	}
	return false
}

// SetRawDate stores the unparsed Date header and the time to fall back to when
// it cannot be parsed (an IMAP INTERNALDATE, an mbox separator date, ...).
// Any previously parsed value is discarded.
func (r *Record) SetRawDate(raw string, fallback time.Time) {
	r.rawDate = strings.TrimSpace(raw)
	r.fallback = fallback
	r.date = time.Time{}
	r.dateParsed = false
}

// RawDate returns the Date header as received.
func (r *Record) RawDate() string { return r.rawDate }

// FallbackDate returns the source-provided date used when the header is unusable.
func (r *Record) FallbackDate() time.Time { return r.fallback }

// Date returns the send time, parsing the Date header on first use.
// The zero time means the message has no usable date.
func (r *Record) Date() time.Time {
	if !r.dateParsed {
		r.date = r.parseDate()
		r.dateParsed = true
	}
	return r.date
}

// HasDate reports whether Date returns a usable time.
func (r *Record) HasDate() bool {
	return !r.Date().IsZero()
}

func (r *Record) parseDate() time.Time {
	if r.rawDate != "" {
		if t, ok := ParseDate(r.rawDate); ok {
			return t
		}
	}
	if !r.fallback.IsZero() {
		return r.fallback.UTC()
	}
	return time.Time{}
}

// IsRecipient reports whether email (already lower-cased) is among the recipients.
func (r *Record) IsRecipient(email string) bool {
	for _, a := range r.Recipients {
		if a.Email == email {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of r, including the cached date state.
func (r *Record) Clone() *Record {
	c := *r
	c.Recipients = append([]Address(nil), r.Recipients...)
	c.Header = append([]byte(nil), r.Header...)
	c.mailboxes = append([]string(nil), r.mailboxes...)
	return &c
}
