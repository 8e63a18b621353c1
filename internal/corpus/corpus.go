// Package corpus turns per-mailbox message records into the filtered, tagged
// collection a report run operates on.
package corpus

import (
	"log/slog"

	"github.com/wesm/mailtrends/internal/message"
)

// Corpus is an ordered, deduplicated set of records.
type Corpus struct {
	records []*message.Record
	byID    map[string]*message.Record
}

// New builds a corpus from records. A record whose ID was already seen is
// dropped and its mailbox membership merged into the first occurrence.
func New(records []*message.Record) *Corpus {
	c := &Corpus{
		records: make([]*message.Record, 0, len(records)),
		byID:    make(map[string]*message.Record, len(records)),
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		if first, ok := c.byID[r.ID]; ok {
			for _, mb := range r.Mailboxes() {
				first.AddMailbox(mb)
			}
			continue
		}
		c.byID[r.ID] = r
		c.records = append(c.records, r)
	}
	return c
}

// Records returns the records in first-seen order. The slice must not be modified.
func (c *Corpus) Records() []*message.Record {
	if c == nil {
		return nil
	}
	return c.records
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// ByID returns the record with the given Message-ID.
func (c *Corpus) ByID(id string) (*message.Record, bool) {
	if c == nil {
		return nil, false
	}
	r, ok := c.byID[id]
	return r, ok
}

// Mailboxes returns every mailbox any record was seen in, in first-seen order.
func (c *Corpus) Mailboxes() []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range c.Records() {
		for _, mb := range r.Mailboxes() {
			if !seen[mb] {
				seen[mb] = true
				out = append(out, mb)
			}
		}
	}
	return out
}

// DateRange returns the span of record dates.
func (c *Corpus) DateRange() message.DateRange {
	return message.RangeOf(c.Records())
}

// retain returns a new corpus holding the records for which keep is true.
func (c *Corpus) retain(keep func(*message.Record) bool) *Corpus {
	out := &Corpus{byID: make(map[string]*message.Record, c.Len())}
	for _, r := range c.Records() {
		if keep(r) {
			out.records = append(out.records, r)
			out.byID[r.ID] = r
		}
	}
	return out
}

// Option configures the filtering and loading helpers.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for progress and skip messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
