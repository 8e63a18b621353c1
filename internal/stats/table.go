package stats

import (
	"github.com/wesm/mailtrends/internal/corpus"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/thread"
)

// DefaultTableLimit is the number of rows a table shows.
const DefaultTableLimit = 40

// Table ranks keys by count.
type Table struct {
	base
	Unit  Unit
	Range message.DateRange
	// Values returns the keys an item contributes to; an item may count
	// toward several keys (every recipient of a message).
	Values func(Item) []Entry
	// Weight is the amount each key receives per item. Nil counts 1.
	Weight func(Item) int64
	// Limit caps Rows. Zero means DefaultTableLimit.
	Limit  int
	Format Format
	// Column is the header of the label column.
	Column string

	t *tally
}

// NewTable returns a counting table.
func NewTable(title, column string, unit Unit, values func(Item) []Entry) *Table {
	return &Table{base: base{title: title}, Column: column, Unit: unit, Values: values}
}

func (t *Table) Kind() Kind { return KindTable }

func (t *Table) Process(c *corpus.Corpus, threads []*thread.Thread) {
	if !t.begin() {
		return
	}
	t.t = newTally()
	for _, it := range items(c, threads, t.Unit, t.Range) {
		t.observe(it, t.t)
	}
}

func (t *Table) observe(it Item, into *tally) {
	w := int64(1)
	if t.Weight != nil {
		w = t.Weight(it)
	}
	for _, e := range t.Values(it) {
		if e.Key != "" {
			into.add(e, w)
		}
	}
}

func (t *Table) limit() int {
	if t.Limit > 0 {
		return t.Limit
	}
	return DefaultTableLimit
}

// Top returns the n highest-counted keys. Ties keep first-seen order.
func (t *Table) Top(n int) []Row {
	if t.t == nil {
		return nil
	}
	return t.t.top(n)
}

// Rows returns the top Limit rows.
func (t *Table) Rows() []Row { return t.Top(t.limit()) }

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	if t.t == nil {
		return 0
	}
	return len(t.t.entries)
}

// Total returns the sum of all counts.
func (t *Table) Total() int64 {
	if t.t == nil {
		return 0
	}
	return t.t.total
}
