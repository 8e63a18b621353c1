package stats

import (
	"github.com/wesm/mailtrends/internal/corpus"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/thread"
)

// Format says how a count should be displayed.
type Format int

const (
	FormatCount Format = iota
	FormatBytes
)

// Bucket counts items into a fixed, ordered list of keys. Keys with no items
// still produce a row.
type Bucket struct {
	base
	Unit  Unit
	Range message.DateRange
	// Keys is the predeclared row order.
	Keys []Entry
	// Key classifies an item. ok=false leaves the item uncounted.
	Key func(Item) (key string, ok bool)

	t *tally
}

// NewBucket returns a bucket with the given title and keys.
func NewBucket(title string, unit Unit, keys []Entry, key func(Item) (string, bool)) *Bucket {
	return &Bucket{base: base{title: title}, Unit: unit, Keys: keys, Key: key}
}

func (b *Bucket) Kind() Kind { return KindBucket }

func (b *Bucket) Process(c *corpus.Corpus, threads []*thread.Thread) {
	if !b.begin() {
		return
	}
	b.t = newTally()
	labels := make(map[string]Entry, len(b.Keys))
	for _, e := range b.Keys {
		b.t.declare(e)
		labels[e.Key] = e
	}
	for _, it := range items(c, threads, b.Unit, b.Range) {
		key, ok := b.Key(it)
		if !ok {
			continue
		}
		e, declared := labels[key]
		if !declared {
			e = Entry{Key: key}
		}
		b.t.add(e, 1)
	}
}

// Rows returns one row per declared key in order, followed by any key the
// classifier produced that was not declared.
func (b *Bucket) Rows() []Row {
	if b.t == nil {
		return nil
	}
	return b.t.rows()
}

// Total returns the number of counted items.
func (b *Bucket) Total() int64 {
	if b.t == nil {
		return 0
	}
	return b.t.total
}
