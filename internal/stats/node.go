// Package stats aggregates a corpus and its threads into a tree of report
// nodes. The node kinds form a closed set; renderers switch on Kind.
package stats

import (
	"log/slog"
	"time"

	"github.com/wesm/mailtrends/internal/corpus"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/thread"
)

// Kind identifies the concrete type of a Node.
type Kind int

const (
	KindTitle Kind = iota
	KindBucket
	KindTable
	KindDistribution
	KindGroup
	KindColumnGroup
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindBucket:
		return "bucket"
	case KindTable:
		return "table"
	case KindDistribution:
		return "distribution"
	case KindGroup:
		return "group"
	case KindColumnGroup:
		return "column_group"
	default:
		return "unknown"
	}
}

// Node is one statistic or a container of statistics.
//
// Process accumulates state and is not idempotent: only the first call has
// an effect.
type Node interface {
	Kind() Kind
	Title() string
	Process(c *corpus.Corpus, threads []*thread.Thread)
}

// Walk visits node and its descendants depth-first in declared order.
// Returning false from fn skips the node's children.
func Walk(node Node, fn func(n Node, depth int) bool) {
	walk(node, fn, 0)
}

func walk(node Node, fn func(Node, int) bool, depth int) {
	if node == nil || !fn(node, depth) {
		return
	}
	switch n := node.(type) {
	case *Group:
		if n.Header != nil {
			walk(n.Header, fn, depth+1)
		}
		for _, s := range n.Sections {
			for _, child := range s.Nodes {
				walk(child, fn, depth+1)
			}
		}
	case *ColumnGroup:
		for _, child := range n.Nodes {
			walk(child, fn, depth+1)
		}
	}
}

// Unit says whether a statistic counts messages or threads.
type Unit int

const (
	Messages Unit = iota
	Threads
)

func (u Unit) String() string {
	if u == Threads {
		return "threads"
	}
	return "messages"
}

// Item is the thing a statistic counts: a message or a thread.
type Item struct {
	Record *message.Record
	Thread *thread.Thread
}

// Date is the message date, or the thread starter's date.
func (it Item) Date() time.Time {
	if it.Record != nil {
		return it.Record.Date()
	}
	if it.Thread != nil {
		if s := it.Thread.Starter(); s != nil {
			return s.Date()
		}
	}
	return time.Time{}
}

// items yields the units a statistic counts. When rng is non-empty only items
// dated inside it are kept, so undated items count nowhere.
func items(c *corpus.Corpus, threads []*thread.Thread, u Unit, rng message.DateRange) []Item {
	var out []Item
	keep := func(it Item) {
		if !rng.IsZero() && !rng.Contains(it.Date()) {
			return
		}
		out = append(out, it)
	}
	if u == Threads {
		for _, t := range threads {
			keep(Item{Thread: t})
		}
		return out
	}
	for _, r := range c.Records() {
		keep(Item{Record: r})
	}
	return out
}

// base carries the title and the processed-once guard shared by every node.
type base struct {
	title     string
	processed bool
}

func (b *base) Title() string { return b.title }

// begin reports whether processing should run and marks the node processed.
func (b *base) begin() bool {
	if b.processed {
		slog.Debug("stat already processed", "title", b.title)
		return false
	}
	b.processed = true
	return true
}

// Processed reports whether Process has run.
func (b *base) Processed() bool { return b.processed }
