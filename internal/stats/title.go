package stats

import (
	"time"

	"github.com/wesm/mailtrends/internal/corpus"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/thread"
)

// TitleMeta describes the run for the report heading.
type TitleMeta struct {
	// Host is the account domain or source label.
	Host        string
	GeneratedAt time.Time
}

// Title is the report heading: the date range and corpus counts.
type Title struct {
	base
	Meta     TitleMeta
	Range    message.DateRange
	Messages int
	Threads  int
}

// NewTitle returns a heading for rng.
func NewTitle(rng message.DateRange, meta TitleMeta) *Title {
	t := &Title{Meta: meta, Range: rng}
	t.title = "Mail trends"
	if meta.Host != "" {
		t.title += " for " + meta.Host
	}
	return t
}

func (t *Title) Kind() Kind { return KindTitle }

func (t *Title) Process(c *corpus.Corpus, threads []*thread.Thread) {
	if !t.begin() {
		return
	}
	t.Messages = c.Len()
	t.Threads = len(threads)
}

// Subtitle renders the range as "2020-01-02 to 2021-03-04", or "" when empty.
func (t *Title) Subtitle() string {
	if t.Range.IsZero() {
		return ""
	}
	return t.Range.Start.Format("2006-01-02") + " to " + t.Range.End.Format("2006-01-02")
}
