// Package report runs the batch pipeline: load, filter, tag, thread and
// aggregate one corpus into a statistics tree.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wesm/mailtrends/internal/corpus"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/source"
	"github.com/wesm/mailtrends/internal/stats"
	"github.com/wesm/mailtrends/internal/thread"
)

// Options is the fully resolved configuration of one run.
type Options struct {
	Mailboxes    []string
	FilterLabels string
	FilterOut    string
	Me           []string
	// DetectMe guesses the owner address when Me is empty.
	DetectMe bool
	// DateRange overrides the range computed from the corpus. A zero bound
	// is taken from the corpus.
	DateRange *message.DateRange
	// SplitThreshold is passed to the thread builder. Zero means
	// thread.DefaultSplitThreshold; negative disables splitting.
	SplitThreshold int
	MaxMessages    int
	RandomSubset   bool
	Seed           uint64
	// Top is the table row limit.
	Top      int
	Location *time.Location
	// Host labels the report heading. Empty uses the source description.
	Host   string
	Logger *slog.Logger
}

// Result is the output of a run.
type Result struct {
	Root        *stats.Group
	Range       message.DateRange
	Corpus      *corpus.Corpus
	Threads     []*thread.Thread
	Me          []string
	Skipped     int
	GeneratedAt time.Time
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) splitThreshold() int {
	switch {
	case o.SplitThreshold == 0:
		return thread.DefaultSplitThreshold
	case o.SplitThreshold < 0:
		return 0
	default:
		return o.SplitThreshold
	}
}

// Run executes the pipeline against src. src is logged out once the label
// filter has run, whether or not the run succeeds. A fetch error aborts the
// run with no partial result.
func Run(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	log := opts.logger()

	filter, err := corpus.ParseContentFilter(opts.FilterOut)
	if err != nil {
		_ = src.Logout()
		return nil, err
	}

	c, err := load(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	c = corpus.FilterOut(c, filter, corpus.WithLogger(log))

	me := corpus.NormalizeAddresses(opts.Me)
	if len(me) == 0 && opts.DetectMe {
		if guess := corpus.DetectMe(c); guess != "" {
			log.Info("detected owner address", "address", guess)
			me = []string{guess}
		}
	}
	if len(me) > 0 {
		counts := corpus.TagMe(c, me)
		log.Info("identified me messages", "from_me", counts.FromMe, "to_me", counts.ToMe)
	}

	log.Info("extracting threads", "messages", c.Len())
	b := &thread.Builder{SplitThreshold: opts.splitThreshold(), Logger: log}
	nodes, skipped := b.Nodes(c)
	threads := b.BuildFromNodes(nodes)

	rng := c.DateRange()
	if opts.DateRange != nil {
		rng = opts.DateRange.Fill(rng)
	}

	host := opts.Host
	if host == "" {
		host = source.Describe(src)
	}
	now := time.Now()
	root := stats.DefaultReport(stats.Options{
		Range:    rng,
		Location: opts.Location,
		Top:      opts.Top,
		Meta:     stats.TitleMeta{Host: host, GeneratedAt: now},
	})

	log.Info("generating stats", "messages", c.Len(), "threads", len(threads))
	root.Process(c, threads)

	return &Result{
		Root:        root,
		Range:       rng,
		Corpus:      c,
		Threads:     threads,
		Me:          me,
		Skipped:     skipped,
		GeneratedAt: now,
	}, nil
}

// load reads and label-filters the corpus, then releases the source.
func load(ctx context.Context, src source.Source, opts Options) (*corpus.Corpus, error) {
	log := opts.logger()
	defer func() {
		if err := src.Logout(); err != nil {
			log.Warn("logout failed", "error", err)
		}
	}()

	c, err := corpus.Load(ctx, src, corpus.LoadOptions{
		Mailboxes:    opts.Mailboxes,
		MaxMessages:  opts.MaxMessages,
		RandomSubset: opts.RandomSubset,
		Seed:         opts.Seed,
	}, corpus.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	log.Info("loaded corpus", "messages", c.Len())

	c, err = corpus.FilterLabeled(ctx, c, src, opts.FilterLabels, corpus.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("filter labels: %w", err)
	}
	return c, nil
}
