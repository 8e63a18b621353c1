package corpus

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/source"
)

// LoadOptions controls which mailboxes are read and how many messages are kept.
type LoadOptions struct {
	// Mailboxes restricts loading to these names. Empty loads every mailbox.
	Mailboxes []string
	// MaxMessages caps the records kept per mailbox. Zero or less keeps all.
	MaxMessages int
	// RandomSubset picks MaxMessages records at random instead of the first ones.
	RandomSubset bool
	// Seed seeds the random subset so runs are reproducible.
	Seed uint64
}

// Load reads every selected mailbox of src and builds a deduplicated corpus.
// Dates are not parsed during the scan.
func Load(ctx context.Context, src source.Source, lo LoadOptions, opts ...Option) (*Corpus, error) {
	o := buildOptions(opts)

	all, err := src.ListMailboxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}
	selected := Select(all, lo.Mailboxes)
	if len(lo.Mailboxes) > 0 && len(selected) == 0 {
		o.logger.Warn("no requested mailbox exists", "requested", lo.Mailboxes)
	}

	var rng *rand.Rand
	if lo.RandomSubset {
		rng = rand.New(rand.NewPCG(lo.Seed, lo.Seed^0x9e3779b97f4a7c15))
	}

	var records []*message.Record
	for _, mb := range selected {
		if err := src.SelectMailbox(ctx, mb); err != nil {
			return nil, fmt.Errorf("select mailbox %q: %w", mb, err)
		}
		infos, err := src.ListMessageInfos(ctx, message.SkipDates)
		if err != nil {
			return nil, fmt.Errorf("list messages in %q: %w", mb, err)
		}
		infos = trim(infos, lo.MaxMessages, rng)
		for _, r := range infos {
			r.AddMailbox(mb)
		}
		records = append(records, infos...)
		o.logger.Info("loaded mailbox", "mailbox", mb, "messages", len(infos), "total", len(records))
	}

	c := New(records)
	if dup := len(records) - c.Len(); dup > 0 {
		o.logger.Debug("merged duplicate messages", "count", dup)
	}
	return c, nil
}

// trim keeps at most limit records. With rng set the kept records are a random
// sample in their original relative order.
func trim(recs []*message.Record, limit int, rng *rand.Rand) []*message.Record {
	if limit <= 0 || len(recs) <= limit {
		return recs
	}
	if rng == nil {
		return recs[:limit]
	}
	picked := rng.Perm(len(recs))[:limit]
	keep := make([]bool, len(recs))
	for _, i := range picked {
		keep[i] = true
	}
	out := make([]*message.Record, 0, limit)
	for i, r := range recs {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}
