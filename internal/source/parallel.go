package source

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/wesm/mailtrends/internal/message"
)

// ParseFunc produces the record for item i. A nil record with a nil error
// means the item is skipped silently.
type ParseFunc func(ctx context.Context, i int) (*message.Record, error)

// ParseParallel runs parse for items 0..n-1 on up to GOMAXPROCS goroutines
// and returns the records in item order. Items whose parse fails are logged
// and skipped; only context cancellation aborts the whole call.
func ParseParallel(ctx context.Context, n int, parse ParseFunc, logger *slog.Logger) ([]*message.Record, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]*message.Record, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := parse(gctx, i)
			if err != nil {
				logger.Warn("skipping unreadable message", "item", i, "error", err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// IDs returns the non-synthetic Message-IDs of recs.
func IDs(recs []*message.Record) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		if !message.IsSynthetic(r.ID) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
