package source

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/testutil"
)

func TestParseParallel_KeepsOrderAndSkipsFailures(t *testing.T) {
	recs, err := ParseParallel(context.Background(), 50, func(_ context.Context, i int) (*message.Record, error) {
		switch {
		case i%10 == 3:
			return nil, errors.New("broken")
		case i%10 == 7:
			return nil, nil
		}
		return &message.Record{ID: fmt.Sprintf("m%02d@x", i)}, nil
	}, nil)
	testutil.MustNoErr(t, err, "ParseParallel")
	if len(recs) != 40 {
		t.Fatalf("len = %d, want 40", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i-1].ID >= recs[i].ID {
			t.Fatalf("out of order at %d: %s then %s", i, recs[i-1].ID, recs[i].ID)
		}
	}
}

func TestParseParallel_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParseParallel(ctx, 5, func(context.Context, int) (*message.Record, error) {
		return &message.Record{ID: "x"}, nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIDs_SkipsSynthetic(t *testing.T) {
	raw := []byte("Subject: no id\r\n\r\n")
	synth, err := message.Parse(raw)
	testutil.MustNoErr(t, err, "Parse")
	got := IDs([]*message.Record{{ID: "a@x"}, synth})
	testutil.AssertStrings(t, got, "a@x")
}
