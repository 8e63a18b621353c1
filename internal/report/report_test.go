package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wesm/mailtrends/internal/corpus"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/source"
	"github.com/wesm/mailtrends/internal/stats"
	"github.com/wesm/mailtrends/internal/testutil"
	"github.com/wesm/mailtrends/internal/testutil/recordtest"
)

func gmailLike() *source.Memory {
	trash := recordtest.New("trash@x").Subject("old news").From("Spam", "spam@x.com").
		At(recordtest.Day(2024, 2, 1)).Build()
	m := source.NewMemory()
	m.Label = "mail.example.com"
	return m.
		Add("Inbox",
			recordtest.New("one@x").Subject("Plan").From("Alice", "alice@x.com").To("Me", "me@x.com").At(recordtest.Day(2024, 1, 1)).Build(),
			recordtest.New("two@x").Subject("Re: Plan").InReplyTo("one@x").From("Me", "ME@x.com").To("Alice", "alice@x.com").At(recordtest.Day(2024, 1, 2)).Build(),
			recordtest.New("three@x").Subject("Lunch").From("Bob", "bob@x.com").To("Me", "me@x.com").At(recordtest.Day(2024, 3, 1)).Build(),
			trash,
		).
		Add("[Gmail]/Trash", trash)
}

func findTable(root stats.Node, title string) *stats.Table {
	var found *stats.Table
	stats.Walk(root, func(n stats.Node, _ int) bool {
		if t, ok := n.(*stats.Table); ok && t.Title() == title {
			found = t
		}
		return true
	})
	return found
}

func TestRun_EndToEnd(t *testing.T) {
	src := gmailLike()
	res, err := Run(context.Background(), src, Options{
		FilterLabels: "-Inbox,[Gmail]/Trash",
		Me:           []string{"me@x.com"},
		Location:     time.UTC,
	})
	testutil.MustNoErr(t, err, "Run")

	if _, ok := res.Corpus.ByID("trash@x"); ok {
		t.Error("trash message present after label filtering")
	}
	if res.Corpus.Len() != 3 {
		t.Errorf("corpus len = %d, want 3", res.Corpus.Len())
	}
	if len(res.Threads) != 2 {
		t.Errorf("threads = %d, want 2", len(res.Threads))
	}
	if src.Logouts() != 1 {
		t.Errorf("Logouts = %d, want 1", src.Logouts())
	}
	if !res.Range.Start.Equal(recordtest.Day(2024, 1, 1)) || !res.Range.End.Equal(recordtest.Day(2024, 3, 1)) {
		t.Errorf("range = %v..%v", res.Range.Start, res.Range.End)
	}

	title := res.Root.Header.(*stats.Title)
	if title.Messages != 3 || title.Title() != "Mail trends for mail.example.com" {
		t.Errorf("title = %q messages=%d", title.Title(), title.Messages)
	}

	me := findTable(res.Root, "Top recipients of my messages")
	if me == nil || me.Total() != 1 {
		t.Fatalf("me recipient table = %+v", me)
	}
	if rows := me.Rows(); rows[0].Key != "alice@x.com" {
		t.Errorf("me recipients = %+v", rows)
	}
}

func TestRun_BadContentFilterFailsBeforeFetch(t *testing.T) {
	src := gmailLike()
	_, err := Run(context.Background(), src, Options{FilterOut: "subject:x"})
	var fe *corpus.FilterError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *corpus.FilterError", err)
	}
	if src.Logouts() != 1 {
		t.Errorf("Logouts = %d, want 1", src.Logouts())
	}
}

func TestRun_FilterOutAndDetectMe(t *testing.T) {
	res, err := Run(context.Background(), gmailLike(), Options{
		FilterOut: "from:spam",
		DetectMe:  true,
		Location:  time.UTC,
	})
	testutil.MustNoErr(t, err, "Run")
	if _, ok := res.Corpus.ByID("trash@x"); ok {
		t.Error("spam message survived content filter")
	}
	testutil.AssertStrings(t, res.Me, "me@x.com")
	two, _ := res.Corpus.ByID("two@x")
	if !two.FromMe {
		t.Error("message from ME@x.com not tagged FromMe")
	}
}

func TestRun_DateRangeOverride(t *testing.T) {
	rng := message.DateRange{Start: recordtest.Day(2024, 1, 1), End: message.EndOfDay(recordtest.Day(2024, 1, 31))}
	res, err := Run(context.Background(), gmailLike(), Options{DateRange: &rng, Location: time.UTC})
	testutil.MustNoErr(t, err, "Run")
	if res.Range != rng {
		t.Errorf("range = %v", res.Range)
	}
	senders := findTable(res.Root, "Top senders")
	if senders.Total() != 2 {
		t.Errorf("in-range senders = %d, want 2", senders.Total())
	}
}

func TestRun_StartOnlyOverrideEndsAtCorpus(t *testing.T) {
	rng := message.DateRange{Start: recordtest.Day(2024, 1, 2)}
	res, err := Run(context.Background(), gmailLike(), Options{DateRange: &rng, Location: time.UTC})
	testutil.MustNoErr(t, err, "Run")

	if !res.Range.Start.Equal(recordtest.Day(2024, 1, 2)) || !res.Range.End.Equal(recordtest.Day(2024, 3, 1)) {
		t.Fatalf("range = %v..%v, want 2024-01-02..2024-03-01", res.Range.Start, res.Range.End)
	}
	stats.Walk(res.Root, func(n stats.Node, _ int) bool {
		switch n := n.(type) {
		case *stats.Distribution:
			if got := len(n.Buckets()); got > 60 {
				t.Errorf("%s: %d periods, want at most 60", n.Title(), got)
			}
		case *stats.Bucket:
			if n.Title() == "Year" && len(n.Rows()) != 1 {
				t.Errorf("year rows = %d, want 1", len(n.Rows()))
			}
		}
		return true
	})
	if senders := findTable(res.Root, "Top senders"); senders.Total() != 3 {
		t.Errorf("in-range senders = %d, want 3", senders.Total())
	}
}

type brokenSource struct{ *source.Memory }

func (brokenSource) ListMailboxes(context.Context) ([]string, error) {
	return nil, fmt.Errorf("dial: %w", errors.New("connection refused"))
}

func TestRun_FetchErrorNoResult(t *testing.T) {
	src := brokenSource{source.NewMemory()}
	res, err := Run(context.Background(), src, Options{})
	if err == nil || res != nil {
		t.Fatalf("Run = %v, %v; want error and nil result", res, err)
	}
	if src.Logouts() != 1 {
		t.Errorf("Logouts = %d, want 1", src.Logouts())
	}
}

func TestOptions_SplitThreshold(t *testing.T) {
	tests := map[int]int{0: 10, -1: 0, 3: 3}
	for in, want := range tests {
		if got := (Options{SplitThreshold: in}).splitThreshold(); got != want {
			t.Errorf("splitThreshold(%d) = %d, want %d", in, got, want)
		}
	}
}
