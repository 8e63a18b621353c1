package corpus

import (
	"testing"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/testutil"
	"github.com/wesm/mailtrends/internal/testutil/recordtest"
)

func ids(c *Corpus) []string {
	var out []string
	for _, r := range c.Records() {
		out = append(out, r.ID)
	}
	return out
}

func TestNew_DedupKeepsFirstAndUnionsMailboxes(t *testing.T) {
	a1 := recordtest.New("a@x").Subject("first").Mailboxes("INBOX").Build()
	b := recordtest.New("b@x").Mailboxes("INBOX").Build()
	a2 := recordtest.New("a@x").Subject("second").Mailboxes("Archive").Build()

	c := New([]*message.Record{a1, b, a2, nil})

	testutil.AssertStrings(t, ids(c), "a@x", "b@x")
	got, ok := c.ByID("a@x")
	if !ok {
		t.Fatal("ByID(a@x) not found")
	}
	if got.Subject != "first" {
		t.Errorf("kept subject %q, want first", got.Subject)
	}
	testutil.AssertStrings(t, got.Mailboxes(), "INBOX", "Archive")
	testutil.AssertStrings(t, c.Mailboxes(), "INBOX", "Archive")
}

func TestCorpus_NilSafe(t *testing.T) {
	var c *Corpus
	if c.Len() != 0 || c.Records() != nil {
		t.Error("nil corpus should be empty")
	}
	if _, ok := c.ByID("x"); ok {
		t.Error("nil corpus ByID should miss")
	}
	if !c.DateRange().IsZero() {
		t.Error("nil corpus DateRange should be zero")
	}
}

func TestCorpus_DateRange(t *testing.T) {
	c := New([]*message.Record{
		recordtest.New("a").At(recordtest.Day(2023, 5, 1)).Build(),
		recordtest.New("b").NoDate().Build(),
		recordtest.New("c").At(recordtest.Day(2021, 2, 3)).Build(),
	})
	r := c.DateRange()
	if !r.Start.Equal(recordtest.Day(2021, 2, 3)) || !r.End.Equal(recordtest.Day(2023, 5, 1)) {
		t.Errorf("DateRange = %v..%v", r.Start, r.End)
	}
}
