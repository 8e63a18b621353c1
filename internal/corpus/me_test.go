package corpus

import (
	"testing"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/testutil"
	"github.com/wesm/mailtrends/internal/testutil/recordtest"
)

func TestTagMe(t *testing.T) {
	fromMe := recordtest.New("a").From("Alice", "Alice@X.com").To("Bob", "bob@y.com").Build()
	toMe := recordtest.New("b").From("Bob", "bob@y.com").To("Carol", "carol@z.com").To("Alice", "alice@x.com").Build()
	other := recordtest.New("c").From("Bob", "bob@y.com").To("Carol", "carol@z.com").Build()
	c := New([]*message.Record{fromMe, toMe, other})

	counts := TagMe(c, []string{"  ALICE@x.com "})

	if counts != (TagCounts{FromMe: 1, ToMe: 1}) {
		t.Errorf("counts = %+v", counts)
	}
	if !fromMe.FromMe || fromMe.ToMe {
		t.Errorf("fromMe tagged FromMe=%v ToMe=%v", fromMe.FromMe, fromMe.ToMe)
	}
	if toMe.FromMe || !toMe.ToMe {
		t.Errorf("toMe tagged FromMe=%v ToMe=%v", toMe.FromMe, toMe.ToMe)
	}
	if other.FromMe || other.ToMe {
		t.Errorf("other tagged FromMe=%v ToMe=%v", other.FromMe, other.ToMe)
	}
}

func TestTagMe_ClearsPreviousTags(t *testing.T) {
	r := recordtest.New("a").From("Alice", "alice@x.com").Build()
	c := New([]*message.Record{r})
	TagMe(c, []string{"alice@x.com"})
	TagMe(c, nil)
	if r.FromMe {
		t.Error("FromMe should be cleared when me list is empty")
	}
}

func TestNormalizeAddresses(t *testing.T) {
	got := NormalizeAddresses([]string{" A@x.com, b@Y.com ", "", "c@z.com"})
	testutil.AssertStrings(t, got, "a@x.com", "b@y.com", "c@z.com")
}

func TestDetectMe(t *testing.T) {
	c := New([]*message.Record{
		recordtest.New("1").To("", "bob@x.com").To("", "me@x.com").Build(),
		recordtest.New("2").To("", "me@x.com").Build(),
		recordtest.New("3").To("", "bob@x.com").Build(),
		recordtest.New("4").To("", "Me@X.com").To("", "me@x.com").Build(),
	})
	if got := DetectMe(c); got != "me@x.com" {
		t.Errorf("DetectMe = %q, want me@x.com", got)
	}
}

func TestDetectMe_TieGoesToFirstSeen(t *testing.T) {
	c := New([]*message.Record{
		recordtest.New("1").To("", "first@x.com").Build(),
		recordtest.New("2").To("", "second@x.com").Build(),
	})
	if got := DetectMe(c); got != "first@x.com" {
		t.Errorf("DetectMe = %q, want first@x.com", got)
	}
	if got := DetectMe(New(nil)); got != "" {
		t.Errorf("DetectMe(empty) = %q", got)
	}
}
