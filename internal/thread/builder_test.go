package thread

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/wesm/mailtrends/internal/corpus"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/testutil"
	"github.com/wesm/mailtrends/internal/testutil/email"
	"github.com/wesm/mailtrends/internal/testutil/recordtest"
)

// shape renders threads as "label: a(b(c),d)" for compact comparison.
func shape(threads []*Thread) []string {
	var out []string
	for _, th := range threads {
		out = append(out, th.Subject+": "+containerShape(th.Root))
	}
	return out
}

func containerShape(c *Container) string {
	var b strings.Builder
	if c.IsDummy() {
		b.WriteString("*")
	} else {
		b.WriteString(c.Message.ID)
	}
	if len(c.Children) > 0 {
		parts := make([]string, len(c.Children))
		for i, ch := range c.Children {
			parts[i] = containerShape(ch)
		}
		b.WriteString("(" + strings.Join(parts, ",") + ")")
	}
	return b.String()
}

func build(t *testing.T, threshold int, recs ...*message.Record) []*Thread {
	t.Helper()
	b := &Builder{SplitThreshold: threshold}
	return b.Build(corpus.New(recs))
}

func TestNewNode(t *testing.T) {
	r := recordtest.New("c@x").Subject("Re: Plan").
		References("a@x", "b@x").InReplyTo("b@x").Build()
	n, err := NewNode(r)
	testutil.MustNoErr(t, err, "NewNode")
	if n.ID != "c@x" || n.Subject != "Re: Plan" {
		t.Errorf("node = %+v", n)
	}
	testutil.AssertStrings(t, n.References, "a@x", "b@x")
}

func TestNewNode_InReplyToAppended(t *testing.T) {
	r := recordtest.New("c@x").References("a@x").InReplyTo("b@x").Build()
	n, err := NewNode(r)
	testutil.MustNoErr(t, err, "NewNode")
	testutil.AssertStrings(t, n.References, "a@x", "b@x")
}

func TestNewNode_FromRawHeaders(t *testing.T) {
	raw := email.NewMessage().
		MessageID("m1@example.com").
		Subject("=?UTF-8?B?w5xiZXJzaWNodA==?=").
		Header("References", "<r1@example.com> <r2@example.com>").
		Bytes()
	rec, err := message.Parse(raw)
	testutil.MustNoErr(t, err, "Parse")
	n, err := NewNode(rec)
	testutil.MustNoErr(t, err, "NewNode")
	if n.Subject != "Übersicht" {
		t.Errorf("Subject = %q", n.Subject)
	}
	testutil.AssertStrings(t, n.References, "r1@example.com", "r2@example.com")
}

func TestNewNode_Unparseable(t *testing.T) {
	raw := email.NewMessage().Subject("no id").Bytes()
	rec, err := message.Parse(raw)
	testutil.MustNoErr(t, err, "Parse")
	if _, err := NewNode(rec); !errors.Is(err, ErrUnparseable) {
		t.Errorf("err = %v, want ErrUnparseable", err)
	}
}

func TestNewNode_FallsBackToRecordID(t *testing.T) {
	rec := &message.Record{ID: "plain@x", Subject: "s"}
	n, err := NewNode(rec)
	testutil.MustNoErr(t, err, "NewNode")
	if n.ID != "plain@x" {
		t.Errorf("ID = %q", n.ID)
	}
}

func TestBuild_ReferenceChain(t *testing.T) {
	threads := build(t, DefaultSplitThreshold,
		recordtest.New("a").Subject("Plan").Build(),
		recordtest.New("b").Subject("Re: Plan").InReplyTo("a").Build(),
		recordtest.New("c").Subject("Re: Plan").References("a", "b").Build(),
		recordtest.New("d").Subject("Other").Build(),
	)
	want := []string{"Plan: a(b(c))", "Other: d"}
	if diff := cmp.Diff(want, shape(threads)); diff != "" {
		t.Errorf("threads mismatch (-want +got):\n%s", diff)
	}
	if threads[0].Depth() != 3 || threads[0].Size() != 3 {
		t.Errorf("Depth=%d Size=%d", threads[0].Depth(), threads[0].Size())
	}
}

func TestBuild_MissingParentKeepsDummy(t *testing.T) {
	threads := build(t, DefaultSplitThreshold,
		recordtest.New("b").Subject("Re: Gone").InReplyTo("missing").Build(),
		recordtest.New("c").Subject("Re: Gone").InReplyTo("missing").Build(),
	)
	if diff := cmp.Diff([]string{"Gone: *(b,c)"}, shape(threads)); diff != "" {
		t.Errorf("threads mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SingleChildDummyPromoted(t *testing.T) {
	threads := build(t, DefaultSplitThreshold,
		recordtest.New("b").Subject("Re: Lone").InReplyTo("missing").Build(),
	)
	if diff := cmp.Diff([]string{"Lone: b"}, shape(threads)); diff != "" {
		t.Errorf("threads mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SubjectMerge(t *testing.T) {
	threads := build(t, DefaultSplitThreshold,
		recordtest.New("r").Subject("Re: Lunch").Build(),
		recordtest.New("o").Subject("Lunch").Build(),
		recordtest.New("x").Subject("Dinner").Build(),
		recordtest.New("y").Subject("dinner").Build(),
	)
	want := []string{"Lunch: o(r)", "Dinner: *(x,y)"}
	if diff := cmp.Diff(want, shape(threads)); diff != "" {
		t.Errorf("threads mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_LoopIgnored(t *testing.T) {
	threads := build(t, DefaultSplitThreshold,
		recordtest.New("a").Subject("One").InReplyTo("b").Build(),
		recordtest.New("b").Subject("Two").InReplyTo("a").Build(),
	)
	total := 0
	for _, th := range threads {
		total += th.Size()
	}
	if total != 2 {
		t.Errorf("messages in threads = %d, want 2: %v", total, shape(threads))
	}
}

func sameSubject(n int, subject string) []*message.Record {
	recs := make([]*message.Record, n)
	for i := range recs {
		recs[i] = recordtest.New(fmt.Sprintf("m%d", i)).Subject(subject).Build()
	}
	return recs
}

func TestBuild_SplitsOversizedSubjectGroup(t *testing.T) {
	threads := build(t, DefaultSplitThreshold, sameSubject(10, "Daily report")...)
	if len(threads) != 10 {
		t.Fatalf("len(threads) = %d, want 10: %v", len(threads), shape(threads))
	}
	for i, th := range threads {
		if th.Subject != "Daily report" {
			t.Errorf("thread %d subject = %q", i, th.Subject)
		}
		if th.Root.Parent != nil || th.Size() != 1 {
			t.Errorf("thread %d not independent: %s", i, containerShape(th.Root))
		}
	}
}

func TestBuild_KeepsGroupBelowThreshold(t *testing.T) {
	threads := build(t, DefaultSplitThreshold, sameSubject(9, "Daily report")...)
	if len(threads) != 1 {
		t.Fatalf("len(threads) = %d, want 1", len(threads))
	}
	if threads[0].Subject != "Daily report" || threads[0].Size() != 9 || !threads[0].Root.IsDummy() {
		t.Errorf("thread = %s %q", containerShape(threads[0].Root), threads[0].Subject)
	}
}

func TestBuild_SplitDisabled(t *testing.T) {
	threads := build(t, 0, sameSubject(12, "Daily report")...)
	if len(threads) != 1 || threads[0].Size() != 12 {
		t.Errorf("shape = %v", shape(threads))
	}
}

func TestBuild_Deterministic(t *testing.T) {
	recs := func() []*message.Record {
		return []*message.Record{
			recordtest.New("a").Subject("Plan").Build(),
			recordtest.New("b").Subject("Re: Plan").References("a").Build(),
			recordtest.New("c").Subject("Re: Plan").References("zz").Build(),
			recordtest.New("d").Subject("Status").Build(),
			recordtest.New("e").Subject("Status").Build(),
			recordtest.New("f").Subject("Re: Gone").InReplyTo("missing").Build(),
			recordtest.New("g").Subject("Re: Gone").InReplyTo("missing").Build(),
		}
	}
	first := shape(build(t, DefaultSplitThreshold, recs()...))
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, shape(build(t, DefaultSplitThreshold, recs()...))); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestBuilder_NodesCountsSkipped(t *testing.T) {
	noID, err := message.Parse(email.NewMessage().Subject("x").Bytes())
	testutil.MustNoErr(t, err, "Parse")
	c := corpus.New([]*message.Record{recordtest.New("a").Build(), noID})

	nodes, skipped := NewBuilder().Nodes(c)
	if len(nodes) != 1 || skipped != 1 {
		t.Errorf("nodes=%d skipped=%d, want 1 and 1", len(nodes), skipped)
	}
}

func TestThread_Starter(t *testing.T) {
	threads := build(t, DefaultSplitThreshold,
		recordtest.New("a").Subject("Plan").At(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)).Build(),
		recordtest.New("b").Subject("Re: Plan").InReplyTo("a").At(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).Build(),
	)
	if got := threads[0].Starter(); got == nil || got.ID != "b" {
		t.Errorf("Starter = %v, want b", got)
	}
}

func TestThread_Lists(t *testing.T) {
	threads := build(t, DefaultSplitThreshold,
		recordtest.New("a").Subject("Plan").List("Go", "go.example.org").Build(),
		recordtest.New("b").Subject("Re: Plan").InReplyTo("a").List("Go", "go.example.org").Build(),
	)
	lists := threads[0].Lists()
	if len(lists) != 1 || lists[0].Email != "go.example.org" {
		t.Errorf("Lists = %v", lists)
	}
}
