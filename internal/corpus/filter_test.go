package corpus

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/source"
	"github.com/wesm/mailtrends/internal/testutil"
	"github.com/wesm/mailtrends/internal/testutil/recordtest"
)

func TestSelect(t *testing.T) {
	all := []string{"INBOX", "Archive", "Sent"}
	tests := []struct {
		name      string
		requested []string
		want      []string
	}{
		{"empty selects all", nil, []string{"INBOX", "Archive", "Sent"}},
		{"follows all order", []string{"Sent", "INBOX"}, []string{"INBOX", "Sent"}},
		{"unknown ignored", []string{"Nope"}, nil},
		{"exact match only", []string{"inbox"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Select(all, tt.requested)); diff != "" {
				t.Errorf("Select mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExclusionSet(t *testing.T) {
	all := []string{"INBOX", "Archive", "[Gmail]/Trash", "Work"}
	tests := []struct {
		name string
		spec string
		want []string
	}{
		{"empty spec keeps all", "", all},
		{"minus removes", "-INBOX,-Work", []string{"Archive", "[Gmail]/Trash"}},
		{"plus adds unknown", "-INBOX,-Archive,-Work,-[Gmail]/Trash,Extra", []string{"Extra"}},
		{"plus of existing is no-op", "Archive", all},
		{"whitespace and empties", " -INBOX , ,-Work ", []string{"Archive", "[Gmail]/Trash"}},
		{"both ways keeps name", "-Archive,Archive", all},
		{"both ways reversed", "Archive,-Archive", all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ExclusionSet(all, tt.spec)); diff != "" {
				t.Errorf("ExclusionSet(%q) mismatch (-want +got):\n%s", tt.spec, diff)
			}
		})
	}
}

func TestExclusionSet_OrderIndependent(t *testing.T) {
	all := []string{"A", "B", "C", "D"}
	specs := []string{
		"-A,-B,E,C,F",
		"F,-B,C,E,-A",
		"E,F,-A,C,-B",
		"C,-A,F,-B,E",
	}
	want := nameSet(ExclusionSet(all, specs[0]))
	for _, spec := range specs[1:] {
		got := nameSet(ExclusionSet(all, spec))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ExclusionSet(%q) differs from %q (-want +got):\n%s", spec, specs[0], diff)
		}
	}
	// (all - minus) + plus
	if diff := cmp.Diff(map[string]bool{"C": true, "D": true, "E": true, "F": true}, want); diff != "" {
		t.Errorf("set mismatch (-want +got):\n%s", diff)
	}
}

func nameSet(names []string) map[string]bool {
	return testutil.MakeSet(names...)
}

func trashScenario() *source.Memory {
	trash := recordtest.New("trash@x").Subject("deleted").Build()
	return source.NewMemory().
		Add("Inbox",
			recordtest.New("one@x").Build(),
			recordtest.New("two@x").Build(),
			recordtest.New("three@x").Build(),
			trash,
		).
		Add("[Gmail]/Trash", trash)
}

func TestFilterLabeled_DropsExcludedEvenIfDuplicated(t *testing.T) {
	ctx := context.Background()
	src := trashScenario()

	c, err := Load(ctx, src, LoadOptions{})
	testutil.MustNoErr(t, err, "Load")
	testutil.AssertStrings(t, ids(c), "one@x", "two@x", "three@x", "trash@x")

	filtered, err := FilterLabeled(ctx, c, src, "-Inbox,[Gmail]/Trash")
	testutil.MustNoErr(t, err, "FilterLabeled")
	testutil.AssertStrings(t, ids(filtered), "one@x", "two@x", "three@x")
	if _, ok := filtered.ByID("trash@x"); ok {
		t.Error("trash message survived label filtering")
	}
}

func TestFilterLabeled_EmptySpecIsNoop(t *testing.T) {
	ctx := context.Background()
	src := trashScenario()
	c, err := Load(ctx, src, LoadOptions{})
	testutil.MustNoErr(t, err, "Load")

	got, err := FilterLabeled(ctx, c, src, "  ")
	testutil.MustNoErr(t, err, "FilterLabeled")
	if got != c {
		t.Error("empty spec should return the input corpus")
	}
}

func TestFilterLabeled_SkipsUnknownMailbox(t *testing.T) {
	ctx := context.Background()
	src := trashScenario()
	c, err := Load(ctx, src, LoadOptions{})
	testutil.MustNoErr(t, err, "Load")

	got, err := FilterLabeled(ctx, c, src, "-Inbox,-[Gmail]/Trash,[Gmail]/Chats")
	testutil.MustNoErr(t, err, "FilterLabeled")
	if got.Len() != 4 {
		t.Errorf("Len = %d, want 4", got.Len())
	}
}

func TestParseContentFilter(t *testing.T) {
	f, err := ParseContentFilter(" From:NoReply , list:Announce,,to:bob ")
	testutil.MustNoErr(t, err, "ParseContentFilter")
	want := ContentFilter{
		{Op: OpFrom, Value: "noreply"},
		{Op: OpList, Value: "announce"},
		{Op: OpTo, Value: "bob"},
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	empty, err := ParseContentFilter("")
	testutil.MustNoErr(t, err, "ParseContentFilter empty")
	if len(empty) != 0 {
		t.Errorf("empty spec produced %v", empty)
	}
}

func TestParseContentFilter_Errors(t *testing.T) {
	tests := []struct {
		spec string
		want error
	}{
		{"subject:hello", ErrUnknownOperator},
		{"from:x,cc:y", ErrUnknownOperator},
		{"justtext", ErrMissingOperator},
		{"from:", ErrEmptyValue},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := ParseContentFilter(tt.spec)
			var fe *FilterError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want *FilterError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestContentFilter_Match(t *testing.T) {
	bob := recordtest.New("m@x").From("Bob", "bob@x.com").
		To("Carol", "carol@lists.example.org").
		List("Announcements", "announce.example.org").Build()
	none := recordtest.New("n@x").From("", "solo@x.com").Build()
	tests := []struct {
		spec string
		r    *message.Record
		want bool
	}{
		{"from:bob", bob, true},
		{"from:alice", bob, false},
		{"from:BOB", bob, true},
		{"from:x.com", bob, true},
		{"to:carol", bob, true},
		{"to:lists.example", bob, true},
		{"to:bob", bob, false},
		{"list:announce", bob, true},
		{"list:announcements", bob, true},
		{"from:alice,list:announce", bob, true},
		{"list:announce", none, false},
		{"to:anyone", none, false},
	}
	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.r.ID, func(t *testing.T) {
			f, err := ParseContentFilter(tt.spec)
			testutil.MustNoErr(t, err, "ParseContentFilter")
			if got := f.Match(tt.r); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterOut(t *testing.T) {
	c := New([]*message.Record{
		recordtest.New("a").From("Bob", "bob@x.com").Build(),
		recordtest.New("b").From("Alice", "alice@x.com").Build(),
	})
	f, err := ParseContentFilter("from:bob")
	testutil.MustNoErr(t, err, "ParseContentFilter")
	testutil.AssertStrings(t, ids(FilterOut(c, f)), "b")

	if FilterOut(c, nil) != c {
		t.Error("empty filter should return the input corpus")
	}
}

func TestFilterLabeled_KeepsMessagesWithoutMessageID(t *testing.T) {
	ctx := context.Background()
	anon := recordtest.New("sha256-0123456789ab@mailtrends.invalid").Subject("no id").Build()
	src := source.NewMemory().
		Add("INBOX", recordtest.New("a@x").Build(), anon).
		Add("Trash", anon)
	c, err := Load(ctx, src, LoadOptions{})
	testutil.MustNoErr(t, err, "Load")

	filtered, err := FilterLabeled(ctx, c, src, "Trash")
	testutil.MustNoErr(t, err, "FilterLabeled")
	if _, ok := filtered.ByID(anon.ID); !ok {
		t.Error("message without Message-ID was dropped by label filtering")
	}
}

func TestFilterLabeled_PlainTrashSpec(t *testing.T) {
	ctx := context.Background()
	src := trashScenario()
	c, err := Load(ctx, src, LoadOptions{})
	testutil.MustNoErr(t, err, "Load")

	filtered, err := FilterLabeled(ctx, c, src, "[Gmail]/Trash")
	testutil.MustNoErr(t, err, "FilterLabeled")
	if _, ok := filtered.ByID("trash@x"); ok {
		t.Error("trash message survived label filtering")
	}
}
