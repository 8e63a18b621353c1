package source

import (
	"context"
	"errors"
	"testing"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/testutil"
	"github.com/wesm/mailtrends/internal/testutil/recordtest"
)

func TestMemory_ListAndSelect(t *testing.T) {
	ctx := context.Background()
	m := NewMemory().
		Add("INBOX", recordtest.New("a@x").Build(), recordtest.New("b@x").Build()).
		Add("Archive", recordtest.New("c@x").Build())

	names, err := m.ListMailboxes(ctx)
	testutil.MustNoErr(t, err, "ListMailboxes")
	testutil.AssertStrings(t, names, "INBOX", "Archive")

	if _, err := m.ListMessageIDs(ctx); !errors.Is(err, ErrNoMailboxSelected) {
		t.Fatalf("ListMessageIDs before select: err = %v, want ErrNoMailboxSelected", err)
	}

	testutil.MustNoErr(t, m.SelectMailbox(ctx, "INBOX"), "SelectMailbox")
	ids, err := m.ListMessageIDs(ctx)
	testutil.MustNoErr(t, err, "ListMessageIDs")
	testutil.AssertStrings(t, ids, "a@x", "b@x")

	if err := m.SelectMailbox(ctx, "Nope"); !errors.Is(err, ErrNoSuchMailbox) {
		t.Fatalf("SelectMailbox(Nope) err = %v, want ErrNoSuchMailbox", err)
	}
}

func TestMemory_ListMessageIDsSkipsSynthetic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory().Add("INBOX",
		recordtest.New("a@x").Build(),
		recordtest.New("sha256-0123456789ab@mailtrends.invalid").Build(),
	)
	testutil.MustNoErr(t, m.SelectMailbox(ctx, "INBOX"), "SelectMailbox")
	ids, err := m.ListMessageIDs(ctx)
	testutil.MustNoErr(t, err, "ListMessageIDs")
	testutil.AssertStrings(t, ids, "a@x")
}

func TestMemory_InfosAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory().Add("INBOX", recordtest.New("a@x").Build())
	testutil.MustNoErr(t, m.SelectMailbox(ctx, "INBOX"), "SelectMailbox")

	first, err := m.ListMessageInfos(ctx, message.SkipDates)
	testutil.MustNoErr(t, err, "ListMessageInfos")
	first[0].AddMailbox("INBOX")
	first[0].FromMe = true

	second, err := m.ListMessageInfos(ctx, message.SkipDates)
	testutil.MustNoErr(t, err, "ListMessageInfos")
	if second[0].FromMe || len(second[0].Mailboxes()) != 0 {
		t.Errorf("stored record was mutated through a returned copy")
	}
}

func TestMemory_Logout(t *testing.T) {
	m := NewMemory()
	_ = m.Logout()
	_ = m.Logout()
	if m.Logouts() != 2 {
		t.Errorf("Logouts() = %d, want 2", m.Logouts())
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().ListMailboxes(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDescribe(t *testing.T) {
	m := NewMemory()
	m.Label = "imap.example.com"
	if got := Describe(m); got != "imap.example.com" {
		t.Errorf("Describe = %q", got)
	}
}
