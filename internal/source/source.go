// Package source defines the capability every mail backend implements so the
// pipeline can enumerate mailboxes and fetch per-message metadata.
package source

import (
	"context"
	"errors"

	"github.com/wesm/mailtrends/internal/message"
)

// ErrNoMailboxSelected is returned by message listing calls made before a
// successful SelectMailbox.
var ErrNoMailboxSelected = errors.New("no mailbox selected")

// ErrNoSuchMailbox is returned by SelectMailbox for an unknown mailbox name.
var ErrNoSuchMailbox = errors.New("no such mailbox")

// Source is a mail backend: a remote IMAP account, a maildir tree, an Apple
// Mail package, an mbox file, or a recorded snapshot.
//
// Calls are not safe for concurrent use; a Source tracks one selected mailbox.
type Source interface {
	// ListMailboxes returns selectable mailbox names in server order.
	ListMailboxes(ctx context.Context) ([]string, error)
	// SelectMailbox makes name the current mailbox.
	SelectMailbox(ctx context.Context, name string) error
	// ListMessageIDs returns the Message-IDs in the current mailbox.
	// Messages without a Message-ID header are left out.
	ListMessageIDs(ctx context.Context) ([]string, error)
	// ListMessageInfos returns one record per message in the current mailbox.
	ListMessageInfos(ctx context.Context, mode message.ParseMode) ([]*message.Record, error)
	// Logout releases the backend. It is safe to call more than once.
	Logout() error
}

// Describer is implemented by sources that can name themselves for report
// titles (an IMAP host, a directory path).
type Describer interface {
	Describe() string
}

// Describe returns a human-readable label for src, or "" if it has none.
func Describe(src Source) string {
	if d, ok := src.(Describer); ok {
		return d.Describe()
	}
	return ""
}
