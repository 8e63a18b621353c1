// Package thread reconstructs conversations from message headers using the
// JWZ algorithm, with a correction that splits oversized subject-only groups.
package thread

import (
	"bufio"
	"bytes"
	"errors"
	"strings"

	gomessage "github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/textutil"
)

// ErrUnparseable is returned by NewNode when no Message-ID can be determined.
var ErrUnparseable = errors.New("unparseable message headers")

// Node is the threading view of one message.
type Node struct {
	Record     *message.Record
	ID         string
	Subject    string
	References []string
}

// NewNode parses the record's raw header block. The Message-ID falls back to
// the record ID unless that ID is synthetic; the subject falls back to the
// record subject.
func NewNode(r *message.Record) (*Node, error) {
	if r == nil {
		return nil, ErrUnparseable
	}
	n := &Node{Record: r, Subject: r.Subject}

	var h mail.Header
	if len(r.Header) > 0 {
		th, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(message.TerminateHeader(r.Header))))
		if err == nil {
			h = mail.Header{Header: gomessage.Header{Header: th}}
		}
	}

	if id, err := h.MessageID(); err == nil && id != "" {
		n.ID = id
	} else if id := lenientIDs(h.Get("Message-Id")); len(id) > 0 {
		n.ID = id[0]
	} else if r.ID != "" && !message.IsSynthetic(r.ID) {
		n.ID = r.ID
	}
	if n.ID == "" {
		return nil, ErrUnparseable
	}

	if s, err := h.Subject(); err == nil && s != "" {
		n.Subject = textutil.CleanHeader(s)
	}

	refs := msgIDList(h, "References")
	if irt := msgIDList(h, "In-Reply-To"); len(irt) > 0 {
		if len(refs) == 0 || refs[len(refs)-1] != irt[0] {
			refs = append(refs, irt[0])
		}
	}
	n.References = dropID(refs, n.ID)
	return n, nil
}

// msgIDList reads a list of message ids, falling back to whitespace splitting
// for headers the strict parser rejects.
func msgIDList(h mail.Header, key string) []string {
	if h.Header.Header.Len() == 0 {
		return nil
	}
	ids, err := h.MsgIDList(key)
	if err == nil {
		return ids
	}
	return lenientIDs(h.Get(key))
}

func lenientIDs(v string) []string {
	var out []string
	for _, f := range strings.Fields(v) {
		f = strings.Trim(f, "<>,")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// dropID removes self references and repeated ids, keeping the first occurrence.
func dropID(refs []string, self string) []string {
	seen := map[string]bool{self: true}
	out := refs[:0]
	for _, id := range refs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
