package source

import (
	"context"
	"fmt"

	"github.com/wesm/mailtrends/internal/message"
)

// Memory is an in-memory Source. Mailboxes are kept in insertion order.
type Memory struct {
	Label string

	names    []string
	boxes    map[string][]*message.Record
	selected string
	logouts  int
}

// NewMemory returns an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{boxes: make(map[string][]*message.Record)}
}

// Add appends records to mailbox name, creating it if needed.
func (m *Memory) Add(name string, records ...*message.Record) *Memory {
	if _, ok := m.boxes[name]; !ok {
		m.names = append(m.names, name)
		m.boxes[name] = nil
	}
	m.boxes[name] = append(m.boxes[name], records...)
	return m
}

// Logouts returns how many times Logout was called.
func (m *Memory) Logouts() int { return m.logouts }

// Describe implements Describer.
func (m *Memory) Describe() string { return m.Label }

func (m *Memory) ListMailboxes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), m.names...), nil
}

func (m *Memory) SelectMailbox(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := m.boxes[name]; !ok {
		return fmt.Errorf("select %q: %w", name, ErrNoSuchMailbox)
	}
	m.selected = name
	return nil
}

func (m *Memory) ListMessageIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.selected == "" {
		return nil, ErrNoMailboxSelected
	}
	return IDs(m.boxes[m.selected]), nil
}

// ListMessageInfos returns fresh copies so callers can tag and annotate
// records without mutating the stored mailbox.
func (m *Memory) ListMessageInfos(ctx context.Context, mode message.ParseMode) ([]*message.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.selected == "" {
		return nil, ErrNoMailboxSelected
	}
	recs := m.boxes[m.selected]
	out := make([]*message.Record, 0, len(recs))
	for _, r := range recs {
		c := r.Clone()
		if mode == message.ParseDates {
			c.Date()
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) Logout() error {
	m.logouts++
	m.selected = ""
	return nil
}
