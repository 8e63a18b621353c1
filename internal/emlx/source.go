package emlx

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/source"
)

// Source serves the mailboxes of an Apple Mail tree. Mailboxes with the same
// name in different accounts are served as one.
type Source struct {
	root     string
	names    []string
	boxes    map[string][]Mailbox
	selected string
	logger   *slog.Logger
}

var _ source.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// Open discovers the mailboxes under root.
func Open(root string, opts ...Option) (*Source, error) {
	mailboxes, err := Discover(root)
	if err != nil {
		return nil, err
	}
	if len(mailboxes) == 0 {
		return nil, fmt.Errorf("emlx: no mailboxes found under %q", root)
	}
	s := &Source{root: root, boxes: make(map[string][]Mailbox), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	for _, mb := range mailboxes {
		if _, ok := s.boxes[mb.Name]; !ok {
			s.names = append(s.names, mb.Name)
		}
		s.boxes[mb.Name] = append(s.boxes[mb.Name], mb)
	}
	return s, nil
}

// Describe implements source.Describer.
func (s *Source) Describe() string { return filepath.Base(filepath.Clean(s.root)) }

func (s *Source) ListMailboxes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), s.names...), nil
}

func (s *Source) SelectMailbox(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.boxes[name]; !ok {
		return fmt.Errorf("select %q: %w", name, source.ErrNoSuchMailbox)
	}
	s.selected = name
	return nil
}

func (s *Source) ListMessageIDs(ctx context.Context) ([]string, error) {
	recs, err := s.scan(ctx, message.SkipDates)
	if err != nil {
		return nil, err
	}
	return source.IDs(recs), nil
}

func (s *Source) ListMessageInfos(ctx context.Context, mode message.ParseMode) ([]*message.Record, error) {
	return s.scan(ctx, mode)
}

func (s *Source) scan(ctx context.Context, mode message.ParseMode) ([]*message.Record, error) {
	if s.selected == "" {
		return nil, source.ErrNoMailboxSelected
	}
	var paths []string
	for _, mb := range s.boxes[s.selected] {
		for _, f := range mb.Files {
			paths = append(paths, filepath.Join(mb.MsgDir, f))
		}
	}
	s.logger.Debug("scanning emlx mailbox", "mailbox", s.selected, "files", len(paths))
	return source.ParseParallel(ctx, len(paths), func(_ context.Context, i int) (*message.Record, error) {
		msg, err := ParseFile(paths[i])
		if err != nil {
			return nil, err
		}
		return message.Parse(message.HeaderBlock(msg.Raw),
			message.WithSize(int64(len(msg.Raw))),
			message.WithFallbackDate(msg.PlistDate),
			message.WithMode(mode),
		)
	}, s.logger)
}

// Logout forgets the selected mailbox.
func (s *Source) Logout() error {
	s.selected = ""
	return nil
}
