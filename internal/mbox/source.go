package mbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/source"
)

// Source serves one mailbox per mbox file.
type Source struct {
	root     string
	names    []string
	files    map[string]string
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

// Open opens path, which is either a single mbox file or a directory holding
// *.mbox and *.mbx files. Mailboxes are named after the file without its
// extension.
func Open(path string, opts ...Option) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox source: %w", err)
	}
	s := &Source{root: path, files: make(map[string]string), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	var paths []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read mbox directory: %w", err)
		}
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".mbox" || ext == ".mbx") {
				paths = append(paths, filepath.Join(path, e.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if _, dup := s.files[name]; dup {
			name = filepath.Base(p)
		}
		s.names = append(s.names, name)
		s.files[name] = p
	}
	return s, nil
}

// Describe implements source.Describer.
func (s *Source) Describe() string { return filepath.Base(s.root) }

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
	if _, ok := s.files[name]; !ok {
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

// scan reads the selected file sequentially and parses the header blocks in
// parallel.
func (s *Source) scan(ctx context.Context, mode message.ParseMode) ([]*message.Record, error) {
	if s.selected == "" {
		return nil, source.ErrNoMailboxSelected
	}
	path := s.files[s.selected]
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox %s: %w", path, err)
	}
	defer f.Close()

	var entries []*Entry
	r := NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read mbox %s: %w", path, err)
		}
		entries = append(entries, e)
	}
	s.logger.Debug("read mbox", "mailbox", s.selected, "messages", len(entries))

	return source.ParseParallel(ctx, len(entries), func(_ context.Context, i int) (*message.Record, error) {
		e := entries[i]
		return message.Parse(e.Header,
			message.WithSize(e.Size),
			message.WithFallbackDate(e.Date),
			message.WithMode(mode),
		)
	}, s.logger)
}

// Logout releases nothing; mbox files are opened per scan.
func (s *Source) Logout() error {
	s.selected = ""
	return nil
}
