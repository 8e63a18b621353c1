package maildir

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/source"
)

const maxHeaderBytes = 1 << 20

// Source serves the folders of a maildir tree.
type Source struct {
	root     string
	folders  []Folder
	selected *Folder
	logger   *slog.Logger
}

var _ source.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// Open discovers the folders under root.
func Open(root string, opts ...Option) (*Source, error) {
	folders, err := Discover(root)
	if err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("maildir: no folders found under %q", root)
	}
	s := &Source{root: root, folders: folders, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Describe implements source.Describer.
func (s *Source) Describe() string { return filepath.Base(filepath.Clean(s.root)) }

func (s *Source) ListMailboxes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := make([]string, len(s.folders))
	for i, f := range s.folders {
		names[i] = f.Name
	}
	return names, nil
}

func (s *Source) SelectMailbox(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range s.folders {
		if s.folders[i].Name == name {
			s.selected = &s.folders[i]
			return nil
		}
	}
	return fmt.Errorf("select %q: %w", name, source.ErrNoSuchMailbox)
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
	if s.selected == nil {
		return nil, source.ErrNoMailboxSelected
	}
	files, err := listMessages(s.selected.Path)
	if err != nil {
		return nil, fmt.Errorf("maildir %s: %w", s.selected.Name, err)
	}
	s.logger.Debug("scanning maildir", "mailbox", s.selected.Name, "files", len(files))
	return source.ParseParallel(ctx, len(files), func(_ context.Context, i int) (*message.Record, error) {
		return readMessage(files[i], mode)
	}, s.logger)
}

// Logout forgets the selected folder.
func (s *Source) Logout() error {
	s.selected = nil
	return nil
}

// readMessage parses the header block of one message file. The size comes
// from the ",S=" filename field when present, else from the file. The file's
// modification time is the delivery date fallback.
func readMessage(path string, mode message.ParseMode) (*message.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	header, err := readHeader(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	size, ok := SizeFromName(filepath.Base(path))
	if !ok {
		size = info.Size()
	}
	return message.Parse(header,
		message.WithSize(size),
		message.WithFallbackDate(info.ModTime()),
		message.WithMode(mode),
	)
}

func readHeader(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	var buf bytes.Buffer
	for buf.Len() < maxHeaderBytes {
		line, err := br.ReadBytes('\n')
		buf.Write(line)
		if len(bytes.TrimRight(line, "\r\n")) == 0 && len(line) > 0 {
			break
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// SizeFromName extracts the Maildir++ ",S=<size>" field from a file name
// such as "1700000000.M1P2.host,S=2048:2,S".
func SizeFromName(name string) (int64, bool) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	for _, field := range strings.Split(name, ",")[1:] {
		if v, ok := strings.CutPrefix(field, "S="); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err == nil && n >= 0 {
				return n, true
			}
		}
	}
	return 0, false
}
