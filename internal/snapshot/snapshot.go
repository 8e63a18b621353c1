// Package snapshot records what a Source returns into a SQLite file and
// replays it later as a Source, so report runs can be repeated without
// refetching a mailbox.
package snapshot

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/wesm/mailtrends/internal/fileutil"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/source"
)

//go:embed schema.sql
var schemaFS embed.FS

const (
	recordParams = "?_busy_timeout=5000"
	metaHost     = "host"
)

// Option configures a Recorder or a replaying Source.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Recorder is a Source that forwards to another Source and writes every
// answer to a snapshot file.
type Recorder struct {
	src      source.Source
	db       *sql.DB
	path     string
	selected string
	logger   *slog.Logger
	closed   bool
}

var _ source.Source = (*Recorder)(nil)

// Record creates a new snapshot at path, replacing any existing file, and
// returns a Recorder wrapping src. Logout closes the file.
func Record(src source.Source, path string, opts ...Option) (*Recorder, error) {
	o := buildOptions(opts)
	if err := fileutil.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove old snapshot: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+recordParams)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot schema: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, metaHost, source.Describe(src)); err != nil {
		db.Close()
		return nil, fmt.Errorf("write snapshot meta: %w", err)
	}
	return &Recorder{src: src, db: db, path: path, logger: o.logger}, nil
}

// Describe implements source.Describer.
func (r *Recorder) Describe() string { return source.Describe(r.src) }

func (r *Recorder) ListMailboxes(ctx context.Context) ([]string, error) {
	names, err := r.src.ListMailboxes(ctx)
	if err != nil {
		return nil, err
	}
	err = withTx(r.db, func(tx *sql.Tx) error {
		for _, name := range names {
			if err := addMailbox(tx, name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record mailboxes: %w", err)
	}
	return names, nil
}

func addMailbox(tx *sql.Tx, name string) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO mailboxes (position, name)
		VALUES ((SELECT COALESCE(MAX(position), -1) + 1 FROM mailboxes), ?)`, name)
	return err
}

func (r *Recorder) SelectMailbox(ctx context.Context, name string) error {
	if err := r.src.SelectMailbox(ctx, name); err != nil {
		return err
	}
	r.selected = name
	err := withTx(r.db, func(tx *sql.Tx) error { return addMailbox(tx, name) })
	if err != nil {
		return fmt.Errorf("record mailbox %q: %w", name, err)
	}
	return nil
}

func (r *Recorder) ListMessageIDs(ctx context.Context) ([]string, error) {
	ids, err := r.src.ListMessageIDs(ctx)
	if err != nil {
		return nil, err
	}
	err = withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM message_ids WHERE mailbox = ?`, r.selected); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`INSERT INTO message_ids (mailbox, position, message_id) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, id := range ids {
			if _, err := stmt.Exec(r.selected, i, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record message ids for %q: %w", r.selected, err)
	}
	return ids, nil
}

func (r *Recorder) ListMessageInfos(ctx context.Context, mode message.ParseMode) ([]*message.Record, error) {
	recs, err := r.src.ListMessageInfos(ctx, mode)
	if err != nil {
		return nil, err
	}
	err = withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM records WHERE mailbox = ?`, r.selected); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO records (mailbox, position, message_id, header, size, fallback_date)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, rec := range recs {
			var fallback sql.NullInt64
			if t := rec.FallbackDate(); !t.IsZero() {
				fallback = sql.NullInt64{Int64: t.UnixNano(), Valid: true}
			}
			if _, err := stmt.Exec(r.selected, i, rec.ID, rec.Header, rec.Size, fallback); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record messages for %q: %w", r.selected, err)
	}
	r.logger.Debug("recorded mailbox", "mailbox", r.selected, "messages", len(recs), "path", r.path)
	return recs, nil
}

// Logout logs out of the wrapped source and closes the snapshot file.
func (r *Recorder) Logout() error {
	err := r.src.Logout()
	if !r.closed {
		r.closed = true
		if cerr := r.db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close snapshot: %w", cerr)
		}
	}
	return err
}

// Replay is a Source serving a recorded snapshot.
type Replay struct {
	*source.Memory
	ids      map[string][]string
	selected string
}

var _ source.Source = (*Replay)(nil)

// Open loads the snapshot at path. Records whose header no longer parses
// are skipped with a warning.
func Open(path string, opts ...Option) (*Replay, error) {
	o := buildOptions(opts)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	rp := &Replay{Memory: source.NewMemory(), ids: make(map[string][]string)}
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaHost).Scan(&rp.Label); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read snapshot meta: %w", err)
	}
	if err := rp.loadMailboxes(db); err != nil {
		return nil, err
	}
	if err := rp.loadIDs(db); err != nil {
		return nil, err
	}
	if err := rp.loadRecords(db, o.logger); err != nil {
		return nil, err
	}
	return rp, nil
}

func (rp *Replay) loadMailboxes(db *sql.DB) error {
	rows, err := db.Query(`SELECT name FROM mailboxes ORDER BY position`)
	if err != nil {
		return fmt.Errorf("read snapshot mailboxes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan mailbox: %w", err)
		}
		rp.Add(name)
	}
	return rows.Err()
}

func (rp *Replay) loadIDs(db *sql.DB) error {
	rows, err := db.Query(`SELECT mailbox, message_id FROM message_ids ORDER BY mailbox, position`)
	if err != nil {
		return fmt.Errorf("read snapshot message ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mailbox, id string
		if err := rows.Scan(&mailbox, &id); err != nil {
			return fmt.Errorf("scan message id: %w", err)
		}
		rp.ids[mailbox] = append(rp.ids[mailbox], id)
	}
	return rows.Err()
}

func (rp *Replay) loadRecords(db *sql.DB, logger *slog.Logger) error {
	rows, err := db.Query(`
		SELECT mailbox, message_id, header, size, fallback_date
		FROM records ORDER BY mailbox, position`)
	if err != nil {
		return fmt.Errorf("read snapshot records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			mailbox, id string
			header      []byte
			size        int64
			fallback    sql.NullInt64
		)
		if err := rows.Scan(&mailbox, &id, &header, &size, &fallback); err != nil {
			return fmt.Errorf("scan record: %w", err)
		}
		var fb time.Time
		if fallback.Valid {
			fb = time.Unix(0, fallback.Int64).UTC()
		}
		rec, err := message.Parse(header,
			message.WithSize(size),
			message.WithFallbackDate(fb),
			message.WithMode(message.SkipDates),
		)
		if err != nil {
			logger.Warn("skipping unreadable snapshot record", "mailbox", mailbox, "id", id, "error", err)
			continue
		}
		rec.ID = id
		rp.Add(mailbox, rec)
	}
	return rows.Err()
}

func (rp *Replay) SelectMailbox(ctx context.Context, name string) error {
	if err := rp.Memory.SelectMailbox(ctx, name); err != nil {
		return err
	}
	rp.selected = name
	return nil
}

// ListMessageIDs returns the recorded id list of the selected mailbox, or
// the ids of its recorded messages when only those were captured.
func (rp *Replay) ListMessageIDs(ctx context.Context) ([]string, error) {
	if ids, ok := rp.ids[rp.selected]; ok && rp.selected != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if !message.IsSynthetic(id) {
				out = append(out, id)
			}
		}
		return out, nil
	}
	return rp.Memory.ListMessageIDs(ctx)
}

func (rp *Replay) Logout() error {
	rp.selected = ""
	return rp.Memory.Logout()
}
