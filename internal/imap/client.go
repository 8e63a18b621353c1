package imap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	imap "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"
	"golang.org/x/time/rate"

	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/source"
)

// Option is a functional option for Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client is a read-only IMAP source. Mailboxes are opened with EXAMINE so
// flags are never changed.
type Client struct {
	config   *Config
	password string
	logger   *slog.Logger
	limiter  *rate.Limiter

	mu              sync.Mutex
	conn            *imapclient.Client
	selectedMailbox string
	mailboxCache    []string
}

var _ source.Source = (*Client)(nil)

// NewClient creates a new IMAP client. No connection is made until first use.
func NewClient(cfg *Config, password string, opts ...Option) *Client {
	qps := cfg.RateLimitQPS
	if qps <= 0 {
		qps = DefaultRateLimitQPS
	}
	c := &Client{
		config:   cfg,
		password: password,
		logger:   slog.Default(),
		limiter:  rate.NewLimiter(rate.Limit(qps), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Describe returns the server host for report titles.
func (c *Client) Describe() string {
	if at := strings.LastIndexByte(c.config.Username, '@'); at >= 0 {
		return c.config.Username[at+1:]
	}
	return c.config.Host
}

// connect establishes and authenticates the IMAP connection. Caller must hold mu.
func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := c.config.Addr()
	c.logger.Debug("connecting to IMAP server", "addr", addr, "tls", c.config.TLS, "starttls", c.config.STARTTLS)

	imapOpts := &imapclient.Options{}
	var (
		conn *imapclient.Client
		err  error
	)
	switch {
	case c.config.TLS:
		conn, err = imapclient.DialTLS(addr, imapOpts)
	case c.config.STARTTLS:
		conn, err = imapclient.DialStartTLS(addr, imapOpts)
	default:
		conn, err = imapclient.DialInsecure(addr, imapOpts)
	}
	if err != nil {
		return fmt.Errorf("dial IMAP %s: %w", addr, err)
	}

	if err := c.authenticate(conn); err != nil {
		_ = conn.Close()
		return err
	}

	c.conn = conn
	c.selectedMailbox = ""
	c.logger.Debug("connected and authenticated", "user", c.config.Username)
	return nil
}

// authenticate prefers SASL PLAIN when the server advertises it and falls
// back to LOGIN.
func (c *Client) authenticate(conn *imapclient.Client) error {
	if conn.Caps().Has(imap.Cap("AUTH=PLAIN")) {
		if err := conn.Authenticate(sasl.NewPlainClient("", c.config.Username, c.password)); err != nil {
			return fmt.Errorf("IMAP AUTHENTICATE PLAIN: %w", err)
		}
		return nil
	}
	if err := conn.Login(c.config.Username, c.password).Wait(); err != nil {
		return fmt.Errorf("IMAP login: %w", err)
	}
	return nil
}

// withConn runs fn with the active connection, connecting if necessary.
// It holds the mutex for the duration of fn.
func (c *Client) withConn(ctx context.Context, fn func(*imapclient.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connect(ctx); err != nil {
		return err
	}
	return fn(c.conn)
}

// ListMailboxes returns all selectable mailboxes, caching the result.
func (c *Client) ListMailboxes(ctx context.Context) ([]string, error) {
	var names []string
	err := c.withConn(ctx, func(conn *imapclient.Client) error {
		if c.mailboxCache != nil {
			names = c.mailboxCache
			return nil
		}
		items, err := conn.List("", "*", nil).Collect()
		if err != nil {
			return fmt.Errorf("LIST: %w", err)
		}
		for _, item := range items {
			if hasAttr(item.Attrs, imap.MailboxAttrNoSelect) || hasAttr(item.Attrs, imap.MailboxAttrNonExistent) {
				continue
			}
			names = append(names, item.Mailbox)
		}
		c.mailboxCache = names
		return nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), names...), nil
}

// hasAttr checks whether attr is in the attrs list.
func hasAttr(attrs []imap.MailboxAttr, attr imap.MailboxAttr) bool {
	for _, a := range attrs {
		if a == attr {
			return true
		}
	}
	return false
}

// SelectMailbox opens mailbox read-only.
func (c *Client) SelectMailbox(ctx context.Context, mailbox string) error {
	return c.withConn(ctx, func(conn *imapclient.Client) error {
		if c.selectedMailbox == mailbox {
			return nil
		}
		data, err := conn.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait()
		if err != nil {
			c.selectedMailbox = ""
			return fmt.Errorf("EXAMINE %q: %w", mailbox, err)
		}
		c.selectedMailbox = mailbox
		c.logger.Debug("selected mailbox", "mailbox", mailbox, "messages", data.NumMessages)
		return nil
	})
}

// searchAll returns every UID of the selected mailbox. Caller must hold mu.
func (c *Client) searchAll(conn *imapclient.Client) ([]imap.UID, error) {
	if c.selectedMailbox == "" {
		return nil, source.ErrNoMailboxSelected
	}
	searchData, err := conn.UIDSearch(&imap.SearchCriteria{}, &imap.SearchOptions{ReturnAll: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("UID SEARCH in %q: %w", c.selectedMailbox, err)
	}
	uidSet, ok := searchData.All.(imap.UIDSet)
	if !ok {
		return nil, nil
	}
	uids, _ := uidSet.Nums()
	return uids, nil
}

// fetchHeaders runs UID FETCH over uids in paced batches, calling fn for
// each returned message. Caller must hold mu.
func (c *Client) fetchHeaders(ctx context.Context, conn *imapclient.Client, uids []imap.UID, section *imap.FetchItemBodySection, fn func(*imapclient.FetchMessageBuffer)) error {
	opts := &imap.FetchOptions{
		UID:          true,
		InternalDate: true,
		RFC822Size:   true,
		BodySection:  []*imap.FetchItemBodySection{section},
	}
	for _, batch := range uidBatches(uids, c.batchSize()) {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		var set imap.UIDSet
		set.AddNum(batch...)
		msgs, err := conn.Fetch(set, opts).Collect()
		if err != nil {
			return fmt.Errorf("UID FETCH in %q: %w", c.selectedMailbox, err)
		}
		for _, m := range msgs {
			fn(m)
		}
	}
	return nil
}

func (c *Client) batchSize() int {
	if c.config.BatchSize > 0 {
		return c.config.BatchSize
	}
	return DefaultBatchSize
}

// uidBatches splits uids into consecutive slices of at most n.
func uidBatches(uids []imap.UID, n int) [][]imap.UID {
	var out [][]imap.UID
	for len(uids) > 0 {
		k := min(n, len(uids))
		out = append(out, uids[:k])
		uids = uids[k:]
	}
	return out
}

func sectionBytes(m *imapclient.FetchMessageBuffer) []byte {
	if len(m.BodySection) == 0 {
		return nil
	}
	return m.BodySection[0].Bytes
}

// ListMessageIDs fetches only the Message-ID header of each message.
func (c *Client) ListMessageIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := c.withConn(ctx, func(conn *imapclient.Client) error {
		uids, err := c.searchAll(conn)
		if err != nil {
			return err
		}
		section := &imap.FetchItemBodySection{
			Specifier:    imap.PartSpecifierHeader,
			HeaderFields: []string{"Message-ID"},
			Peek:         true,
		}
		return c.fetchHeaders(ctx, conn, uids, section, func(m *imapclient.FetchMessageBuffer) {
			rec, err := message.Parse(sectionBytes(m), message.WithMode(message.SkipDates))
			if err != nil || message.IsSynthetic(rec.ID) {
				return
			}
			ids = append(ids, rec.ID)
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListMessageInfos fetches the header block, size and internal date of every
// message in the selected mailbox.
func (c *Client) ListMessageInfos(ctx context.Context, mode message.ParseMode) ([]*message.Record, error) {
	var recs []*message.Record
	err := c.withConn(ctx, func(conn *imapclient.Client) error {
		uids, err := c.searchAll(conn)
		if err != nil {
			return err
		}
		c.logger.Debug("fetching headers", "mailbox", c.selectedMailbox, "messages", len(uids))
		section := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierHeader, Peek: true}
		return c.fetchHeaders(ctx, conn, uids, section, func(m *imapclient.FetchMessageBuffer) {
			header := sectionBytes(m)
			rec, err := message.Parse(header,
				message.WithSize(m.RFC822Size),
				message.WithFallbackDate(m.InternalDate),
				message.WithMode(mode),
			)
			if err != nil {
				c.logger.Warn("skipping unreadable message", "mailbox", c.selectedMailbox, "uid", m.UID, "error", err)
				return
			}
			recs = append(recs, rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Logout logs out and disconnects from the IMAP server.
func (c *Client) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	c.selectedMailbox = ""
	c.mailboxCache = nil
	return conn.Logout().Wait()
}
