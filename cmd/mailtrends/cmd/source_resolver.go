package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/wesm/mailtrends/internal/config"
	"github.com/wesm/mailtrends/internal/emlx"
	"github.com/wesm/mailtrends/internal/imap"
	"github.com/wesm/mailtrends/internal/maildir"
	"github.com/wesm/mailtrends/internal/mbox"
	"github.com/wesm/mailtrends/internal/report"
	"github.com/wesm/mailtrends/internal/snapshot"
	"github.com/wesm/mailtrends/internal/source"
)

// openSource opens the configured source. When [report] record is set the
// source is wrapped so every fetch is also written to a snapshot file.
func openSource(c *config.Config, log *slog.Logger) (source.Source, error) {
	src, err := newSource(c, log)
	if err != nil {
		return nil, err
	}
	if c.Report.Record == "" {
		return src, nil
	}
	rec, err := snapshot.Record(src, c.Report.Record, snapshot.WithLogger(log))
	if err != nil {
		_ = src.Logout()
		return nil, err
	}
	log.Info("recording snapshot", "path", c.Report.Record)
	return rec, nil
}

func newSource(c *config.Config, log *slog.Logger) (source.Source, error) {
	switch c.Source.Type {
	case config.SourceIMAP:
		password, err := imapPassword(c)
		if err != nil {
			return nil, err
		}
		return imap.NewClient(&c.IMAP, password, imap.WithLogger(log)), nil
	case config.SourceMaildir:
		s, err := maildir.Open(c.Source.Path, maildir.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SourceEmlx:
		s, err := emlx.Open(c.Source.Path, emlx.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SourceMbox:
		s, err := mbox.Open(c.Source.Path, mbox.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SourceSnapshot:
		s, err := snapshot.Open(c.Source.Path, snapshot.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, &config.ConfigError{Field: "source.type", Msg: fmt.Sprintf("unknown type %q", c.Source.Type)}
	}
}

// imapPassword returns the stored password for the configured account,
// prompting for it when none is stored and stdin is a terminal.
func imapPassword(c *config.Config) (string, error) {
	identifier := c.IMAP.Identifier()
	password, err := imap.LoadCredentials(c.TokensDir(), identifier)
	if err == nil {
		return password, nil
	}
	if !errors.Is(err, imap.ErrNoCredentials) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", err
	}
	return promptPassword(c.IMAP.Username, c.IMAP.Host)
}

// promptPassword reads a password without echo. Passwords are never taken
// from flags so they stay out of shell history and process listings.
func promptPassword(username, host string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", username, host)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("password is required")
	}
	return string(raw), nil
}

// prepareConfig applies presets and validates c. No source is contacted
// before this succeeds.
func prepareConfig(c *config.Config) error {
	c.ApplyPresets()
	return c.Validate()
}

// reportOptions maps the validated configuration onto a pipeline run.
func reportOptions(c *config.Config, log *slog.Logger) (report.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return report.Options{}, err
	}
	rng, err := c.DateRange()
	if err != nil {
		return report.Options{}, err
	}
	split := c.Report.SplitThreshold
	if split <= 0 {
		split = -1
	}
	return report.Options{
		Mailboxes:      c.Filter.Mailboxes,
		FilterLabels:   c.LabelSpec(),
		FilterOut:      c.Filter.Out,
		Me:             c.Filter.Me,
		DetectMe:       c.Filter.DetectMe,
		DateRange:      rng,
		SplitThreshold: split,
		MaxMessages:    c.Report.MaxMessages,
		RandomSubset:   c.Report.RandomSubset,
		Seed:           c.Report.Seed,
		Top:            c.Report.Top,
		Location:       loc,
		Logger:         log,
	}, nil
}
