// Package config loads the mailtrends configuration file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wesm/mailtrends/internal/imap"
	"github.com/wesm/mailtrends/internal/message"
	"github.com/wesm/mailtrends/internal/scheduler"
)

// Source types.
const (
	SourceIMAP     = "imap"
	SourceMaildir  = "maildir"
	SourceEmlx     = "emlx"
	SourceMbox     = "mbox"
	SourceSnapshot = "snapshot"
)

// SourceTypes lists the accepted [source] type values.
var SourceTypes = []string{SourceIMAP, SourceMaildir, SourceEmlx, SourceMbox, SourceSnapshot}

// ReportFormats lists the accepted [report] format values.
var ReportFormats = []string{"html", "text", "json"}

// DateLayout is the layout of [report] start and end.
const DateLayout = "2006-01-02"

// ConfigError is a problem with one configuration field. It is reported
// before any mailbox is contacted.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// SourceConfig selects the mail backend.
type SourceConfig struct {
	Type string `toml:"type"`
	Path string `toml:"path"` // maildir, emlx, mbox and snapshot
	// Gmail applies the Gmail IMAP preset.
	Gmail bool `toml:"gmail"`
}

// FilterConfig narrows the corpus.
type FilterConfig struct {
	Mailboxes []string `toml:"mailboxes"`
	// Labels is the label exclusion spec, e.g. "-Archive,Spam".
	Labels string `toml:"labels"`
	// Out is the content filter, e.g. "from:noreply,list:announce".
	Out      string   `toml:"out"`
	Me       []string `toml:"me"`
	DetectMe bool     `toml:"detect_me"`
}

// ReportConfig controls the statistics and their output.
type ReportConfig struct {
	Output string `toml:"output"`
	Format string `toml:"format"`
	// SplitThreshold is the child count at which a subject-merged thread is
	// split apart. Zero or less disables splitting.
	SplitThreshold int    `toml:"split_threshold"`
	Start          string `toml:"start"`
	End            string `toml:"end"`
	Top            int    `toml:"top"`
	Timezone       string `toml:"timezone"`

	// Development options.
	MaxMessages  int    `toml:"max_messages"`
	RandomSubset bool   `toml:"random_subset"`
	Seed         uint64 `toml:"seed"`
	Record       string `toml:"record"`
}

// ServerConfig holds HTTP report server configuration.
type ServerConfig struct {
	APIPort  int    `toml:"api_port"`
	BindAddr string `toml:"bind_addr"`
	APIKey   string `toml:"api_key"`
	// RefreshSchedule is a cron expression; empty disables scheduled refreshes.
	RefreshSchedule string `toml:"refresh_schedule"`
	// RateLimitRPS is the per-client request rate.
	RateLimitRPS float64 `toml:"rate_limit_rps"`
	// AllowInsecure permits a non-loopback bind without an API key.
	AllowInsecure bool `toml:"allow_insecure"`
}

// IsLoopback reports whether BindAddr only accepts local connections.
// An empty address means the default loopback bind.
func (s ServerConfig) IsLoopback() bool {
	switch s.BindAddr {
	case "", "localhost":
		return true
	}
	ip := net.ParseIP(s.BindAddr)
	return ip != nil && ip.IsLoopback()
}

// ValidateSecure refuses to expose POST /refresh beyond the local host
// without an API key.
func (s ServerConfig) ValidateSecure() error {
	if s.IsLoopback() || s.APIKey != "" || s.AllowInsecure {
		return nil
	}
	return invalid("server.api_key", "required when binding to %s (or set allow_insecure)", s.BindAddr)
}

// Config is the whole configuration file.
type Config struct {
	Source SourceConfig `toml:"source"`
	IMAP   imap.Config  `toml:"imap"`
	Filter FilterConfig `toml:"filter"`
	Report ReportConfig `toml:"report"`
	Server ServerConfig `toml:"server"`

	// HomeDir is computed, not read from the file.
	HomeDir string `toml:"-"`
}

// DefaultHome returns the default home directory, honoring MAILTRENDS_HOME.
func DefaultHome() string {
	if h := os.Getenv("MAILTRENDS_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mailtrends"
	}
	return filepath.Join(home, ".mailtrends")
}

// Default returns the configuration used when no file is present.
func Default(homeDir string) *Config {
	return &Config{
		HomeDir: homeDir,
		IMAP:    imap.Config{TLS: true},
		Report: ReportConfig{
			Format:         "text",
			SplitThreshold: 10,
		},
		Server: ServerConfig{
			APIPort:      8080,
			BindAddr:     "127.0.0.1",
			RateLimitRPS: 5,
		},
	}
}

// Load reads the configuration file at path. homeDir overrides the home
// directory; empty means DefaultHome. An empty path means config.toml in
// the home directory, and a missing default file yields the defaults. A
// path given explicitly must exist.
func Load(path, homeDir string) (*Config, error) {
	if homeDir == "" {
		homeDir = DefaultHome()
	}
	homeDir = expandPath(homeDir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(homeDir, "config.toml")
	}
	path = expandPath(path)

	cfg := Default(homeDir)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("config file: %w", err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Source.Path = expandPath(cfg.Source.Path)
	cfg.Report.Output = expandPath(cfg.Report.Output)
	cfg.Report.Record = expandPath(cfg.Report.Record)
	return cfg, nil
}

// ApplyPresets fills in what the Gmail preset implies: an IMAP source at
// imap.gmail.com reading "[Gmail]/All Mail" unless mailboxes were given.
func (c *Config) ApplyPresets() {
	if !c.Source.Gmail {
		return
	}
	if c.Source.Type == "" {
		c.Source.Type = SourceIMAP
	}
	c.IMAP.ApplyGmail()
	if len(c.Filter.Mailboxes) == 0 {
		c.Filter.Mailboxes = []string{imap.GmailAllMail}
	}
}

// LabelSpec returns the label exclusion spec, with the Gmail system labels
// prefixed when the preset is on.
func (c *Config) LabelSpec() string {
	if c.Source.Gmail {
		return imap.GmailLabelSpec(c.Filter.Labels)
	}
	return c.Filter.Labels
}

// TokensDir is where IMAP credentials are stored.
func (c *Config) TokensDir() string {
	return filepath.Join(c.HomeDir, "tokens")
}

// Location returns the report time zone. Empty means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Report.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, invalid("report.timezone", "%v", err)
	}
	return loc, nil
}

// DateRange returns the [report] start/end override, or nil when neither is
// set. A missing bound is left zero for the run to fill from the corpus.
// End is inclusive.
func (c *Config) DateRange() (*message.DateRange, error) {
	if c.Report.Start == "" && c.Report.End == "" {
		return nil, nil
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	r := &message.DateRange{}
	if c.Report.Start != "" {
		t, err := time.ParseInLocation(DateLayout, c.Report.Start, loc)
		if err != nil {
			return nil, invalid("report.start", "want YYYY-MM-DD, got %q", c.Report.Start)
		}
		r.Start = t
	}
	if c.Report.End != "" {
		t, err := time.ParseInLocation(DateLayout, c.Report.End, loc)
		if err != nil {
			return nil, invalid("report.end", "want YYYY-MM-DD, got %q", c.Report.End)
		}
		r.End = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return nil, invalid("report.end", "%s is before start %s", c.Report.End, c.Report.Start)
	}
	return r, nil
}

// Validate checks every field the run depends on and returns all problems
// joined. Each is a *ConfigError.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	switch {
	case c.Source.Type == "":
		add(invalid("source.type", "not set (want one of %s)", strings.Join(SourceTypes, ", ")))
	case !slices.Contains(SourceTypes, c.Source.Type):
		add(invalid("source.type", "unknown type %q (want one of %s)", c.Source.Type, strings.Join(SourceTypes, ", ")))
	case c.Source.Type == SourceIMAP:
		if c.IMAP.Host == "" {
			add(invalid("imap.host", "required for an imap source"))
		}
		if c.IMAP.Username == "" {
			add(invalid("imap.username", "required for an imap source"))
		}
		if c.IMAP.Port < 0 || c.IMAP.Port > 65535 {
			add(invalid("imap.port", "%d out of range", c.IMAP.Port))
		}
	default:
		if c.Source.Path == "" {
			add(invalid("source.path", "required for a %s source", c.Source.Type))
		}
	}

	if c.Report.Format != "" && !slices.Contains(ReportFormats, c.Report.Format) {
		add(invalid("report.format", "unknown format %q (want one of %s)", c.Report.Format, strings.Join(ReportFormats, ", ")))
	}
	if c.Report.Top < 0 {
		add(invalid("report.top", "must not be negative"))
	}
	if c.Report.MaxMessages < 0 {
		add(invalid("report.max_messages", "must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		add(err)
	} else if _, err := c.DateRange(); err != nil {
		add(err)
	}

	if c.Server.APIPort < 0 || c.Server.APIPort > 65535 {
		add(invalid("server.api_port", "%d out of range", c.Server.APIPort))
	}
	if c.Server.RefreshSchedule != "" {
		if err := scheduler.ValidateSchedule(c.Server.RefreshSchedule); err != nil {
			add(invalid("server.refresh_schedule", "%v", err))
		}
	}
	return errors.Join(errs...)
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != filepath.Separator {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
