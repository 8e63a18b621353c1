// Package imap reads message headers from an IMAP server.
package imap

import (
	"fmt"
	"net/url"
)

// Config holds connection settings for an IMAP server.
type Config struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	TLS      bool   `toml:"tls"`      // Implicit TLS (IMAPS, port 993)
	STARTTLS bool   `toml:"starttls"` // STARTTLS upgrade (port 143)
	Username string `toml:"username"`
	// RateLimitQPS paces FETCH batches. Zero means DefaultRateLimitQPS.
	RateLimitQPS float64 `toml:"rate_limit_qps"`
	// BatchSize is the number of UIDs per FETCH. Zero means DefaultBatchSize.
	BatchSize int `toml:"batch_size"`
}

const (
	DefaultRateLimitQPS = 10
	DefaultBatchSize    = 500
)

// Gmail connection and label defaults.
const (
	GmailHost       = "imap.gmail.com"
	GmailAllMail    = "[Gmail]/All Mail"
	GmailLabelTrims = "-[Gmail],-[Gmail]/All Mail,-[Gmail]/Chats,-[Gmail]/Drafts,-[Gmail]/Important,-[Gmail]/Sent Mail,-[Gmail]/Spam,-[Gmail]/Starred,-[Gmail]/Trash"
)

// ApplyGmail points the config at Gmail over implicit TLS.
func (c *Config) ApplyGmail() {
	c.Host = GmailHost
	c.TLS = true
	c.STARTTLS = false
	c.Port = 993
}

// GmailLabelSpec prefixes a label-exclusion spec with the Gmail system
// labels so that only user labels exclude messages. An empty spec stays empty.
func GmailLabelSpec(spec string) string {
	if spec == "" {
		return ""
	}
	return GmailLabelTrims + "," + spec
}

func (c *Config) port() int {
	if c.Port != 0 {
		return c.Port
	}
	if c.TLS {
		return 993
	}
	return 143
}

// Addr returns the "host:port" string.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.port())
}

// Identifier returns a canonical string like "imaps://user@host:port".
func (c *Config) Identifier() string {
	scheme := "imap"
	if c.TLS {
		scheme = "imaps"
	}
	return fmt.Sprintf("%s://%s@%s:%d", scheme, url.PathEscape(c.Username), c.Host, c.port())
}
