package message

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/wesm/mailtrends/internal/textutil"
)

// ErrNoHeaders is returned by Parse when the input has no header block at all.
var ErrNoHeaders = errors.New("message has no headers")

type parseOptions struct {
	size     int64
	fallback time.Time
	mode     ParseMode
}

// Option customizes Parse.
type Option func(*parseOptions)

// WithSize sets the message size when raw holds only the header block.
func WithSize(n int64) Option {
	return func(o *parseOptions) { o.size = n }
}

// WithFallbackDate sets the date used when the Date header is missing or broken.
func WithFallbackDate(t time.Time) Option {
	return func(o *parseOptions) { o.fallback = t }
}

// WithMode sets the date parse mode. The default is ParseDates.
func WithMode(m ParseMode) Option {
	return func(o *parseOptions) { o.mode = m }
}

// Parse builds a Record from a raw RFC 5322 message or just its header block.
// Only headers are decoded; the body is never read beyond the header split.
func Parse(raw []byte, opts ...Option) (*Record, error) {
	o := parseOptions{size: -1}
	for _, opt := range opts {
		opt(&o)
	}

	header := HeaderBlock(raw)
	if len(bytes.TrimSpace(header)) == 0 {
		return nil, ErrNoHeaders
	}

	// enmime wants a complete message; an empty body after the header block is enough.
	env, err := enmime.ReadEnvelope(bytes.NewReader(TerminateHeader(header)))
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}

	rec := &Record{
		ID:      normalizeMessageID(env.GetHeader("Message-ID")),
		Subject: textutil.CleanHeader(env.GetHeader("Subject")),
		Header:  header,
		Size:    o.size,
	}
	if rec.Size < 0 {
		rec.Size = int64(len(raw))
	}
	if rec.ID == "" {
		rec.ID = syntheticID(header)
	}

	if from := addressList(env, "From"); len(from) > 0 {
		rec.Sender = from[0]
	} else if sender := addressList(env, "Sender"); len(sender) > 0 {
		rec.Sender = sender[0]
	}
	for _, key := range []string{"To", "Cc", "Bcc"} {
		rec.Recipients = append(rec.Recipients, addressList(env, key)...)
	}
	rec.List = ParseListID(env.GetHeader("List-Id"))

	rec.SetRawDate(env.GetHeader("Date"), o.fallback)
	if o.mode == ParseDates {
		rec.Date()
	}
	return rec, nil
}

// HeaderBlock returns the header section of raw including its terminating
// blank line, or all of raw when there is no body separator.
func HeaderBlock(raw []byte) []byte {
	crlf := bytes.Index(raw, []byte("\r\n\r\n"))
	lf := bytes.Index(raw, []byte("\n\n"))
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return raw[:crlf+4]
	case lf >= 0:
		return raw[:lf+2]
	default:
		return raw
	}
}

// TerminateHeader returns header ending in the blank line that separates it
// from a body, copying only when one has to be added.
func TerminateHeader(header []byte) []byte {
	if bytes.HasSuffix(header, []byte("\n\n")) || bytes.HasSuffix(header, []byte("\r\n\r\n")) {
		return header
	}
	out := make([]byte, 0, len(header)+4)
	out = append(out, header...)
	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\r', '\n')
	}
	return append(out, '\r', '\n')
}

func addressList(env *enmime.Envelope, key string) []Address {
	list, err := env.AddressList(key)
	if err != nil || len(list) == 0 {
		return nil
	}
	out := make([]Address, 0, len(list))
	for _, a := range list {
		if a == nil || (a.Address == "" && a.Name == "") {
			continue
		}
		out = append(out, Address{
			Name:  textutil.CleanHeader(strings.Trim(a.Name, `"' `)),
			Email: strings.ToLower(strings.TrimSpace(a.Address)),
		})
	}
	return out
}

// ParseListID splits a List-Id header ("Go Nuts <golang-nuts.googlegroups.com>")
// into its description and lower-cased identifier.
func ParseListID(v string) Address {
	v = textutil.CleanHeader(v)
	if v == "" {
		return Address{}
	}
	open := strings.LastIndexByte(v, '<')
	closing := strings.LastIndexByte(v, '>')
	if open >= 0 && closing > open {
		return Address{
			Name:  strings.Trim(strings.TrimSpace(v[:open]), `"`),
			Email: strings.ToLower(strings.TrimSpace(v[open+1 : closing])),
		}
	}
	return Address{Email: strings.ToLower(v)}
}

func normalizeMessageID(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexByte(v, '<'); i >= 0 {
		if j := strings.IndexByte(v[i:], '>'); j > 0 {
			v = v[i+1 : i+j]
		}
	}
	return strings.TrimSpace(v)
}

// syntheticID derives a stable identifier for messages without a Message-ID
// so they still participate in non-thread statistics and deduplication.
func syntheticID(header []byte) string {
	sum := sha256.Sum256(header)
	return "sha256-" + hex.EncodeToString(sum[:12]) + "@mailtrends.invalid"
}

// IsSynthetic reports whether id was generated by Parse rather than read from a header.
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, "sha256-") && strings.HasSuffix(id, "@mailtrends.invalid")
}
