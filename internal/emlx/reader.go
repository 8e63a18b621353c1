// Package emlx reads Apple Mail mailbox packages as a message source.
//
// The .emlx format stores one message per file:
//   - Line 1: decimal byte count of the raw MIME content
//   - Next N bytes: raw RFC 5322 MIME message
//   - Remainder (optional): XML plist with Apple Mail metadata
package emlx

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"howett.net/plist"
)

// appleEpoch is the reference date of plist date-sent values.
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Message is a parsed .emlx file.
type Message struct {
	// Raw is the RFC 5322 content.
	Raw []byte

	// PlistDate is the date-sent value from the plist metadata, zero when
	// the plist is missing or has no such field.
	PlistDate time.Time

	// Flags is the Apple Mail flags integer from the plist.
	Flags int64

	// OrigMailbox is the original-mailbox value from the plist.
	OrigMailbox string
}

// metadata is the subset of the trailing plist that is used.
type metadata struct {
	DateSent        any    `plist:"date-sent"`
	Flags           int64  `plist:"flags"`
	OriginalMailbox string `plist:"original-mailbox"`
}

// Parse parses an .emlx file from its raw bytes.
func Parse(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("emlx: empty file")
	}

	newline := bytes.IndexByte(data, '\n')
	if newline < 0 {
		return nil, fmt.Errorf("emlx: no newline after byte count")
	}
	countStr := strings.TrimSpace(string(data[:newline]))
	byteCount, err := strconv.ParseInt(countStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("emlx: invalid byte count %q: %w", countStr, err)
	}
	if byteCount < 0 {
		return nil, fmt.Errorf("emlx: negative byte count %d", byteCount)
	}

	start := newline + 1
	end := int64(start) + byteCount
	if end > int64(len(data)) {
		return nil, fmt.Errorf("emlx: byte count %d exceeds file size (available: %d)",
			byteCount, len(data)-start)
	}

	msg := &Message{Raw: data[start:end]}
	if int(end) < len(data) {
		decodeMetadata(data[end:], msg)
	}
	return msg, nil
}

// ParseFile reads and parses an .emlx file from disk.
func ParseFile(path string) (*Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("emlx: read %q: %w", path, err)
	}
	return Parse(data)
}

// decodeMetadata fills msg from the trailing plist. A missing or broken
// plist leaves msg unchanged.
func decodeMetadata(data []byte, msg *Message) {
	start := bytes.Index(data, []byte("<?xml"))
	if start < 0 {
		start = bytes.Index(data, []byte("<plist"))
	}
	if start < 0 {
		return
	}
	var md metadata
	if _, err := plist.Unmarshal(data[start:], &md); err != nil {
		return
	}
	msg.Flags = md.Flags
	msg.OrigMailbox = md.OriginalMailbox
	if secs, ok := seconds(md.DateSent); ok {
		msg.PlistDate = appleEpoch.Add(time.Duration(secs * float64(time.Second)))
	}
}

// seconds accepts date-sent as a real or an integer; both occur in the wild.
func seconds(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
