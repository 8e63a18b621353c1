// Package mbox reads Unix mbox files as a message source.
//
// Only header blocks are retained; bodies are streamed past and counted so
// very large archives can be scanned in constant memory per message.
package mbox

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	maxLineBytes   = 32 << 20 // 32 MiB
	maxHeaderBytes = 1 << 20
)

// Entry is one message of an mbox file reduced to its header block.
type Entry struct {
	// Separator is the "From " line without its line ending.
	Separator string
	// Date is the separator date, the zero time if it could not be parsed.
	Date time.Time
	// Header is the header block including the blank line that ends it,
	// truncated at maxHeaderBytes.
	Header []byte
	// Size is the byte length of the message without the separator line.
	Size int64
}

// Reader reads entries from an mbox stream one at a time.
type Reader struct {
	br *bufio.Reader

	pending    string
	hasPending bool
	eof        bool
}

// NewReader creates a new mbox reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64<<10)}
}

// Next returns the next entry. It returns io.EOF when there are no more.
func (r *Reader) Next() (*Entry, error) {
	if r.eof && !r.hasPending {
		return nil, io.EOF
	}

	if !r.hasPending {
		for {
			line, err := r.readLine()
			if err != nil && err != io.EOF {
				return nil, err
			}
			if isSeparator(line) {
				r.pending = string(bytes.TrimRight(line, "\r\n"))
				r.hasPending = true
				break
			}
			if err == io.EOF {
				r.eof = true
				return nil, io.EOF
			}
		}
	}

	e := &Entry{Separator: r.pending}
	e.Date, _ = ParseSeparatorDate(e.Separator)
	r.hasPending = false

	var header bytes.Buffer
	inHeader := true
	for !r.eof {
		line, err := r.readLine()
		if err != nil && err != io.EOF {
			return nil, err
		}
		if err == io.EOF {
			r.eof = true
		}
		if len(line) == 0 {
			continue
		}
		if isSeparator(line) {
			r.pending = string(bytes.TrimRight(line, "\r\n"))
			r.hasPending = true
			break
		}
		e.Size += int64(len(line))
		if inHeader {
			if header.Len()+len(line) <= maxHeaderBytes {
				header.Write(line)
			}
			if len(bytes.TrimRight(line, "\r\n")) == 0 {
				inHeader = false
			}
		}
	}
	e.Header = header.Bytes()
	return e, nil
}

func (r *Reader) readLine() ([]byte, error) {
	var out []byte
	for {
		b, err := r.br.ReadSlice('\n')
		out = append(out, b...)
		if len(out) > maxLineBytes {
			return nil, fmt.Errorf("mbox line exceeds max length (%d bytes)", maxLineBytes)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return out, err
	}
}

var fromPrefix = []byte("From ")

// isSeparator reports whether line is a "From " separator with a parseable
// date. Body lines starting with "From " that are not escaped would otherwise
// split a message.
func isSeparator(line []byte) bool {
	if !bytes.HasPrefix(line, fromPrefix) {
		return false
	}
	_, ok := ParseSeparatorDate(string(bytes.TrimRight(line, "\r\n")))
	return ok
}

// Validate reads up to maxBytes of r and reports an error unless a separator
// line is found.
func Validate(r io.Reader, maxBytes int64) error {
	if maxBytes <= 0 {
		return fmt.Errorf("maxBytes must be > 0")
	}
	br := bufio.NewReader(io.LimitReader(r, maxBytes))
	for {
		line, err := br.ReadBytes('\n')
		if isSeparator(line) {
			return nil
		}
		if err != nil {
			if err == io.EOF {
				return errors.New(`no "From " separators found (not an mbox file?)`)
			}
			return err
		}
	}
}
