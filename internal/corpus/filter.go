package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wesm/mailtrends/internal/message"
)

// Select restricts all to the requested mailbox names. An empty request
// selects everything. The result follows the order of all.
func Select(all, requested []string) []string {
	if len(requested) == 0 {
		return append([]string(nil), all...)
	}
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[strings.TrimSpace(name)] = true
	}
	var out []string
	for _, name := range all {
		if want[name] {
			out = append(out, name)
		}
	}
	return out
}

// ExclusionSet resolves a label spec such as "-INBOX,Archive" against the
// mailbox list. It starts from every mailbox, drops names given with a "-"
// prefix and adds plain names. The result is (all - minus) + plus, so token
// order never matters and a name given both ways stays in the set.
func ExclusionSet(all []string, spec string) []string {
	minus := make(map[string]bool)
	plus := make(map[string]bool)
	var plusOrder []string
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if name, ok := strings.CutPrefix(tok, "-"); ok {
			if name = strings.TrimSpace(name); name != "" {
				minus[name] = true
			}
			continue
		}
		if !plus[tok] {
			plus[tok] = true
			plusOrder = append(plusOrder, tok)
		}
	}

	var out []string
	inSet := make(map[string]bool)
	for _, name := range all {
		if inSet[name] {
			continue
		}
		if !minus[name] || plus[name] {
			inSet[name] = true
			out = append(out, name)
		}
	}
	for _, name := range plusOrder {
		if !inSet[name] {
			inSet[name] = true
			out = append(out, name)
		}
	}
	return out
}

// LabelSource is the subset of a Source label filtering needs.
type LabelSource interface {
	ListMailboxes(ctx context.Context) ([]string, error)
	SelectMailbox(ctx context.Context, name string) error
	ListMessageIDs(ctx context.Context) ([]string, error)
}

// FilterLabeled drops every record whose Message-ID appears in a mailbox of
// the exclusion set computed from spec. A mailbox that cannot be selected is
// skipped with a warning. An empty spec returns c unchanged.
func FilterLabeled(ctx context.Context, c *Corpus, src LabelSource, spec string, opts ...Option) (*Corpus, error) {
	if strings.TrimSpace(spec) == "" {
		return c, nil
	}
	o := buildOptions(opts)

	all, err := src.ListMailboxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}

	excluded := make(map[string]bool)
	for _, mb := range ExclusionSet(all, spec) {
		if err := src.SelectMailbox(ctx, mb); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			o.logger.Warn("skipping label filter mailbox", "mailbox", mb, "error", err)
			continue
		}
		ids, err := src.ListMessageIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list message ids in %q: %w", mb, err)
		}
		n := 0
		for _, id := range ids {
			if _, ok := c.ByID(id); ok && !excluded[id] {
				excluded[id] = true
				n++
			}
		}
		o.logger.Info("filtered mailbox", "mailbox", mb, "filtered", n)
	}

	out := c.retain(func(r *message.Record) bool { return !excluded[r.ID] })
	o.logger.Info("label filter", "initial", c.Len(), "remaining", out.Len())
	return out, nil
}

// Sentinel errors wrapped by FilterError.
var (
	ErrUnknownOperator = errors.New("unknown filter operator")
	ErrMissingOperator = errors.New("expected operator:value")
	ErrEmptyValue      = errors.New("empty filter value")
)

// FilterError reports an invalid content filter clause.
type FilterError struct {
	Clause string
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter clause %q: %v", e.Clause, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// Operator selects which fields a content filter clause is matched against.
type Operator string

const (
	OpTo   Operator = "to"
	OpFrom Operator = "from"
	OpList Operator = "list"
)

// Clause is one operator:value pair. Value is lower-cased.
type Clause struct {
	Op    Operator
	Value string
}

// ContentFilter drops a record if any clause matches it.
type ContentFilter []Clause

// ParseContentFilter parses "from:noreply,list:announce". An empty spec
// yields an empty filter that matches nothing.
func ParseContentFilter(spec string) (ContentFilter, error) {
	var f ContentFilter
	for _, raw := range strings.Split(spec, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		op, value, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, &FilterError{Clause: raw, Err: ErrMissingOperator}
		}
		op = strings.ToLower(strings.TrimSpace(op))
		switch Operator(op) {
		case OpTo, OpFrom, OpList:
		default:
			return nil, &FilterError{Clause: raw, Err: fmt.Errorf("%w %q", ErrUnknownOperator, op)}
		}
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			return nil, &FilterError{Clause: raw, Err: ErrEmptyValue}
		}
		f = append(f, Clause{Op: Operator(op), Value: value})
	}
	return f, nil
}

// Match reports whether any clause matches r.
func (f ContentFilter) Match(r *message.Record) bool {
	for _, cl := range f {
		if cl.match(r) {
			return true
		}
	}
	return false
}

func (cl Clause) match(r *message.Record) bool {
	switch cl.Op {
	case OpFrom:
		return addressContains(r.Sender, cl.Value)
	case OpTo:
		for _, a := range r.Recipients {
			if addressContains(a, cl.Value) {
				return true
			}
		}
	case OpList:
		return addressContains(r.List, cl.Value)
	}
	return false
}

func addressContains(a message.Address, value string) bool {
	if a.IsZero() {
		return false
	}
	return strings.Contains(strings.ToLower(a.Name), value) ||
		strings.Contains(strings.ToLower(a.Email), value)
}

// FilterOut returns the records of c that f does not match.
func FilterOut(c *Corpus, f ContentFilter, opts ...Option) *Corpus {
	if len(f) == 0 {
		return c
	}
	o := buildOptions(opts)
	out := c.retain(func(r *message.Record) bool { return !f.Match(r) })
	o.logger.Info("content filter", "initial", c.Len(), "remaining", out.Len())
	return out
}
