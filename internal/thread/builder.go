package thread

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/wesm/mailtrends/internal/corpus"
)

// DefaultSplitThreshold is the number of direct children at which a top-level
// subject group is treated as a false merge and split apart.
const DefaultSplitThreshold = 10

// Builder threads a corpus.
type Builder struct {
	// SplitThreshold splits top-level dummy containers with at least this many
	// children. Zero or less disables splitting.
	SplitThreshold int
	Logger         *slog.Logger
}

// NewBuilder returns a builder with the default split threshold.
func NewBuilder() *Builder {
	return &Builder{SplitThreshold: DefaultSplitThreshold}
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Nodes parses every record of c. Records whose headers yield no Message-ID
// are skipped and counted.
func (b *Builder) Nodes(c *corpus.Corpus) ([]*Node, int) {
	nodes := make([]*Node, 0, c.Len())
	skipped := 0
	for _, r := range c.Records() {
		n, err := NewNode(r)
		if err != nil {
			if errors.Is(err, ErrUnparseable) {
				b.logger().Debug("skipping message in threading", "id", r.ID, "error", err)
			}
			skipped++
			continue
		}
		nodes = append(nodes, n)
	}
	if skipped > 0 {
		b.logger().Info("messages skipped in threading", "count", skipped)
	}
	return nodes, skipped
}

// Build threads every record of c.
func (b *Builder) Build(c *corpus.Corpus) []*Thread {
	nodes, _ := b.Nodes(c)
	return b.BuildFromNodes(nodes)
}

// BuildFromNodes runs the threading algorithm over nodes. The output depends
// only on the order of nodes.
func (b *Builder) BuildFromNodes(nodes []*Node) []*Thread {
	t := &table{byID: make(map[string]*Container)}
	for _, n := range nodes {
		t.add(n)
	}

	roots := t.roots()
	roots = pruneEmpty(roots, true)
	roots = groupBySubject(roots)

	var threads []*Thread
	split := 0
	for _, root := range roots {
		label := threadLabel(root)
		if root.IsDummy() && b.SplitThreshold > 0 && len(root.Children) >= b.SplitThreshold {
			children := root.Children
			root.Children = nil
			for _, ch := range children {
				ch.Parent = nil
				threads = append(threads, &Thread{Subject: label, Root: ch})
			}
			split++
			continue
		}
		threads = append(threads, &Thread{Subject: label, Root: root})
	}
	b.logger().Debug("threads built", "messages", len(nodes), "threads", len(threads), "split_groups", split)
	return threads
}

// table is the JWZ id table with insertion order preserved.
type table struct {
	byID  map[string]*Container
	order []*Container
	dups  int
}

func (t *table) get(id string) *Container {
	if c, ok := t.byID[id]; ok {
		return c
	}
	c := &Container{id: id}
	t.byID[id] = c
	t.order = append(t.order, c)
	return c
}

func (t *table) add(n *Node) {
	c := t.get(n.ID)
	if !c.IsDummy() {
		// Same Message-ID seen twice: keep both messages as distinct containers.
		t.dups++
		c = t.get(n.ID + "#dup" + strconv.Itoa(t.dups))
	}
	c.Node = n
	c.Message = n.Record

	var prev *Container
	for _, ref := range n.References {
		rc := t.get(ref)
		if prev != nil && rc.Parent == nil && !rc.isAncestorOf(prev) {
			prev.addChild(rc)
		}
		prev = rc
	}

	// The message's own references override a parent presumed from others'.
	if prev != nil && c.Parent != prev && !c.isAncestorOf(prev) {
		prev.addChild(c)
	}
}

func (t *table) roots() []*Container {
	var out []*Container
	for _, c := range t.order {
		if c.Parent == nil {
			out = append(out, c)
		}
	}
	return out
}

// pruneEmpty drops dummies with no children and promotes the children of
// dummies below the root level. At the root level a dummy is only replaced
// when it has a single child.
func pruneEmpty(list []*Container, atRoot bool) []*Container {
	var out []*Container
	for _, c := range list {
		c.Children = pruneEmpty(c.Children, false)
		for _, ch := range c.Children {
			ch.Parent = c
		}
		if !c.IsDummy() {
			out = append(out, c)
			continue
		}
		switch {
		case len(c.Children) == 0:
		case !atRoot || len(c.Children) == 1:
			for _, ch := range c.Children {
				ch.Parent = c.Parent
				out = append(out, ch)
			}
			c.Children = nil
		default:
			out = append(out, c)
		}
	}
	if atRoot {
		for _, c := range out {
			c.Parent = nil
		}
	}
	return out
}

// groupBySubject merges root containers sharing a subject key. A merged
// group takes the position of its first member in root order.
func groupBySubject(roots []*Container) []*Container {
	keys := make([]string, len(roots))
	subjects := make(map[string]*Container)
	for i, c := range roots {
		keys[i] = SubjectKey(c.subject())
		if keys[i] == "" {
			continue
		}
		old, ok := subjects[keys[i]]
		if !ok || preferForSubject(c, old) {
			subjects[keys[i]] = c
		}
	}

	for i, c := range roots {
		key := keys[i]
		target := subjects[key]
		if key == "" || target == c {
			continue
		}
		switch {
		case target.IsDummy() && c.IsDummy():
			for _, ch := range append([]*Container(nil), c.Children...) {
				target.addChild(ch)
			}
		case target.IsDummy():
			target.addChild(c)
		case !IsReply(target.subject()) && IsReply(c.subject()):
			target.addChild(c)
		default:
			d := &Container{id: "subject:" + key}
			d.addChild(target)
			d.addChild(c)
			subjects[key] = d
		}
	}

	var out []*Container
	emitted := make(map[*Container]bool)
	for i, c := range roots {
		head := c
		if keys[i] != "" {
			head = subjects[keys[i]]
		}
		if !emitted[head] {
			emitted[head] = true
			out = append(out, head)
		}
	}
	return out
}

// preferForSubject reports whether c should replace old as the subject
// table entry: dummies win over messages, non-replies over replies.
func preferForSubject(c, old *Container) bool {
	if c.IsDummy() != old.IsDummy() {
		return c.IsDummy()
	}
	if c.IsDummy() {
		return false
	}
	return IsReply(old.subject()) && !IsReply(c.subject())
}

// threadLabel is the first message subject in depth-first order with prefixes
// stripped.
func threadLabel(root *Container) string {
	var label string
	root.walk(func(c *Container, _ int) {
		if label == "" && c.Node != nil {
			label = StripPrefixes(c.Node.Subject)
		}
	}, 0)
	return label
}
