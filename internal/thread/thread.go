package thread

import (
	"github.com/wesm/mailtrends/internal/message"
)

// Container is a node of the thread tree. A dummy container holds no message
// and stands in for a referenced but absent ancestor or a subject group.
type Container struct {
	Message  *message.Record
	Node     *Node
	Parent   *Container
	Children []*Container

	id string
}

// IsDummy reports whether the container wraps no message.
func (c *Container) IsDummy() bool { return c.Node == nil }

// ID returns the Message-ID the container was created for.
func (c *Container) ID() string { return c.id }

func (c *Container) subject() string {
	if c.Node != nil {
		return c.Node.Subject
	}
	for _, ch := range c.Children {
		if s := ch.subject(); s != "" {
			return s
		}
	}
	return ""
}

func (c *Container) addChild(child *Container) {
	if child.Parent != nil {
		child.Parent.removeChild(child)
	}
	child.Parent = c
	c.Children = append(c.Children, child)
}

func (c *Container) removeChild(child *Container) {
	for i, ch := range c.Children {
		if ch == child {
			c.Children = append(c.Children[:i:i], c.Children[i+1:]...)
			break
		}
	}
	child.Parent = nil
}

// isAncestorOf reports whether c is d or one of d's ancestors.
func (c *Container) isAncestorOf(d *Container) bool {
	for p := d; p != nil; p = p.Parent {
		if p == c {
			return true
		}
	}
	return false
}

func (c *Container) walk(fn func(*Container, int), depth int) {
	fn(c, depth)
	for _, ch := range c.Children {
		ch.walk(fn, depth+1)
	}
}

// Thread is one reconstructed conversation.
type Thread struct {
	Subject string
	Root    *Container
}

// Messages returns the thread's records in depth-first order.
func (t *Thread) Messages() []*message.Record {
	var out []*message.Record
	t.Root.walk(func(c *Container, _ int) {
		if c.Message != nil {
			out = append(out, c.Message)
		}
	}, 0)
	return out
}

// Size returns the number of messages in the thread.
func (t *Thread) Size() int {
	n := 0
	t.Root.walk(func(c *Container, _ int) {
		if !c.IsDummy() {
			n++
		}
	}, 0)
	return n
}

// Starter returns the earliest dated message, or the first message when none
// has a date. It returns nil for a thread with no messages.
func (t *Thread) Starter() *message.Record {
	var first, earliest *message.Record
	for _, r := range t.Messages() {
		if first == nil {
			first = r
		}
		if !r.HasDate() {
			continue
		}
		if earliest == nil || r.Date().Before(earliest.Date()) {
			earliest = r
		}
	}
	if earliest != nil {
		return earliest
	}
	return first
}

// Depth returns the height of the tree; a lone message has depth 1.
func (t *Thread) Depth() int {
	height := 0
	t.Root.walk(func(_ *Container, d int) {
		if d+1 > height {
			height = d + 1
		}
	}, 0)
	return height
}

// Lists returns the distinct List-Ids carried by the thread's messages.
func (t *Thread) Lists() []message.Address {
	var out []message.Address
	seen := make(map[string]bool)
	for _, r := range t.Messages() {
		if id := r.ListID(); id != "" && !seen[id] {
			seen[id] = true
			out = append(out, r.List)
		}
	}
	return out
}
