package stats

import (
	"github.com/wesm/mailtrends/internal/corpus"
	"github.com/wesm/mailtrends/internal/thread"
)

// Section is one named tab of a Group.
type Section struct {
	Name  string
	Nodes []Node
}

// Group is a set of tabs, optionally preceded by a header node.
type Group struct {
	base
	Header   Node
	Sections []Section
}

// NewGroup returns a tabbed group.
func NewGroup(title string, sections ...Section) *Group {
	return &Group{base: base{title: title}, Sections: sections}
}

func (g *Group) Kind() Kind { return KindGroup }

func (g *Group) Process(c *corpus.Corpus, threads []*thread.Thread) {
	if !g.begin() {
		return
	}
	if g.Header != nil {
		g.Header.Process(c, threads)
	}
	for _, s := range g.Sections {
		for _, n := range s.Nodes {
			n.Process(c, threads)
		}
	}
}

// ColumnGroup lays its nodes out side by side.
type ColumnGroup struct {
	base
	Nodes []Node
}

// Columns returns a column group of nodes.
func Columns(nodes ...Node) *ColumnGroup {
	return &ColumnGroup{Nodes: nodes}
}

func (g *ColumnGroup) Kind() Kind { return KindColumnGroup }

func (g *ColumnGroup) Process(c *corpus.Corpus, threads []*thread.Thread) {
	if !g.begin() {
		return
	}
	for _, n := range g.Nodes {
		n.Process(c, threads)
	}
}
