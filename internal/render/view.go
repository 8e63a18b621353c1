// Package render turns a processed statistics tree into a terminal report,
// an HTML page or JSON. Every renderer dispatches on the node kind.
package render

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wesm/mailtrends/internal/stats"
)

// View is the renderer-neutral form of a stats node. It is also the JSON
// document shape.
type View struct {
	Kind     string        `json:"kind"`
	Title    string        `json:"title,omitempty"`
	Unit     string        `json:"unit,omitempty"`
	Column   string        `json:"column,omitempty"`
	Format   string        `json:"format,omitempty"`
	Heading  *HeadingView  `json:"heading,omitempty"`
	Total    int64         `json:"total,omitempty"`
	Rows     []stats.Row   `json:"rows,omitempty"`
	Series   *SeriesView   `json:"series,omitempty"`
	Header   *View         `json:"header,omitempty"`
	Sections []SectionView `json:"sections,omitempty"`
	Children []*View       `json:"children,omitempty"`
}

// HeadingView carries the Title node fields.
type HeadingView struct {
	Subtitle    string    `json:"subtitle,omitempty"`
	Host        string    `json:"host,omitempty"`
	Messages    int       `json:"messages"`
	Threads     int       `json:"threads"`
	GeneratedAt time.Time `json:"generated_at,omitzero"`
}

// SeriesView is a distribution: its leading keys and per-period counts.
type SeriesView struct {
	Granularity string       `json:"granularity"`
	Keys        []stats.Row  `json:"keys"`
	Periods     []PeriodView `json:"periods"`
	// Max is the largest period total.
	Max int64 `json:"max"`
}

// PeriodView is one calendar period of a distribution.
type PeriodView struct {
	Label  string    `json:"label"`
	Start  time.Time `json:"start"`
	Total  int64     `json:"total"`
	Counts []int64   `json:"counts"`
}

// SectionView is one tab of a group.
type SectionView struct {
	Name     string  `json:"name"`
	Children []*View `json:"children"`
}

// Build converts root into a View tree. Nodes of an unknown concrete type
// keep their kind and title only.
func Build(root stats.Node) *View {
	if root == nil {
		return nil
	}
	v := &View{Kind: root.Kind().String(), Title: root.Title()}
	switch root.Kind() {
	case stats.KindTitle:
		if t, ok := root.(*stats.Title); ok {
			v.Heading = &HeadingView{
				Subtitle:    t.Subtitle(),
				Host:        t.Meta.Host,
				Messages:    t.Messages,
				Threads:     t.Threads,
				GeneratedAt: t.Meta.GeneratedAt,
			}
		}
	case stats.KindBucket:
		if b, ok := root.(*stats.Bucket); ok {
			v.Unit = b.Unit.String()
			v.Format = formatName(stats.FormatCount)
			v.Rows = b.Rows()
			v.Total = b.Total()
		}
	case stats.KindTable:
		if t, ok := root.(*stats.Table); ok {
			v.Unit = t.Unit.String()
			v.Column = t.Column
			v.Format = formatName(t.Format)
			v.Rows = t.Rows()
			v.Total = t.Total()
		}
	case stats.KindDistribution:
		if d, ok := root.(*stats.Distribution); ok {
			v.Unit = d.Unit.String()
			v.Format = formatName(stats.FormatCount)
			v.Total = d.Total()
			v.Series = buildSeries(d)
		}
	case stats.KindGroup:
		if g, ok := root.(*stats.Group); ok {
			v.Header = Build(g.Header)
			for _, s := range g.Sections {
				v.Sections = append(v.Sections, SectionView{Name: s.Name, Children: buildAll(s.Nodes)})
			}
		}
	case stats.KindColumnGroup:
		if g, ok := root.(*stats.ColumnGroup); ok {
			v.Children = buildAll(g.Nodes)
		}
	}
	return v
}

func buildAll(nodes []stats.Node) []*View {
	out := make([]*View, 0, len(nodes))
	for _, n := range nodes {
		if v := Build(n); v != nil {
			out = append(out, v)
		}
	}
	return out
}

func buildSeries(d *stats.Distribution) *SeriesView {
	keys, counts := d.Series(0)
	s := &SeriesView{Granularity: d.Granularity.String(), Keys: keys}
	for i, b := range d.Buckets() {
		p := PeriodView{Label: b.Label, Start: b.Start, Total: b.Total(), Counts: counts[i]}
		s.Max = max(s.Max, p.Total)
		s.Periods = append(s.Periods, p)
	}
	return s
}

func formatName(f stats.Format) string {
	if f == stats.FormatBytes {
		return "bytes"
	}
	return "count"
}

// FormatValue renders n as a byte size ("1.5 MiB") or a grouped count ("1,234").
func FormatValue(format string, n int64) string {
	if format == "bytes" {
		if n < 0 {
			n = 0
		}
		return humanize.IBytes(uint64(n))
	}
	return humanize.Comma(n)
}
