package render

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/wesm/mailtrends/internal/stats"
	"github.com/wesm/mailtrends/internal/textutil"
)

const (
	defaultWidth      = 100
	defaultMaxPeriods = 24
	minLabelWidth     = 12
	barWidth          = 24
	countWidth        = 12
	periodTopKeys     = 3
)

// TextOptions controls the terminal report.
type TextOptions struct {
	// Width is the line width in cells. Zero means 100.
	Width int
	// Color enables ANSI styling.
	Color bool
	// MaxPeriods limits distributions to their most recent periods.
	// Zero means 24.
	MaxPeriods int
}

// DetectTextOptions picks width and color for f: styled and sized to the
// terminal when f is one, plain otherwise. NO_COLOR disables color.
func DetectTextOptions(f *os.File) TextOptions {
	o := TextOptions{Width: defaultWidth}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return o
	}
	o.Color = os.Getenv("NO_COLOR") == ""
	if w, _, err := term.GetSize(int(fd)); err == nil && w >= 60 {
		o.Width = w
	}
	return o
}

type textStyles struct {
	heading lipgloss.Style
	section lipgloss.Style
	title   lipgloss.Style
	subtle  lipgloss.Style
	bar     lipgloss.Style
	count   lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	r := lipgloss.NewRenderer(w)
	r.SetHasDarkBackground(true)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return textStyles{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		section: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		title:   r.NewStyle().Bold(true),
		subtle:  r.NewStyle().Foreground(lipgloss.Color("245")),
		bar:     r.NewStyle().Foreground(lipgloss.Color("63")),
		count:   r.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

type textRenderer struct {
	o  TextOptions
	st textStyles
	sb strings.Builder
}

// Text writes root as a plain or styled terminal report.
func Text(w io.Writer, root stats.Node, o TextOptions) error {
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.MaxPeriods <= 0 {
		o.MaxPeriods = defaultMaxPeriods
	}
	r := &textRenderer{o: o, st: newTextStyles(w, o.Color)}
	r.node(Build(root))
	_, err := io.WriteString(w, r.sb.String())
	return err
}

func (r *textRenderer) line(s string) {
	r.sb.WriteString(ansi.Truncate(s, r.o.Width, ""))
	r.sb.WriteByte('\n')
}

func (r *textRenderer) node(v *View) {
	if v == nil {
		return
	}
	switch v.Kind {
	case stats.KindTitle.String():
		r.heading(v)
	case stats.KindGroup.String():
		r.node(v.Header)
		for _, s := range v.Sections {
			r.line(r.st.section.Render("== " + s.Name + " =="))
			r.line("")
			for _, c := range s.Children {
				r.node(c)
			}
		}
	case stats.KindColumnGroup.String():
		for _, c := range v.Children {
			r.node(c)
		}
	case stats.KindBucket.String():
		r.caption(v)
		r.rows(v, false)
		r.line("")
	case stats.KindTable.String():
		r.caption(v)
		r.rows(v, true)
		r.line("")
	case stats.KindDistribution.String():
		r.caption(v)
		r.periods(v)
		r.line("")
	}
}

func (r *textRenderer) heading(v *View) {
	r.line(r.st.heading.Render(v.Title))
	if h := v.Heading; h != nil {
		parts := []string{}
		if h.Subtitle != "" {
			parts = append(parts, h.Subtitle)
		}
		parts = append(parts,
			FormatValue("count", int64(h.Messages))+" messages",
			FormatValue("count", int64(h.Threads))+" threads")
		r.line(r.st.subtle.Render(strings.Join(parts, " · ")))
	}
	r.line("")
}

func (r *textRenderer) caption(v *View) {
	r.line(r.st.title.Render(v.Title) + r.st.subtle.Render(" ("+v.Unit+")"))
}

func (r *textRenderer) labelWidth(prefix int) int {
	return max(r.o.Width-prefix-countWidth-barWidth-10, minLabelWidth)
}

func (r *textRenderer) rows(v *View, ranked bool) {
	if len(v.Rows) == 0 {
		r.line(r.st.subtle.Render("  (none)"))
		return
	}
	var peak int64
	for _, row := range v.Rows {
		peak = max(peak, row.Count)
	}
	prefix := 2
	if ranked {
		prefix = 6
	}
	width := r.labelWidth(prefix)
	for i, row := range v.Rows {
		lead := "  "
		if ranked {
			lead = fmt.Sprintf("%4d. ", i+1)
		}
		r.line(lead + cell(row.Label, width) + " " +
			r.st.count.Render(fmt.Sprintf("%*s", countWidth, FormatValue(v.Format, row.Count))) + " " +
			r.st.bar.Render(bar(row.Count, peak, barWidth)) +
			r.st.subtle.Render(fmt.Sprintf(" %5.1f%%", row.Fraction*100)))
	}
}

func (r *textRenderer) periods(v *View) {
	s := v.Series
	if s == nil || len(s.Periods) == 0 {
		r.line(r.st.subtle.Render("  (none)"))
		return
	}
	periods := s.Periods
	if len(periods) > r.o.MaxPeriods {
		r.line(r.st.subtle.Render(fmt.Sprintf("  (%d earlier periods not shown)", len(periods)-r.o.MaxPeriods)))
		periods = periods[len(periods)-r.o.MaxPeriods:]
	}
	for _, p := range periods {
		r.line("  " + cell(p.Label, 10) + " " +
			r.st.count.Render(fmt.Sprintf("%*s", countWidth, FormatValue(v.Format, p.Total))) + " " +
			r.st.bar.Render(bar(p.Total, s.Max, barWidth)) + " " +
			r.st.subtle.Render(leaders(s.Keys, p.Counts)))
	}
}

// leaders names the busiest series keys of one period, "alice (4), bob (2)".
// A single-key series has nothing to break down.
func leaders(keys []stats.Row, counts []int64) string {
	if len(keys) < 2 {
		return ""
	}
	type kc struct {
		label string
		n     int64
	}
	var top []kc
	for i, k := range keys {
		if counts[i] == 0 {
			continue
		}
		top = append(top, kc{k.Label, counts[i]})
	}
	slices.SortStableFunc(top, func(a, b kc) int { return cmp.Compare(b.n, a.n) })
	if len(top) > periodTopKeys {
		top = top[:periodTopKeys]
	}
	parts := make([]string, len(top))
	for i, t := range top {
		parts[i] = fmt.Sprintf("%s (%d)", fit(t.label, 24), t.n)
	}
	return strings.Join(parts, ", ")
}

// fit sanitizes s to one line of at most width cells.
func fit(s string, width int) string {
	s = textutil.StripControls(s)
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return s
}

// cell is fit padded to exactly width cells.
func cell(s string, width int) string {
	return runewidth.FillRight(fit(s, width), width)
}

// bar draws n relative to peak as up to width block characters.
func bar(n, peak int64, width int) string {
	if peak <= 0 || n <= 0 {
		return strings.Repeat(" ", width)
	}
	filled := int(math.Round(float64(n) / float64(peak) * float64(width)))
	filled = max(filled, 1)
	return strings.Repeat("█", filled) + strings.Repeat(" ", width-filled)
}
