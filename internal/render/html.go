package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/wesm/mailtrends/internal/stats"
)

//go:embed report.html.tmpl
var htmlTemplate string

// palette colors the series of stacked distribution bars.
var palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

var reportTemplate = template.Must(template.New("mailtrends").Funcs(template.FuncMap{
	"value": FormatValue,
	"count": func(n int) string { return humanize.Comma(int64(n)) },
	"pct": func(f float64) string {
		return fmt.Sprintf("%.1f%%", f*100)
	},
	"width": func(n, peak int64) string {
		if peak <= 0 {
			return "0%"
		}
		return fmt.Sprintf("%.2f%%", float64(n)/float64(peak)*100)
	},
	"peak": func(rows []stats.Row) int64 {
		var p int64
		for _, r := range rows {
			p = max(p, r.Count)
		}
		return p
	},
	"color": func(i int) string { return palette[i%len(palette)] },
}).Parse(htmlTemplate))

// HTML writes root as a self-contained HTML page.
func HTML(w io.Writer, root stats.Node) error {
	v := Build(root)
	if v == nil {
		return fmt.Errorf("render html: empty report")
	}
	if err := reportTemplate.ExecuteTemplate(w, "report", v); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
