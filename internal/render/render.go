package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/wesm/mailtrends/internal/stats"
)

// Formats lists the names accepted by Write.
var Formats = []string{"html", "text", "json"}

// ValidFormat reports whether name is one of Formats.
func ValidFormat(name string) bool {
	return slices.Contains(Formats, name)
}

// Write renders root in the named format.
func Write(w io.Writer, format string, root stats.Node, text TextOptions) error {
	switch strings.ToLower(format) {
	case "html":
		return HTML(w, root)
	case "json":
		return JSON(w, root)
	case "text", "":
		return Text(w, root, text)
	default:
		return fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
