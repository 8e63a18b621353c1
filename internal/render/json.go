package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wesm/mailtrends/internal/stats"
)

// JSON writes root as an indented View document.
func JSON(w io.Writer, root stats.Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Build(root)); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	return nil
}
