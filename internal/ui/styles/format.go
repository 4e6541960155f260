package styles

import (
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

// Truncate shortens s to maxWidth cells, ending with "..." when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return truncate.String("...", uint(maxWidth))
	}
	return truncate.StringWithTail(s, uint(maxWidth), "...")
}

// PadRight truncates then pads s with spaces to exactly width cells.
func PadRight(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}
