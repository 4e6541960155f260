// Package overlay composes a foreground box over a rendered background
// without disturbing the styling on either side of it.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position is where the foreground box is anchored.
type Position int

const (
	Center Position = iota
	Top
	Bottom
)

// Config is the viewport and anchor for Place.
type Config struct {
	Width    int
	Height   int
	Position Position
	// PadY is the gap from the top or bottom edge for Top and Bottom.
	PadY int
}

// Place splices fg into bg line by line. Cells of bg left and right of the
// box keep their ANSI styling.
func Place(cfg Config, fg, bg string) string {
	rows := strings.Split(bg, "\n")
	for len(rows) < cfg.Height {
		rows = append(rows, strings.Repeat(" ", cfg.Width))
	}

	box := strings.Split(fg, "\n")
	x, y := origin(cfg, lipgloss.Width(fg), len(box))

	for i, line := range box {
		row := y + i
		if row >= len(rows) {
			break
		}
		rows[row] = splice(rows[row], line, x)
	}
	return strings.Join(rows, "\n")
}

func splice(bg, fg string, x int) string {
	left := ansi.Truncate(bg, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}

	right := ""
	if end := x + ansi.StringWidth(fg); end < ansi.StringWidth(bg) {
		right = ansi.TruncateLeft(bg, end, "")
	}
	return left + fg + right
}

func origin(cfg Config, w, h int) (x, y int) {
	x = max((cfg.Width-w)/2, 0)
	switch cfg.Position {
	case Top:
		y = cfg.PadY
	case Bottom:
		y = cfg.Height - h - cfg.PadY
	default:
		y = (cfg.Height - h) / 2
	}
	return x, max(y, 0)
}
