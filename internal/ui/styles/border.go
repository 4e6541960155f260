package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// Panel renders content in a rounded box with title embedded in the top
// border: ╭─ Title ─────╮. Width and height include the border.
func Panel(content, title string, width, height int, focused bool) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = BorderHighlightFocusColor
	}
	border := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(OverlayTitleColor).Bold(focused)

	inner := max(width-2, 1)
	rows := max(height-2, 1)

	lines := strings.Split(lipgloss.NewStyle().Width(inner).Render(content), "\n")

	var b strings.Builder
	b.WriteString(topBorder(title, inner, border, titleStyle))
	for i := 0; i < rows; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		if w := lipgloss.Width(line); w < inner {
			line += strings.Repeat(" ", inner-w)
		}
		b.WriteByte('\n')
		b.WriteString(border.Render(borderVertical) + line + border.Render(borderVertical))
	}
	b.WriteByte('\n')
	b.WriteString(border.Render(borderBottomLeft + strings.Repeat(borderHorizontal, inner) + borderBottomRight))
	return b.String()
}

func topBorder(title string, inner int, border, titleStyle lipgloss.Style) string {
	// "─ " + title + " " + dashes
	if title == "" || inner < 5 {
		return border.Render(borderTopLeft + strings.Repeat(borderHorizontal, inner) + borderTopRight)
	}
	title = Truncate(title, inner-4)
	rest := max(inner-3-lipgloss.Width(title), 0)
	return border.Render(borderTopLeft+borderHorizontal+" ") +
		titleStyle.Render(title) +
		border.Render(" "+strings.Repeat(borderHorizontal, rest)+borderTopRight)
}
