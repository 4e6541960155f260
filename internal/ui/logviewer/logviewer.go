// Package logviewer is the overlay that shows the backend's production test
// log, following the file while it grows, with a second tab for the app's
// own debug log.
package logviewer

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/ui/overlay"
	"github.com/zjrosen/prodtests/internal/ui/styles"
	"github.com/zjrosen/prodtests/internal/watcher"
)

const (
	viewportMaxHeight = 30
	viewportMinHeight = 5
	boxMaxWidth       = 160
	boxMinWidth       = 40
	maxLines          = 2000
)

// Tab selects the log source.
type Tab int

const (
	TabProduction Tab = iota
	TabApp
)

// CloseMsg is sent when the overlay closes.
type CloseMsg struct{}

// Model is the log viewer state.
type Model struct {
	path     string
	visible  bool
	tab      Tab
	minLevel log.Level
	width    int
	height   int
	viewport viewport.Model
	lines    []string
	readErr  error

	watcher  *watcher.Watcher
	changes  <-chan struct{}
	cancel   context.CancelFunc
	listener *log.LogListener
}

// New creates a viewer for the log file at path.
func New(path string) Model {
	return Model{path: path, minLevel: log.LevelDebug}
}

// Visible returns whether the overlay is showing.
func (m Model) Visible() bool { return m.visible }

// Tab returns the active tab.
func (m Model) Tab() Tab { return m.tab }

// Lines returns the production log lines last read.
func (m Model) Lines() []string { return m.lines }

// Open shows the overlay, reads the file and starts following it.
func (m Model) Open() (Model, tea.Cmd) {
	m.visible = true
	m.reload()

	var cmds []tea.Cmd
	if m.watcher == nil && m.path != "" {
		w, err := watcher.New(watcher.DefaultConfig(m.path))
		if err == nil {
			ch, startErr := w.Start()
			if startErr == nil {
				m.watcher, m.changes = w, ch
				cmds = append(cmds, watcher.WaitCmd(m.path, ch))
			} else {
				_ = w.Stop()
				log.ErrorErr(log.CatWatcher, "Cannot follow production log", startErr, "path", m.path)
			}
		}
	}

	if m.listener == nil {
		ctx, cancel := context.WithCancel(context.Background())
		if l := log.NewListener(ctx); l != nil {
			m.cancel, m.listener = cancel, l
			cmds = append(cmds, l.Listen())
		} else {
			cancel()
		}
	}
	return m, tea.Batch(cmds...)
}

// Close hides the overlay and stops following.
func (m Model) Close() Model {
	m.visible = false
	if m.watcher != nil {
		_ = m.watcher.Stop()
		m.watcher, m.changes = nil, nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel, m.listener = nil, nil
	}
	return m
}

// Update handles keys, file changes and log events.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case watcher.ChangedMsg:
		if m.changes == nil || msg.Path != m.path {
			return m, nil
		}
		atBottom := m.viewport.AtBottom()
		m.reload()
		if atBottom {
			m.viewport.GotoBottom()
		}
		return m, watcher.WaitCmd(m.path, m.changes)

	case log.LogEvent:
		if m.listener == nil {
			return m, nil
		}
		if m.tab == TabApp {
			m.refresh()
		}
		return m, m.listener.Listen()

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if !m.visible {
			return m, nil
		}
		switch msg.String() {
		case "tab":
			m.tab = 1 - m.tab
			m.refresh()
		case "d":
			m.setLevel(log.LevelDebug)
		case "i":
			m.setLevel(log.LevelInfo)
		case "w":
			m.setLevel(log.LevelWarn)
		case "e":
			m.setLevel(log.LevelError)
		case "j", "down":
			m.viewport.ScrollDown(1)
		case "k", "up":
			m.viewport.ScrollUp(1)
		case "g":
			m.viewport.GotoTop()
		case "G":
			m.viewport.GotoBottom()
		case "esc", "q", "ctrl+l":
			m = m.Close()
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

func (m *Model) setLevel(l log.Level) {
	if m.tab != TabApp {
		return
	}
	m.minLevel = l
	m.refresh()
}

func (m *Model) reload() {
	m.lines, m.readErr = ReadTail(m.path, maxLines)
	if m.readErr != nil {
		log.ErrorErr(log.CatWatcher, "Failed to read production log", m.readErr, "path", m.path)
	}
	m.refresh()
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.refresh()
}

func (m *Model) refresh() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := max(min(viewportMaxHeight, m.height-6), viewportMinHeight)
	w := m.boxWidth() - 2

	yOffset := m.viewport.YOffset
	m.viewport = viewport.New(w, h)
	m.viewport.SetContent(m.content(w))
	if m.tab == TabProduction {
		m.viewport.GotoBottom()
	} else {
		m.viewport.SetYOffset(yOffset)
	}
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, boxMaxWidth), boxMinWidth)
}

func (m Model) content(width int) string {
	var entries []string
	switch m.tab {
	case TabApp:
		for _, e := range log.GetRecentLogs(10000) {
			if levelOf(e) >= m.minLevel {
				entries = append(entries, e)
			}
		}
	default:
		if m.readErr != nil {
			return styles.ErrorStyle.Render(m.readErr.Error())
		}
		entries = m.lines
	}

	if len(entries) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true).Render("No log entries")
	}

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = colorize(e, width)
	}
	return strings.Join(out, "\n")
}

// levelOf reads the level tag of an app log line. Untagged lines count as
// errors so they are never filtered out.
func levelOf(entry string) log.Level {
	switch {
	case strings.Contains(entry, "[DEBUG]"):
		return log.LevelDebug
	case strings.Contains(entry, "[INFO]"):
		return log.LevelInfo
	case strings.Contains(entry, "[WARN]"):
		return log.LevelWarn
	default:
		return log.LevelError
	}
}

func colorize(entry string, width int) string {
	if ansi.StringWidth(entry) > width {
		entry = ansi.Truncate(entry, width-3, "...")
	}
	upper := strings.ToUpper(entry)
	var style lipgloss.Style
	switch {
	case strings.Contains(upper, "FAIL"), strings.Contains(upper, "ERROR"):
		style = lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	case strings.Contains(upper, "WARN"):
		style = lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
	case strings.Contains(upper, "PASS"):
		style = lipgloss.NewStyle().Foreground(styles.StatusSuccessColor)
	case strings.Contains(entry, "[DEBUG]"):
		style = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	default:
		style = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor)
	}
	return style.Render(entry)
}

// View renders the overlay box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	width := m.boxWidth()
	divider := lipgloss.NewStyle().Foreground(styles.OverlayBorderColor).Render(strings.Repeat("─", width-2))

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteByte('\n')
	b.WriteString(divider)
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(divider)
	b.WriteByte('\n')
	b.WriteString(m.footer())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(width - 2).
		Render(b.String())
}

func (m Model) header() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(styles.OverlayTitleColor).Underline(true)
	idle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)

	prod, app := idle, idle
	if m.tab == TabProduction {
		prod = active
	} else {
		app = active
	}
	title := " " + prod.Render("Production log") + "   " + app.Render("App log")
	if m.tab == TabProduction {
		title += "  " + styles.MutedStyle.Render(styles.Truncate(m.path, 60))
	}
	return title
}

func (m Model) footer() string {
	hint := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	bold := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)

	parts := []string{hint.Render("[tab] Switch"), hint.Render("[j/k] Scroll")}
	if m.tab == TabApp {
		for _, lv := range []struct {
			level log.Level
			label string
		}{
			{log.LevelDebug, "[d] Debug"},
			{log.LevelInfo, "[i] Info"},
			{log.LevelWarn, "[w] Warn"},
			{log.LevelError, "[e] Error"},
		} {
			if lv.level == m.minLevel {
				parts = append(parts, bold.Render(lv.label))
			} else {
				parts = append(parts, hint.Render(lv.label))
			}
		}
	}
	parts = append(parts, hint.Render("[esc] Close"))
	return " " + strings.Join(parts, "  ")
}

// Overlay renders the viewer centered on bg.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{Width: m.width, Height: m.height, Position: overlay.Center}, m.View(), bg)
}
