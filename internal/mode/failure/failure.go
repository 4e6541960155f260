// Package failure implements the page shown when a test fails.
package failure

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/prodtests/internal/keys"
	"github.com/zjrosen/prodtests/internal/mode"
	"github.com/zjrosen/prodtests/internal/ui/styles"
)

const (
	zoneDone = "failure:done"
	zoneLog  = "failure:log"
)

// DoneMsg returns to the landing page.
type DoneMsg struct{}

// Model holds the failure page state.
type Model struct {
	testName string
	width    int
	height   int
}

// New shows testName as the failing test.
func New(testName string) Model {
	return Model{testName: testName}
}

// TestName returns the failing test's display name.
func (m Model) TestName() string { return m.testName }

// SetSize updates the page dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Update handles messages for the failure page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Failure.Done) {
			return m, done
		}
	case tea.MouseMsg:
		if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
			return m, nil
		}
		if z := zone.Get(zoneDone); z != nil && z.InBounds(msg) {
			return m, done
		}
		if z := zone.Get(zoneLog); z != nil && z.InBounds(msg) {
			return m, func() tea.Msg { return mode.ShowLogMsg{} }
		}
	}
	return m, nil
}

func done() tea.Msg { return DoneMsg{} }

// View renders the failure page.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.testName)
	b.WriteString("\n\n")
	b.WriteString(styles.ErrorStyle.Render("FAIL"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		zone.Mark(zoneDone, styles.Button("Done", styles.ButtonPrimary, true, false)), "  ",
		zone.Mark(zoneLog, styles.Button("Log", styles.ButtonSecondary, false, false)),
	))

	view := b.String()
	if m.width > 0 && m.height > 0 {
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
	}
	return view
}
