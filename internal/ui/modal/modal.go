// Package modal provides a confirm/cancel dialog with an optional single text
// input, used for naming and deleting test sets.
package modal

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/prodtests/internal/ui/overlay"
	"github.com/zjrosen/prodtests/internal/ui/styles"
)

const (
	zoneConfirm = "modal:confirm"
	zoneCancel  = "modal:cancel"
)

// Config controls modal appearance and behavior.
type Config struct {
	Title   string
	Message string
	// Input enables the text field when non-nil.
	Input        *InputConfig
	ConfirmLabel string // default "Save"
	Danger       bool
}

// InputConfig defines the text field.
type InputConfig struct {
	Placeholder string
	Value       string
	MaxLength   int
}

// SubmitMsg is sent on confirm. Value is the trimmed input text.
type SubmitMsg struct {
	Value string
}

// CancelMsg is sent on esc or Cancel.
type CancelMsg struct{}

type focus int

const (
	focusInput focus = iota
	focusConfirm
	focusCancel
)

// Model is the modal component state.
type Model struct {
	config Config
	input  textinput.Model
	focus  focus
}

// New creates a modal. With an input the field starts focused, otherwise
// the confirm button does.
func New(cfg Config) Model {
	m := Model{config: cfg, focus: focusConfirm}
	if cfg.ConfirmLabel == "" {
		m.config.ConfirmLabel = "Save"
	}
	if cfg.Input != nil {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = cfg.Input.Placeholder
		ti.Width = 36
		if cfg.Input.MaxLength > 0 {
			ti.CharLimit = cfg.Input.MaxLength
		}
		ti.SetValue(cfg.Input.Value)
		ti.Focus()
		m.input = ti
		m.focus = focusInput
	}
	return m
}

// Init starts the cursor blink when there is an input.
func (m Model) Init() tea.Cmd {
	if m.config.Input != nil {
		return textinput.Blink
	}
	return nil
}

// Value returns the current input text.
func (m Model) Value() string {
	return m.input.Value()
}

// Update handles messages for the modal.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
			return m, nil
		}
		if z := zone.Get(zoneConfirm); z != nil && z.InBounds(msg) {
			return m.submit()
		}
		if z := zone.Get(zoneCancel); z != nil && z.InBounds(msg) {
			return m, cancel
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, cancel
		case "tab", "down":
			return m.setFocus(m.next(1)), nil
		case "shift+tab", "up":
			return m.setFocus(m.next(-1)), nil
		case "left", "right":
			if m.focus != focusInput {
				return m.setFocus(m.next(1)), nil
			}
		case "enter":
			if m.focus == focusCancel {
				return m, cancel
			}
			return m.submit()
		}
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func cancel() tea.Msg { return CancelMsg{} }

func (m Model) canSubmit() bool {
	return m.config.Input == nil || strings.TrimSpace(m.input.Value()) != ""
}

func (m Model) submit() (Model, tea.Cmd) {
	if !m.canSubmit() {
		return m, nil
	}
	value := strings.TrimSpace(m.input.Value())
	return m, func() tea.Msg { return SubmitMsg{Value: value} }
}

func (m Model) next(step int) focus {
	order := []focus{focusConfirm, focusCancel}
	if m.config.Input != nil {
		order = []focus{focusInput, focusConfirm, focusCancel}
	}
	for i, f := range order {
		if f == m.focus {
			return order[(i+step+len(order))%len(order)]
		}
	}
	return order[0]
}

func (m Model) setFocus(f focus) Model {
	m.focus = f
	if m.config.Input != nil {
		if f == focusInput {
			m.input.Focus()
		} else {
			m.input.Blur()
		}
	}
	return m
}

// View renders the dialog box.
func (m Model) View() string {
	width := max(40, lipgloss.Width(m.config.Title)+4)

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(m.config.Title))
	if m.config.Message != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(m.config.Message))
	}
	if m.config.Input != nil {
		border := styles.FormBorderColor
		if m.focus == focusInput {
			border = styles.FormBorderFocusColor
		}
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Width(width - 2).
			Render(m.input.View()))
	}

	kind := styles.ButtonPrimary
	if m.config.Danger {
		kind = styles.ButtonDanger
	}
	confirm := zone.Mark(zoneConfirm, styles.Button(m.config.ConfirmLabel, kind, m.focus == focusConfirm, !m.canSubmit()))
	cancelBtn := zone.Mark(zoneCancel, styles.Button("Cancel", styles.ButtonSecondary, m.focus == focusCancel, false))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, confirm, "  ", cancelBtn))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(1, 2).
		Render(b.String())
}

// Overlay renders the modal centered over bg.
func (m Model) Overlay(bg string, width, height int) string {
	return overlay.Place(overlay.Config{Width: width, Height: height, Position: overlay.Center}, m.View(), bg)
}
