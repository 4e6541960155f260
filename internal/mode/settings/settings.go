// Package settings implements the Config page: voltage rails, the reflash
// switch and the reflash image.
package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/prodtests/internal/api"
	"github.com/zjrosen/prodtests/internal/flags"
	"github.com/zjrosen/prodtests/internal/keys"
	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/mode"
	"github.com/zjrosen/prodtests/internal/prodtest"
	rails "github.com/zjrosen/prodtests/internal/settings"
	"github.com/zjrosen/prodtests/internal/ui/styles"
)

const (
	zoneDone    = "config:done"
	zoneCancel  = "config:cancel"
	zoneToggle  = "config:reflash"
	zoneUpload  = "config:upload"
	zoneFieldID = "config:field:"
)

// DoneMsg carries the staged settings object.
type DoneMsg struct {
	Settings prodtest.Settings
}

// CancelMsg leaves the page without saving.
type CancelMsg struct{}

// UploadedMsg reports the result of an image upload.
type UploadedMsg struct {
	Name string
	Err  error
}

// focus slots after the voltage inputs.
const (
	slotToggle = len(rails.Fields) + iota
	slotImage
	slotDone
	slotCancel
	slotCount
)

// Model holds the Config page state.
type Model struct {
	services mode.Services
	repo     *prodtest.Repository
	form     *rails.Form

	voltages []textinput.Model
	image    textinput.Model
	upload   bool // image input is a local path sent with Upload
	uploads  int  // in flight

	focus int

	width  int
	height int
}

// New seeds the form from the repository's settings.
func New(services mode.Services, repo *prodtest.Repository) Model {
	form := rails.NewForm(repo.Settings)
	m := Model{
		services: services,
		repo:     repo,
		form:     form,
		upload:   services.Flags.Enabled(flags.FlagReflashUpload) && services.Backend != nil,
	}

	for _, field := range rails.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 8
		ti.Width = 8
		ti.SetValue(form.Voltages[field.Label])
		m.voltages = append(m.voltages, ti)
	}

	m.image = textinput.New()
	m.image.Prompt = ""
	m.image.Width = 40
	if m.upload {
		m.image.Placeholder = "path to .img file"
	} else {
		m.image.Placeholder = "image file name"
		m.image.SetValue(form.ReflashFile)
	}
	m.form.ImageError = !m.form.ReflashValid()
	return m.setFocus(0)
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize updates the page dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Form exposes the working copy.
func (m Model) Form() *rails.Form { return m.form }

// Uploading reports whether an upload is in flight.
func (m Model) Uploading() bool { return m.uploads > 0 }

// move steps the focus, skipping the image row while it is hidden.
func (m Model) move(step int) Model {
	f := (m.focus + step + slotCount) % slotCount
	if f == slotImage && !m.reflashOn() {
		f = (f + step + slotCount) % slotCount
	}
	return m.setFocus(f)
}

func (m Model) setFocus(f int) Model {
	m.focus = f
	for i := range m.voltages {
		if i == m.focus {
			m.voltages[i].Focus()
		} else {
			m.voltages[i].Blur()
		}
	}
	if m.focus == slotImage {
		m.image.Focus()
	} else {
		m.image.Blur()
	}
	return m
}

func (m Model) reflashOn() bool { return m.form.ReflashEnable }

func (m Model) editing() bool {
	return m.focus < len(m.voltages) || m.focus == slotImage
}

// Update handles messages for the Config page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UploadedMsg:
		m.uploads = max(m.uploads-1, 0)
		if msg.Err != nil {
			log.ErrorErr(log.CatAPI, "Image upload failed", msg.Err, "file", msg.Name)
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m.updateInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Config.Cancel):
		return m, func() tea.Msg { return CancelMsg{} }
	case key.Matches(msg, keys.Config.Done):
		return m.done()
	case key.Matches(msg, keys.Config.Next):
		return m.move(1), nil
	case key.Matches(msg, keys.Config.Prev):
		return m.move(-1), nil
	case key.Matches(msg, keys.Config.Upload):
		return m.startUpload()
	}

	if msg.String() == "enter" {
		switch m.focus {
		case slotDone:
			return m.done()
		case slotCancel:
			return m, func() tea.Msg { return CancelMsg{} }
		case slotToggle:
			return m.toggle(), nil
		case slotImage:
			if m.upload {
				return m.startUpload()
			}
		}
		return m.move(1), nil
	}
	if m.focus == slotToggle && key.Matches(msg, keys.Config.Toggle) {
		return m.toggle(), nil
	}
	return m.updateInput(msg)
}

func inZone(id string, msg tea.MouseMsg) bool {
	z := zone.Get(id)
	return z != nil && z.InBounds(msg)
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
		return m, nil
	}
	switch {
	case inZone(zoneDone, msg):
		return m.done()
	case inZone(zoneCancel, msg):
		return m, func() tea.Msg { return CancelMsg{} }
	case inZone(zoneToggle, msg):
		return m.setFocus(slotToggle).toggle(), nil
	case inZone(zoneUpload, msg):
		return m.startUpload()
	}
	for i := range m.voltages {
		if inZone(fmt.Sprintf("%s%d", zoneFieldID, i), msg) {
			return m.setFocus(i), nil
		}
	}
	if inZone(fmt.Sprintf("%s%d", zoneFieldID, slotImage), msg) && m.reflashOn() {
		return m.setFocus(slotImage), nil
	}
	return m, nil
}

// updateInput feeds msg to the focused input and applies validation. A
// rejected voltage keystroke restores the previous value.
func (m Model) updateInput(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.focus < len(m.voltages):
		label := rails.Fields[m.focus].Label
		m.voltages[m.focus], cmd = m.voltages[m.focus].Update(msg)
		input := m.voltages[m.focus].Value()
		if v := m.form.SetVoltage(label, input); v != input {
			m.voltages[m.focus].SetValue(v)
			m.voltages[m.focus].CursorEnd()
		}
	case m.focus == slotImage:
		m.image, cmd = m.image.Update(msg)
		if !m.upload {
			m.form.ReflashFile = strings.TrimSpace(m.image.Value())
			m.form.ImageError = !m.form.ReflashValid()
		}
	}
	return m, cmd
}

func (m Model) toggle() Model {
	m.form.ReflashEnable = !m.form.ReflashEnable
	m.form.ImageError = !m.form.ReflashValid()
	log.Debug(log.CatConfig, "Reflash toggled", "enable", m.form.ReflashEnable)
	return m
}

// startUpload sends the local image to the device. The file name is staged
// right away; a failed upload is only logged.
func (m Model) startUpload() (Model, tea.Cmd) {
	if !m.upload || !m.reflashOn() {
		return m, nil
	}
	path := strings.TrimSpace(m.image.Value())
	if path == "" {
		return m, nil
	}
	name := filepath.Base(path)
	m.form.ReflashFile = name
	m.form.ImageError = !m.form.ReflashValid()
	m.uploads++

	backend := m.services.Backend
	return m, func() tea.Msg {
		f, err := os.Open(path) //nolint:gosec // G304: operator-chosen image path
		if err != nil {
			return UploadedMsg{Name: name, Err: err}
		}
		defer func() { _ = f.Close() }()
		return UploadedMsg{Name: name, Err: backend.Upload(context.Background(), name, f, api.DefaultUploadLocation)}
	}
}

func (m Model) done() (Model, tea.Cmd) {
	if !m.form.CanSubmit() {
		return m, nil
	}
	staged := m.form.Stage(m.repo.Settings)
	log.Info(log.CatConfig, "Settings staged", "reflash", m.form.ReflashEnable, "file", m.form.ReflashFile)
	return m, func() tea.Msg { return DoneMsg{Settings: staged} }
}

// View renders the Config page.
func (m Model) View() string {
	label := lipgloss.NewStyle().Width(10).Foreground(styles.TextSecondaryColor)

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Config"))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedStyle.Render("Voltages (mV)"))
	b.WriteString("\n")
	for i, field := range rails.Fields {
		row := lipgloss.JoinHorizontal(lipgloss.Top, label.Render(field.Label), m.inputBox(m.voltages[i].View(), 10, m.focus == i, false))
		b.WriteString(zone.Mark(fmt.Sprintf("%s%d", zoneFieldID, i), row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	toggle := "[ ] Reflash"
	if m.reflashOn() {
		toggle = "[x] Reflash"
	}
	if m.focus == slotToggle {
		toggle = styles.SelectedStyle.Render(toggle)
	}
	b.WriteString(zone.Mark(zoneToggle, toggle))
	b.WriteString("\n")

	if m.reflashOn() {
		row := lipgloss.JoinHorizontal(lipgloss.Top, label.Render("Image"), m.inputBox(m.image.View(), 42, m.focus == slotImage, m.form.ImageError && !m.upload))
		if m.upload {
			row = lipgloss.JoinHorizontal(lipgloss.Top, row, " ",
				zone.Mark(zoneUpload, styles.Button("Upload", styles.ButtonSecondary, false, m.image.Value() == "")))
		}
		b.WriteString(zone.Mark(fmt.Sprintf("%s%d", zoneFieldID, slotImage), row))
		b.WriteString("\n")
		if m.upload {
			staged := m.form.ReflashFile
			switch {
			case m.Uploading():
				b.WriteString(styles.MutedStyle.Render("Uploading " + staged + "..."))
			case staged == "":
				b.WriteString(styles.ErrorStyle.Render("No image selected"))
			default:
				b.WriteString(styles.MutedStyle.Render("Image: ") + staged)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		zone.Mark(zoneCancel, styles.Button("Cancel", styles.ButtonSecondary, m.focus == slotCancel, false)), "  ",
		zone.Mark(zoneDone, styles.Button("Done", styles.ButtonPrimary, m.focus == slotDone, !m.form.CanSubmit())),
	))

	view := b.String()
	if m.width > 0 && m.height > 0 {
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
	}
	return view
}

func (m Model) inputBox(content string, width int, focused, invalid bool) string {
	border := styles.FormBorderColor
	switch {
	case invalid:
		border = styles.StatusErrorColor
	case focused:
		border = styles.FormBorderFocusColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(border).
		Width(width).
		Render(content)
}
