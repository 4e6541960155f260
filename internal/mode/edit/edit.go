// Package edit implements the test set editor page: the library on the left,
// the ordered test set on the right. Items are picked up with space and
// dropped into a slot, which stands in for drag and drop.
package edit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/prodtests/internal/editor"
	"github.com/zjrosen/prodtests/internal/keys"
	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/mode"
	"github.com/zjrosen/prodtests/internal/prodtest"
	"github.com/zjrosen/prodtests/internal/ui/styles"
)

const (
	zoneDone   = "edit:done"
	zoneCancel = "edit:cancel"
	zoneEnd    = "edit:end"
)

// DoneMsg carries the committed sets array.
type DoneMsg struct {
	SetID string
	Sets  []prodtest.TestSet
}

// CancelMsg discards the edit.
type CancelMsg struct{}

// Model holds the edit page state.
type Model struct {
	services mode.Services
	repo     *prodtest.Repository
	setName  string
	editor   *editor.Editor

	focus   editor.Collection
	cursors [2]int
	grabbed *editor.Location

	width  int
	height int
}

// New loads the set setID into a fresh editor.
func New(services mode.Services, repo *prodtest.Repository, setID string, opts ...editor.Option) (Model, error) {
	ed := editor.New(opts...)
	if err := ed.Initialize(repo, setID); err != nil {
		return Model{}, err
	}
	set, _ := repo.FindSet(setID)
	return Model{
		services: services,
		repo:     repo,
		setName:  set.Name,
		editor:   ed,
		focus:    editor.TestSet,
	}, nil
}

// SetSize updates the page dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Editor exposes the working copy.
func (m Model) Editor() *editor.Editor { return m.editor }

// Focus returns the focused pane.
func (m Model) Focus() editor.Collection { return m.focus }

// Cursor returns the cursor in the focused pane.
func (m Model) Cursor() int { return m.cursors[m.focus] }

// Grabbed returns the picked-up item's location, or nil.
func (m Model) Grabbed() *editor.Location { return m.grabbed }

func (m Model) size(c editor.Collection) int {
	if c == editor.Library {
		return len(m.editor.Library())
	}
	return len(m.editor.TestSet())
}

// maxCursor is the last selectable slot. Carrying an item from the library
// into the test set opens an extra slot past the end.
func (m Model) maxCursor(c editor.Collection) int {
	n := m.size(c)
	if c == editor.TestSet && m.grabbed != nil && m.grabbed.Collection == editor.Library {
		return n
	}
	return n - 1
}

func (m Model) clampCursors() Model {
	for _, c := range []editor.Collection{editor.Library, editor.TestSet} {
		m.cursors[c] = max(0, min(m.cursors[c], m.maxCursor(c)))
	}
	return m
}

// Update handles messages for the edit page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Edit.Up):
		m.cursors[m.focus]--
		return m.clampCursors(), nil
	case key.Matches(msg, keys.Edit.Down):
		m.cursors[m.focus]++
		return m.clampCursors(), nil
	case key.Matches(msg, keys.Edit.SwitchPane):
		m.focus = 1 - m.focus
		return m.clampCursors(), nil
	case key.Matches(msg, keys.Edit.Grab):
		if m.grabbed == nil {
			return m.grab(m.focus, m.cursors[m.focus]), nil
		}
		return m.drop(&editor.Location{Collection: m.focus, Index: m.cursors[m.focus]}), nil
	case key.Matches(msg, keys.Edit.Cancel):
		if m.grabbed != nil {
			return m.drop(nil), nil
		}
		log.Debug(log.CatEdit, "Edit discarded", "set", m.editor.SetID())
		return m, func() tea.Msg { return CancelMsg{} }
	case key.Matches(msg, keys.Edit.Copy):
		return m.copyToEnd(), nil
	case key.Matches(msg, keys.Edit.Remove):
		return m.remove(), nil
	case key.Matches(msg, keys.Edit.Done):
		if m.grabbed != nil {
			return m, nil
		}
		return m.done()
	}
	return m, nil
}

func inZone(id string, msg tea.MouseMsg) bool {
	z := zone.Get(id)
	return z != nil && z.InBounds(msg)
}

func rowZone(c editor.Collection, i int) string {
	return fmt.Sprintf("edit:%s:%d", c, i)
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
		return m, nil
	}
	switch {
	case inZone(zoneDone, msg):
		if m.grabbed != nil {
			return m, nil
		}
		return m.done()
	case inZone(zoneCancel, msg):
		return m, func() tea.Msg { return CancelMsg{} }
	case inZone(zoneEnd, msg):
		if m.grabbed != nil {
			return m.drop(&editor.Location{Collection: editor.TestSet, Index: m.size(editor.TestSet)}), nil
		}
		return m, nil
	}
	for _, c := range []editor.Collection{editor.Library, editor.TestSet} {
		for i := 0; i < m.size(c); i++ {
			if !inZone(rowZone(c, i), msg) {
				continue
			}
			m.focus = c
			m.cursors[c] = i
			if m.grabbed == nil {
				return m.grab(c, i), nil
			}
			return m.drop(&editor.Location{Collection: c, Index: i}), nil
		}
	}
	return m, nil
}

func (m Model) grab(c editor.Collection, i int) Model {
	if i < 0 || i >= m.size(c) {
		return m
	}
	m.grabbed = &editor.Location{Collection: c, Index: i}
	if c == editor.Library {
		// Carry the item over so the next drop lands in the test set.
		m.focus = editor.TestSet
	}
	return m.clampCursors()
}

// drop completes the gesture started by grab. A nil destination cancels it.
func (m Model) drop(dst *editor.Location) Model {
	if m.grabbed == nil {
		return m
	}
	r := editor.DragResult{Source: *m.grabbed, Destination: dst}
	m.grabbed = nil
	if dst != nil && dst.Collection == editor.TestSet {
		dst.Index = min(dst.Index, m.insertLimit(r.Source))
	}
	m.editor.Drop(r)
	if dst != nil {
		log.Debug(log.CatEdit, "Drop", "from", r.Source.Collection, "index", r.Source.Index,
			"to", dst.Collection, "at", dst.Index)
	}
	return m.clampCursors()
}

// insertLimit is the highest valid destination index for a drop into the
// test set from src.
func (m Model) insertLimit(src editor.Location) int {
	n := m.size(editor.TestSet)
	if src.Collection == editor.TestSet {
		return max(n-1, 0)
	}
	return n
}

func (m Model) copyToEnd() Model {
	if m.focus != editor.Library || m.grabbed != nil || m.size(editor.Library) == 0 {
		return m
	}
	m.editor.Copy(m.cursors[editor.Library], m.size(editor.TestSet))
	return m
}

func (m Model) remove() Model {
	if m.focus != editor.TestSet || m.grabbed != nil || m.size(editor.TestSet) == 0 {
		return m
	}
	m.editor.Remove(m.cursors[editor.TestSet])
	return m.clampCursors()
}

func (m Model) done() (Model, tea.Cmd) {
	sets, err := m.editor.Commit(m.repo.Sets)
	if err != nil {
		log.ErrorErr(log.CatEdit, "Commit failed", err, "set", m.editor.SetID())
		return m, func() tea.Msg { return CancelMsg{} }
	}
	id := m.editor.SetID()
	return m, func() tea.Msg { return DoneMsg{SetID: id, Sets: sets} }
}

// View renders the edit page.
func (m Model) View() string {
	width := max(m.width, 40)
	height := max(m.height, 12)

	paneWidth := width / 2
	paneHeight := height - 5

	lib := m.editor.Library()
	set := m.editor.TestSet()

	left := styles.Panel(m.renderRows(editor.Library, lib, paneWidth-2, paneHeight-2),
		fmt.Sprintf("Library (%d)", len(lib)), paneWidth, paneHeight, m.focus == editor.Library)
	right := styles.Panel(m.renderRows(editor.TestSet, set, width-paneWidth-2, paneHeight-2),
		fmt.Sprintf("%s (%d)", m.setName, len(set)), width-paneWidth, paneHeight, m.focus == editor.TestSet)

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Edit Test Set"))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(m.changesLine())
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		zone.Mark(zoneCancel, styles.Button("Cancel", styles.ButtonSecondary, false, false)), "  ",
		zone.Mark(zoneDone, styles.Button("Done", styles.ButtonPrimary, true, m.grabbed != nil)),
	))
	return b.String()
}

func (m Model) renderRows(c editor.Collection, items []editor.Item, width, rows int) string {
	cursor := m.cursors[c]
	focused := m.focus == c

	// Keep the cursor visible.
	start := 0
	if cursor >= rows {
		start = cursor - rows + 1
	}

	var lines []string
	for i := start; i < len(items) && len(lines) < rows; i++ {
		lines = append(lines, zone.Mark(rowZone(c, i), m.renderRow(c, i, items[i], width, focused && i == cursor)))
	}
	if c == editor.TestSet && m.grabbed != nil && m.grabbed.Collection == editor.Library && len(lines) < rows {
		slot := styles.MutedStyle.Render(runewidth.FillRight("  + drop here", width))
		if focused && cursor == len(items) {
			slot = styles.SelectedStyle.Render(runewidth.FillRight("> + drop here", width))
		}
		lines = append(lines, zone.Mark(zoneEnd, slot))
	}
	if len(items) == 0 && c == editor.TestSet && m.grabbed == nil {
		lines = append(lines, styles.MutedStyle.Render("  empty: add tests from the library"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(c editor.Collection, i int, item editor.Item, width int, selected bool) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	marker := ""
	if m.grabbed != nil && m.grabbed.Collection == c && m.grabbed.Index == i {
		marker = " ≡"
	}
	num := ""
	if c == editor.TestSet {
		num = fmt.Sprintf("%2d. ", i+1)
	}
	nameWidth := max(width-runewidth.StringWidth(prefix+num+marker), 1)
	line := prefix + num + runewidth.FillRight(styles.Truncate(item.Name, nameWidth), nameWidth) + marker

	switch {
	case marker != "":
		return styles.WarningStyle.Render(line)
	case selected:
		return styles.SelectedStyle.Render(line)
	}
	return line
}

func (m Model) changesLine() string {
	c := m.editor.Changes()
	switch {
	case c.Empty():
		return styles.MutedStyle.Render("No changes")
	case c.Reordered:
		return styles.WarningStyle.Render("Reordered")
	}
	var parts []string
	if len(c.Added) > 0 {
		parts = append(parts, styles.SuccessStyle.Render(fmt.Sprintf("+%d", len(c.Added))))
	}
	if len(c.Removed) > 0 {
		parts = append(parts, styles.ErrorStyle.Render(fmt.Sprintf("-%d", len(c.Removed))))
	}
	return strings.Join(parts, " ") + styles.MutedStyle.Render(" pending")
}
