// Package landing implements the test set chooser, the application's home
// page. Sets can be created, renamed and deleted here; Run, Edit and Config
// leave the page.
package landing

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/prodtests/internal/history"
	"github.com/zjrosen/prodtests/internal/keys"
	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/mode"
	"github.com/zjrosen/prodtests/internal/mode/shared"
	"github.com/zjrosen/prodtests/internal/prodtest"
	"github.com/zjrosen/prodtests/internal/ui/modal"
	"github.com/zjrosen/prodtests/internal/ui/styles"
)

// AllName is how the whole library is listed.
const AllName = "All"

const (
	zoneRun    = "landing:run"
	zoneEdit   = "landing:edit"
	zoneConfig = "landing:config"
	zoneNew    = "landing:new"
	zoneRename = "landing:rename"
	zoneDelete = "landing:delete"
	zoneItem   = "landing:item:"
)

// RunMsg asks the app to start a run of Selection.
type RunMsg struct {
	Selection prodtest.Selection
}

// EditMsg asks the app to open the editor on SetID.
type EditMsg struct {
	SetID string
}

// ConfigMsg asks the app to open the settings page.
type ConfigMsg struct{}

// SelectedMsg reports a new selection so it can be remembered.
type SelectedMsg struct {
	Selection prodtest.Selection
}

// SetsChangedMsg carries the full sets array after a create, rename or
// delete. The app commits it and updates its snapshot.
type SetsChangedMsg struct {
	Sets []prodtest.TestSet
}

// lastRunMsg delivers the most recent recorded run for this part number.
type lastRunMsg struct {
	run *history.Run
}

type dialog int

const (
	dialogNone dialog = iota
	dialogNew
	dialogRename
	dialogDelete
)

// Model holds the landing page state.
type Model struct {
	services   mode.Services
	repo       *prodtest.Repository
	partNumber string // full form, used for history lookups
	display    string

	cursor int // 0 is All, i>0 is repo.Sets[i-1]

	dialog dialog
	modal  modal.Model

	lastRun *history.Run

	width  int
	height int
}

// New creates the landing page over repo with sel preselected. A selection
// whose set no longer exists falls back to All.
func New(services mode.Services, repo *prodtest.Repository, partNumber, display string, sel prodtest.Selection) Model {
	m := Model{services: services, repo: repo, partNumber: partNumber, display: display}
	m.cursor = m.indexOf(sel)
	return m
}

// Init loads the last recorded run when history is available.
func (m Model) Init() tea.Cmd {
	return m.loadLastRun()
}

// SetSize updates the page dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// SetRepository swaps the snapshot, keeping the selection when it survives.
func (m Model) SetRepository(repo *prodtest.Repository) Model {
	sel := m.Selection()
	m.repo = repo
	m.cursor = m.indexOf(sel)
	return m
}

// Selection returns the highlighted selection.
func (m Model) Selection() prodtest.Selection {
	if m.cursor <= 0 || m.repo == nil || m.cursor > len(m.repo.Sets) {
		return prodtest.AllTests()
	}
	return prodtest.ByID(m.repo.Sets[m.cursor-1].ID)
}

// DialogOpen reports whether a name or delete dialog has focus.
func (m Model) DialogOpen() bool { return m.dialog != dialogNone }

// LastRun returns the last recorded run, if any.
func (m Model) LastRun() *history.Run { return m.lastRun }

func (m Model) indexOf(sel prodtest.Selection) int {
	if sel.IsAll() || m.repo == nil {
		return 0
	}
	for i, s := range m.repo.Sets {
		if s.ID == sel.ID() {
			return i + 1
		}
	}
	return 0
}

func (m Model) rows() int {
	if m.repo == nil {
		return 1
	}
	return len(m.repo.Sets) + 1
}

// Update handles messages for the landing page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lastRunMsg:
		m.lastRun = msg.run
		return m, nil

	case modal.SubmitMsg:
		return m.handleSubmit(msg.Value)

	case modal.CancelMsg:
		m.dialog = dialogNone
		return m, nil

	case tea.MouseMsg:
		if m.dialog != dialogNone {
			var cmd tea.Cmd
			m.modal, cmd = m.modal.Update(msg)
			return m, cmd
		}
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.dialog != dialogNone {
			var cmd tea.Cmd
			m.modal, cmd = m.modal.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}

	if m.dialog != dialogNone {
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Landing.Up):
		return m.moveTo(m.cursor - 1)
	case key.Matches(msg, keys.Landing.Down):
		return m.moveTo(m.cursor + 1)
	case key.Matches(msg, keys.Landing.Run):
		return m.run()
	case key.Matches(msg, keys.Landing.Edit):
		return m.edit()
	case key.Matches(msg, keys.Landing.Config):
		return m, func() tea.Msg { return ConfigMsg{} }
	case key.Matches(msg, keys.Landing.New):
		return m.openNew()
	case key.Matches(msg, keys.Landing.Rename):
		return m.openRename()
	case key.Matches(msg, keys.Landing.Delete):
		return m.openDelete()
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
		return m, nil
	}
	switch {
	case inZone(zoneRun, msg):
		return m.run()
	case inZone(zoneEdit, msg):
		return m.edit()
	case inZone(zoneConfig, msg):
		return m, func() tea.Msg { return ConfigMsg{} }
	case inZone(zoneNew, msg):
		return m.openNew()
	case inZone(zoneRename, msg):
		return m.openRename()
	case inZone(zoneDelete, msg):
		return m.openDelete()
	}
	for i := 0; i < m.rows(); i++ {
		if inZone(itemZone(i), msg) {
			return m.moveTo(i)
		}
	}
	return m, nil
}

func inZone(id string, msg tea.MouseMsg) bool {
	z := zone.Get(id)
	return z != nil && z.InBounds(msg)
}

func itemZone(i int) string { return fmt.Sprintf("%s%d", zoneItem, i) }

func (m Model) moveTo(i int) (Model, tea.Cmd) {
	if i < 0 || i >= m.rows() || i == m.cursor {
		return m, nil
	}
	m.cursor = i
	sel := m.Selection()
	return m, func() tea.Msg { return SelectedMsg{Selection: sel} }
}

func (m Model) run() (Model, tea.Cmd) {
	sel := m.Selection()
	return m, func() tea.Msg { return RunMsg{Selection: sel} }
}

func (m Model) edit() (Model, tea.Cmd) {
	sel := m.Selection()
	if sel.IsAll() {
		return m, nil
	}
	return m, func() tea.Msg { return EditMsg{SetID: sel.ID()} }
}

func (m Model) openNew() (Model, tea.Cmd) {
	m.dialog = dialogNew
	m.modal = modal.New(modal.Config{
		Title:        "New Test Set",
		Input:        &modal.InputConfig{Placeholder: "Name of test set", Value: "Test Set", MaxLength: 64},
		ConfirmLabel: "Done",
	})
	return m, m.modal.Init()
}

func (m Model) openRename() (Model, tea.Cmd) {
	sel := m.Selection()
	if sel.IsAll() {
		return m, nil
	}
	set, _ := m.repo.FindSet(sel.ID())
	m.dialog = dialogRename
	m.modal = modal.New(modal.Config{
		Title:        "Rename Test Set",
		Input:        &modal.InputConfig{Placeholder: "Name of test set", Value: set.Name, MaxLength: 64},
		ConfirmLabel: "Done",
	})
	return m, m.modal.Init()
}

func (m Model) openDelete() (Model, tea.Cmd) {
	sel := m.Selection()
	if sel.IsAll() {
		return m, nil
	}
	set, _ := m.repo.FindSet(sel.ID())
	m.dialog = dialogDelete
	m.modal = modal.New(modal.Config{
		Title:        "Delete Test Set",
		Message:      fmt.Sprintf("Delete %q? This cannot be undone.", set.Name),
		ConfirmLabel: "Delete",
		Danger:       true,
	})
	return m, nil
}

func (m Model) handleSubmit(value string) (Model, tea.Cmd) {
	d := m.dialog
	m.dialog = dialogNone
	if m.repo == nil {
		return m, nil
	}

	var (
		sets []prodtest.TestSet
		err  error
	)
	switch d {
	case dialogNew:
		var set prodtest.TestSet
		sets, set = prodtest.AddSet(m.repo.Sets)
		if sets, err = prodtest.RenameSet(sets, set.ID, value); err != nil {
			break
		}
		log.Info(log.CatEdit, "Created test set", "id", set.ID, "name", value)
		return m.applySets(sets, prodtest.ByID(set.ID))

	case dialogRename:
		id := m.Selection().ID()
		if sets, err = prodtest.RenameSet(m.repo.Sets, id, value); err != nil {
			break
		}
		log.Info(log.CatEdit, "Renamed test set", "id", id, "name", value)
		return m.applySets(sets, prodtest.ByID(id))

	case dialogDelete:
		id := m.Selection().ID()
		if sets, err = prodtest.DeleteSet(m.repo.Sets, id); err != nil {
			break
		}
		log.Info(log.CatEdit, "Deleted test set", "id", id)
		return m.applySets(sets, prodtest.AllTests())

	default:
		return m, nil
	}

	log.ErrorErr(log.CatEdit, "Test set change rejected", err)
	return m, nil
}

// applySets updates the local snapshot optimistically and hands the sets to
// the app for persistence.
func (m Model) applySets(sets []prodtest.TestSet, sel prodtest.Selection) (Model, tea.Cmd) {
	repo := m.repo.Clone()
	repo.Sets = sets
	m.repo = repo
	m.cursor = m.indexOf(sel)
	return m, tea.Batch(
		func() tea.Msg { return SetsChangedMsg{Sets: prodtest.CloneSets(sets)} },
		func() tea.Msg { return SelectedMsg{Selection: sel} },
	)
}

func (m Model) loadLastRun() tea.Cmd {
	store := m.services.History
	if store == nil {
		return nil
	}
	pn := m.partNumber
	return func() tea.Msg {
		runs, err := store.List(context.Background(), 20)
		if err != nil {
			log.ErrorErr(log.CatHistory, "Failed to load last run", err)
			return nil
		}
		for i := range runs {
			if pn == "" || runs[i].PartNumber == pn {
				return lastRunMsg{run: &runs[i]}
			}
		}
		return nil
	}
}

// View renders the landing page.
func (m Model) View() string {
	var b strings.Builder

	title := "Production Tests"
	if m.display != "" {
		title = m.display + " " + title
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.MutedStyle.Render("Select Test Set"))
	b.WriteString("\n\n")

	listWidth := max(min(m.width-4, 60), 24)
	for i := 0; i < m.rows(); i++ {
		b.WriteString(zone.Mark(itemZone(i), m.renderRow(i, listWidth)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	sel := m.Selection()
	actions := lipgloss.JoinHorizontal(lipgloss.Top,
		zone.Mark(zoneNew, styles.Button("New", styles.ButtonSecondary, false, false)), " ",
		zone.Mark(zoneRename, styles.Button("Rename", styles.ButtonSecondary, false, sel.IsAll())), " ",
		zone.Mark(zoneDelete, styles.Button("Delete", styles.ButtonDanger, false, sel.IsAll())),
	)
	b.WriteString(actions)
	b.WriteString("\n\n")

	controls := lipgloss.JoinHorizontal(lipgloss.Top,
		zone.Mark(zoneConfig, styles.Button("Config", styles.ButtonSecondary, false, false)), "  ",
		zone.Mark(zoneRun, styles.Button("Run", styles.ButtonPrimary, true, false)), "  ",
		zone.Mark(zoneEdit, styles.Button("Edit", styles.ButtonSecondary, false, sel.IsAll())),
	)
	b.WriteString(controls)

	if line := m.lastRunLine(); line != "" {
		b.WriteString("\n\n")
		b.WriteString(line)
	}

	view := b.String()
	if m.width > 0 && m.height > 0 {
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
	}
	if m.dialog != dialogNone {
		return m.modal.Overlay(view, m.width, m.height)
	}
	return view
}

func (m Model) renderRow(i, width int) string {
	name, count := AllName, 0
	if i == 0 {
		if m.repo != nil {
			count, _ = m.repo.Count(prodtest.AllTests())
		}
	} else {
		set := m.repo.Sets[i-1]
		name, count = set.Name, len(set.Tests)
	}

	radio := "( ) "
	if i == m.cursor {
		radio = styles.SelectionIndicatorStyle.Render("(•) ")
	}
	suffix := fmt.Sprintf(" %d tests", count)
	if count == 1 {
		suffix = " 1 test"
	}
	nameWidth := max(width-4-lipgloss.Width(suffix), 4)
	label := styles.PadRight(styles.Truncate(name, nameWidth), nameWidth)
	if i == m.cursor {
		label = styles.SelectedStyle.Render(label)
	}
	return radio + label + styles.MutedStyle.Render(suffix)
}

func (m Model) lastRunLine() string {
	r := m.lastRun
	if r == nil {
		return ""
	}
	outcome := string(r.Outcome)
	switch r.Outcome {
	case history.Passed:
		outcome = styles.SuccessStyle.Render(outcome)
	case history.Failed, history.FeedLost, history.StartFailed:
		outcome = styles.ErrorStyle.Render(outcome)
	}
	name := r.SetName
	if name == "" {
		name = AllName
	}
	return styles.MutedStyle.Render("Last run: ") + outcome +
		styles.MutedStyle.Render(fmt.Sprintf(" · %s · %s", name, shared.Since(r.FinishedAt, m.services.Clock)))
}
