// Package progress implements the run page. It wraps a run.Controller,
// renders the bar and routes the run's outcome to the next page.
package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/prodtests/internal/flags"
	"github.com/zjrosen/prodtests/internal/history"
	"github.com/zjrosen/prodtests/internal/keys"
	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/mode"
	"github.com/zjrosen/prodtests/internal/mode/shared"
	"github.com/zjrosen/prodtests/internal/prodtest"
	"github.com/zjrosen/prodtests/internal/run"
	"github.com/zjrosen/prodtests/internal/ui/styles"
	"github.com/zjrosen/prodtests/internal/ui/toaster"
)

const (
	zoneAbort = "progress:abort"
	zoneDone  = "progress:done"
	zoneLog   = "progress:log"
)

// FailedMsg asks the app to show the failure page.
type FailedMsg struct {
	TestName string
}

// DoneMsg returns to the landing page after a pass or an abort.
type DoneMsg struct {
	Outcome run.Outcome
}

// Model holds the progress page state.
type Model struct {
	services   mode.Services
	ctrl       *run.Controller
	partNumber string
	sel        prodtest.Selection
	setName    string

	beginErr  error
	recorded  bool
	startedAt time.Time

	bar     progress.Model
	spinner spinner.Model

	width  int
	height int
}

// New prepares a run of sel against repo. The run starts with Init.
func New(services mode.Services, repo *prodtest.Repository, partNumber string, sel prodtest.Selection, opts ...run.Option) Model {
	if services.Config != nil && services.Config.Run.FinishDelay > 0 {
		opts = append([]run.Option{run.WithFinishDelay(services.Config.Run.FinishDelay)}, opts...)
	}
	if services.Tracer != nil {
		opts = append(opts, run.WithTracer(services.Tracer))
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	bar := progress.New(progress.WithGradient(styles.ProgressStartColor, styles.ProgressEndColor))
	bar.ShowPercentage = false

	m := Model{
		services:   services,
		ctrl:       run.New(services.Backend, services.Feed, partNumber, opts...),
		partNumber: partNumber,
		sel:        sel,
		setName:    setName(repo, sel),
		bar:        bar,
		spinner:    s,
	}
	m.startedAt = m.now()
	m.beginErr = m.ctrl.Begin(repo, sel)
	return m
}

func setName(repo *prodtest.Repository, sel prodtest.Selection) string {
	if sel.IsAll() {
		return "All"
	}
	if set, ok := repo.FindSet(sel.ID()); ok {
		return set.Name
	}
	return sel.ID()
}

func (m Model) now() time.Time {
	if m.services.Clock == nil {
		return time.Now()
	}
	return m.services.Clock.Now()
}

// Init issues the run-start request. A vanished set is reported as a start
// failure and nothing is sent.
func (m Model) Init() tea.Cmd {
	if m.beginErr != nil {
		return toaster.Show("Cannot start run: test set not found", toaster.StyleError)
	}
	return tea.Batch(m.ctrl.Start(context.Background()), m.spinner.Tick)
}

// Start runs Init and records a begin failure. The app calls it once when
// the page is mounted.
func (m Model) Start() (Model, tea.Cmd) {
	cmd := m.Init()
	if m.beginErr != nil {
		var rec tea.Cmd
		m, rec = m.record(history.StartFailed, m.beginErr)
		cmd = tea.Batch(cmd, rec)
	}
	return m, cmd
}

// SetSize updates the page dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.bar.Width = max(min(width-10, 60), 10)
	return m
}

// State returns the controller snapshot.
func (m Model) State() run.State { return m.ctrl.State() }

// Close tears down the subscription without an outcome.
func (m Model) Close() {
	m.ctrl.Close()
}

// Update handles messages for the progress page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case run.StartedMsg:
		cmd := m.ctrl.HandleStarted(msg)
		if err := m.ctrl.State().StartErr; err != nil {
			var rec tea.Cmd
			m, rec = m.record(history.StartFailed, err)
			return m, tea.Batch(rec, toaster.Show("Failed to start run", toaster.StyleError))
		}
		return m, cmd

	case run.FeedMsg:
		outcome, cmd := m.ctrl.Handle(msg)
		return m.handleOutcome(outcome, cmd)

	case run.PassMsg:
		return m.handleOutcome(m.ctrl.Pass(msg), nil)

	case spinner.TickMsg:
		if m.ctrl.State().Phase.Terminal() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Progress.Abort):
			return m.abort()
		case key.Matches(msg, keys.Progress.Done):
			return m.done()
		}

	case tea.MouseMsg:
		if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
			return m, nil
		}
		switch {
		case inZone(zoneAbort, msg):
			return m.abort()
		case inZone(zoneDone, msg):
			return m.done()
		case inZone(zoneLog, msg):
			return m, func() tea.Msg { return mode.ShowLogMsg{} }
		}
	}
	return m, nil
}

func inZone(id string, msg tea.MouseMsg) bool {
	z := zone.Get(id)
	return z != nil && z.InBounds(msg)
}

func (m Model) handleOutcome(outcome run.Outcome, cmd tea.Cmd) (Model, tea.Cmd) {
	var rec tea.Cmd
	switch outcome {
	case run.OutcomeFailed:
		name := m.ctrl.State().FailedTest
		m, rec = m.record(history.Failed, nil)
		return m, tea.Batch(rec, func() tea.Msg { return FailedMsg{TestName: name} })

	case run.OutcomePassed:
		m, rec = m.record(history.Passed, nil)
		return m, tea.Batch(rec, toaster.Show("All tests passed", toaster.StyleSuccess))

	case run.FeedLost:
		m, rec = m.record(history.FeedLost, m.ctrl.State().FeedErr)
		return m, tea.Batch(rec, toaster.Show("Event feed lost", toaster.StyleError))
	}
	return m, cmd
}

func (m Model) abort() (Model, tea.Cmd) {
	if m.ctrl.State().Phase == run.Passed {
		return m, nil
	}
	outcome := m.ctrl.Abort()
	var rec tea.Cmd
	if outcome == run.OutcomeAborted {
		m, rec = m.record(history.Aborted, nil)
	}
	return m, tea.Batch(rec, func() tea.Msg { return DoneMsg{Outcome: run.OutcomeAborted} })
}

func (m Model) done() (Model, tea.Cmd) {
	if m.ctrl.State().Phase != run.Passed {
		return m, nil
	}
	return m, func() tea.Msg { return DoneMsg{Outcome: run.OutcomePassed} }
}

// record stores the first outcome of this page's run attempt.
func (m Model) record(outcome history.Outcome, err error) (Model, tea.Cmd) {
	if m.recorded {
		return m, nil
	}
	m.recorded = true

	store := m.services.History
	if store == nil || !m.services.Flags.Enabled(flags.FlagRunHistory) {
		return m, nil
	}

	st := m.ctrl.State()
	entry := &history.Run{
		PartNumber: m.partNumber,
		SetID:      m.sel.WireID(),
		SetName:    m.setName,
		Total:      st.Total,
		Completed:  st.Current,
		Outcome:    outcome,
		FailedTest: st.FailedTest,
		StartedAt:  m.startedAt,
		FinishedAt: m.now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	return m, func() tea.Msg {
		if err := store.Record(context.Background(), entry); err != nil {
			log.ErrorErr(log.CatHistory, "Failed to record run", err, "outcome", outcome)
		}
		return nil
	}
}

// View renders the progress page.
func (m Model) View() string {
	st := m.ctrl.State()

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(m.setName))
	b.WriteString("\n\n")

	if st.Phase == run.Passed {
		b.WriteString(styles.SuccessStyle.Render("PASS"))
		b.WriteString("\n")
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("%d / %d in %s", st.Current, st.Total, shared.Elapsed(m.now().Sub(m.startedAt)))))
	} else {
		name := st.TestName
		if name == "" {
			name = "Preparing..."
		}
		line := name
		if !st.Phase.Terminal() && st.StartErr == nil && st.FeedErr == nil && m.beginErr == nil {
			line = m.spinner.View() + " " + name
		}
		b.WriteString(line)
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%d / %d", st.Current, st.Total))
	}
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(float64(st.Percent()) / 100))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%3d%%", st.Percent()))

	if status := m.status(st); status != "" {
		b.WriteString("\n\n")
		b.WriteString(status)
	}

	b.WriteString("\n\n")
	action := zone.Mark(zoneAbort, styles.Button("Abort", styles.ButtonDanger, true, false))
	if st.Phase == run.Passed {
		action = zone.Mark(zoneDone, styles.Button("Done", styles.ButtonPrimary, true, false))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		action, "  ",
		zone.Mark(zoneLog, styles.Button("Log", styles.ButtonSecondary, false, false)),
	))

	view := b.String()
	if m.width > 0 && m.height > 0 {
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
	}
	return view
}

func (m Model) status(st run.State) string {
	switch {
	case m.beginErr != nil:
		return styles.ErrorStyle.Render("Cannot start run: " + m.beginErr.Error())
	case st.StartErr != nil:
		return styles.ErrorStyle.Render("Failed to start run: " + st.StartErr.Error())
	case st.FeedErr != nil:
		return styles.ErrorStyle.Render("Feed lost: " + st.FeedErr.Error()) + "\n" +
			styles.MutedStyle.Render("Abort to return to the test sets.")
	}
	return ""
}
