// Package app contains the root application model.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/prodtests/internal/api"
	"github.com/zjrosen/prodtests/internal/cachemanager"
	"github.com/zjrosen/prodtests/internal/config"
	"github.com/zjrosen/prodtests/internal/keys"
	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/mode"
	"github.com/zjrosen/prodtests/internal/mode/edit"
	"github.com/zjrosen/prodtests/internal/mode/failure"
	"github.com/zjrosen/prodtests/internal/mode/landing"
	"github.com/zjrosen/prodtests/internal/mode/progress"
	"github.com/zjrosen/prodtests/internal/mode/settings"
	"github.com/zjrosen/prodtests/internal/prodtest"
	"github.com/zjrosen/prodtests/internal/tracing"
	"github.com/zjrosen/prodtests/internal/ui/logviewer"
	"github.com/zjrosen/prodtests/internal/ui/styles"
	"github.com/zjrosen/prodtests/internal/ui/toaster"
	"github.com/zjrosen/prodtests/internal/watcher"
)

// Startup banners, one per failure.
const (
	bannerPrimeConfig = "Failed to retrieve the device config file. Check that the config JSON for this part is available to the backend."
	bannerPartNumber  = "Failed to read device part number."
	bannerFetchPrefix = "Failed to retrieve test sets for "
	bannerNoTests     = "Production tests not currently available for "
)

// Options are the collaborators of the root model.
type Options struct {
	Services mode.Services
	Primer   api.ConfigPrimer
	Identity api.DeviceIdentity
	// Cache holds fetched repositories keyed by full part number.
	Cache cachemanager.CacheManager[string, *prodtest.Repository]
}

// loadedMsg ends the startup sequence.
type loadedMsg struct {
	partNumber string
	display    string
	repo       *prodtest.Repository
	err        error
}

// Model is the root application state.
type Model struct {
	nav      mode.Navigator
	services mode.Services

	primer   api.ConfigPrimer
	identity api.DeviceIdentity
	repos    *cachemanager.ReadThroughCache[string, *prodtest.Repository]

	// Startup state. Pages render only once loading is false and banner is
	// empty.
	loading    bool
	banner     string
	spinner    spinner.Model
	partNumber string
	display    string
	repo       *prodtest.Repository

	landing  landing.Model
	edit     edit.Model
	settings settings.Model
	progress progress.Model
	failure  failure.Model

	// Centralized toaster, owned by the app rather than the pages
	toaster toaster.Model
	logs    logviewer.Model
	help    help.Model

	width  int
	height int
}

// New creates the root model. Nothing touches the backend until Init.
func New(opts Options) Model {
	services := opts.Services
	if services.Config == nil {
		cfg := config.Defaults()
		services.Config = &cfg
	}
	if opts.Primer == nil {
		opts.Primer = api.NoopPrimer{}
	}
	if opts.Identity == nil {
		opts.Identity = api.StaticIdentity(services.Config.Device.PartNumber)
	}
	if opts.Cache == nil {
		opts.Cache = cachemanager.NewInMemoryCacheManager[string, *prodtest.Repository](
			"repository", services.Config.Cache.TTL, cachemanager.DefaultCleanupInterval)
	}

	backend := services.Backend
	repos := cachemanager.NewReadThroughCache(opts.Cache,
		func(ctx context.Context, partNumber string) (*prodtest.Repository, error) {
			return backend.FetchRepository(ctx, partNumber)
		}, services.Config.Cache.TTL)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	return Model{
		services: services,
		primer:   opts.Primer,
		identity: opts.Identity,
		repos:    repos,
		loading:  true,
		spinner:  sp,
		toaster:  toaster.New(),
		logs:     logviewer.New(services.Config.Log.Path),
		help:     help.New(),
	}
}

// Init implements tea.Model. It runs the startup sequence: prime the
// backend config, read the part number, then fetch the repository.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick)
}

func (m Model) load() tea.Cmd {
	primer, identity, repos := m.primer, m.identity, m.repos
	tracer := m.services.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("app")
	}

	return func() tea.Msg {
		ctx, span := tracer.Start(context.Background(), tracing.SpanStartup)
		defer span.End()

		msg := startup(ctx, primer, identity, repos)
		if msg.err != nil {
			span.RecordError(msg.err)
			span.SetStatus(codes.Error, msg.err.Error())
			log.ErrorErr(log.CatAPI, "Startup failed", msg.err, "partNumber", msg.partNumber)
		} else {
			span.SetAttributes(attribute.String(tracing.AttrPartNumber, msg.partNumber))
		}
		return msg
	}
}

func startup(
	ctx context.Context,
	primer api.ConfigPrimer,
	identity api.DeviceIdentity,
	repos *cachemanager.ReadThroughCache[string, *prodtest.Repository],
) loadedMsg {
	if err := primer.Prime(ctx); err != nil {
		return loadedMsg{err: err}
	}
	raw, err := identity.PartNumber(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	full, display := api.NormalizePartNumber(raw)
	repo, err := repos.Get(ctx, full)
	if err == nil && repo == nil {
		err = &api.NoTestsError{PartNumber: full}
	}
	return loadedMsg{partNumber: full, display: display, repo: repo, err: err}
}

// bannerFor maps a startup failure onto its banner text.
func bannerFor(err error, partNumber string) string {
	var noTests *api.NoTestsError
	switch {
	case errors.Is(err, api.ErrPrimeConfig):
		return bannerPrimeConfig
	case errors.Is(err, api.ErrPartNumber):
		return bannerPartNumber
	case errors.As(err, &noTests):
		return bannerNoTests + noTests.PartNumber + "."
	default:
		return bannerFetchPrefix + partNumber + "."
	}
}

// Page returns the current page.
func (m Model) Page() mode.Page { return m.nav.Current() }

// Banner returns the startup failure banner, if any.
func (m Model) Banner() string { return m.banner }

// Repository returns the current snapshot.
func (m Model) Repository() *prodtest.Repository { return m.repo }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.logs.SetSize(msg.Width, msg.Height)
		m = m.resize()
		return m, nil

	case loadedMsg:
		return m.handleLoaded(msg)

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		if key.Matches(msg, keys.Common.Quit) {
			return m, tea.Quit
		}
		if m.logs.Visible() {
			var cmd tea.Cmd
			m.logs, cmd = m.logs.Update(msg)
			return m, cmd
		}
		if key.Matches(msg, keys.Common.Log) {
			return m.openLogs()
		}
		if m.loading || m.banner != "" {
			return m, nil
		}
		if key.Matches(msg, keys.Common.Help) && !m.typing() {
			m.help.ShowAll = !m.help.ShowAll
			m = m.resize()
			return m, nil
		}

	case tea.MouseMsg:
		if m.logs.Visible() {
			var cmd tea.Cmd
			m.logs, cmd = m.logs.Update(msg)
			return m, cmd
		}

	case log.LogEvent, watcher.ChangedMsg:
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd

	case logviewer.CloseMsg:
		return m, nil

	case mode.ShowLogMsg:
		return m.openLogs()

	case toaster.ShowMsg:
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Show(msg.Message, msg.Style, toaster.DefaultDuration)
		return m, cmd

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil

	case landing.RunMsg:
		return m.startRun(msg.Selection)

	case landing.EditMsg:
		return m.openEditor(msg.SetID)

	case landing.ConfigMsg:
		if err := m.nav.Go(mode.Config); err != nil {
			return m, nil
		}
		m.settings = settings.New(m.services, m.repo).SetSize(m.pageSize())
		return m, m.settings.Init()

	case landing.SelectedMsg:
		return m, m.saveSelection(msg.Selection)

	case landing.SetsChangedMsg:
		return m.commitSets(msg.Sets)

	case edit.DoneMsg:
		if m.nav.Current() != mode.Edit {
			return m, nil
		}
		var cmd tea.Cmd
		m, cmd = m.commitSets(msg.Sets)
		return m.toLanding(cmd)

	case edit.CancelMsg, settings.CancelMsg, failure.DoneMsg, progress.DoneMsg:
		return m.toLanding(nil)

	case settings.DoneMsg:
		if m.nav.Current() != mode.Config {
			return m, nil
		}
		var cmd tea.Cmd
		m, cmd = m.commitSettings(msg.Settings)
		return m.toLanding(cmd)

	case progress.FailedMsg:
		if err := m.nav.Go(mode.Failure); err != nil {
			return m, nil
		}
		m.failure = failure.New(msg.TestName).SetSize(m.pageSize())
		return m, nil
	}

	if m.loading || m.banner != "" {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.nav.Current() {
	case mode.Landing:
		m.landing, cmd = m.landing.Update(msg)
	case mode.Edit:
		m.edit, cmd = m.edit.Update(msg)
	case mode.Config:
		m.settings, cmd = m.settings.Update(msg)
	case mode.Progress:
		m.progress, cmd = m.progress.Update(msg)
	case mode.Failure:
		m.failure, cmd = m.failure.Update(msg)
	}
	return m, cmd
}

func (m Model) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.partNumber = msg.partNumber
	m.display = msg.display
	if msg.err != nil {
		m.banner = bannerFor(msg.err, msg.partNumber)
		return m, nil
	}

	m.repo = msg.repo
	sel := prodtest.ParseSelection(m.services.Config.UI.LastSelected)
	m.landing = landing.New(m.services, m.repo, m.partNumber, m.display, sel).SetSize(m.pageSize())
	log.Info(log.CatNav, "Startup complete", "partNumber", m.partNumber, "selection", sel)
	return m, m.landing.Init()
}

// typing reports whether a text input on the current page owns the keyboard.
func (m Model) typing() bool {
	switch m.nav.Current() {
	case mode.Config:
		return true
	case mode.Landing:
		return m.landing.DialogOpen()
	}
	return false
}

func (m Model) openLogs() (tea.Model, tea.Cmd) {
	if m.logs.Visible() {
		return m, nil
	}
	var cmd tea.Cmd
	m.logs, cmd = m.logs.Open()
	return m, cmd
}

func (m Model) startRun(sel prodtest.Selection) (tea.Model, tea.Cmd) {
	if err := m.nav.Go(mode.Progress); err != nil {
		return m, nil
	}
	m.progress = progress.New(m.services, m.repo, m.partNumber, sel).SetSize(m.pageSize())
	var cmd tea.Cmd
	m.progress, cmd = m.progress.Start()
	return m, cmd
}

func (m Model) openEditor(setID string) (tea.Model, tea.Cmd) {
	page, err := edit.New(m.services, m.repo, setID)
	if err != nil {
		log.ErrorErr(log.CatEdit, "Cannot open editor", err, "set", setID)
		return m, toaster.Show("Test set not found", toaster.StyleError)
	}
	if err := m.nav.Go(mode.Edit); err != nil {
		return m, nil
	}
	m.edit = page.SetSize(m.pageSize())
	return m, nil
}

// toLanding returns to the landing page and refreshes its last-run line.
func (m Model) toLanding(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if err := m.nav.Go(mode.Landing); err != nil {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.landing.Init())
}

// setRepository replaces the snapshot everywhere it is held.
func (m Model) setRepository(repo *prodtest.Repository) Model {
	m.repo = repo
	m.repos.Put(context.Background(), m.partNumber, repo)
	m.landing = m.landing.SetRepository(repo)
	return m
}

// commitSets applies sets locally and persists them in the background.
// Failures are logged only; the local state is kept.
func (m Model) commitSets(sets []prodtest.TestSet) (Model, tea.Cmd) {
	next := m.repo.Clone()
	next.Sets = prodtest.CloneSets(sets)
	m = m.setRepository(next)

	backend, pn := m.services.Backend, m.partNumber
	body := prodtest.CloneSets(sets)
	return m, func() tea.Msg {
		if err := backend.CommitSets(context.Background(), pn, body); err != nil {
			log.ErrorErr(log.CatAPI, "Failed to commit test sets", err, "partNumber", pn)
		}
		return nil
	}
}

// commitSettings stores s in the snapshot and sends the whole repository.
func (m Model) commitSettings(s prodtest.Settings) (Model, tea.Cmd) {
	next := m.repo.Clone()
	next.Settings = s
	m = m.setRepository(next)

	backend, pn := m.services.Backend, m.partNumber
	body := next.Clone()
	return m, func() tea.Msg {
		if err := backend.CommitSettings(context.Background(), pn, body); err != nil {
			log.ErrorErr(log.CatAPI, "Failed to commit settings", err, "partNumber", pn)
		}
		return nil
	}
}

// saveSelection remembers sel in memory and in the config file.
func (m Model) saveSelection(sel prodtest.Selection) tea.Cmd {
	wire := sel.WireID()
	m.services.Config.UI.LastSelected = wire
	path := m.services.ConfigPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		if err := config.SaveLastSelected(path, wire); err != nil {
			log.ErrorErr(log.CatConfig, "Failed to save selection", err, "path", path)
		}
		return nil
	}
}

func (m Model) statusVisible() bool {
	return m.services.Config.UI.ShowStatusBar && !m.loading && m.banner == ""
}

func (m Model) pageSize() (int, int) {
	h := m.height
	if m.statusVisible() {
		h -= lipgloss.Height(m.statusBar())
	}
	return m.width, max(h, 0)
}

func (m Model) resize() Model {
	w, h := m.pageSize()
	m.landing = m.landing.SetSize(w, h)
	m.edit = m.edit.SetSize(w, h)
	m.settings = m.settings.SetSize(w, h)
	m.progress = m.progress.SetSize(w, h)
	m.failure = m.failure.SetSize(w, h)
	return m
}

func (m Model) keyMap() help.KeyMap {
	switch m.nav.Current() {
	case mode.Edit:
		return keys.Edit
	case mode.Config:
		return keys.Config
	case mode.Progress:
		return keys.Progress
	case mode.Failure:
		return keys.Failure
	default:
		return keys.Landing
	}
}

func (m Model) statusBar() string {
	left := m.help.View(m.keyMap())
	if m.display == "" || m.help.ShowAll {
		return styles.StatusBar.Render(left)
	}
	right := styles.MutedStyle.Render(m.partNumber)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return styles.StatusBar.Render(left)
	}
	return styles.StatusBar.Render(left + fmt.Sprintf("%*s", gap, "") + right)
}

// View implements tea.Model.
func (m Model) View() string {
	var view string
	switch {
	case m.loading:
		view = m.center(m.spinner.View() + " Loading production tests...")
	case m.banner != "":
		view = m.center(styles.BannerStyle.Width(min(max(m.width-8, 20), 72)).Render(m.banner))
	default:
		view = m.pageView()
		if m.statusVisible() {
			view = lipgloss.JoinVertical(lipgloss.Left, view, m.statusBar())
		}
	}

	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	if m.logs.Visible() {
		view = m.logs.Overlay(view)
	}
	return zone.Scan(view)
}

func (m Model) pageView() string {
	switch m.nav.Current() {
	case mode.Edit:
		return m.edit.View()
	case mode.Config:
		return m.settings.View()
	case mode.Progress:
		return m.progress.View()
	case mode.Failure:
		return m.failure.View()
	default:
		return m.landing.View()
	}
}

func (m Model) center(s string) string {
	if m.width == 0 || m.height == 0 {
		return s
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

// Close releases resources held by the application. A run in progress is
// detached locally; the backend keeps running it.
func (m *Model) Close() error {
	m.logs = m.logs.Close()
	if m.nav.Current() == mode.Progress {
		m.progress.Close()
	}
	return nil
}
