package landing

import (
	"context"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prodtests/internal/history"
	"github.com/zjrosen/prodtests/internal/mode"
	"github.com/zjrosen/prodtests/internal/mode/shared"
	"github.com/zjrosen/prodtests/internal/prodtest"
	"github.com/zjrosen/prodtests/internal/ui/modal"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type mockStore struct{ mock.Mock }

func (m *mockStore) Record(ctx context.Context, run *history.Run) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockStore) List(ctx context.Context, limit int) ([]history.Run, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]history.Run)
	return runs, args.Error(1)
}

func (m *mockStore) Close() error { return nil }

func testRepo() *prodtest.Repository {
	return &prodtest.Repository{
		Common: []string{"c_open", "c_short"},
		Lib:    []string{"l_noise"},
		Sets: []prodtest.TestSet{
			{ID: "s1", Name: "Quick", Tests: []string{"c_open"}},
			{ID: "s2", Name: "Full", Tests: []string{"c_open", "c_short", "l_noise"}},
		},
	}
}

func newModel(sel prodtest.Selection) Model {
	m := New(mode.Services{Clock: shared.FixedClock(testNow)}, testRepo(), "S3908-15.0.0", "S3908", sel)
	return m.SetSize(80, 30)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// flatten runs cmd and expands batches.
func flatten(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, flatten(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestNew_UnknownSelectionFallsBackToAll(t *testing.T) {
	m := newModel(prodtest.ByID("gone"))
	require.True(t, m.Selection().IsAll())

	m = newModel(prodtest.ByID("s2"))
	require.Equal(t, "s2", m.Selection().ID())
}

func TestMoveEmitsSelected(t *testing.T) {
	m := newModel(prodtest.AllTests())

	m, cmd := m.Update(key("j"))
	require.Equal(t, "s1", m.Selection().ID())
	require.Equal(t, SelectedMsg{Selection: prodtest.ByID("s1")}, cmd())

	m, _ = m.Update(key("down"))
	m, cmd = m.Update(key("down"))
	require.Nil(t, cmd, "cursor stays on the last row")
	require.Equal(t, "s2", m.Selection().ID())

	m, _ = m.Update(key("up"))
	require.Equal(t, "s1", m.Selection().ID())
}

func TestRun(t *testing.T) {
	m := newModel(prodtest.ByID("s1"))
	_, cmd := m.Update(key("enter"))
	require.Equal(t, RunMsg{Selection: prodtest.ByID("s1")}, cmd())
}

func TestEdit_DisabledForAll(t *testing.T) {
	m := newModel(prodtest.AllTests())
	_, cmd := m.Update(key("e"))
	require.Nil(t, cmd)

	m = newModel(prodtest.ByID("s2"))
	_, cmd = m.Update(key("e"))
	require.Equal(t, EditMsg{SetID: "s2"}, cmd())
}

func TestConfig(t *testing.T) {
	m := newModel(prodtest.AllTests())
	_, cmd := m.Update(key("c"))
	require.Equal(t, ConfigMsg{}, cmd())
}

func TestNewSet_AddsAndSelects(t *testing.T) {
	m := newModel(prodtest.AllTests())

	m, _ = m.Update(key("n"))
	require.True(t, m.DialogOpen())

	m, cmd := m.Update(modal.SubmitMsg{Value: "Burn-in"})
	require.False(t, m.DialogOpen())

	msgs := flatten(cmd)
	require.Len(t, msgs, 2)
	changed := msgs[0].(SetsChangedMsg)
	require.Len(t, changed.Sets, 3)
	added := changed.Sets[2]
	require.Equal(t, "Burn-in", added.Name)
	require.Empty(t, added.Tests)
	require.Equal(t, SelectedMsg{Selection: prodtest.ByID(added.ID)}, msgs[1])
	require.Equal(t, added.ID, m.Selection().ID())
}

func TestRenameSet(t *testing.T) {
	m := newModel(prodtest.ByID("s1"))

	m, _ = m.Update(key("r"))
	require.True(t, m.DialogOpen())
	require.Equal(t, "Quick", m.modal.Value())

	m, cmd := m.Update(modal.SubmitMsg{Value: "Smoke"})
	changed := flatten(cmd)[0].(SetsChangedMsg)
	require.Equal(t, "Smoke", changed.Sets[0].Name)
	require.Equal(t, "s1", m.Selection().ID())
}

func TestRenameAndDelete_DisabledForAll(t *testing.T) {
	m := newModel(prodtest.AllTests())
	m, _ = m.Update(key("r"))
	require.False(t, m.DialogOpen())
	m, _ = m.Update(key("d"))
	require.False(t, m.DialogOpen())
}

func TestDeleteSet_FallsBackToAll(t *testing.T) {
	m := newModel(prodtest.ByID("s2"))

	m, _ = m.Update(key("d"))
	require.True(t, m.DialogOpen())

	m, cmd := m.Update(modal.SubmitMsg{})
	msgs := flatten(cmd)
	changed := msgs[0].(SetsChangedMsg)
	require.Len(t, changed.Sets, 1)
	require.Equal(t, "s1", changed.Sets[0].ID)
	require.True(t, m.Selection().IsAll())
	require.Equal(t, SelectedMsg{Selection: prodtest.AllTests()}, msgs[1])
}

func TestDialogCancel(t *testing.T) {
	m := newModel(prodtest.ByID("s1"))
	m, _ = m.Update(key("d"))
	m, cmd := m.Update(modal.CancelMsg{})
	require.Nil(t, cmd)
	require.False(t, m.DialogOpen())
	require.Equal(t, "s1", m.Selection().ID())
}

func TestDialogCapturesKeys(t *testing.T) {
	m := newModel(prodtest.AllTests())
	m, _ = m.Update(key("n"))

	m, _ = m.Update(key("j"))
	require.True(t, m.Selection().IsAll(), "list keys go to the dialog")
}

func TestSetRepository_KeepsSurvivingSelection(t *testing.T) {
	m := newModel(prodtest.ByID("s2"))

	repo := testRepo()
	repo.Sets = repo.Sets[1:]
	m = m.SetRepository(repo)
	require.Equal(t, "s2", m.Selection().ID())

	repo.Sets = nil
	m = m.SetRepository(repo)
	require.True(t, m.Selection().IsAll())
}

func TestView(t *testing.T) {
	m := newModel(prodtest.ByID("s1"))
	view := m.View()

	require.Contains(t, view, "S3908 Production Tests")
	require.Contains(t, view, "All")
	require.Contains(t, view, "3 tests")
	require.Contains(t, view, "Quick")
	require.Contains(t, view, "1 test")
	require.Contains(t, view, "Run")
	require.Contains(t, view, "Edit")
}

func TestLastRun(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, 20).Return([]history.Run{
		{PartNumber: "OTHER", SetID: "all", Outcome: history.Passed, FinishedAt: testNow},
		{PartNumber: "S3908-15.0.0", SetID: "s1", SetName: "Quick", Outcome: history.Failed, FinishedAt: testNow.Add(-5 * time.Minute)},
	}, nil)

	m := New(mode.Services{History: store, Clock: shared.FixedClock(testNow)}, testRepo(), "S3908-15.0.0", "S3908", prodtest.AllTests())
	m, _ = m.Update(m.Init()())

	require.NotNil(t, m.LastRun())
	require.Equal(t, "Quick", m.LastRun().SetName)
	view := m.View()
	require.Contains(t, view, "Last run:")
	require.Contains(t, view, "5m ago")
	store.AssertExpectations(t)
}

func TestInit_NoHistory(t *testing.T) {
	m := newModel(prodtest.AllTests())
	require.Nil(t, m.Init())
}
