package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prodtests/internal/api"
	"github.com/zjrosen/prodtests/internal/flags"
	"github.com/zjrosen/prodtests/internal/mode"
	"github.com/zjrosen/prodtests/internal/prodtest"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type mockBackend struct{ mock.Mock }

func (m *mockBackend) FetchRepository(ctx context.Context, pn string) (*prodtest.Repository, error) {
	args := m.Called(ctx, pn)
	repo, _ := args.Get(0).(*prodtest.Repository)
	return repo, args.Error(1)
}

func (m *mockBackend) CommitSets(ctx context.Context, pn string, sets []prodtest.TestSet) error {
	return m.Called(ctx, pn, sets).Error(0)
}

func (m *mockBackend) CommitSettings(ctx context.Context, pn string, repo *prodtest.Repository) error {
	return m.Called(ctx, pn, repo).Error(0)
}

func (m *mockBackend) StartRun(ctx context.Context, pn string, sel prodtest.Selection) error {
	return m.Called(ctx, pn, sel).Error(0)
}

func (m *mockBackend) Upload(ctx context.Context, name string, r io.Reader, location string) error {
	data, _ := io.ReadAll(r)
	return m.Called(name, string(data), location).Error(0)
}

var _ api.Backend = (*mockBackend)(nil)

func repoWith(t *testing.T, settings string) *prodtest.Repository {
	t.Helper()
	var s prodtest.Settings
	require.NoError(t, json.Unmarshal([]byte(settings), &s))
	return &prodtest.Repository{Settings: s}
}

func newModel(t *testing.T, settings string, upload bool, backend api.Backend) Model {
	t.Helper()
	services := mode.Services{
		Backend: backend,
		Flags:   flags.New(map[string]bool{flags.FlagReflashUpload: upload}),
	}
	return New(services, repoWith(t, settings)).SetSize(80, 30)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "space":
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

const withVoltages = `{"voltages":{"vdd":1800,"vled":3300,"vddtx":1200,"vpu":1800},"reflash":{"enable":false},"retries":3}`

func TestNew_SeedsFromSettings(t *testing.T) {
	m := newModel(t, `{"voltages":{"vdd":1750,"vled":3300,"vddtx":1200,"vpu":1800}}`, false, nil)
	require.Equal(t, "1750", m.Form().Voltages["VDDL"])
	require.Equal(t, "1750", m.voltages[0].Value())
}

func TestVoltageInput_RejectsInvalidKeystrokes(t *testing.T) {
	m := newModel(t, withVoltages, false, nil)

	// Clear VDDL then type.
	m = press(m, "backspace", "backspace", "backspace", "backspace")
	require.Equal(t, "0", m.Form().Voltages["VDDL"])

	m = typeText(m, "2")
	require.Equal(t, "2", m.Form().Voltages["VDDL"], "leading zero is stripped")

	m = typeText(m, "x")
	require.Equal(t, "2", m.Form().Voltages["VDDL"], "non-numeric is rejected")

	m = typeText(m, "500")
	require.Equal(t, "2500", m.Form().Voltages["VDDL"])

	m = press(m, "backspace", "backspace")
	m = typeText(m, "99")
	require.Equal(t, "2599", m.Form().Voltages["VDDL"])

	m = press(m, "backspace", "backspace", "backspace", "backspace")
	m = typeText(m, "4500")
	require.Equal(t, "450", m.Form().Voltages["VDDL"], "values above 4000 are rejected")

	m = typeText(m, ".5.")
	require.Equal(t, "450.5", m.Form().Voltages["VDDL"], "one decimal point is accepted")
	require.Equal(t, "450.5", m.voltages[0].Value())
}

func TestReflashToggle_BlocksDoneWithoutImage(t *testing.T) {
	m := newModel(t, withVoltages, false, nil)

	m = press(m, "tab", "tab", "tab", "tab")
	require.Equal(t, slotToggle, m.focus)

	m = press(m, "space")
	require.True(t, m.Form().ReflashEnable)
	require.True(t, m.Form().ImageError)

	_, cmd := m.Update(key("ctrl+s"))
	require.Nil(t, cmd, "done is disabled")

	m = press(m, "tab")
	require.Equal(t, slotImage, m.focus)
	m = typeText(m, "fw.img")
	require.False(t, m.Form().ImageError)

	_, cmd = m.Update(key("ctrl+s"))
	done := cmd().(DoneMsg)
	require.True(t, done.Settings.Reflash.Enable)
	require.Equal(t, "fw.img", done.Settings.Reflash.File)
}

func TestFocus_SkipsHiddenImage(t *testing.T) {
	m := newModel(t, withVoltages, false, nil)
	m = press(m, "tab", "tab", "tab", "tab", "tab")
	require.Equal(t, slotDone, m.focus)

	m = press(m, "shift+tab")
	require.Equal(t, slotToggle, m.focus)
}

func TestDone_StagesVoltages(t *testing.T) {
	m := newModel(t, withVoltages, false, nil)
	m = press(m, "backspace")

	_, cmd := m.Update(key("ctrl+s"))
	done := cmd().(DoneMsg)

	out, err := json.Marshal(done.Settings)
	require.NoError(t, err)
	require.JSONEq(t, `{"voltages":{"vdd":180,"vled":3300,"vddtx":1200,"vpu":1800},"reflash":{"enable":false},"retries":3}`, string(out))
}

func TestCancel(t *testing.T) {
	m := newModel(t, withVoltages, false, nil)
	_, cmd := m.Update(key("esc"))
	require.Equal(t, CancelMsg{}, cmd())
}

func TestUpload_StagesBaseName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.img")
	require.NoError(t, os.WriteFile(path, []byte("IMAGE"), 0o600))

	backend := &mockBackend{}
	backend.On("Upload", "fw.img", "IMAGE", "/tmp").Return(nil)

	m := newModel(t, withVoltages, true, backend)
	m = press(m, "tab", "tab", "tab", "tab", "space", "tab")
	m = typeText(m, path)

	m, cmd := m.Update(key("ctrl+u"))
	require.NotNil(t, cmd)
	require.Equal(t, "fw.img", m.Form().ReflashFile)
	require.True(t, m.Uploading())

	m, _ = m.Update(cmd())
	require.False(t, m.Uploading())
	backend.AssertExpectations(t)
}

func TestUpload_ErrorIsOnlyLogged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.img")
	require.NoError(t, os.WriteFile(path, []byte("IMAGE"), 0o600))

	backend := &mockBackend{}
	backend.On("Upload", "fw.img", "IMAGE", "/tmp").Return(errors.New("boom"))

	m := newModel(t, withVoltages, true, backend)
	m = press(m, "tab", "tab", "tab", "tab", "space", "tab")
	m = typeText(m, path)
	m, cmd := m.Update(key("enter"))
	m, _ = m.Update(cmd())

	require.Equal(t, "fw.img", m.Form().ReflashFile)
	require.True(t, m.Form().CanSubmit())
}

func TestUpload_DisabledByFlag(t *testing.T) {
	m := newModel(t, withVoltages, false, &mockBackend{})
	m = press(m, "tab", "tab", "tab", "tab", "space", "tab")
	m = typeText(m, "/some/path/fw.img")

	_, cmd := m.Update(key("ctrl+u"))
	require.Nil(t, cmd)
	require.Equal(t, "/some/path/fw.img", m.Form().ReflashFile)
}

func TestView(t *testing.T) {
	m := newModel(t, withVoltages, true, &mockBackend{})
	view := m.View()
	require.Contains(t, view, "VDDL")
	require.Contains(t, view, "VBUS")
	require.Contains(t, view, "[ ] Reflash")
	require.NotContains(t, view, "Upload")

	m = press(m, "tab", "tab", "tab", "tab", "space")
	view = m.View()
	require.Contains(t, view, "[x] Reflash")
	require.Contains(t, view, "Upload")
	require.Contains(t, view, "No image selected")
}
