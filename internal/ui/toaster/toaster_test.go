package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestShow_Visible(t *testing.T) {
	m, cmd := New().Show("Settings saved", StyleSuccess, time.Millisecond)

	require.True(t, m.Visible())
	require.Equal(t, "Settings saved", m.Message())
	require.NotNil(t, cmd)
	require.Contains(t, ansi.Strip(m.View()), "✓ Settings saved")
}

func TestDismiss_CurrentSeqHides(t *testing.T) {
	m, cmd := New().Show("one", StyleInfo, time.Millisecond)

	m = m.Update(cmd())

	require.False(t, m.Visible())
	require.Empty(t, m.View())
}

func TestDismiss_StaleSeqIgnored(t *testing.T) {
	m, first := New().Show("one", StyleInfo, time.Millisecond)
	m, _ = m.Show("two", StyleError, time.Hour)

	m = m.Update(first())

	require.True(t, m.Visible())
	require.Equal(t, "two", m.Message())
}

func TestView_Styles(t *testing.T) {
	cases := map[Style]string{
		StyleSuccess: "✓",
		StyleError:   "✗",
		StyleInfo:    "i ",
		StyleWarn:    "! ",
	}
	for style, marker := range cases {
		m, _ := New().Show("msg", style, time.Hour)
		require.Contains(t, ansi.Strip(m.View()), marker)
	}
}

func TestOverlay(t *testing.T) {
	bg := strings.Repeat(strings.Repeat(".", 40)+"\n", 9) + strings.Repeat(".", 40)

	hidden := New().Overlay(bg, 40, 10)
	require.Equal(t, bg, hidden)

	m, _ := New().Show("Run failed to start", StyleError, time.Hour)
	out := ansi.Strip(m.Overlay(bg, 40, 10))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 10)
	require.Contains(t, lines[7], "Run failed to start")
}

func TestShowCmd(t *testing.T) {
	msg := Show("hi", StyleWarn)()
	require.Equal(t, ShowMsg{Message: "hi", Style: StyleWarn}, msg)
}
