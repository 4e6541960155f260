package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	require.Equal(t, "", Truncate("abc", 0))
	require.Equal(t, "abc", Truncate("abc", 3))
	require.Equal(t, "..", Truncate("abcdef", 2))
	require.Equal(t, "ab...", Truncate("abcdefgh", 5))
	require.Equal(t, 5, lipgloss.Width(Truncate("日本語テキスト", 5)))
}

func TestPadRight(t *testing.T) {
	require.Equal(t, "ab   ", PadRight("ab", 5))
	require.Equal(t, "ab...", PadRight("abcdefgh", 5))
}

func TestPanel_Dimensions(t *testing.T) {
	out := Panel("line one\nline two", "Library", 20, 5, true)
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 5)
	for _, l := range lines {
		require.Equal(t, 20, lipgloss.Width(l))
	}
	require.Contains(t, ansi.Strip(lines[0]), "─ Library ")
	require.Contains(t, ansi.Strip(lines[1]), "line one")
}

func TestPanel_LongTitleTruncated(t *testing.T) {
	out := Panel("", "A very long panel title", 12, 3, false)
	top := ansi.Strip(strings.Split(out, "\n")[0])
	require.Equal(t, 12, lipgloss.Width(top))
	require.Contains(t, top, "...")
}

func TestApplyTheme(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, ApplyTheme(ThemeConfig{Preset: "default"})) })

	require.NoError(t, ApplyTheme(ThemeConfig{Preset: "nord"}))
	require.Equal(t, "#BF616A", StatusErrorColor.Dark)
	require.Equal(t, "#A3BE8C", ProgressEndColor)

	require.NoError(t, ApplyTheme(ThemeConfig{Colors: map[string]string{"status.error": "#F00"}}))
	require.Equal(t, "#F00", StatusErrorColor.Dark)

	require.ErrorContains(t, ApplyTheme(ThemeConfig{Preset: "solarized"}), "unknown theme preset")
	require.ErrorContains(t, ApplyTheme(ThemeConfig{Colors: map[string]string{"nope": "#FFF"}}), "unknown color token")
	require.ErrorContains(t, ApplyTheme(ThemeConfig{Colors: map[string]string{"text.muted": "red"}}), "invalid hex color")
}

func TestIsHexColor(t *testing.T) {
	require.True(t, IsHexColor("#fff"))
	require.True(t, IsHexColor("#A3BE8C"))
	require.False(t, IsHexColor("A3BE8C"))
	require.False(t, IsHexColor("#GGGGGG"))
	require.False(t, IsHexColor("#ABCD"))
}

func TestButton(t *testing.T) {
	require.Contains(t, Button("Run", ButtonPrimary, true, false), "Run")
	require.Contains(t, Button("Delete", ButtonDanger, false, true), "Delete")
	require.Contains(t, PresetNames(), "high-contrast")
}
