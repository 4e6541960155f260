package styles

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ColorToken is a themeable color name.
type ColorToken string

const (
	TokenTextPrimary     ColorToken = "text.primary"
	TokenTextSecondary   ColorToken = "text.secondary"
	TokenTextMuted       ColorToken = "text.muted"
	TokenBorderDefault   ColorToken = "border.default"
	TokenBorderHighlight ColorToken = "border.highlight"
	TokenStatusSuccess   ColorToken = "status.success"
	TokenStatusWarning   ColorToken = "status.warning"
	TokenStatusError     ColorToken = "status.error"
	TokenButtonPrimaryBg ColorToken = "button.primary.bg"
	TokenButtonDangerBg  ColorToken = "button.danger.bg"
	TokenProgressStart   ColorToken = "progress.start"
	TokenProgressEnd     ColorToken = "progress.end"
)

// AllTokens lists every token accepted in theme.colors.
func AllTokens() []ColorToken {
	return []ColorToken{
		TokenTextPrimary, TokenTextSecondary, TokenTextMuted,
		TokenBorderDefault, TokenBorderHighlight,
		TokenStatusSuccess, TokenStatusWarning, TokenStatusError,
		TokenButtonPrimaryBg, TokenButtonDangerBg,
		TokenProgressStart, TokenProgressEnd,
	}
}

// Preset is a named palette.
type Preset struct {
	Name        string
	Description string
	Colors      map[ColorToken]string
}

// Presets are the built-in palettes.
var Presets = map[string]Preset{
	"default": {
		Name:        "default",
		Description: "Default palette",
		Colors:      map[ColorToken]string{},
	},
	"dracula": {
		Name:        "dracula",
		Description: "Dark theme with vibrant colors",
		Colors: map[ColorToken]string{
			TokenTextPrimary:     "#F8F8F2",
			TokenTextSecondary:   "#BFBFBF",
			TokenTextMuted:       "#6272A4",
			TokenBorderDefault:   "#44475A",
			TokenBorderHighlight: "#BD93F9",
			TokenStatusSuccess:   "#50FA7B",
			TokenStatusWarning:   "#F1FA8C",
			TokenStatusError:     "#FF5555",
			TokenButtonPrimaryBg: "#6272A4",
			TokenButtonDangerBg:  "#FF5555",
			TokenProgressStart:   "#BD93F9",
			TokenProgressEnd:     "#50FA7B",
		},
	},
	"nord": {
		Name:        "nord",
		Description: "Arctic, north-bluish palette",
		Colors: map[ColorToken]string{
			TokenTextPrimary:     "#ECEFF4",
			TokenTextSecondary:   "#D8DEE9",
			TokenTextMuted:       "#4C566A",
			TokenBorderDefault:   "#434C5E",
			TokenBorderHighlight: "#88C0D0",
			TokenStatusSuccess:   "#A3BE8C",
			TokenStatusWarning:   "#EBCB8B",
			TokenStatusError:     "#BF616A",
			TokenButtonPrimaryBg: "#5E81AC",
			TokenButtonDangerBg:  "#BF616A",
			TokenProgressStart:   "#5E81AC",
			TokenProgressEnd:     "#A3BE8C",
		},
	},
	"high-contrast": {
		Name:        "high-contrast",
		Description: "High contrast for factory floor displays",
		Colors: map[ColorToken]string{
			TokenTextPrimary:     "#FFFFFF",
			TokenTextSecondary:   "#FFFFFF",
			TokenTextMuted:       "#C0C0C0",
			TokenBorderDefault:   "#FFFFFF",
			TokenBorderHighlight: "#00FFFF",
			TokenStatusSuccess:   "#00FF00",
			TokenStatusWarning:   "#FFFF00",
			TokenStatusError:     "#FF0000",
			TokenButtonPrimaryBg: "#0000FF",
			TokenButtonDangerBg:  "#FF0000",
			TokenProgressStart:   "#00FFFF",
			TokenProgressEnd:     "#00FF00",
		},
	},
}

// PresetNames returns preset names sorted.
func PresetNames() []string {
	return slices.Sorted(maps.Keys(Presets))
}

// ThemeConfig mirrors config.ThemeConfig without importing it.
type ThemeConfig struct {
	Preset string
	Colors map[string]string
}

// ApplyTheme applies a preset then individual overrides and rebuilds styles.
func ApplyTheme(cfg ThemeConfig) error {
	colors := map[ColorToken]string{}
	if cfg.Preset != "" {
		preset, ok := Presets[cfg.Preset]
		if !ok {
			return fmt.Errorf("unknown theme preset: %s", cfg.Preset)
		}
		maps.Copy(colors, preset.Colors)
	}

	valid := AllTokens()
	for key, value := range cfg.Colors {
		token := ColorToken(key)
		if !slices.Contains(valid, token) {
			return fmt.Errorf("unknown color token: %s", key)
		}
		if !IsHexColor(value) {
			return fmt.Errorf("invalid hex color for %s: %s", key, value)
		}
		colors[token] = value
	}

	applyColors(colors)
	rebuildStyles()
	return nil
}

func applyColors(colors map[ColorToken]string) {
	set := func(token ColorToken, targets ...*lipgloss.AdaptiveColor) {
		hex, ok := colors[token]
		if !ok {
			return
		}
		for _, t := range targets {
			*t = lipgloss.AdaptiveColor{Light: hex, Dark: hex}
		}
	}

	set(TokenTextPrimary, &TextPrimaryColor, &OverlayTitleColor)
	set(TokenTextSecondary, &TextSecondaryColor)
	set(TokenTextMuted, &TextMutedColor, &TextPlaceholderColor)
	set(TokenBorderDefault, &BorderDefaultColor, &FormBorderColor, &OverlayBorderColor)
	set(TokenBorderHighlight, &BorderHighlightFocusColor, &ToastBorderInfoColor)
	set(TokenStatusSuccess, &StatusSuccessColor, &ToastBorderSuccessColor)
	set(TokenStatusWarning, &StatusWarningColor, &ToastBorderWarnColor)
	set(TokenStatusError, &StatusErrorColor, &ToastBorderErrorColor)
	set(TokenButtonPrimaryBg, &ButtonPrimaryBgColor, &ButtonPrimaryFocusBgColor)
	set(TokenButtonDangerBg, &ButtonDangerBgColor, &ButtonDangerFocusBgColor)

	if hex, ok := colors[TokenProgressStart]; ok {
		ProgressStartColor = hex
	}
	if hex, ok := colors[TokenProgressEnd]; ok {
		ProgressEndColor = hex
	}
}

// IsHexColor accepts #RGB and #RRGGBB.
func IsHexColor(s string) bool {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 3 && len(hex) != 6) {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 32)
	return err == nil
}
