// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"}
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#777777"}

	// Borders
	BorderDefaultColor        = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#696969"}
	BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	// Buttons
	ButtonTextColor             = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ButtonPrimaryBgColor        = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	ButtonPrimaryFocusBgColor   = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	ButtonSecondaryBgColor      = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#2D3436"}
	ButtonSecondaryFocusBgColor = lipgloss.AdaptiveColor{Light: "#636E72", Dark: "#636E72"}
	ButtonDangerBgColor         = lipgloss.AdaptiveColor{Light: "#922B21", Dark: "#922B21"}
	ButtonDangerFocusBgColor    = lipgloss.AdaptiveColor{Light: "#E74C3C", Dark: "#E74C3C"}
	ButtonDisabledBgColor       = lipgloss.AdaptiveColor{Light: "#2D2D2D", Dark: "#2D2D2D"}

	// Forms
	FormBorderColor      = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#8C8C8C"}
	FormBorderFocusColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	// Overlays
	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#8C8C8C"}

	// Toasts
	ToastBorderSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ToastBorderErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	ToastBorderInfoColor    = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	ToastBorderWarnColor    = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}

	// Progress bar gradient
	ProgressStartColor = "#3498DB"
	ProgressEndColor   = "#73F59F"

	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFFFFF"}
)

var (
	SelectionIndicatorStyle lipgloss.Style

	PrimaryButtonStyle          lipgloss.Style
	PrimaryButtonFocusedStyle   lipgloss.Style
	SecondaryButtonStyle        lipgloss.Style
	SecondaryButtonFocusedStyle lipgloss.Style
	DangerButtonStyle           lipgloss.Style
	DangerButtonFocusedStyle    lipgloss.Style
	DisabledButtonStyle         lipgloss.Style

	TitleStyle    lipgloss.Style
	MutedStyle    lipgloss.Style
	SuccessStyle  lipgloss.Style
	ErrorStyle    lipgloss.Style
	WarningStyle  lipgloss.Style
	BannerStyle   lipgloss.Style
	StatusBar     lipgloss.Style
	SelectedStyle lipgloss.Style
)

func init() {
	rebuildStyles()
}

func rebuildStyles() {
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	base := lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(ButtonTextColor)
	focus := func(s lipgloss.Style) lipgloss.Style { return s.Underline(true).UnderlineSpaces(true) }

	PrimaryButtonStyle = base.Background(ButtonPrimaryBgColor)
	PrimaryButtonFocusedStyle = focus(base.Background(ButtonPrimaryFocusBgColor))
	SecondaryButtonStyle = base.Background(ButtonSecondaryBgColor)
	SecondaryButtonFocusedStyle = focus(base.Background(ButtonSecondaryFocusBgColor))
	DangerButtonStyle = base.Background(ButtonDangerBgColor)
	DangerButtonFocusedStyle = focus(base.Background(ButtonDangerFocusBgColor))
	DisabledButtonStyle = base.Background(ButtonDisabledBgColor).Foreground(TextMutedColor)

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(StatusSuccessColor)
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(StatusErrorColor)
	WarningStyle = lipgloss.NewStyle().Foreground(StatusWarningColor)
	BannerStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(StatusErrorColor).
		Foreground(StatusErrorColor).
		Padding(1, 3)
	StatusBar = lipgloss.NewStyle().Foreground(TextSecondaryColor).Padding(0, 1)
	SelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(BorderHighlightFocusColor)
}

// ButtonKind selects a button palette.
type ButtonKind int

const (
	ButtonPrimary ButtonKind = iota
	ButtonSecondary
	ButtonDanger
)

// Button renders a button label. Disabled buttons ignore focus.
func Button(label string, kind ButtonKind, focused, disabled bool) string {
	if disabled {
		return DisabledButtonStyle.Render(label)
	}
	switch kind {
	case ButtonDanger:
		if focused {
			return DangerButtonFocusedStyle.Render(label)
		}
		return DangerButtonStyle.Render(label)
	case ButtonSecondary:
		if focused {
			return SecondaryButtonFocusedStyle.Render(label)
		}
		return SecondaryButtonStyle.Render(label)
	default:
		if focused {
			return PrimaryButtonFocusedStyle.Render(label)
		}
		return PrimaryButtonStyle.Render(label)
	}
}
