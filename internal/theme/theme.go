package theme

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Deep Ocean theme - calm blues and teals for long profiling sessions
	ColorBackground        = lipgloss.Color("#1A2B34") // Dark slate blue
	ColorBackgroundDarker  = lipgloss.Color("#132128") // Near-black blue
	ColorBackgroundLighter = lipgloss.Color("#243944") // Lighter slate

	// Text colors
	ColorForeground       = lipgloss.Color("#D8E8EE") // Pale blue white
	ColorForegroundDim    = lipgloss.Color("#7A97A5") // Muted steel
	ColorForegroundBright = lipgloss.Color("#FFFFFF") // Pure white

	// Border colors
	ColorBorderInactive = lipgloss.Color("#7A97A5") // Muted steel
	ColorBorderActive   = lipgloss.Color("#3EC5C7") // Bright teal
	ColorBorderFocused  = lipgloss.Color("#6FDCDE") // Lighter teal

	// Accent colors
	ColorAccent    = lipgloss.Color("#3EC5C7") // Teal
	ColorSecondary = lipgloss.Color("#8FD6E8") // Sky
	ColorSuccess   = lipgloss.Color("#8FD98F") // Soft green
	ColorWarning   = lipgloss.Color("#F0C674") // Amber
	ColorError     = lipgloss.Color("#EE7A7A") // Soft red
	ColorInfo      = lipgloss.Color("#9FB9FF") // Periwinkle
	ColorHighlight = lipgloss.Color("#FFE066") // Yellow

	// Common aliases
	ColorPrimary = lipgloss.Color("#3EC5C7")
	ColorText    = lipgloss.Color("#D8E8EE")
	ColorBorder  = lipgloss.Color("#7A97A5")
)

// Icons - plain Unicode symbols, no Nerd Fonts required
const (
	IconHome      = "▣"
	IconConfig    = "●"
	IconUpload    = "⇪"
	IconProfile   = "◫"
	IconCleaning  = "✦"
	IconFeatures  = "◈"
	IconEntities  = "◆"
	IconSummary   = "▤"
	IconQuery     = "◎"
	IconChart     = "◪"
	IconFolder    = "▤"
	IconFile      = "▫"
	IconCheck     = "✓"
	IconCross     = "✗"
	IconDot       = "•"
)

var (
	// Panel styles
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorderInactive).
			Padding(0, 1)

	PanelActiveStyle = PanelStyle.BorderForeground(ColorBorderActive)

	// Title styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorForegroundDim).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// Menu styles
	MenuItemStyle = lipgloss.NewStyle().
			Foreground(ColorForeground).
			Padding(0, 1)

	MenuItemFocusedStyle = lipgloss.NewStyle().
				Background(ColorAccent).
				Foreground(ColorBackground).
				Bold(true).
				Padding(0, 1)

	// Footer styles
	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorForegroundDim).
			Padding(0, 1)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	// Table styles
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true).
				BorderBottom(true).
				BorderForeground(ColorBorderInactive)

	TableRowSelectedStyle = lipgloss.NewStyle().
				Background(ColorBackgroundLighter).
				Foreground(ColorForegroundBright)

	// Input styles
	InputLabelStyle = lipgloss.NewStyle().
			Foreground(ColorForegroundDim)

	InputLabelFocusedStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)
)
