package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func RenderText(text string) string {
	return lipgloss.NewStyle().Foreground(ColorForeground).Render(text)
}

func RenderTextDim(text string) string {
	return lipgloss.NewStyle().Foreground(ColorForegroundDim).Render(text)
}

func RenderTextBold(text string) string {
	return lipgloss.NewStyle().Foreground(ColorForegroundBright).Bold(true).Render(text)
}

func RenderTitle(icon, text string) string {
	if icon != "" {
		return TitleStyle.Render(icon + " " + text)
	}
	return TitleStyle.Render(text)
}

// RenderSelection renders a full-width focused row.
func RenderSelection(content string, width int) string {
	return lipgloss.NewStyle().
		Background(ColorBackgroundLighter).
		Foreground(ColorForegroundBright).
		Width(width).
		Render(content)
}

func RenderHeader(text string, width int) string {
	return lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Width(width).
		Render(text)
}

func RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return lipgloss.NewStyle().
		Foreground(ColorBorder).
		Render(strings.Repeat("─", width))
}

// RenderStatus renders a short status line colored by message type
// ("success", "error", "warning", "info").
func RenderStatus(msgType, text string) string {
	var style lipgloss.Style
	switch msgType {
	case "success":
		style = lipgloss.NewStyle().Foreground(ColorSuccess)
		text = IconCheck + " " + text
	case "error":
		style = lipgloss.NewStyle().Foreground(ColorError)
		text = IconCross + " " + text
	case "warning":
		style = lipgloss.NewStyle().Foreground(ColorWarning)
	default:
		style = lipgloss.NewStyle().Foreground(ColorInfo)
	}
	return style.Render(text)
}

func RenderCheckboxItem(label string, checked bool, width int, focused bool) string {
	box := "[ ]"
	if checked {
		box = "[" + IconCheck + "]"
	}
	content := box + " " + label
	if focused {
		return RenderSelection(content, width)
	}
	if checked {
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render(content)
	}
	return RenderText(content)
}

func RenderSelectionHeader(title string, selectedCount, totalCount int, width int) string {
	return RenderHeader(fmt.Sprintf("%s (%d/%d selected)", title, selectedCount, totalCount), width)
}

func RenderHelpBar(helpItems []string, width int) string {
	line := strings.Join(helpItems, "  ")
	return FooterStyle.Width(width).Render(line)
}
