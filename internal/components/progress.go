package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dataops-tui/dataops-tui/internal/theme"
)

// ProgressBar renders a labeled percentage bar. It carries no animation
// state; callers re-render it whenever their percent changes.
type ProgressBar struct {
	Label string
	Width int
}

func (p ProgressBar) Render(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	barWidth := p.Width - len(p.Label) - 10
	if barWidth < 5 {
		barWidth = 5
	}
	filled := int(float64(barWidth) * percent / 100)
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorText)
	barStyle := lipgloss.NewStyle().Foreground(theme.ColorAccent)
	pctStyle := lipgloss.NewStyle().Foreground(theme.ColorForegroundDim)

	return fmt.Sprintf("%s %s %s",
		labelStyle.Render(p.Label),
		barStyle.Render(bar),
		pctStyle.Render(fmt.Sprintf("%5.1f%%", percent)))
}
