package views

import (
	"strings"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/components"
	"github.com/dataops-tui/dataops-tui/internal/theme"
	"github.com/dataops-tui/dataops-tui/internal/utils"
)

// suggestPhase tracks the fetch half of a suggest-then-apply panel.
type suggestPhase int

const (
	suggestIdle suggestPhase = iota
	suggestLoading
	suggestReady
	suggestEmpty
	suggestFailed
)

// suggestPanel is the shared state machine behind the cleaning and feature
// panels: fetch suggestions, pick a subset, apply it. Suggestions survive a
// failed apply so the user can retry the same selection; a successful apply
// clears them because they describe data that no longer exists.
type suggestPanel struct {
	title    string
	icon     string
	list     *components.Checklist
	phase    suggestPhase
	applying bool
	logs     []string

	localKind string
	localText string
}

func newSuggestPanel(icon, title string) suggestPanel {
	return suggestPanel{
		title: title,
		icon:  icon,
		list:  components.NewChecklist(title),
	}
}

func (p *suggestPanel) setSize(width, height int) {
	p.list.SetSize(width-4, height-10)
}

func (p *suggestPanel) startLoading() {
	p.phase = suggestLoading
	p.localText = ""
	p.logs = nil
}

func (p *suggestPanel) loaded(labels []string, err error) {
	if err != nil {
		p.phase = suggestFailed
		p.localKind = "error"
		p.localText = errText(err, "Failed to fetch suggestions")
		return
	}
	if len(labels) == 0 {
		p.phase = suggestEmpty
		p.list.SetItems(nil)
		return
	}
	items := make([]components.ChecklistItem, len(labels))
	for i, l := range labels {
		items[i] = components.ChecklistItem{Label: l}
	}
	p.list.SetItems(items)
	p.phase = suggestReady
}

// startApply validates the selection locally. A false return means nothing
// was sent anywhere.
func (p *suggestPanel) startApply() bool {
	if p.phase != suggestReady || p.applying {
		return false
	}
	if p.list.SelectedCount() == 0 {
		p.localKind = "warning"
		p.localText = "Select at least one item to apply"
		return false
	}
	p.applying = true
	p.localKind = "info"
	p.localText = "Applying..."
	return true
}

func (p *suggestPanel) applyFinished(result *api.ApplyResult, err error) {
	p.applying = false
	if err != nil {
		p.localKind = "error"
		p.localText = errText(err, "Apply failed")
		return
	}
	p.logs = result.Logs
	p.list.SetItems(nil)
	p.phase = suggestIdle
	p.localKind = "success"
	p.localText = "Applied. Profile is being refreshed."
}

func (p *suggestPanel) handleKey(key string) (handled bool) {
	if p.phase != suggestReady || p.applying {
		return false
	}
	switch key {
	case "up", "k":
		p.list.MoveUp()
	case "down", "j":
		p.list.MoveDown()
	case " ":
		p.list.Toggle()
	case "a":
		p.list.SelectAll()
	case "c":
		p.list.ClearSelection()
	default:
		return false
	}
	return true
}

func (p *suggestPanel) render(width int) string {
	var b strings.Builder
	b.WriteString(theme.RenderTitle(p.icon, p.title) + "\n\n")

	switch p.phase {
	case suggestIdle:
		b.WriteString(theme.RenderTextDim("Press [s] to fetch suggestions.") + "\n")
	case suggestLoading:
		b.WriteString(theme.RenderTextDim("Asking the model for suggestions...") + "\n")
	case suggestEmpty:
		b.WriteString(theme.RenderTextDim("No suggestions. The data looks fine as is.") + "\n")
	case suggestFailed:
		b.WriteString(theme.RenderTextDim("Suggestion fetch failed. Press [s] to retry.") + "\n")
	case suggestReady:
		b.WriteString(p.list.Render() + "\n")
	}

	if len(p.logs) > 0 {
		b.WriteString("\n" + theme.RenderHeader("Last run", width-4) + "\n")
		for _, line := range p.logs {
			b.WriteString(theme.RenderTextDim("  "+utils.TruncateString(line, width-8)) + "\n")
		}
	}

	if p.localText != "" {
		b.WriteString("\n" + theme.RenderStatus(p.localKind, p.localText) + "\n")
	}

	b.WriteString("\n" + theme.RenderHelpBar([]string{
		"[s] suggest", "[space] toggle", "[a] all", "[enter] apply", "[esc] back",
	}, width))
	return b.String()
}
