package views

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/session"
	"github.com/dataops-tui/dataops-tui/internal/theme"
)

// CleaningModel drives AI-assisted data cleaning: suggestions carry an
// executable action code that is sent back verbatim for the chosen subset.
type CleaningModel struct {
	deps   Deps
	width  int
	height int

	panel       suggestPanel
	suggestions []api.CleaningSuggestion
}

type cleaningSuggestionsMsg struct {
	Suggestions []api.CleaningSuggestion
	Err         error
}

type cleaningAppliedMsg struct {
	Result *api.ApplyResult
	Err    error
}

func NewCleaning(deps Deps) CleaningModel {
	return CleaningModel{
		deps:  deps,
		panel: newSuggestPanel(theme.IconCleaning, "Data Cleaning"),
	}
}

func (m CleaningModel) Init() tea.Cmd { return nil }

func (m CleaningModel) Update(msg tea.Msg) (CleaningModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.panel.setSize(msg.Width, msg.Height)

	case cleaningSuggestionsMsg:
		m.suggestions = msg.Suggestions
		m.panel.loaded(cleaningLabels(msg.Suggestions), msg.Err)
		var errCmd tea.Cmd
		if msg.Err != nil {
			errCmd = globalError("fetch cleaning suggestions", msg.Err)
		}
		return m, tea.Batch(func() tea.Msg { return busyOff() }, errCmd)

	case cleaningAppliedMsg:
		m.panel.applyFinished(msg.Result, msg.Err)
		if msg.Err != nil {
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("apply cleaning actions", msg.Err))
		}
		m.suggestions = nil
		return m, tea.Batch(func() tea.Msg { return busyOff() },
			emit(session.DataModified{
				Kind:    "cleaning",
				Logs:    msg.Result.Logs,
				Preview: msg.Result.DataPreview,
			}))

	case tea.KeyMsg:
		key := msg.String()
		if m.panel.handleKey(key) {
			return m, nil
		}
		switch key {
		case "esc":
			return m, navigate(ViewHome)
		case "s":
			if m.panel.phase == suggestLoading || m.panel.applying {
				return m, nil
			}
			if m.deps.Store.Current().Profile == nil {
				m.panel.localKind = "warning"
				m.panel.localText = "Upload a dataset first"
				return m, nil
			}
			m.panel.startLoading()
			client := m.deps.Client
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				s, err := client.SuggestCleaning(context.Background())
				return cleaningSuggestionsMsg{Suggestions: s, Err: err}
			})
		case "enter":
			if !m.panel.startApply() {
				return m, nil
			}
			selected := make([]api.CleaningSuggestion, 0, m.panel.list.SelectedCount())
			for _, i := range m.panel.list.SelectedIndices() {
				selected = append(selected, m.suggestions[i])
			}
			client := m.deps.Client
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				result, err := client.ApplyCleaning(context.Background(), selected)
				return cleaningAppliedMsg{Result: result, Err: err}
			})
		}
	}
	return m, nil
}

func (m CleaningModel) View() string {
	return theme.PanelStyle.Width(m.width - 2).Render(m.panel.render(m.width))
}

func cleaningLabels(suggestions []api.CleaningSuggestion) []string {
	labels := make([]string, len(suggestions))
	for i, s := range suggestions {
		labels[i] = fmt.Sprintf("%s: %s (%s)", s.Column, s.Issue, s.Suggestion)
	}
	return labels
}
