package views

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/session"
	"github.com/dataops-tui/dataops-tui/internal/theme"
)

// FeaturesModel proposes and applies engineered features. Same machine as
// cleaning, different payload.
type FeaturesModel struct {
	deps   Deps
	width  int
	height int

	panel       suggestPanel
	suggestions []api.FeatureSuggestion
}

type featureSuggestionsMsg struct {
	Suggestions []api.FeatureSuggestion
	Err         error
}

type featuresAppliedMsg struct {
	Result *api.ApplyResult
	Err    error
}

func NewFeatures(deps Deps) FeaturesModel {
	return FeaturesModel{
		deps:  deps,
		panel: newSuggestPanel(theme.IconFeatures, "Feature Engineering"),
	}
}

func (m FeaturesModel) Init() tea.Cmd { return nil }

func (m FeaturesModel) Update(msg tea.Msg) (FeaturesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.panel.setSize(msg.Width, msg.Height)

	case featureSuggestionsMsg:
		m.suggestions = msg.Suggestions
		m.panel.loaded(featureLabels(msg.Suggestions), msg.Err)
		var errCmd tea.Cmd
		if msg.Err != nil {
			errCmd = globalError("fetch feature suggestions", msg.Err)
		}
		return m, tea.Batch(func() tea.Msg { return busyOff() }, errCmd)

	case featuresAppliedMsg:
		m.panel.applyFinished(msg.Result, msg.Err)
		if msg.Err != nil {
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("apply features", msg.Err))
		}
		m.suggestions = nil
		return m, tea.Batch(func() tea.Msg { return busyOff() },
			emit(session.DataModified{
				Kind:    "features",
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
				s, err := client.SuggestFeatures(context.Background())
				return featureSuggestionsMsg{Suggestions: s, Err: err}
			})
		case "enter":
			if !m.panel.startApply() {
				return m, nil
			}
			selected := make([]api.FeatureSuggestion, 0, m.panel.list.SelectedCount())
			for _, i := range m.panel.list.SelectedIndices() {
				selected = append(selected, m.suggestions[i])
			}
			client := m.deps.Client
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				result, err := client.ApplyFeatures(context.Background(), selected)
				return featuresAppliedMsg{Result: result, Err: err}
			})
		}
	}
	return m, nil
}

func (m FeaturesModel) View() string {
	return theme.PanelStyle.Width(m.width - 2).Render(m.panel.render(m.width))
}

func featureLabels(suggestions []api.FeatureSuggestion) []string {
	labels := make([]string, len(suggestions))
	for i, s := range suggestions {
		labels[i] = fmt.Sprintf("%s [%s]: %s", s.Name, s.Type, s.Description)
	}
	return labels
}
