package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/dataops-tui/dataops-tui/internal/session"
	"github.com/dataops-tui/dataops-tui/internal/theme"
)

// SummaryModel shows the AI-written dataset summary. The backend returns
// markdown; it is rendered for the terminal before display.
type SummaryModel struct {
	deps   Deps
	width  int
	height int

	vp         viewport.Model
	vpReady    bool
	generating bool
	statusKind string
	statusText string
}

type summaryDoneMsg struct {
	Text string
	Err  error
}

func NewSummary(deps Deps) SummaryModel {
	return SummaryModel{deps: deps}
}

func (m SummaryModel) Init() tea.Cmd { return nil }

func (m *SummaryModel) refreshContent() {
	if !m.vpReady {
		return
	}
	text := m.deps.Store.Current().Summary
	if text == "" {
		m.vp.SetContent(theme.RenderTextDim("No summary yet. Press [g] to generate one."))
		return
	}
	m.vp.SetContent(renderMarkdown(text, m.vp.Width))
}

func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

func (m SummaryModel) Update(msg tea.Msg) (SummaryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.vpReady {
			m.vp = viewport.New(msg.Width-4, msg.Height-8)
			m.vpReady = true
		} else {
			m.vp.Width = msg.Width - 4
			m.vp.Height = msg.Height - 8
		}
		m.refreshContent()

	case StateChangedMsg:
		m.refreshContent()

	case summaryDoneMsg:
		m.generating = false
		if msg.Err != nil {
			m.statusKind = "error"
			m.statusText = errText(msg.Err, "Summary generation failed")
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("generate summary", msg.Err))
		}
		m.statusText = ""
		return m, tea.Batch(func() tea.Msg { return busyOff() },
			emit(session.SummaryUpdated{Text: msg.Text}))

	case tea.KeyMsg:
		if m.generating {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, navigate(ViewHome)
		case "g":
			if m.deps.Store.Current().Profile == nil {
				m.statusKind = "warning"
				m.statusText = "Upload a dataset first"
				return m, nil
			}
			m.generating = true
			m.statusKind = "info"
			m.statusText = "Generating summary..."
			client := m.deps.Client
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				text, err := client.GenerateSummary(context.Background())
				return summaryDoneMsg{Text: text, Err: err}
			})
		}
	}

	var cmd tea.Cmd
	if m.vpReady {
		m.vp, cmd = m.vp.Update(msg)
	}
	return m, cmd
}

func (m SummaryModel) View() string {
	var b strings.Builder
	b.WriteString(theme.RenderTitle(theme.IconSummary, "AI Summary") + "\n\n")
	if m.vpReady {
		b.WriteString(m.vp.View() + "\n")
	}
	if m.statusText != "" {
		b.WriteString("\n" + theme.RenderStatus(m.statusKind, m.statusText) + "\n")
	}
	b.WriteString("\n" + theme.RenderHelpBar([]string{
		"[g] generate", "[↑/↓] scroll", "[esc] back",
	}, m.width))
	return theme.PanelStyle.Width(m.width - 2).Render(b.String())
}
