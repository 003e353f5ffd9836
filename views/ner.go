package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/components"
	"github.com/dataops-tui/dataops-tui/internal/session"
	"github.com/dataops-tui/dataops-tui/internal/theme"
)

// NERModel runs named-entity analysis over the profiler's text columns. The
// column list follows the profile: every refresh rebuilds it, so renamed or
// dropped columns cannot be submitted.
type NERModel struct {
	deps   Deps
	width  int
	height int

	columns    []string
	list       *components.Checklist
	vp         viewport.Model
	vpReady    bool
	running    bool
	showReport bool
	statusKind string
	statusText string
}

type nerDoneMsg struct {
	Report api.NERReport
	Err    error
}

func NewNER(deps Deps) NERModel {
	m := NERModel{
		deps: deps,
		list: components.NewChecklist("Text Columns"),
	}
	m.rebuildColumns()
	m.showReport = len(deps.Store.Current().NER) > 0
	return m
}

func (m *NERModel) rebuildColumns() {
	m.columns = m.deps.Store.Current().Profile.TextColumns()
	items := make([]components.ChecklistItem, len(m.columns))
	for i, c := range m.columns {
		items[i] = components.ChecklistItem{Label: c}
	}
	m.list.SetItems(items)
}

func (m *NERModel) refreshReport() {
	if m.vpReady {
		m.vp.SetContent(renderNERReport(m.deps.Store.Current().NER))
	}
}

func (m NERModel) Init() tea.Cmd { return nil }

func (m NERModel) Update(msg tea.Msg) (NERModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)
		if !m.vpReady {
			m.vp = viewport.New(msg.Width-4, msg.Height-8)
			m.vpReady = true
		} else {
			m.vp.Width = msg.Width - 4
			m.vp.Height = msg.Height - 8
		}
		m.refreshReport()

	case StateChangedMsg:
		m.rebuildColumns()
		m.refreshReport()
		if len(m.deps.Store.Current().NER) == 0 {
			m.showReport = false
		}

	case nerDoneMsg:
		m.running = false
		if msg.Err != nil {
			m.statusKind = "error"
			m.statusText = errText(msg.Err, "Entity analysis failed")
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("analyze entities", msg.Err))
		}
		m.showReport = true
		m.statusText = ""
		return m, tea.Batch(func() tea.Msg { return busyOff() },
			emit(session.NERUpdated{Report: msg.Report}))

	case tea.KeyMsg:
		if m.running {
			return m, nil
		}
		key := msg.String()
		if m.showReport {
			switch key {
			case "esc":
				return m, navigate(ViewHome)
			case "b":
				m.showReport = false
				return m, nil
			}
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
		switch key {
		case "esc":
			return m, navigate(ViewHome)
		case "up", "k":
			m.list.MoveUp()
		case "down", "j":
			m.list.MoveDown()
		case " ":
			m.list.Toggle()
		case "a":
			m.list.SelectAll()
		case "c":
			m.list.ClearSelection()
		case "v":
			if len(m.deps.Store.Current().NER) > 0 {
				m.showReport = true
			}
		case "enter":
			if m.list.SelectedCount() == 0 {
				m.statusKind = "warning"
				m.statusText = "Select at least one column"
				return m, nil
			}
			selected := make([]string, 0, m.list.SelectedCount())
			for _, i := range m.list.SelectedIndices() {
				selected = append(selected, m.columns[i])
			}
			m.running = true
			m.statusKind = "info"
			m.statusText = "Analyzing entities..."
			client := m.deps.Client
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				report, err := client.AnalyzeEntities(context.Background(), selected)
				return nerDoneMsg{Report: report, Err: err}
			})
		}
	}
	return m, nil
}

func (m NERModel) View() string {
	var b strings.Builder
	b.WriteString(theme.RenderTitle(theme.IconEntities, "Entity Analysis") + "\n\n")

	switch {
	case m.showReport && m.vpReady:
		b.WriteString(m.vp.View() + "\n")
		b.WriteString("\n" + theme.RenderHelpBar([]string{
			"[↑/↓] scroll", "[b] columns", "[esc] back",
		}, m.width))
	case len(m.columns) == 0:
		b.WriteString(theme.RenderTextDim("No text columns in the current dataset.") + "\n")
		b.WriteString("\n" + theme.RenderHelpBar([]string{"[esc] back"}, m.width))
	default:
		b.WriteString(m.list.Render() + "\n")
		if m.statusText != "" {
			b.WriteString("\n" + theme.RenderStatus(m.statusKind, m.statusText) + "\n")
		}
		b.WriteString("\n" + theme.RenderHelpBar([]string{
			"[space] toggle", "[a] all", "[enter] analyze", "[v] report", "[esc] back",
		}, m.width))
	}

	return theme.PanelStyle.Width(m.width - 2).Render(b.String())
}

func renderNERReport(report api.NERReport) string {
	if len(report) == 0 {
		return theme.RenderTextDim("No entity report yet.")
	}

	var b strings.Builder
	for _, col := range sortedKeys(report) {
		r := report[col]
		b.WriteString(theme.RenderTextBold(theme.IconEntities+" "+col) + "\n")
		if r.Error != "" {
			b.WriteString(theme.RenderStatus("warning", r.Error) + "\n\n")
			continue
		}

		t := newReportTable()
		t.AppendHeader(table.Row{"Entity Type", "Count"})
		for _, typ := range sortedKeys(r.EntitiesByType) {
			t.AppendRow(table.Row{typ, r.EntitiesByType[typ]})
		}
		b.WriteString(t.Render() + "\n")

		if len(r.TopEntities) > 0 {
			t = newReportTable()
			t.AppendHeader(table.Row{"Top Entity", "Occurrences"})
			for _, e := range r.TopEntities {
				t.AppendRow(table.Row{e.Text, e.Count})
			}
			b.WriteString(t.Render() + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
