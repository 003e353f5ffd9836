package views

import (
	"bytes"
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/theme"
)

// VizModel turns a natural-language chart request into structured plot
// parameters, then into a rendered PNG saved to the download directory.
// A generation result carrying an error message is terminal: no plot call
// happens until the parameters regenerate cleanly.
type VizModel struct {
	deps   Deps
	width  int
	height int

	request textarea.Model
	params  *api.VizParams

	busy       bool
	statusKind string
	statusText string
}

type vizParamsMsg struct {
	Params *api.VizParams
	Err    error
}

type plotSavedMsg struct {
	Path string
	Err  error
}

func NewViz(deps Deps) VizModel {
	ta := textarea.New()
	ta.Placeholder = "Describe the chart, e.g. \"bar chart of sales by region\""
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	return VizModel{deps: deps, request: ta}
}

func (m VizModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m VizModel) Update(msg tea.Msg) (VizModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.request.SetWidth(msg.Width - 6)

	case vizParamsMsg:
		m.busy = false
		if msg.Err != nil {
			m.statusKind = "error"
			m.statusText = errText(msg.Err, "Could not generate plot parameters")
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("generate plot parameters", msg.Err))
		}
		m.params = msg.Params
		if msg.Params.Error != "" {
			m.statusKind = "warning"
			m.statusText = msg.Params.Error
		} else {
			m.statusKind = "success"
			m.statusText = "Parameters ready. Press ctrl+x to render the plot."
		}
		return m, func() tea.Msg { return busyOff() }

	case plotSavedMsg:
		m.busy = false
		if msg.Err != nil {
			m.statusKind = "error"
			m.statusText = errText(msg.Err, "Plot generation failed")
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("generate plot", msg.Err))
		}
		m.statusKind = "success"
		m.statusText = "Plot saved to " + msg.Path
		return m, func() tea.Msg { return busyOff() }

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, navigate(ViewHome)
		case "ctrl+g":
			request := strings.TrimSpace(m.request.Value())
			if request == "" {
				m.statusKind = "warning"
				m.statusText = "Describe the chart first"
				return m, nil
			}
			if !m.deps.Store.Current().LLMConfigured {
				m.statusKind = "warning"
				m.statusText = "Configure an LLM provider first"
				return m, nil
			}
			m.busy = true
			m.statusKind = "info"
			m.statusText = "Generating plot parameters..."
			client := m.deps.Client
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				params, err := client.GenerateVizParams(context.Background(), request)
				return vizParamsMsg{Params: params, Err: err}
			})
		case "ctrl+x":
			if m.params == nil || m.params.Error != "" {
				m.statusKind = "warning"
				m.statusText = "Generate valid parameters before plotting"
				return m, nil
			}
			m.busy = true
			m.statusKind = "info"
			m.statusText = "Rendering plot..."
			client := m.deps.Client
			saver := m.deps.Saver
			params := m.params
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				path, err := renderAndSavePlot(context.Background(), client, saver, params)
				return plotSavedMsg{Path: path, Err: err}
			})
		}
	}

	var cmd tea.Cmd
	m.request, cmd = m.request.Update(msg)
	return m, cmd
}

func renderAndSavePlot(ctx context.Context, client *api.Client, saver api.Saver, params *api.VizParams) (string, error) {
	result, err := client.GeneratePlot(ctx, params)
	if err != nil {
		return "", err
	}
	png, err := api.DecodePlotData(result.PlotDataURL)
	if err != nil {
		return "", err
	}
	name := result.Filename
	if name == "" {
		name = api.DefaultPlotName
	}
	return saver.Save(name, bytes.NewReader(png))
}

func (m VizModel) View() string {
	var b strings.Builder
	b.WriteString(theme.RenderTitle(theme.IconChart, "Visualization") + "\n\n")
	b.WriteString(m.request.View() + "\n\n")

	if m.params != nil {
		b.WriteString(renderVizParams(m.params) + "\n")
	}

	if m.statusText != "" {
		b.WriteString("\n" + theme.RenderStatus(m.statusKind, m.statusText) + "\n")
	}

	b.WriteString("\n" + theme.RenderHelpBar([]string{
		"[ctrl+g] generate params", "[ctrl+x] render plot", "[esc] back",
	}, m.width))
	return theme.PanelStyle.Width(m.width - 2).Render(b.String())
}

func renderVizParams(p *api.VizParams) string {
	if p.Error != "" {
		return theme.RenderStatus("warning", "Model could not plan a plot: "+p.Error)
	}

	t := newReportTable()
	t.AppendHeader(table.Row{"Parameter", "Value"})
	add := func(name, value string) {
		if value != "" {
			t.AppendRow(table.Row{name, value})
		}
	}
	add("Plot type", p.PlotType)
	add("X", p.XCol)
	add("Y", p.YCol)
	add("Color", p.ColorCol)
	add("Size", p.SizeCol)
	add("Aggregation", p.Aggregation)
	return t.Render()
}
