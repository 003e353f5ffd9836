package views

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/theme"
	"github.com/dataops-tui/dataops-tui/internal/utils"
)

// ProfileModel renders the current profile report in a scrollable viewport
// and exposes the report downloads.
type ProfileModel struct {
	deps   Deps
	width  int
	height int

	vp         viewport.Model
	ready      bool
	statusKind string
	statusText string
}

type downloadDoneMsg struct {
	what string
	path string
	err  error
}

func NewProfile(deps Deps) ProfileModel {
	return ProfileModel{deps: deps}
}

func (m ProfileModel) Init() tea.Cmd {
	return nil
}

func (m *ProfileModel) refreshContent() {
	if !m.ready {
		return
	}
	state := m.deps.Store.Current()
	if state.Profile == nil && state.Preview != nil {
		m.vp.SetContent(renderDataPreview(state.Preview, state.LastLogs, m.vp.Width))
		return
	}
	m.vp.SetContent(renderProfileReport(state.Profile, m.vp.Width))
}

func (m ProfileModel) Update(msg tea.Msg) (ProfileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.vp = viewport.New(msg.Width-4, msg.Height-8)
			m.ready = true
		} else {
			m.vp.Width = msg.Width - 4
			m.vp.Height = msg.Height - 8
		}
		m.refreshContent()

	case StateChangedMsg:
		m.refreshContent()

	case downloadDoneMsg:
		if msg.err != nil {
			m.statusKind = "error"
			m.statusText = errText(msg.err, "Download failed")
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("download "+msg.what, msg.err))
		}
		m.statusKind = "success"
		m.statusText = "Saved " + msg.path
		return m, func() tea.Msg { return busyOff() }

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, navigate(ViewHome)
		case "r":
			m.statusKind = "info"
			m.statusText = "Refreshing profile..."
			return m, func() tea.Msg { return RefreshRequestMsg{} }
		case "d":
			return m, m.download("profile PDF", func(ctx context.Context) (string, error) {
				return m.deps.Client.DownloadProfilePDF(ctx, m.deps.Saver)
			})
		case "e":
			return m, m.download("Excel export", func(ctx context.Context) (string, error) {
				return m.deps.Client.DownloadExcel(ctx, m.deps.Saver)
			})
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *ProfileModel) download(what string, fetch func(context.Context) (string, error)) tea.Cmd {
	if m.deps.Store.Current().Profile == nil {
		m.statusKind = "warning"
		m.statusText = "No profile report to download yet"
		return nil
	}
	return tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
		path, err := fetch(context.Background())
		return downloadDoneMsg{what: what, path: path, err: err}
	})
}

func (m ProfileModel) View() string {
	var b strings.Builder
	b.WriteString(theme.RenderTitle(theme.IconProfile, "Data Profile") + "\n\n")
	if m.ready {
		b.WriteString(m.vp.View() + "\n")
	}
	if m.statusText != "" {
		b.WriteString(theme.RenderStatus(m.statusKind, m.statusText) + "\n")
	}
	b.WriteString(theme.RenderHelpBar([]string{
		"[↑/↓] scroll", "[r] refresh", "[d] pdf", "[e] excel", "[esc] back",
	}, m.width))
	return theme.PanelStyle.Width(m.width - 2).Render(b.String())
}

func renderProfileReport(p *api.ProfileReport, width int) string {
	if p == nil {
		return theme.RenderTextDim("No profile report yet. Upload a dataset first.")
	}

	var b strings.Builder

	b.WriteString(theme.RenderHeader("Basic Info", width) + "\n")
	b.WriteString(fmt.Sprintf("Rows: %s   Columns: %d   Duplicates: %s   Memory: %s\n\n",
		utils.FormatNumber(int64(p.BasicInfo.Rows)), p.BasicInfo.Columns,
		utils.FormatNumber(int64(p.BasicInfo.Duplicates)), p.BasicInfo.MemoryUsage))

	cols := sortedKeys(p.DataTypes)

	b.WriteString(theme.RenderHeader("Columns", width) + "\n")
	t := newReportTable()
	t.AppendHeader(table.Row{"Column", "Type", "Unique", "Missing", "Missing %"})
	for _, col := range cols {
		miss := p.MissingValues[col]
		t.AppendRow(table.Row{
			col, p.DataTypes[col], p.Cardinality[col],
			miss.Count, fmt.Sprintf("%.1f%%", miss.Percent),
		})
	}
	b.WriteString(t.Render() + "\n\n")

	if len(p.DescriptiveStats.Numeric) > 0 {
		b.WriteString(theme.RenderHeader("Numeric Stats", width) + "\n")
		t = newReportTable()
		t.AppendHeader(table.Row{"Column", "Mean", "Std", "Min", "Max"})
		for _, col := range sortedKeys(p.DescriptiveStats.Numeric) {
			s := p.DescriptiveStats.Numeric[col]
			t.AppendRow(table.Row{col,
				fmtStat(s, "mean"), fmtStat(s, "std"), fmtStat(s, "min"), fmtStat(s, "max")})
		}
		b.WriteString(t.Render() + "\n\n")
	}

	if len(p.Skewness) > 0 {
		b.WriteString(theme.RenderHeader("Distribution", width) + "\n")
		t = newReportTable()
		t.AppendHeader(table.Row{"Column", "Skewness", "Kurtosis"})
		for _, col := range sortedKeys(p.Skewness) {
			t.AppendRow(table.Row{col,
				fmt.Sprintf("%.3f", p.Skewness[col]),
				fmt.Sprintf("%.3f", p.Kurtosis[col])})
		}
		b.WriteString(t.Render() + "\n\n")
	}

	if od := p.OutlierDetection; od != nil {
		b.WriteString(theme.RenderHeader("Outliers", width) + "\n")
		if od.Error != "" {
			b.WriteString(theme.RenderStatus("warning", od.Error) + "\n\n")
		} else {
			b.WriteString(fmt.Sprintf("Method: %s   Count: %d   Share: %.2f%%\n\n",
				od.Method, od.OutlierCount, od.Percent))
		}
	}

	if len(p.CorrelationMatrix) > 0 {
		b.WriteString(theme.RenderHeader("Correlation", width) + "\n")
		corrCols := sortedKeys(p.CorrelationMatrix)
		t = newReportTable()
		header := table.Row{""}
		for _, c := range corrCols {
			header = append(header, c)
		}
		t.AppendHeader(header)
		for _, row := range corrCols {
			r := table.Row{row}
			for _, col := range corrCols {
				r = append(r, fmt.Sprintf("%.2f", p.CorrelationMatrix[row][col]))
			}
			t.AppendRow(r)
		}
		b.WriteString(t.Render() + "\n")
	}

	return b.String()
}

// renderDataPreview shows the sampled rows returned by a mutating operation.
// It stands in for the profile report until the refresh for the new dataset
// version lands.
func renderDataPreview(preview *api.DataPreview, logs []string, width int) string {
	var b strings.Builder

	b.WriteString(theme.RenderHeader("Modified Data Preview", width) + "\n")
	b.WriteString(theme.RenderTextDim("Profile refresh in progress; showing a sample of the modified data.") + "\n\n")

	t := newReportTable()
	header := make(table.Row, 0, len(preview.Columns))
	for _, c := range preview.Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)
	for _, row := range preview.Data {
		r := make(table.Row, 0, len(row))
		for _, cell := range row {
			r = append(r, fmt.Sprint(cell))
		}
		t.AppendRow(r)
	}
	b.WriteString(t.Render() + "\n")

	if len(logs) > 0 {
		b.WriteString("\n" + theme.RenderHeader("Applied Actions", width) + "\n")
		for _, line := range logs {
			b.WriteString(theme.RenderTextDim("  "+line) + "\n")
		}
	}

	return b.String()
}

func newReportTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

func fmtStat(stats map[string]float64, key string) string {
	v, ok := stats[key]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
