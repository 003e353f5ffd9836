package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/theme"
	"github.com/dataops-tui/dataops-tui/internal/utils"
)

const maxQueryRowsShown = 200

// QueryModel is the natural-language query panel. Two strictly ordered
// steps: generate SQL from the question, then execute that SQL. Execution
// is only reachable once generation has produced a statement, and the
// statement survives a failed execution for inspection and retry.
type QueryModel struct {
	deps   Deps
	width  int
	height int

	question textarea.Model
	sql      string
	result   *api.QueryResult

	vp         viewport.Model
	vpReady    bool
	busy       bool
	statusKind string
	statusText string
}

type sqlGeneratedMsg struct {
	SQL string
	Err error
}

type queryExecutedMsg struct {
	Result *api.QueryResult
	Err    error
}

func NewQuery(deps Deps) QueryModel {
	ta := textarea.New()
	ta.Placeholder = "Ask a question about the data, e.g. \"average revenue per region\""
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	return QueryModel{deps: deps, question: ta}
}

func (m QueryModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *QueryModel) refreshResult() {
	if !m.vpReady {
		return
	}
	m.vp.SetContent(m.renderResult())
}

func (m QueryModel) Update(msg tea.Msg) (QueryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.question.SetWidth(msg.Width - 6)
		if !m.vpReady {
			m.vp = viewport.New(msg.Width-4, utils.ClampInt(msg.Height-14, 5, 40))
			m.vpReady = true
		} else {
			m.vp.Width = msg.Width - 4
			m.vp.Height = utils.ClampInt(msg.Height-14, 5, 40)
		}
		m.refreshResult()

	case sqlGeneratedMsg:
		m.busy = false
		if msg.Err != nil {
			m.statusKind = "error"
			m.statusText = errText(msg.Err, "SQL generation failed")
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("generate SQL", msg.Err))
		}
		m.sql = msg.SQL
		m.result = nil
		m.statusKind = "success"
		m.statusText = "SQL generated. Press ctrl+x to run it."
		m.refreshResult()
		return m, func() tea.Msg { return busyOff() }

	case queryExecutedMsg:
		m.busy = false
		if msg.Err != nil {
			// The generated SQL stays on screen for a retry.
			m.statusKind = "error"
			m.statusText = errText(msg.Err, "Query failed")
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("execute query", msg.Err))
		}
		m.result = msg.Result
		m.statusText = ""
		m.refreshResult()
		return m, func() tea.Msg { return busyOff() }

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
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, navigate(ViewHome)
		case "ctrl+g":
			question := strings.TrimSpace(m.question.Value())
			if question == "" {
				m.statusKind = "warning"
				m.statusText = "Type a question first"
				return m, nil
			}
			if !m.deps.Store.Current().LLMConfigured {
				m.statusKind = "warning"
				m.statusText = "Configure an LLM provider first"
				return m, nil
			}
			m.busy = true
			m.statusKind = "info"
			m.statusText = "Generating SQL..."
			client := m.deps.Client
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				sql, err := client.GenerateQuery(context.Background(), question)
				return sqlGeneratedMsg{SQL: sql, Err: err}
			})
		case "ctrl+x":
			if m.sql == "" {
				m.statusKind = "warning"
				m.statusText = "Generate SQL before executing"
				return m, nil
			}
			m.busy = true
			m.statusKind = "info"
			m.statusText = "Running query..."
			client := m.deps.Client
			sql := m.sql
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				result, err := client.ExecuteQuery(context.Background(), sql)
				return queryExecutedMsg{Result: result, Err: err}
			})
		case "ctrl+d":
			if m.result == nil {
				m.statusKind = "warning"
				m.statusText = "Run a query before downloading results"
				return m, nil
			}
			client := m.deps.Client
			saver := m.deps.Saver
			return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
				path, err := client.DownloadQueryCSV(context.Background(), saver)
				return downloadDoneMsg{what: "query CSV", path: path, err: err}
			})
		case "up", "down", "pgup", "pgdown":
			if m.result != nil && m.vpReady {
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.question, cmd = m.question.Update(msg)
	return m, cmd
}

func (m QueryModel) View() string {
	var b strings.Builder
	b.WriteString(theme.RenderTitle(theme.IconQuery, "Query Data") + "\n\n")
	b.WriteString(m.question.View() + "\n\n")

	if m.vpReady && (m.sql != "" || m.result != nil) {
		b.WriteString(m.vp.View() + "\n")
	}

	if m.statusText != "" {
		b.WriteString("\n" + theme.RenderStatus(m.statusKind, m.statusText) + "\n")
	}

	b.WriteString("\n" + theme.RenderHelpBar([]string{
		"[ctrl+g] generate sql", "[ctrl+x] run", "[ctrl+d] csv", "[esc] back",
	}, m.width))
	return theme.PanelStyle.Width(m.width - 2).Render(b.String())
}

func (m QueryModel) renderResult() string {
	var b strings.Builder

	if m.sql != "" {
		b.WriteString(theme.RenderHeader("Generated SQL", m.vp.Width) + "\n")
		b.WriteString(highlightSQL(m.sql) + "\n")
	}

	r := m.result
	if r == nil {
		return b.String()
	}

	if r.NLAnswer != "" {
		b.WriteString(theme.RenderHeader("Answer", m.vp.Width) + "\n")
		for _, line := range utils.WrapText(r.NLAnswer, m.vp.Width-2) {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	if r.LLMSkipped {
		b.WriteString(theme.RenderStatus("warning",
			"Result too large for the model; showing raw data only") + "\n\n")
	}

	if rows, ok := r.Rows(); ok {
		b.WriteString(renderQueryRows(rows))
	} else if s := r.Scalar(); s != "" {
		b.WriteString(theme.RenderTextBold(s) + "\n")
	}
	return b.String()
}

func renderQueryRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return theme.RenderTextDim("(0 rows)") + "\n"
	}

	cols := sortedKeys(rows[0])
	t := newReportTable()
	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	shown := rows
	if len(shown) > maxQueryRowsShown {
		shown = shown[:maxQueryRowsShown]
	}
	for _, row := range shown {
		r := make(table.Row, len(cols))
		for i, c := range cols {
			r[i] = fmt.Sprintf("%v", row[c])
		}
		t.AppendRow(r)
	}

	out := t.Render() + "\n"
	if len(rows) > maxQueryRowsShown {
		out += theme.RenderTextDim(fmt.Sprintf("... %d more rows, download the CSV for the full result", len(rows)-maxQueryRowsShown)) + "\n"
	}
	return out
}

func highlightSQL(sql string) string {
	lexer := lexers.Get("sql")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return sql
	}
	return buf.String()
}
