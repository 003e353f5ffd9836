package views

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/components"
	"github.com/dataops-tui/dataops-tui/internal/session"
	"github.com/dataops-tui/dataops-tui/internal/theme"
	"github.com/dataops-tui/dataops-tui/internal/utils"
)

const dirLoadTimeout = 10 * time.Second

// UploadModel browses the filesystem for a CSV or Excel file and streams it
// to the backend. Directory listings load asynchronously; a request counter
// drops results that arrive after the user has already moved elsewhere.
type UploadModel struct {
	deps   Deps
	width  int
	height int

	currentPath  string
	entries      []fileEntry
	fileTable    table.Model
	dirRequestID uint64
	dirLoading   bool
	dirErr       error

	uploading    bool
	uploadName   string
	uploadPct    *atomic.Uint64
	statusKind   string
	statusText   string
}

type fileEntry struct {
	Name  string
	Path  string
	IsDir bool
	Size  int64
}

type dirLoadedMsg struct {
	Path      string
	Entries   []fileEntry
	Err       error
	RequestID uint64
}

type uploadTickMsg struct{}

type uploadDoneMsg struct {
	Result *api.UploadResult
	Err    error
}

func NewUpload(deps Deps) UploadModel {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/"
	}

	columns := []table.Column{
		{Title: "Name", Width: 40},
		{Title: "Size", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	st := table.DefaultStyles()
	st.Header = theme.TableHeaderStyle
	st.Selected = theme.TableRowSelectedStyle
	t.SetStyles(st)

	m := UploadModel{
		deps:        deps,
		currentPath: home,
		fileTable:   t,
		uploadPct:   &atomic.Uint64{},
		dirLoading:  true,
	}
	return m
}

func (m UploadModel) Init() tea.Cmd {
	return loadDirCmd(m.currentPath, m.dirRequestID)
}

func (m *UploadModel) loadDir(path string) tea.Cmd {
	m.dirRequestID++
	m.dirLoading = true
	m.dirErr = nil
	return loadDirCmd(path, m.dirRequestID)
}

func loadDirCmd(path string, requestID uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), dirLoadTimeout)
		defer cancel()
		entries, err := listDatasets(ctx, path)
		return dirLoadedMsg{Path: path, Entries: entries, Err: err, RequestID: requestID}
	}
}

// listDatasets returns subdirectories plus files with a tabular extension.
// Hidden entries are skipped.
func listDatasets(ctx context.Context, dirPath string) ([]fileEntry, error) {
	dirents, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	entries := make([]fileEntry, 0, len(dirents)+1)
	if dirPath != "/" {
		entries = append(entries, fileEntry{Name: "..", Path: filepath.Dir(dirPath), IsDir: true})
	}

	for _, d := range dirents {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if strings.HasPrefix(d.Name(), ".") {
			continue
		}
		if !d.IsDir() && !isDatasetFile(d.Name()) {
			continue
		}
		e := fileEntry{
			Name:  d.Name(),
			Path:  filepath.Join(dirPath, d.Name()),
			IsDir: d.IsDir(),
		}
		if info, err := d.Info(); err == nil && !d.IsDir() {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name == ".." {
			return true
		}
		if entries[j].Name == ".." {
			return false
		}
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

func isDatasetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

func (m *UploadModel) rebuildRows() {
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		icon := theme.IconFile
		size := utils.FormatFileSize(e.Size)
		if e.IsDir {
			icon = theme.IconFolder
			size = ""
		}
		rows = append(rows, table.Row{icon + " " + e.Name, size})
	}
	m.fileTable.SetRows(rows)
	m.fileTable.SetCursor(0)
}

func uploadTick() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(time.Time) tea.Msg {
		return uploadTickMsg{}
	})
}

func (m *UploadModel) startUpload(e fileEntry) tea.Cmd {
	m.uploading = true
	m.uploadName = e.Name
	m.uploadPct.Store(0)
	m.deps.Logger.Info("uploading dataset",
		zap.String("path", e.Path), zap.Int64("size", e.Size))
	m.statusKind = "info"
	m.statusText = "Uploading " + e.Name + "..."

	client := m.deps.Client
	pct := m.uploadPct
	path := e.Path
	return tea.Batch(func() tea.Msg { return busyOn() }, uploadTick(), func() tea.Msg {
		result, err := client.Upload(context.Background(), path, func(p float64) {
			pct.Store(math.Float64bits(p))
		})
		return uploadDoneMsg{Result: result, Err: err}
	})
}

func (m UploadModel) Update(msg tea.Msg) (UploadModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.fileTable.SetHeight(utils.ClampInt(msg.Height-12, 5, 25))

	case dirLoadedMsg:
		if msg.RequestID != m.dirRequestID {
			return m, nil
		}
		m.dirLoading = false
		if msg.Err != nil {
			m.dirErr = msg.Err
			m.deps.Logger.Warn("directory listing failed",
				zap.String("path", msg.Path), zap.Error(msg.Err))
			return m, nil
		}
		m.currentPath = msg.Path
		m.entries = msg.Entries
		m.rebuildRows()

	case uploadTickMsg:
		if m.uploading {
			return m, uploadTick()
		}

	case uploadDoneMsg:
		m.uploading = false
		if msg.Err != nil {
			m.statusKind = "error"
			m.statusText = errText(msg.Err, "Upload failed")
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("upload dataset", msg.Err))
		}
		m.statusKind = "success"
		m.statusText = "Uploaded " + msg.Result.DatasetName
		return m, tea.Batch(func() tea.Msg { return busyOff() },
			emit(session.UploadSucceeded{
				DatasetName: msg.Result.DatasetName,
				Profile:     msg.Result.ProfileReport,
				TableName:   msg.Result.DBTable,
			}))

	case tea.KeyMsg:
		if m.uploading {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, navigate(ViewHome)
		case "r":
			return m, m.loadDir(m.currentPath)
		case "enter":
			idx := m.fileTable.Cursor()
			if idx < 0 || idx >= len(m.entries) {
				return m, nil
			}
			e := m.entries[idx]
			if e.IsDir {
				return m, m.loadDir(e.Path)
			}
			return m, m.startUpload(e)
		}
	}

	var cmd tea.Cmd
	m.fileTable, cmd = m.fileTable.Update(msg)
	return m, cmd
}

func (m UploadModel) View() string {
	var b strings.Builder
	b.WriteString(theme.RenderTitle(theme.IconUpload, "Upload Dataset") + "\n")
	b.WriteString(theme.SubtitleStyle.Render(utils.TruncateString(m.currentPath, m.width-6)) + "\n\n")

	switch {
	case m.uploading:
		pct := math.Float64frombits(m.uploadPct.Load()) * 100
		bar := components.ProgressBar{Label: m.uploadName, Width: min(m.width-10, 50)}
		b.WriteString(bar.Render(pct) + "\n")
	case m.dirLoading:
		b.WriteString(theme.RenderTextDim("Loading directory...") + "\n")
	case m.dirErr != nil:
		b.WriteString(theme.RenderStatus("error", m.dirErr.Error()) + "\n")
	default:
		b.WriteString(m.fileTable.View() + "\n")
	}

	if m.statusText != "" {
		b.WriteString("\n" + theme.RenderStatus(m.statusKind, m.statusText) + "\n")
	}

	b.WriteString("\n" + theme.RenderHelpBar([]string{
		"[↑/↓] move", "[enter] open / upload", "[r] reload", "[esc] back",
	}, m.width))

	return theme.PanelStyle.Width(m.width - 2).Render(b.String())
}
