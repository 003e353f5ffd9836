package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/config"
	"github.com/dataops-tui/dataops-tui/internal/logging"
	"github.com/dataops-tui/dataops-tui/internal/session"
	"github.com/dataops-tui/dataops-tui/internal/theme"
	"github.com/dataops-tui/dataops-tui/views"
)

const Version = "0.1.0"

// statusBarHeight is the space at the bottom reserved by the shell; views
// receive the remaining rows.
const statusBarHeight = 2

type bootstrapMsg struct {
	snapshot *api.SessionState
	err      error
}

// model is the app shell: it owns navigation, the session store, the global
// busy/error surface, and the profile refresh scheduling that follows every
// data modification.
type model struct {
	deps        views.Deps
	currentView string
	width       int
	height      int

	bootstrapped bool
	busyCount    int
	globalErr    string
	spin         spinner.Model

	homeView     *views.HomeModel
	configView   *views.ConfigModel
	uploadView   *views.UploadModel
	profileView  *views.ProfileModel
	cleaningView *views.CleaningModel
	featuresView *views.FeaturesModel
	nerView      *views.NERModel
	summaryView  *views.SummaryModel
	queryView    *views.QueryModel
	vizView      *views.VizModel
}

func initialModel(deps views.Deps) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorAccent)

	return model{
		deps:        deps,
		currentView: views.ViewHome,
		spin:        sp,
	}
}

func (m model) Init() tea.Cmd {
	client := m.deps.Client
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		snapshot, err := client.SessionState(context.Background())
		return bootstrapMsg{snapshot: snapshot, err: err}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.broadcast(m.viewSizeMsg())

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case bootstrapMsg:
		m.bootstrapped = true
		if msg.err != nil {
			// Start with an empty session; the backend may come back later.
			m.deps.Store.Apply(session.BootstrapLoaded{})
			m.globalErr = "load session: " + errMessage(msg.err)
			m.deps.Logger.Warn("bootstrap failed", zap.Error(msg.err))
			return m.setView(views.ViewConfig)
		}
		state := m.deps.Store.Apply(session.BootstrapLoaded{Snapshot: msg.snapshot})
		switch {
		case !state.LLMConfigured:
			return m.setView(views.ViewConfig)
		case !state.WorkingDataAvailable:
			return m.setView(views.ViewUpload)
		default:
			return m.setView(views.ViewHome)
		}

	case views.NavigateMsg:
		m.globalErr = ""
		return m.setView(string(msg))

	case views.BusyMsg:
		if bool(msg) {
			m.busyCount++
			m.globalErr = ""
		} else if m.busyCount > 0 {
			m.busyCount--
		}
		return m, nil

	case views.GlobalErrorMsg:
		m.globalErr = msg.Context + ": " + errMessage(msg.Err)
		m.deps.Logger.Warn("operation failed",
			zap.String("context", msg.Context), zap.Error(msg.Err))
		return m, nil

	case views.RefreshRequestMsg:
		m.busyCount++
		return m, m.refreshCmd(m.deps.Store.Current().ProfileVersion)

	case session.Action:
		state := m.deps.Store.Apply(msg)
		cmds := []tea.Cmd{m.broadcast(views.StateChangedMsg{})}

		switch msg.(type) {
		case session.UploadSucceeded:
			var nav tea.Cmd
			m, nav = m.setView(views.ViewProfile)
			cmds = append(cmds, nav)
		case session.DataModified:
			// The working data changed server-side; fetch the profile for
			// the new version.
			m.busyCount++
			cmds = append(cmds, m.refreshCmd(state.ProfileVersion))
		case session.ProfileRefreshed:
			if m.busyCount > 0 {
				m.busyCount--
			}
			if a := msg.(session.ProfileRefreshed); a.Err != nil {
				m.globalErr = "refresh profile: " + errMessage(a.Err)
				m.deps.Logger.Warn("profile refresh failed", zap.Error(a.Err))
			}
		}
		return m, tea.Batch(cmds...)
	}

	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		return m.updateCurrent(msg)
	}

	// Async results carry no view tag. Deliver them to every instantiated
	// view so a panel the user navigated away from still settles its
	// in-flight request instead of staying busy forever.
	return m, m.broadcast(msg)
}

// refreshCmd fetches the profile for a specific dataset version. The version
// rides along so the reducer can drop the result if the data changed again
// while the fetch was in flight.
func (m model) refreshCmd(version uint64) tea.Cmd {
	client := m.deps.Client
	return func() tea.Msg {
		profile, err := client.RefreshProfile(context.Background())
		return session.ProfileRefreshed{Version: version, Profile: profile, Err: err}
	}
}

func (m model) viewSizeMsg() tea.Msg {
	return tea.WindowSizeMsg{Width: m.width, Height: m.height - statusBarHeight}
}

// setView switches panels, creating the target lazily. A new view gets its
// Init command and the current window size.
func (m model) setView(name string) (model, tea.Cmd) {
	m.currentView = name
	var initCmd tea.Cmd

	created := false
	switch name {
	case views.ViewHome:
		if m.homeView == nil {
			v := views.NewHome(m.deps)
			m.homeView = &v
			initCmd = v.Init()
			created = true
		}
	case views.ViewConfig:
		if m.configView == nil {
			v := views.NewConfig(m.deps)
			m.configView = &v
			initCmd = v.Init()
			created = true
		}
	case views.ViewUpload:
		if m.uploadView == nil {
			v := views.NewUpload(m.deps)
			m.uploadView = &v
			initCmd = v.Init()
			created = true
		}
	case views.ViewProfile:
		if m.profileView == nil {
			v := views.NewProfile(m.deps)
			m.profileView = &v
			initCmd = v.Init()
			created = true
		}
	case views.ViewCleaning:
		if m.cleaningView == nil {
			v := views.NewCleaning(m.deps)
			m.cleaningView = &v
			initCmd = v.Init()
			created = true
		}
	case views.ViewFeatures:
		if m.featuresView == nil {
			v := views.NewFeatures(m.deps)
			m.featuresView = &v
			initCmd = v.Init()
			created = true
		}
	case views.ViewNER:
		if m.nerView == nil {
			v := views.NewNER(m.deps)
			m.nerView = &v
			initCmd = v.Init()
			created = true
		}
	case views.ViewSummary:
		if m.summaryView == nil {
			v := views.NewSummary(m.deps)
			m.summaryView = &v
			initCmd = v.Init()
			created = true
		}
	case views.ViewQuery:
		if m.queryView == nil {
			v := views.NewQuery(m.deps)
			m.queryView = &v
			initCmd = v.Init()
			created = true
		}
	case views.ViewViz:
		if m.vizView == nil {
			v := views.NewViz(m.deps)
			m.vizView = &v
			initCmd = v.Init()
			created = true
		}
	}

	if created && m.width > 0 {
		next, sizeCmd := m.updateCurrent(m.viewSizeMsg())
		return next.(model), tea.Batch(initCmd, sizeCmd)
	}
	return m, initCmd
}

// broadcast delivers a message to every instantiated view, not just the
// visible one, so background panels stay consistent with the store.
func (m *model) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	add := func(cmd tea.Cmd) {
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if m.homeView != nil {
		var cmd tea.Cmd
		*m.homeView, cmd = m.homeView.Update(msg)
		add(cmd)
	}
	if m.configView != nil {
		var cmd tea.Cmd
		*m.configView, cmd = m.configView.Update(msg)
		add(cmd)
	}
	if m.uploadView != nil {
		var cmd tea.Cmd
		*m.uploadView, cmd = m.uploadView.Update(msg)
		add(cmd)
	}
	if m.profileView != nil {
		var cmd tea.Cmd
		*m.profileView, cmd = m.profileView.Update(msg)
		add(cmd)
	}
	if m.cleaningView != nil {
		var cmd tea.Cmd
		*m.cleaningView, cmd = m.cleaningView.Update(msg)
		add(cmd)
	}
	if m.featuresView != nil {
		var cmd tea.Cmd
		*m.featuresView, cmd = m.featuresView.Update(msg)
		add(cmd)
	}
	if m.nerView != nil {
		var cmd tea.Cmd
		*m.nerView, cmd = m.nerView.Update(msg)
		add(cmd)
	}
	if m.summaryView != nil {
		var cmd tea.Cmd
		*m.summaryView, cmd = m.summaryView.Update(msg)
		add(cmd)
	}
	if m.queryView != nil {
		var cmd tea.Cmd
		*m.queryView, cmd = m.queryView.Update(msg)
		add(cmd)
	}
	if m.vizView != nil {
		var cmd tea.Cmd
		*m.vizView, cmd = m.vizView.Update(msg)
		add(cmd)
	}
	return tea.Batch(cmds...)
}

// updateCurrent forwards a message to the visible view only.
func (m model) updateCurrent(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case views.ViewHome:
		if m.homeView != nil {
			*m.homeView, cmd = m.homeView.Update(msg)
		}
	case views.ViewConfig:
		if m.configView != nil {
			*m.configView, cmd = m.configView.Update(msg)
		}
	case views.ViewUpload:
		if m.uploadView != nil {
			*m.uploadView, cmd = m.uploadView.Update(msg)
		}
	case views.ViewProfile:
		if m.profileView != nil {
			*m.profileView, cmd = m.profileView.Update(msg)
		}
	case views.ViewCleaning:
		if m.cleaningView != nil {
			*m.cleaningView, cmd = m.cleaningView.Update(msg)
		}
	case views.ViewFeatures:
		if m.featuresView != nil {
			*m.featuresView, cmd = m.featuresView.Update(msg)
		}
	case views.ViewNER:
		if m.nerView != nil {
			*m.nerView, cmd = m.nerView.Update(msg)
		}
	case views.ViewSummary:
		if m.summaryView != nil {
			*m.summaryView, cmd = m.summaryView.Update(msg)
		}
	case views.ViewQuery:
		if m.queryView != nil {
			*m.queryView, cmd = m.queryView.Update(msg)
		}
	case views.ViewViz:
		if m.vizView != nil {
			*m.vizView, cmd = m.vizView.Update(msg)
		}
	}
	return m, cmd
}

func (m model) View() string {
	if !m.bootstrapped {
		return "\n  " + m.spin.View() + " Connecting to backend...\n"
	}

	var content string
	switch m.currentView {
	case views.ViewHome:
		if m.homeView != nil {
			content = m.homeView.View()
		}
	case views.ViewConfig:
		if m.configView != nil {
			content = m.configView.View()
		}
	case views.ViewUpload:
		if m.uploadView != nil {
			content = m.uploadView.View()
		}
	case views.ViewProfile:
		if m.profileView != nil {
			content = m.profileView.View()
		}
	case views.ViewCleaning:
		if m.cleaningView != nil {
			content = m.cleaningView.View()
		}
	case views.ViewFeatures:
		if m.featuresView != nil {
			content = m.featuresView.View()
		}
	case views.ViewNER:
		if m.nerView != nil {
			content = m.nerView.View()
		}
	case views.ViewSummary:
		if m.summaryView != nil {
			content = m.summaryView.View()
		}
	case views.ViewQuery:
		if m.queryView != nil {
			content = m.queryView.View()
		}
	case views.ViewViz:
		if m.vizView != nil {
			content = m.vizView.View()
		}
	}

	return content + "\n" + m.statusBar()
}

func (m model) statusBar() string {
	state := m.deps.Store.Current()

	left := theme.FooterKeyStyle.Render(" DataOps ")
	if state.DatasetName != "" {
		left += theme.FooterStyle.Render(state.DatasetName)
	}

	var right string
	switch {
	case m.busyCount > 0:
		right = theme.FooterStyle.Render(m.spin.View() + " working... ")
	case m.globalErr != "":
		right = theme.ErrorStyle.Render(" " + theme.IconCross + " " + m.globalErr + " ")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := err.(*api.Error); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("dataops-tui v%s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogFile)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting", zap.String("version", Version), zap.String("backend", cfg.APIBaseURL))

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "download dir: %v\n", err)
		os.Exit(1)
	}

	deps := views.Deps{
		Client: api.New(cfg.APIBaseURL, time.Duration(cfg.RequestTimeoutSecs)*time.Second, logger),
		Store:  session.NewStore(),
		Saver:  api.DirSaver{Dir: cfg.DownloadDir},
		Logger: logger,
	}

	p := tea.NewProgram(initialModel(deps), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
