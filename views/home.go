package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/dataops-tui/dataops-tui/internal/theme"
	"github.com/dataops-tui/dataops-tui/internal/utils"
)

type menuItem struct {
	Icon   string
	Title  string
	Target string
}

// HomeModel is the landing dashboard: a sidebar menu of feature panels next
// to the current session facts and local system stats.
type HomeModel struct {
	deps   Deps
	width  int
	height int
	cursor int
	items  []menuItem

	cpuPercent  float64
	memPercent  float64
	diskPercent float64
	totalMem    uint64
	usedMem     uint64
	lastUpdate  time.Time
}

type homeTickMsg time.Time

func homeTick() tea.Cmd {
	return tea.Every(2*time.Second, func(t time.Time) tea.Msg {
		return homeTickMsg(t)
	})
}

func NewHome(deps Deps) HomeModel {
	return HomeModel{
		deps: deps,
		items: []menuItem{
			{Icon: theme.IconConfig, Title: "LLM Configuration", Target: ViewConfig},
			{Icon: theme.IconUpload, Title: "Upload Dataset", Target: ViewUpload},
			{Icon: theme.IconProfile, Title: "Profile Report", Target: ViewProfile},
			{Icon: theme.IconCleaning, Title: "Data Cleaning", Target: ViewCleaning},
			{Icon: theme.IconFeatures, Title: "Feature Engineering", Target: ViewFeatures},
			{Icon: theme.IconEntities, Title: "Entity Analysis", Target: ViewNER},
			{Icon: theme.IconSummary, Title: "AI Summary", Target: ViewSummary},
			{Icon: theme.IconQuery, Title: "Ask Your Data", Target: ViewQuery},
			{Icon: theme.IconChart, Title: "Visualization", Target: ViewViz},
		},
	}
}

func (m HomeModel) Init() tea.Cmd {
	return homeTick()
}

func (m HomeModel) Update(msg tea.Msg) (HomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case homeTickMsg:
		m.updateSystemInfo()
		m.lastUpdate = time.Time(msg)
		return m, homeTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			return m, navigate(m.items[m.cursor].Target)
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *HomeModel) updateSystemInfo() {
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		m.cpuPercent = pcts[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		m.memPercent = vm.UsedPercent
		m.totalMem = vm.Total
		m.usedMem = vm.Used
	}
	if du, err := disk.Usage("/"); err == nil {
		m.diskPercent = du.UsedPercent
	}
}

func (m HomeModel) View() string {
	sidebarWidth := 28
	mainWidth := m.width - sidebarWidth - 6
	if mainWidth < 20 {
		mainWidth = 20
	}

	var menu strings.Builder
	menu.WriteString(theme.RenderTitle(theme.IconHome, "DataOps") + "\n\n")
	for i, item := range m.items {
		label := item.Icon + "  " + item.Title
		if i == m.cursor {
			menu.WriteString(theme.MenuItemFocusedStyle.Width(sidebarWidth - 2).Render(label))
		} else {
			menu.WriteString(theme.MenuItemStyle.Render(label))
		}
		menu.WriteString("\n")
	}

	sidebar := theme.PanelActiveStyle.Width(sidebarWidth).Render(menu.String())
	main := theme.PanelStyle.Width(mainWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, m.renderSession(mainWidth-2), "", m.renderSystem(mainWidth-2)))

	help := theme.RenderHelpBar([]string{"[↑/↓] navigate", "[enter] open", "[q] quit"}, m.width)
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main), help)
}

func (m HomeModel) renderSession(width int) string {
	s := m.deps.Store.Current()

	var b strings.Builder
	b.WriteString(theme.RenderHeader("Session", width) + "\n")
	b.WriteString(theme.RenderDivider(width) + "\n")

	if s.LLMConfigured {
		b.WriteString(theme.RenderStatus("success",
			fmt.Sprintf("LLM: %s / %s", s.Provider, s.ModelName)) + "\n")
	} else {
		b.WriteString(theme.RenderStatus("warning", "LLM not configured") + "\n")
	}

	if s.WorkingDataAvailable {
		b.WriteString(theme.RenderStatus("success", "Dataset: "+s.DatasetName) + "\n")
		if s.TableName != "" {
			b.WriteString(theme.RenderTextDim("  table "+s.TableName) + "\n")
		}
	} else {
		b.WriteString(theme.RenderStatus("warning", "No dataset loaded") + "\n")
	}

	report := func(name string, present bool) string {
		if present {
			return theme.IconCheck + " " + name
		}
		return theme.IconDot + " " + name
	}
	b.WriteString(theme.RenderTextDim(strings.Join([]string{
		report("profile", s.Profile != nil),
		report("entities", len(s.NER) > 0),
		report("summary", s.Summary != ""),
	}, "   ")) + "\n")

	return b.String()
}

func (m HomeModel) renderSystem(width int) string {
	var b strings.Builder
	b.WriteString(theme.RenderHeader("System", width) + "\n")
	b.WriteString(theme.RenderDivider(width) + "\n")
	b.WriteString(m.renderStatBar("CPU", m.cpuPercent, width) + "\n")
	b.WriteString(m.renderStatBar("Mem", m.memPercent, width) + "\n")
	b.WriteString(m.renderStatBar("Disk", m.diskPercent, width) + "\n")
	if m.totalMem > 0 {
		b.WriteString(theme.RenderTextDim(fmt.Sprintf("Memory %s / %s",
			utils.FormatFileSize(int64(m.usedMem)),
			utils.FormatFileSize(int64(m.totalMem)))))
	}
	return b.String()
}

func (m HomeModel) renderStatBar(label string, percent float64, width int) string {
	barWidth := width - len(label) - 10
	if barWidth < 5 {
		barWidth = 5
	}
	filled := utils.ClampInt(int(float64(barWidth)*percent/100), 0, barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	return fmt.Sprintf("%s %s %s",
		lipgloss.NewStyle().Foreground(theme.ColorText).Render(utils.PadString(label, 5, "left")),
		lipgloss.NewStyle().Foreground(theme.ColorAccent).Render(bar),
		lipgloss.NewStyle().Foreground(theme.ColorForegroundDim).Render(fmt.Sprintf("%5.1f%%", percent)))
}
