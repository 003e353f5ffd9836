package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/session"
	"github.com/dataops-tui/dataops-tui/internal/theme"
)

// ConfigModel is the LLM provider configuration form. Each provider declares
// its own credential field set; switching provider resets every field.
// Credentials are write-only: they leave this form on save and are never
// redisplayed.
type ConfigModel struct {
	deps   Deps
	width  int
	height int

	providerIdx int
	modelInput  textinput.Model
	credInputs  []textinput.Model
	// focus: 0 = provider selector, 1 = model name, 2.. = credential fields
	focus int

	saving     bool
	statusKind string
	statusText string
}

type configSavedMsg struct {
	provider string
	model    string
	err      error
}

func NewConfig(deps Deps) ConfigModel {
	m := ConfigModel{deps: deps}

	s := deps.Store.Current()
	if s.Provider != "" {
		for i, p := range api.Providers {
			if p.ID == s.Provider {
				m.providerIdx = i
			}
		}
	}

	m.modelInput = newField("Model / deployment name", false)
	m.modelInput.SetValue(s.ModelName)
	m.rebuildCredInputs()
	m.setFocus(0)
	return m
}

func newField(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.Width = 48
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func (m *ConfigModel) provider() api.Provider {
	return api.Providers[m.providerIdx]
}

// rebuildCredInputs recreates the credential inputs empty for the current
// provider.
func (m *ConfigModel) rebuildCredInputs() {
	p := m.provider()
	m.credInputs = make([]textinput.Model, len(p.Fields))
	for i, f := range p.Fields {
		label := f.Label
		if f.Optional {
			label += " (optional)"
		}
		m.credInputs[i] = newField(label, strings.Contains(f.Key, "key"))
	}
}

func (m *ConfigModel) switchProvider(delta int) {
	n := len(api.Providers)
	m.providerIdx = (m.providerIdx + delta + n) % n
	// Provider change invalidates everything typed so far.
	m.modelInput.SetValue("")
	m.rebuildCredInputs()
	m.statusText = ""
}

func (m *ConfigModel) setFocus(focus int) {
	m.focus = focus
	m.modelInput.Blur()
	for i := range m.credInputs {
		m.credInputs[i].Blur()
	}
	switch {
	case focus == 1:
		m.modelInput.Focus()
	case focus >= 2 && focus-2 < len(m.credInputs):
		m.credInputs[focus-2].Focus()
	}
}

func (m *ConfigModel) credentials() map[string]string {
	creds := make(map[string]string)
	for i, f := range m.provider().Fields {
		creds[f.Key] = strings.TrimSpace(m.credInputs[i].Value())
	}
	return creds
}

func (m ConfigModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ConfigModel) Update(msg tea.Msg) (ConfigModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case configSavedMsg:
		m.saving = false
		if msg.err != nil {
			// Typed values stay put so a retry needs no re-entry.
			m.statusKind = "error"
			m.statusText = errText(msg.err, "Failed to save configuration")
			return m, tea.Batch(func() tea.Msg { return busyOff() },
				globalError("save LLM configuration", msg.err))
		}
		m.statusKind = "success"
		m.statusText = "Configuration saved"
		return m, tea.Batch(func() tea.Msg { return busyOff() },
			emit(session.LLMConfigured{Provider: msg.provider, ModelName: msg.model}))

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, navigate(ViewHome)
		case "up", "shift+tab":
			if m.focus > 0 {
				m.setFocus(m.focus - 1)
			}
			return m, nil
		case "down", "tab":
			if m.focus < 1+len(m.credInputs) {
				m.setFocus(m.focus + 1)
			}
			return m, nil
		case "left":
			if m.focus == 0 {
				m.switchProvider(-1)
				return m, nil
			}
		case "right":
			if m.focus == 0 {
				m.switchProvider(1)
				return m, nil
			}
		case "enter":
			if m.focus < 1+len(m.credInputs) {
				m.setFocus(m.focus + 1)
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	switch {
	case m.focus == 1:
		m.modelInput, cmd = m.modelInput.Update(msg)
	case m.focus >= 2 && m.focus-2 < len(m.credInputs):
		m.credInputs[m.focus-2], cmd = m.credInputs[m.focus-2].Update(msg)
	}
	return m, cmd
}

func (m ConfigModel) submit() (ConfigModel, tea.Cmd) {
	p := m.provider()
	model := strings.TrimSpace(m.modelInput.Value())
	creds := m.credentials()

	if problem := p.Validate(model, creds); problem != "" {
		// Local validation only; the global error surface stays clean.
		m.statusKind = "error"
		m.statusText = problem
		return m, nil
	}

	req := p.BuildRequest(model, creds)
	m.saving = true
	m.statusKind = "info"
	m.statusText = "Saving..."

	client := m.deps.Client
	return m, tea.Batch(func() tea.Msg { return busyOn() }, func() tea.Msg {
		err := client.ConfigureLLM(context.Background(), req)
		return configSavedMsg{provider: req.Provider, model: req.ModelName, err: err}
	})
}

func (m ConfigModel) View() string {
	p := m.provider()

	var b strings.Builder
	b.WriteString(theme.RenderTitle(theme.IconConfig, "LLM Configuration") + "\n\n")

	// Provider selector row
	var names []string
	for i, prov := range api.Providers {
		label := " " + prov.Label + " "
		if i == m.providerIdx {
			label = theme.MenuItemFocusedStyle.Render(label)
		} else {
			label = theme.MenuItemStyle.Render(label)
		}
		names = append(names, label)
	}
	providerLabel := theme.InputLabelStyle
	if m.focus == 0 {
		providerLabel = theme.InputLabelFocusedStyle
	}
	b.WriteString(providerLabel.Render("Provider") + "  " +
		lipgloss.JoinHorizontal(lipgloss.Center, names...) + "\n\n")

	renderField := func(label string, focused bool, input textinput.Model) {
		style := theme.InputLabelStyle
		if focused {
			style = theme.InputLabelFocusedStyle
		}
		b.WriteString(style.Render(label) + "\n" + input.View() + "\n\n")
	}

	renderField("Model name", m.focus == 1, m.modelInput)
	for i, f := range p.Fields {
		label := f.Label
		if f.Optional {
			label += " " + theme.SubtitleStyle.Render("(optional)")
		}
		renderField(label, m.focus == 2+i, m.credInputs[i])
	}

	if m.statusText != "" {
		b.WriteString(theme.RenderStatus(m.statusKind, m.statusText) + "\n")
	}

	b.WriteString("\n" + theme.RenderHelpBar([]string{
		"[←/→] provider", "[tab] next field", "[enter] save", "[esc] back",
	}, m.width))

	return theme.PanelStyle.Width(min(m.width-2, 64)).Render(b.String())
}
