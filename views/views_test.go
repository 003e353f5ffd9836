package views

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/session"
)

// countingBackend records how many requests reached the server.
type countingBackend struct {
	srv   *httptest.Server
	calls atomic.Int64
}

func newCountingBackend(t *testing.T, handler http.HandlerFunc) *countingBackend {
	t.Helper()
	b := &countingBackend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		if handler != nil {
			handler(w, r)
			return
		}
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func testDeps(t *testing.T, backend *countingBackend) Deps {
	t.Helper()
	return Deps{
		Client: api.New(backend.srv.URL, 5*time.Second, nil),
		Store:  session.NewStore(),
		Saver:  api.DirSaver{Dir: t.TempDir()},
	}
}

// drain runs a command tree synchronously and collects every produced message.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func sampleCleaningSuggestions() []api.CleaningSuggestion {
	return []api.CleaningSuggestion{
		{Column: "age", Issue: "missing values", Suggestion: "impute median", ActionCode: "impute_median"},
		{Column: "name", Issue: "whitespace", Suggestion: "trim", ActionCode: "trim_whitespace"},
	}
}

func TestCleaning_ApplyWithoutSelectionStaysLocal(t *testing.T) {
	backend := newCountingBackend(t, nil)
	m := NewCleaning(testDeps(t, backend))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m, _ = m.Update(cleaningSuggestionsMsg{Suggestions: sampleCleaningSuggestions()})
	require.Equal(t, suggestReady, m.panel.phase)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, drain(cmd))
	assert.Equal(t, int64(0), backend.calls.Load(), "no request may leave the client")
	assert.Equal(t, "warning", m.panel.localKind)
	assert.NotEmpty(t, m.panel.localText)
}

func TestCleaning_EmptySuggestionsShowEmptyState(t *testing.T) {
	m := NewCleaning(testDeps(t, newCountingBackend(t, nil)))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m, _ = m.Update(cleaningSuggestionsMsg{Suggestions: nil})

	assert.Equal(t, suggestEmpty, m.panel.phase)
	assert.Contains(t, m.View(), "No suggestions")
}

func TestCleaning_AppliesOnlySelectedSubset(t *testing.T) {
	var gotActions []api.CleaningSuggestion
	backend := newCountingBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Actions []api.CleaningSuggestion `json:"actions"`
		}
		require.NoError(t, decodeJSON(r, &payload))
		gotActions = payload.Actions
		w.Write([]byte(`{"logs":["trimmed"],"dataPreview":{"columns":["name"],"data":[["x"]]}}`))
	})
	m := NewCleaning(testDeps(t, backend))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(cleaningSuggestionsMsg{Suggestions: sampleCleaningSuggestions()})

	// Move to the second suggestion and select only it.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(keyRune(' '))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	var applied *cleaningAppliedMsg
	for _, msg := range drain(cmd) {
		if a, ok := msg.(cleaningAppliedMsg); ok {
			applied = &a
		}
	}
	require.NotNil(t, applied)
	require.NoError(t, applied.Err)
	require.Len(t, gotActions, 1)
	assert.Equal(t, "trim_whitespace", gotActions[0].ActionCode)

	// Completing the apply clears the suggestion list and raises the
	// data-modified action for the shell.
	m, cmd = m.Update(*applied)
	var modified bool
	for _, msg := range drain(cmd) {
		if dm, ok := msg.(session.DataModified); ok {
			modified = true
			assert.Equal(t, "cleaning", dm.Kind)
			assert.Equal(t, []string{"trimmed"}, dm.Logs)
		}
	}
	assert.True(t, modified)
	assert.Equal(t, suggestIdle, m.panel.phase)
	assert.Nil(t, m.suggestions)
}

func TestCleaning_SuggestionsSurviveFailedApply(t *testing.T) {
	m := NewCleaning(testDeps(t, newCountingBackend(t, nil)))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(cleaningSuggestionsMsg{Suggestions: sampleCleaningSuggestions()})

	m, _ = m.Update(cleaningAppliedMsg{Err: assert.AnError})

	assert.Equal(t, suggestReady, m.panel.phase, "a failed apply keeps the list for retry")
	assert.Len(t, m.suggestions, 2)
}

func TestCleaning_SuggestRequiresProfile(t *testing.T) {
	backend := newCountingBackend(t, nil)
	deps := testDeps(t, backend)
	m := NewCleaning(deps)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m, cmd := m.Update(keyRune('s'))

	assert.Empty(t, drain(cmd))
	assert.Equal(t, int64(0), backend.calls.Load())
	assert.Equal(t, "warning", m.panel.localKind)
}

func TestFeatures_EmitsFeaturesKind(t *testing.T) {
	m := NewFeatures(testDeps(t, newCountingBackend(t, nil)))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m, cmd := m.Update(featuresAppliedMsg{Result: &api.ApplyResult{Logs: []string{"added ratio"}}})

	var kind string
	for _, msg := range drain(cmd) {
		if dm, ok := msg.(session.DataModified); ok {
			kind = dm.Kind
		}
	}
	assert.Equal(t, "features", kind)
}

func TestConfig_ProviderSwitchResetsCredentials(t *testing.T) {
	deps := testDeps(t, newCountingBackend(t, nil))
	m := NewConfig(deps)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	// Fill in the model name and the first azure credential.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}) // focus model name
	for _, r := range "gpt-4o" {
		m, _ = m.Update(keyRune(r))
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}) // focus api_key
	for _, r := range "secret" {
		m, _ = m.Update(keyRune(r))
	}
	assert.Equal(t, "gpt-4o", m.modelInput.Value())
	assert.Equal(t, "secret", m.credInputs[0].Value())

	// Back to the provider row, switch provider.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})

	assert.Equal(t, "nvidia", m.provider().ID)
	assert.Empty(t, m.modelInput.Value(), "switching provider must clear the model name")
	for i := range m.credInputs {
		assert.Empty(t, m.credInputs[i].Value())
	}
}

func TestConfig_ValidationFailureSendsNothing(t *testing.T) {
	backend := newCountingBackend(t, nil)
	m := NewConfig(testDeps(t, backend))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	// Jump focus past the last field and submit with everything empty.
	for i := 0; i <= 1+len(m.credInputs); i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, drain(cmd))
	assert.Equal(t, int64(0), backend.calls.Load())
	assert.Equal(t, "error", m.statusKind)
	assert.Equal(t, "Model name is required", m.statusText)
}

func TestConfig_SaveFailureKeepsTypedValues(t *testing.T) {
	m := NewConfig(testDeps(t, newCountingBackend(t, nil)))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	for _, r := range "gpt-4o" {
		m, _ = m.Update(keyRune(r))
	}

	m, cmd := m.Update(configSavedMsg{err: assert.AnError})

	assert.Equal(t, "gpt-4o", m.modelInput.Value())
	var emitted bool
	for _, msg := range drain(cmd) {
		if _, ok := msg.(session.LLMConfigured); ok {
			emitted = true
		}
	}
	assert.False(t, emitted, "a failed save must not mark the provider configured")
}

func TestConfig_SaveSuccessEmitsConfigured(t *testing.T) {
	m := NewConfig(testDeps(t, newCountingBackend(t, nil)))

	_, cmd := m.Update(configSavedMsg{provider: "azure", model: "gpt-4o"})

	var got *session.LLMConfigured
	for _, msg := range drain(cmd) {
		if a, ok := msg.(session.LLMConfigured); ok {
			got = &a
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, "azure", got.Provider)
	assert.Equal(t, "gpt-4o", got.ModelName)
}

func TestQuery_ExecuteRequiresGeneratedSQL(t *testing.T) {
	backend := newCountingBackend(t, nil)
	m := NewQuery(testDeps(t, backend))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})

	assert.Empty(t, drain(cmd))
	assert.Equal(t, int64(0), backend.calls.Load(), "execution must be gated on generation")
	assert.Equal(t, "warning", m.statusKind)
}

func TestQuery_GenerateRequiresConfiguredLLM(t *testing.T) {
	backend := newCountingBackend(t, nil)
	deps := testDeps(t, backend)
	m := NewQuery(deps)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	for _, r := range "total by region" {
		m, _ = m.Update(keyRune(r))
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})

	assert.Empty(t, drain(cmd))
	assert.Equal(t, int64(0), backend.calls.Load())
	assert.Equal(t, "warning", m.statusKind)
}

func TestQuery_SQLSurvivesFailedExecution(t *testing.T) {
	m := NewQuery(testDeps(t, newCountingBackend(t, nil)))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(sqlGeneratedMsg{SQL: "SELECT 1"})
	require.Equal(t, "SELECT 1", m.sql)

	m, _ = m.Update(queryExecutedMsg{Err: assert.AnError})

	assert.Equal(t, "SELECT 1", m.sql, "the statement stays around for retry")
	assert.Equal(t, "error", m.statusKind)
}

func TestViz_PlotBlockedByParamError(t *testing.T) {
	backend := newCountingBackend(t, nil)
	m := NewViz(testDeps(t, backend))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m, _ = m.Update(vizParamsMsg{Params: &api.VizParams{Error: "no usable columns"}})
	assert.Equal(t, "warning", m.statusKind)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})

	assert.Empty(t, drain(cmd))
	assert.Equal(t, int64(0), backend.calls.Load(), "failed generation must block plotting")
}

func TestNER_ColumnsFollowProfile(t *testing.T) {
	deps := testDeps(t, newCountingBackend(t, nil))
	deps.Store.Apply(session.UploadSucceeded{
		DatasetName: "a.csv",
		Profile: &api.ProfileReport{DataTypes: map[string]string{
			"notes": "object", "age": "int64",
		}},
	})

	m := NewNER(deps)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, []string{"notes"}, m.columns)

	// A data modification clears the profile; the panel must follow.
	deps.Store.Apply(session.DataModified{Kind: "cleaning"})
	m, _ = m.Update(StateChangedMsg{})
	assert.Empty(t, m.columns)
	assert.Contains(t, m.View(), "No text columns")
}

func TestNER_AnalyzeRequiresSelection(t *testing.T) {
	backend := newCountingBackend(t, nil)
	deps := testDeps(t, backend)
	deps.Store.Apply(session.UploadSucceeded{
		DatasetName: "a.csv",
		Profile:     &api.ProfileReport{DataTypes: map[string]string{"notes": "object"}},
	})
	m := NewNER(deps)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, drain(cmd))
	assert.Equal(t, int64(0), backend.calls.Load())
	assert.Equal(t, "warning", m.statusKind)
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
