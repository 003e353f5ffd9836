// Package views contains the feature panels of the application. Each view is
// a self-contained Bubble Tea model owning its request lifecycle; facts flow
// in through the shared session store and intents flow out as messages the
// app shell reduces.
package views

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dataops-tui/dataops-tui/internal/api"
	"github.com/dataops-tui/dataops-tui/internal/session"
)

// View names used for routing in the app shell.
const (
	ViewHome     = "home"
	ViewConfig   = "config"
	ViewUpload   = "upload"
	ViewProfile  = "profile"
	ViewCleaning = "cleaning"
	ViewFeatures = "features"
	ViewNER      = "ner"
	ViewSummary  = "summary"
	ViewQuery    = "query"
	ViewViz      = "viz"
)

// Deps is the capability object handed to every view instead of a long
// callback list: read access to session facts, the API gateway, and the
// download sink.
type Deps struct {
	Client *api.Client
	Store  *session.Store
	Saver  api.Saver
	Logger *zap.Logger
}

// NavigateMsg asks the app shell to switch to the named view.
type NavigateMsg string

// StateChangedMsg is broadcast by the shell after every session state
// transition so views can rebuild whatever they cache from the store.
type StateChangedMsg struct{}

// RefreshRequestMsg asks the shell to re-fetch the profile report without
// treating the dataset as modified.
type RefreshRequestMsg struct{}

// BusyMsg toggles the global loading indicator. true marks the start of a
// user-initiated network action (which also clears the global error).
type BusyMsg bool

// GlobalErrorMsg raises the dismissible global error banner. Panel-local
// validation problems never produce one.
type GlobalErrorMsg struct {
	Context string
	Err     error
}

func navigate(name string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg(name) }
}

func busyOn() tea.Msg  { return BusyMsg(true) }
func busyOff() tea.Msg { return BusyMsg(false) }

func globalError(context string, err error) tea.Cmd {
	return func() tea.Msg { return GlobalErrorMsg{Context: context, Err: err} }
}

func emit(a session.Action) tea.Cmd {
	return func() tea.Msg { return a }
}

// errText renders an error for panel-local display, preferring the server's
// own message.
func errText(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := err.(*api.Error); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
