// Package session holds the client-side picture of the server session: what
// dataset is loaded, which derived reports are current, and how they change.
// State transitions are pure functions over explicit actions so the
// orchestration rules are testable without a terminal or a backend.
package session

import (
	"github.com/dataops-tui/dataops-tui/internal/api"
)

// State is everything the client knows about the working session. It is
// rebuilt from the server on startup and mutated only through Reduce.
type State struct {
	SessionID   string
	DatasetName string
	TableName   string

	Provider      string
	ModelName     string
	LLMConfigured bool

	WorkingDataAvailable bool

	// Derived reports. These are mutually consistent only right after a
	// fetch: any data-modifying action clears all three before its network
	// call is issued.
	Profile *api.ProfileReport
	NER     api.NERReport
	Summary string

	// Preview is the transient post-modification sample, cleared when the
	// next profile refresh lands.
	Preview  *api.DataPreview
	LastLogs []string

	// ProfileVersion increases on every change to the working dataset. A
	// profile refresh result is applied only if it carries the current
	// version, so a slow refresh can never overwrite newer data's profile.
	ProfileVersion uint64
}

// Action is a state transition request. All variants are also tea.Msg values
// so views can emit them through the normal message flow.
type Action interface {
	isAction()
}

// BootstrapLoaded replaces the whole state from a server snapshot.
type BootstrapLoaded struct {
	Snapshot *api.SessionState
}

// UploadSucceeded installs a freshly uploaded dataset.
type UploadSucceeded struct {
	DatasetName string
	Profile     *api.ProfileReport
	TableName   string
}

// DataModified records that the working dataset changed (cleaning, feature
// engineering). It clears every derived report; the orchestrator then
// schedules a profile refresh for the new version.
type DataModified struct {
	Kind    string
	Logs    []string
	Preview *api.DataPreview
}

// ProfileRefreshed delivers a refreshed profile for a specific version.
type ProfileRefreshed struct {
	Version uint64
	Profile *api.ProfileReport
	Err     error
}

// LLMConfigured records a saved provider config. Credentials are write-only
// and never enter the state.
type LLMConfigured struct {
	Provider  string
	ModelName string
}

// NERUpdated and SummaryUpdated are plain setters with no invalidation side
// effects.
type NERUpdated struct {
	Report api.NERReport
}

type SummaryUpdated struct {
	Text string
}

func (BootstrapLoaded) isAction()  {}
func (UploadSucceeded) isAction()  {}
func (DataModified) isAction()     {}
func (ProfileRefreshed) isAction() {}
func (LLMConfigured) isAction()    {}
func (NERUpdated) isAction()       {}
func (SummaryUpdated) isAction()   {}

// Reduce applies an action and returns the next state. It never issues I/O.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case BootstrapLoaded:
		snap := a.Snapshot
		next := State{ProfileVersion: s.ProfileVersion}
		if snap == nil {
			return next
		}
		next.SessionID = snap.SessionID
		next.DatasetName = snap.DatasetName
		next.TableName = snap.PGTableName
		next.Provider = snap.LLMConfig.Provider
		next.ModelName = snap.LLMConfig.ModelName
		next.LLMConfigured = snap.LLMConfigured
		next.WorkingDataAvailable = snap.WorkingDFAvailable
		next.Profile = snap.ProfileReport
		next.NER = snap.NERReport
		next.Summary = snap.LLMSummary
		return next

	case UploadSucceeded:
		s.DatasetName = a.DatasetName
		s.TableName = a.TableName
		s.Profile = a.Profile
		s.NER = nil
		s.Summary = ""
		s.Preview = nil
		s.LastLogs = nil
		s.WorkingDataAvailable = a.Profile != nil
		// Invalidate any refresh still in flight for the previous dataset.
		s.ProfileVersion++
		return s

	case DataModified:
		s.Profile = nil
		s.NER = nil
		s.Summary = ""
		s.Preview = a.Preview
		s.LastLogs = a.Logs
		s.ProfileVersion++
		return s

	case ProfileRefreshed:
		if a.Version != s.ProfileVersion {
			// Stale result from before a newer modification; drop it.
			return s
		}
		if a.Err != nil {
			return s
		}
		s.Profile = a.Profile
		s.Preview = nil
		if a.Profile != nil {
			s.WorkingDataAvailable = true
		}
		return s

	case LLMConfigured:
		s.Provider = a.Provider
		s.ModelName = a.ModelName
		s.LLMConfigured = true
		return s

	case NERUpdated:
		s.NER = a.Report
		return s

	case SummaryUpdated:
		s.Summary = a.Text
		return s
	}
	return s
}

// Store is the single shared mutable resource of the application. The Bubble
// Tea update loop is single-threaded, so no locking is needed; commands
// communicate exclusively through messages.
type Store struct {
	state State
}

func NewStore() *Store {
	return &Store{}
}

func (st *Store) Current() State {
	return st.state
}

func (st *Store) Apply(a Action) State {
	st.state = Reduce(st.state, a)
	return st.state
}
