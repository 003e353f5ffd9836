package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SessionState is the snapshot returned by GET /api/session. It is the source
// of truth the client rebuilds its state from on startup.
type SessionState struct {
	SessionID          string         `json:"sessionId"`
	DatasetName        string         `json:"datasetName"`
	LLMConfig          LLMConfigEcho  `json:"llmConfig"`
	LLMConfigured      bool           `json:"llmConfigured"`
	ProfileReport      *ProfileReport `json:"profileReport,omitempty"`
	WorkingDFAvailable bool           `json:"workingDfAvailable"`
	PGTableName        string         `json:"pgTableName"`
	NERReport          NERReport      `json:"nerReport,omitempty"`
	LLMSummary         string         `json:"llmSummary,omitempty"`
}

// LLMConfigEcho is what the server echoes back about the stored LLM config.
// Credentials are write-only and never round-trip.
type LLMConfigEcho struct {
	Provider  string `json:"provider"`
	ModelName string `json:"modelName"`
}

// LLMConfigRequest is the POST /api/config_llm payload. Optional credential
// fields left empty are omitted before submission.
type LLMConfigRequest struct {
	Provider    string            `json:"provider"`
	ModelName   string            `json:"modelName"`
	Credentials map[string]string `json:"credentials"`
}

// ProfileReport is the server-computed statistical summary of the working
// dataset. It is replaced wholesale, never patched.
type ProfileReport struct {
	BasicInfo         BasicInfo                     `json:"basic_info"`
	DataTypes         map[string]string             `json:"data_types"`
	MissingValues     map[string]MissingStat        `json:"missing_values"`
	DescriptiveStats  DescriptiveStats              `json:"descriptive_stats"`
	Cardinality       map[string]int                `json:"cardinality"`
	CorrelationMatrix map[string]map[string]float64 `json:"correlation_matrix"`
	Skewness          map[string]float64            `json:"skewness"`
	Kurtosis          map[string]float64            `json:"kurtosis"`
	OutlierDetection  *OutlierReport                `json:"outlier_detection"`
}

type BasicInfo struct {
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
	Duplicates  int    `json:"duplicates"`
	MemoryUsage string `json:"memory_usage"`
}

type MissingStat struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percentage"`
}

type DescriptiveStats struct {
	Numeric     map[string]map[string]float64 `json:"numeric"`
	Categorical map[string]map[string]any     `json:"categorical"`
}

type OutlierReport struct {
	Method       string  `json:"method"`
	OutlierCount int     `json:"outlier_count"`
	Percent      float64 `json:"outlier_percentage,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// TextColumns returns the columns the profiler typed as free text, the
// precondition for entity analysis.
func (p *ProfileReport) TextColumns() []string {
	if p == nil {
		return nil
	}
	var cols []string
	for col, dtype := range p.DataTypes {
		t := strings.ToLower(dtype)
		if strings.Contains(t, "object") || strings.Contains(t, "string") {
			cols = append(cols, col)
		}
	}
	return cols
}

// UploadResult is the POST /api/upload response.
type UploadResult struct {
	DatasetName   string         `json:"datasetName"`
	ProfileReport *ProfileReport `json:"profileReport"`
	DBTable       string         `json:"dbTable"`
}

// CleaningSuggestion is one proposed cleaning step. ActionCode and Details
// round-trip unchanged through the apply payload.
type CleaningSuggestion struct {
	Column     string         `json:"column"`
	Issue      string         `json:"issue"`
	Suggestion string         `json:"suggestion"`
	ActionCode string         `json:"action_code,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// FeatureSuggestion is one proposed engineered feature.
type FeatureSuggestion struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	ActionCode  string         `json:"action_code,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// ApplyResult is the response of apply_cleaning / apply_features.
type ApplyResult struct {
	Logs        []string     `json:"logs"`
	DataPreview *DataPreview `json:"dataPreview"`
}

// DataPreview is a small sampled rendering of the dataset returned after a
// mutating operation, shown until the next profile refresh lands.
type DataPreview struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// NERReport maps column name to its entity analysis.
type NERReport map[string]NERColumnReport

type NERColumnReport struct {
	EntitiesByType map[string]int `json:"entities_by_type"`
	TopEntities    []EntityCount  `json:"top_entities"`
	Error          string         `json:"error,omitempty"`
}

// EntityCount is serialized by the backend as a two-element array
// ["entity text", count].
type EntityCount struct {
	Text  string
	Count int
}

func (e *EntityCount) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("entity count: expected [text, count], got %d elements", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &e.Text); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &e.Count)
}

func (e EntityCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Text, e.Count})
}

// QueryResult is the POST /api/execute_query response.
type QueryResult struct {
	NLAnswer    string          `json:"nlAnswer"`
	RawData     json.RawMessage `json:"rawData"`
	RawDataType string          `json:"rawDataType"`
	LLMSkipped  bool            `json:"llmSkipped"`
}

// Rows decodes the raw result into records when the result is tabular.
// The second return is false for scalar results.
func (q *QueryResult) Rows() ([]map[string]any, bool) {
	if q.RawDataType != "table" || len(q.RawData) == 0 {
		return nil, false
	}
	var rows []map[string]any
	if err := json.Unmarshal(q.RawData, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

// Scalar decodes a non-tabular result into display text.
func (q *QueryResult) Scalar() string {
	if len(q.RawData) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(q.RawData, &v); err != nil {
		return string(q.RawData)
	}
	return fmt.Sprintf("%v", v)
}

// VizParams is the structured plot request generated from natural language.
// A non-empty Error means generation failed and no plot should be attempted.
type VizParams struct {
	PlotType    string `json:"plot_type,omitempty"`
	XCol        string `json:"x_col,omitempty"`
	YCol        string `json:"y_col,omitempty"`
	ColorCol    string `json:"color_col,omitempty"`
	SizeCol     string `json:"size_col,omitempty"`
	Aggregation string `json:"aggregation,omitempty"`
	Error       string `json:"error,omitempty"`
}

// PlotResult is the rendered chart, delivered inline as a data URL.
type PlotResult struct {
	PlotDataURL string `json:"plotDataUrl"`
	Filename    string `json:"filename"`
}
