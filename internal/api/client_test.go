package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, nil), srv
}

// memorySaver collects downloads in memory.
type memorySaver struct {
	name string
	data []byte
}

func (s *memorySaver) Save(filename string, r io.Reader) (string, error) {
	s.name = filename
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.data = data
	return "/downloads/" + filename, nil
}

func TestSessionState(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/session", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		json.NewEncoder(w).Encode(map[string]any{
			"sessionId":          "s1",
			"datasetName":        "sales.csv",
			"llmConfig":          map[string]string{"provider": "azure", "modelName": "gpt-4o"},
			"llmConfigured":      true,
			"workingDfAvailable": true,
			"pgTableName":        "sales",
		})
	}))

	state, err := client.SessionState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s1", state.SessionID)
	assert.Equal(t, "azure", state.LLMConfig.Provider)
	assert.True(t, state.WorkingDFAvailable)
	assert.Equal(t, "sales", state.PGTableName)
}

func TestErrorDecoding(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"error key", 400, `{"error":"no dataset loaded"}`, "no dataset loaded"},
		{"message key", 500, `{"message":"LLM not configured"}`, "LLM not configured"},
		{"opaque body", 502, `<html>bad gateway</html>`, "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := client.SessionState(context.Background())
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestConfigureLLM_PostsCredentials(t *testing.T) {
	var got LLMConfigRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/config_llm", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"ok"}`))
	}))

	err := client.ConfigureLLM(context.Background(), LLMConfigRequest{
		Provider:    "azure",
		ModelName:   "gpt-4o",
		Credentials: map[string]string{"api_key": "k", "api_base": "https://x", "api_version": "2024-02-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, "azure", got.Provider)
	assert.Equal(t, "k", got.Credentials["api_key"])
}

func TestUpload_MultipartAndProgress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	content := bytes.Repeat([]byte("a,b,c\n1,2,3\n"), 500)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "data.csv", header.Filename)
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, content, body)

		json.NewEncoder(w).Encode(map[string]any{
			"datasetName": "data.csv",
			"dbTable":     "data",
			"profileReport": map[string]any{
				"basic_info": map[string]any{"rows": 500, "columns": 3},
			},
		})
	}))

	var lastProgress float64
	result, err := client.Upload(context.Background(), path, func(p float64) {
		lastProgress = p
	})
	require.NoError(t, err)
	assert.Equal(t, "data.csv", result.DatasetName)
	assert.Equal(t, "data", result.DBTable)
	require.NotNil(t, result.ProfileReport)
	assert.Equal(t, 500, result.ProfileReport.BasicInfo.Rows)
	assert.InDelta(t, 1.0, lastProgress, 0.001)
}

func TestRefreshProfile_AcceptsBothKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"camelCase", `{"profileReport":{"basic_info":{"rows":7}}}`},
		{"snake_case", `{"profile_report":{"basic_info":{"rows":7}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/profile/refresh", r.URL.Path)
				w.Write([]byte(tt.body))
			}))

			profile, err := client.RefreshProfile(context.Background())
			require.NoError(t, err)
			require.NotNil(t, profile)
			assert.Equal(t, 7, profile.BasicInfo.Rows)
		})
	}
}

func TestApplyCleaning_RoundTripsActionCode(t *testing.T) {
	var payload struct {
		Actions []CleaningSuggestion `json:"actions"`
	}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/apply_cleaning", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		json.NewEncoder(w).Encode(map[string]any{
			"logs": []string{"imputed 3 values"},
			"dataPreview": map[string]any{
				"columns": []string{"age"},
				"data":    [][]any{{41}},
			},
		})
	}))

	actions := []CleaningSuggestion{{
		Column:     "age",
		Issue:      "missing values",
		Suggestion: "impute with median",
		ActionCode: "impute_median",
		Details:    map[string]any{"count": float64(3)},
	}}
	result, err := client.ApplyCleaning(context.Background(), actions)
	require.NoError(t, err)
	assert.Equal(t, []string{"imputed 3 values"}, result.Logs)
	require.NotNil(t, result.DataPreview)

	require.Len(t, payload.Actions, 1)
	assert.Equal(t, "impute_median", payload.Actions[0].ActionCode)
	assert.Equal(t, map[string]any{"count": float64(3)}, payload.Actions[0].Details)
}

func TestAnalyzeEntities_DecodesTupleCounts(t *testing.T) {
	var payload map[string][]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ner_analyze", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{
			"notes": {
				"entities_by_type": {"PERSON": 12, "ORG": 4},
				"top_entities": [["Alice", 7], ["Acme", 4]]
			}
		}`))
	}))

	report, err := client.AnalyzeEntities(context.Background(), []string{"notes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, payload["columns"])

	col, ok := report["notes"]
	require.True(t, ok)
	assert.Equal(t, 12, col.EntitiesByType["PERSON"])
	require.Len(t, col.TopEntities, 2)
	assert.Equal(t, EntityCount{Text: "Alice", Count: 7}, col.TopEntities[0])
}

func TestGenerateAndExecuteQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate_query":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "total sales by region", body["query"])
			w.Write([]byte(`{"query":"SELECT region, SUM(sales) FROM t GROUP BY region"}`))
		case "/api/execute_query":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			assert.Contains(t, body["sqlQuery"], "SELECT region")
			w.Write([]byte(`{
				"nlAnswer": "North leads with 100.",
				"rawData": [{"region":"North","sum":100}],
				"rawDataType": "table",
				"llmSkipped": false
			}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	sql, err := client.GenerateQuery(context.Background(), "total sales by region")
	require.NoError(t, err)
	assert.Contains(t, sql, "GROUP BY region")

	result, err := client.ExecuteQuery(context.Background(), sql)
	require.NoError(t, err)
	assert.Equal(t, "North leads with 100.", result.NLAnswer)

	rows, ok := result.Rows()
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "North", rows[0]["region"])
}

func TestGenerateVizParams_CarriesModelError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"params":{"error":"could not identify axes"}}`))
	}))

	params, err := client.GenerateVizParams(context.Background(), "something vague")
	require.NoError(t, err, "a generation failure is data, not a transport error")
	assert.Equal(t, "could not identify axes", params.Error)
}

func TestDownload_UsesContentDispositionName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/download/profile_pdf", r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename="report_2024.pdf"`)
		w.Write([]byte("%PDF-1.4"))
	}))

	saver := &memorySaver{}
	path, err := client.DownloadProfilePDF(context.Background(), saver)
	require.NoError(t, err)
	assert.Equal(t, "/downloads/report_2024.pdf", path)
	assert.Equal(t, "report_2024.pdf", saver.name)
	assert.Equal(t, []byte("%PDF-1.4"), saver.data)
}

func TestDownload_FallbackName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a,b\n1,2\n"))
	}))

	saver := &memorySaver{}
	_, err := client.DownloadQueryCSV(context.Background(), saver)
	require.NoError(t, err)
	assert.Equal(t, DefaultQueryCSVName, saver.name)
}

func TestDecodePlotData(t *testing.T) {
	data, err := DecodePlotData("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// A bare base64 payload without the data URL prefix also decodes.
	data, err = DecodePlotData("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = DecodePlotData("data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestDirSaver_WritesFile(t *testing.T) {
	dir := t.TempDir()
	saver := DirSaver{Dir: dir}

	path, err := saver.Save("plot.png", bytes.NewReader([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "plot.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}
