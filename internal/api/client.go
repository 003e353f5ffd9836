package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default filenames used when the server does not name the download.
const (
	DefaultProfilePDFName = "data_profile_report.pdf"
	DefaultQueryCSVName   = "query_results.csv"
	DefaultExcelName      = "data_export.xlsx"
	DefaultPlotName       = "plot.png"
)

// Client is the single point of HTTP configuration for the DataOps backend:
// base URL, session cookie, timeouts and error decoding all live here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// New builds a client rooted at baseURL (no trailing /api). The cookie jar
// carries the backend's session cookie across calls, which is what binds
// this process to its server-side session.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// doJSON performs a JSON round trip. body may be nil; out may be nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("path", path), zap.String("request_id", requestID), zap.Error(err))
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Info("request",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)),
		zap.String("request_id", requestID))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SessionState fetches the current server-side session snapshot.
func (c *Client) SessionState(ctx context.Context) (*SessionState, error) {
	var out SessionState
	if err := c.doJSON(ctx, http.MethodGet, "/api/session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfigureLLM saves the LLM provider configuration for this session.
func (c *Client) ConfigureLLM(ctx context.Context, req LLMConfigRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/config_llm", req, nil)
}

// Upload sends a dataset file as multipart form data. progress, if non-nil,
// is called with the fraction of the file read so far; it runs on the
// transport goroutine and must only do cheap bookkeeping.
func (c *Client) Upload(ctx context.Context, path string, progress func(float64)) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := io.Reader(f)
		if progress != nil {
			src = &progressReader{r: f, total: info.Size(), report: progress}
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}
	var out UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.logger.Info("upload complete", zap.String("file", filepath.Base(path)),
		zap.Int64("bytes", info.Size()))
	return &out, nil
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		p.report(float64(p.read) / float64(p.total))
	}
	return n, err
}

// RefreshProfile regenerates the profile report for the working dataset.
func (c *Client) RefreshProfile(ctx context.Context) (*ProfileReport, error) {
	// The refresh endpoint historically used the snake_case key; accept both.
	var out struct {
		ProfileReport *ProfileReport `json:"profileReport"`
		Legacy        *ProfileReport `json:"profile_report"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/profile/refresh", nil, &out); err != nil {
		return nil, err
	}
	if out.ProfileReport != nil {
		return out.ProfileReport, nil
	}
	return out.Legacy, nil
}

// SuggestCleaning asks the backend for cleaning suggestions. Requires a
// profiled dataset server-side.
func (c *Client) SuggestCleaning(ctx context.Context) ([]CleaningSuggestion, error) {
	var out struct {
		Suggestions []CleaningSuggestion `json:"suggestions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/suggest_cleaning", nil, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// ApplyCleaning applies the selected cleaning actions.
func (c *Client) ApplyCleaning(ctx context.Context, actions []CleaningSuggestion) (*ApplyResult, error) {
	body := map[string]any{"actions": actions}
	var out ApplyResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/apply_cleaning", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SuggestFeatures asks for feature engineering suggestions.
func (c *Client) SuggestFeatures(ctx context.Context) ([]FeatureSuggestion, error) {
	var out struct {
		Suggestions []FeatureSuggestion `json:"suggestions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/suggest_features", nil, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// ApplyFeatures applies the selected engineered features.
func (c *Client) ApplyFeatures(ctx context.Context, features []FeatureSuggestion) (*ApplyResult, error) {
	body := map[string]any{"features": features}
	var out ApplyResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/apply_features", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeEntities runs NER over the given text columns.
func (c *Client) AnalyzeEntities(ctx context.Context, columns []string) (NERReport, error) {
	body := map[string]any{"columns": columns}
	var out NERReport
	if err := c.doJSON(ctx, http.MethodPost, "/api/ner_analyze", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateSummary asks the LLM for a markdown summary of the dataset.
func (c *Client) GenerateSummary(ctx context.Context) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate_summary", map[string]any{}, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// GenerateQuery translates a natural language question into SQL.
func (c *Client) GenerateQuery(ctx context.Context, question string) (string, error) {
	body := map[string]string{"query": question}
	var out struct {
		Query string `json:"query"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate_query", body, &out); err != nil {
		return "", err
	}
	return out.Query, nil
}

// ExecuteQuery runs a generated SQL statement and returns rows plus the
// natural language answer.
func (c *Client) ExecuteQuery(ctx context.Context, sqlQuery string) (*QueryResult, error) {
	body := map[string]string{"sqlQuery": sqlQuery}
	var out QueryResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/execute_query", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateVizParams turns a natural language chart request into plot
// parameters. A response with a non-empty Error field is a generation
// failure even though the HTTP call succeeded.
func (c *Client) GenerateVizParams(ctx context.Context, request string) (*VizParams, error) {
	body := map[string]string{"request": request}
	var out struct {
		Params VizParams `json:"params"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate_viz_params", body, &out); err != nil {
		return nil, err
	}
	return &out.Params, nil
}

// GeneratePlot renders a chart for the given parameters.
func (c *Client) GeneratePlot(ctx context.Context, params *VizParams) (*PlotResult, error) {
	body := map[string]any{"params": params}
	var out PlotResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate_plot", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadProfilePDF streams the profile PDF through the saver and returns
// the saved path.
func (c *Client) DownloadProfilePDF(ctx context.Context, saver Saver) (string, error) {
	return c.download(ctx, "/api/download/profile_pdf", DefaultProfilePDFName, saver)
}

// DownloadQueryCSV streams the last query's result CSV through the saver.
func (c *Client) DownloadQueryCSV(ctx context.Context, saver Saver) (string, error) {
	return c.download(ctx, "/api/download/query_result_csv", DefaultQueryCSVName, saver)
}

// DownloadExcel streams the working dataset as an Excel file through the
// saver.
func (c *Client) DownloadExcel(ctx context.Context, saver Saver) (string, error) {
	return c.download(ctx, "/api/download_data/excel", DefaultExcelName, saver)
}

func (c *Client) download(ctx context.Context, path, fallbackName string, saver Saver) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeError(resp)
	}

	name := fallbackName
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if fn := params["filename"]; fn != "" {
				name = fn
			}
		}
	}
	saved, err := saver.Save(name, resp.Body)
	if err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}
	c.logger.Info("download saved", zap.String("path", saved))
	return saved, nil
}

// DecodePlotData decodes the base64 image payload out of a data URL.
func DecodePlotData(dataURL string) ([]byte, error) {
	payload := dataURL
	if idx := strings.Index(dataURL, "base64,"); idx >= 0 {
		payload = dataURL[idx+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode plot data: %w", err)
	}
	return data, nil
}
