package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error is a structured error reported by the backend. Callers can inspect
// the status code and the server's own message.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// decodeError builds an *Error from a non-2xx response. The backend reports
// failures as {"error": "..."}; fall back to {"message": "..."}, then to the
// HTTP status text.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	apiErr := &Error{StatusCode: resp.StatusCode}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		if msg, ok := raw["error"].(string); ok && msg != "" {
			apiErr.Message = msg
		} else if msg, ok := raw["message"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
