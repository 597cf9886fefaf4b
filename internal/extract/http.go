package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrKriegler/go-claims/internal/core"
)

const maxAttempts = 3

// HTTPExtractor calls the external document-AI service. The service is
// a black box: it receives document references and returns best-effort
// structured fields. Every call is bounded by the client timeout so the
// scoring pipeline is never blocked indefinitely.
type HTTPExtractor struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPExtractor(baseURL, apiKey string, timeout time.Duration) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	Documents []string `json:"documents"`
}

type extractResponse struct {
	Success bool              `json:"success"`
	Fields  map[string]string `json:"fields"`
	Error   string            `json:"error,omitempty"`
}

func (e *HTTPExtractor) Extract(ctx context.Context, documents []string) (map[string]string, error) {
	body, err := json.Marshal(extractRequest{Documents: documents})
	if err != nil {
		return nil, fmt.Errorf("extract.marshal: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fields, err := e.call(ctx, body)
		if err == nil {
			return fields, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", core.ErrExtraction, ctx.Err())
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	return nil, fmt.Errorf("%w: %v", core.ErrExtraction, lastErr)
}

func (e *HTTPExtractor) call(ctx context.Context, body []byte) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("extract.request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract.do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("extract: unexpected status %d", resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("extract.decode: %w", err)
	}

	if !out.Success {
		return nil, fmt.Errorf("extract: service reported failure: %s", out.Error)
	}
	if out.Fields == nil {
		out.Fields = map[string]string{}
	}
	return out.Fields, nil
}
