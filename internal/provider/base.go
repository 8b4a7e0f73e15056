package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// userAgent identifies the bridge on outbound calls.
const userAgent = "OpenClawBridge/1.0"

// BaseHTTPProvider provides common HTTP plumbing for the REST-style
// provider clients (google, anthropic, ollama, validation probes).
type BaseHTTPProvider struct {
	client  *http.Client
	apiKey  string
	baseURL string
	headers map[string]string
}

// NewBaseHTTPProvider creates a base client with the given request timeout.
func NewBaseHTTPProvider(apiKey, baseURL string, timeout time.Duration) *BaseHTTPProvider {
	return &BaseHTTPProvider{
		client:  &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		baseURL: baseURL,
		headers: make(map[string]string),
	}
}

// SetHeader sets a custom header for all requests.
func (b *BaseHTTPProvider) SetHeader(key, value string) {
	b.headers[key] = value
}

// DoRequest performs an HTTP request with standardized error handling.
// The response body is returned even on error so callers can classify.
func (b *BaseHTTPProvider) DoRequest(ctx context.Context, method, path string, body interface{}) ([]byte, int, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	url := b.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if b.apiKey != "" {
		if _, ok := b.headers["Authorization"]; !ok {
			req.Header.Set("Authorization", "Bearer "+b.apiKey)
		}
	}
	for key, value := range b.headers {
		req.Header.Set(key, value)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return respBody, resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, resp.StatusCode, nil
}

// HandleError wraps error handling with classification.
func (b *BaseHTTPProvider) HandleError(err error, statusCode int, responseBody []byte) error {
	if err == nil {
		return nil
	}
	return ClassifyError(err, statusCode, string(responseBody))
}
