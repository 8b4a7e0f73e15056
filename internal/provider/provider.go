package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Provider is a chat-completion client for one LLM vendor.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ChatRequest is the provider-neutral request shape. Each client maps it
// onto the vendor's wire format.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse carries the extracted reply text.
type ChatResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// Usage tracks token usage when the provider reports it.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// TotalTokens returns the total token count.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// ErrorType classifies a provider failure.
type ErrorType string

const (
	ErrorTypeMissingCredential ErrorType = "missing_credential"
	ErrorTypeUnsupported       ErrorType = "unsupported_provider"
	ErrorTypeTransport         ErrorType = "transport_failure"
	ErrorTypeAuth              ErrorType = "auth_error"
	ErrorTypeRateLimit         ErrorType = "rate_limit"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeAPIError          ErrorType = "api_error"
)

// ClassifiedError wraps a provider error with classification.
type ClassifiedError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Original   error
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

func (e *ClassifiedError) Unwrap() error {
	return e.Original
}

// Quota and auth markers for providers whose error bodies are not reliably
// structured. Status codes are checked first; the substring sniffing is a
// heuristic backstop only.
var (
	rateLimitMarkers = []string{"rate_limit", "rate limit", "too_many_requests", "quota", "resource_exhausted"}
	authMarkers      = []string{"invalid api key", "invalid_api_key", "incorrect api key", "unauthorized", "authentication"}
	notFoundMarkers  = []string{"model_not_found", "does not exist", "not found"}
)

// ClassifyError maps a transport or API failure onto the bridge's error
// taxonomy.
func ClassifyError(err error, statusCode int, responseBody string) *ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	msg := err.Error()
	if responseBody != "" {
		msg = msg + " " + responseBody
	}
	lower := strings.ToLower(msg)

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClassifiedError{
			Type:       ErrorTypeTransport,
			Message:    "request timed out",
			StatusCode: statusCode,
			Original:   err,
		}
	}

	if statusCode == 429 || containsAny(lower, rateLimitMarkers) {
		return &ClassifiedError{
			Type:       ErrorTypeRateLimit,
			Message:    "rate limited by provider",
			StatusCode: statusCode,
			Original:   err,
		}
	}

	if statusCode == 401 || statusCode == 403 || containsAny(lower, authMarkers) {
		return &ClassifiedError{
			Type:       ErrorTypeAuth,
			Message:    fmt.Sprintf("authentication rejected (%d)", statusCode),
			StatusCode: statusCode,
			Original:   err,
		}
	}

	if statusCode == 404 || containsAny(lower, notFoundMarkers) {
		return &ClassifiedError{
			Type:       ErrorTypeNotFound,
			Message:    "model or endpoint not found",
			StatusCode: statusCode,
			Original:   err,
		}
	}

	// No HTTP status at all means the request never completed.
	if statusCode == 0 {
		return &ClassifiedError{
			Type:       ErrorTypeTransport,
			Message:    err.Error(),
			StatusCode: 0,
			Original:   err,
		}
	}

	return &ClassifiedError{
		Type:       ErrorTypeAPIError,
		Message:    err.Error(),
		StatusCode: statusCode,
		Original:   err,
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Timeouts for outbound calls. Key-validation probes are short, chat
// completions moderate, local inference generous.
const (
	ProbeTimeout = 10 * time.Second
	ChatTimeout  = 45 * time.Second
	LocalTimeout = 120 * time.Second
)
