package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompatibleProvider works with any OpenAI-style chat-completions
// API. Most of the bridge's providers are served by this one client with
// different base URLs.
type OpenAICompatibleProvider struct {
	name   string
	client *openai.Client
}

// NewOpenAICompatibleProvider creates a client against the given base URL.
// An empty baseURL targets api.openai.com.
func NewOpenAICompatibleProvider(name, apiKey, baseURL string) *OpenAICompatibleProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: ChatTimeout}

	return &OpenAICompatibleProvider{
		name:   name,
		client: openai.NewClientWithConfig(config),
	}
}

func (p *OpenAICompatibleProvider) Name() string { return p.name }

// Chat sends a chat-completion request and extracts the reply text from
// choices[0].message.content.
func (p *OpenAICompatibleProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.Temperature != 0 {
		chatReq.Temperature = float32(req.Temperature)
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyOpenAIError(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ClassifiedError{
			Type:    ErrorTypeAPIError,
			Message: fmt.Sprintf("%s returned no choices", p.name),
		}
	}

	return &ChatResponse{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// classifyOpenAIError pulls the HTTP status out of go-openai errors so the
// generic classifier gets structured input.
func classifyOpenAIError(name string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return ClassifyError(fmt.Errorf("%s API error: %w", name, err), apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return ClassifyError(fmt.Errorf("%s API error: %w", name, err), reqErr.HTTPStatusCode, "")
	}
	return ClassifyError(fmt.Errorf("%s API error: %w", name, err), 0, "")
}

// Endpoints for the OpenAI-compatible providers. These are fixed external
// contracts.
const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	deepSeekBaseURL   = "https://api.deepseek.com"
	mistralBaseURL    = "https://api.mistral.ai/v1"
	xaiBaseURL        = "https://api.x.ai/v1"
)

// NewOpenAIProvider targets the stock OpenAI API.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAICompatibleProvider {
	return NewOpenAICompatibleProvider("openai", apiKey, baseURL)
}

// NewGroqProvider targets Groq's OpenAI-compatible endpoint.
func NewGroqProvider(apiKey, baseURL string) *OpenAICompatibleProvider {
	if baseURL == "" {
		baseURL = groqBaseURL
	}
	return NewOpenAICompatibleProvider("groq", apiKey, baseURL)
}

// OpenRouterProvider adds the referer header OpenRouter expects.
type OpenRouterProvider struct {
	*OpenAICompatibleProvider
}

// NewOpenRouterProvider targets OpenRouter.
func NewOpenRouterProvider(apiKey, baseURL string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{
		Timeout:   ChatTimeout,
		Transport: &refererTransport{base: http.DefaultTransport},
	}
	return &OpenRouterProvider{
		OpenAICompatibleProvider: &OpenAICompatibleProvider{
			name:   "openrouter",
			client: openai.NewClientWithConfig(config),
		},
	}
}

// refererTransport injects the HTTP-Referer header OpenRouter uses for
// app attribution.
type refererTransport struct {
	base http.RoundTripper
}

func (t *refererTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("HTTP-Referer", "https://github.com/openclaw/bridge")
	req.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(req)
}

// NewDeepSeekProvider targets DeepSeek.
func NewDeepSeekProvider(apiKey, baseURL string) *OpenAICompatibleProvider {
	if baseURL == "" {
		baseURL = deepSeekBaseURL
	}
	return NewOpenAICompatibleProvider("deepseek", apiKey, baseURL)
}

// NewMistralProvider targets Mistral AI.
func NewMistralProvider(apiKey, baseURL string) *OpenAICompatibleProvider {
	if baseURL == "" {
		baseURL = mistralBaseURL
	}
	return NewOpenAICompatibleProvider("mistral", apiKey, baseURL)
}

// NewXAIProvider targets xAI.
func NewXAIProvider(apiKey, baseURL string) *OpenAICompatibleProvider {
	if baseURL == "" {
		baseURL = xaiBaseURL
	}
	return NewOpenAICompatibleProvider("xai", apiKey, baseURL)
}
