package provider

import (
	"context"
)

const anthropicBaseURL = "https://api.anthropic.com"

// AnthropicProvider implements the Provider interface for the Anthropic
// Messages API.
type AnthropicProvider struct {
	base *BaseHTTPProvider
}

// NewAnthropicProvider creates a Claude client.
func NewAnthropicProvider(apiKey, baseURL string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	base := NewBaseHTTPProvider("", baseURL, ChatTimeout)
	base.SetHeader("x-api-key", apiKey)
	base.SetHeader("anthropic-version", "2023-06-01")
	return &AnthropicProvider{base: base}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Chat calls /v1/messages and extracts the reply from content[0].text.
func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	messages := make([]map[string]string, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, map[string]string{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body := map[string]interface{}{
		"model":      req.Model,
		"max_tokens": maxTokens,
		"messages":   messages,
	}

	respBody, status, err := p.base.DoRequest(ctx, "POST", "/v1/messages", body)
	if err != nil {
		return nil, p.base.HandleError(err, status, respBody)
	}

	var apiResp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Model string `json:"model"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	mustUnmarshalJSON(respBody, &apiResp)

	if len(apiResp.Content) == 0 {
		return nil, &ClassifiedError{
			Type:    ErrorTypeAPIError,
			Message: "anthropic returned no content",
		}
	}

	return &ChatResponse{
		Text:  apiResp.Content[0].Text,
		Model: apiResp.Model,
		Usage: Usage{
			InputTokens:  apiResp.Usage.InputTokens,
			OutputTokens: apiResp.Usage.OutputTokens,
		},
	}, nil
}
