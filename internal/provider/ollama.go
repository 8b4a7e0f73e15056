package provider

import (
	"context"
)

const ollamaBaseURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama daemon. No credential is needed;
// inference can be slow, so it uses the long local timeout.
type OllamaProvider struct {
	base *BaseHTTPProvider
}

// NewOllamaProvider creates a client for a local Ollama instance.
func NewOllamaProvider(baseURL string) *OllamaProvider {
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	return &OllamaProvider{
		base: NewBaseHTTPProvider("", baseURL, LocalTimeout),
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

// Chat calls /api/chat (non-streaming) and returns message.content.
func (p *OllamaProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	messages := make([]map[string]string, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, map[string]string{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}

	body := map[string]interface{}{
		"model":    req.Model,
		"messages": messages,
		"stream":   false,
	}
	if req.Temperature != 0 {
		body["options"] = map[string]interface{}{"temperature": req.Temperature}
	}

	respBody, status, err := p.base.DoRequest(ctx, "POST", "/api/chat", body)
	if err != nil {
		return nil, p.base.HandleError(err, status, respBody)
	}

	var apiResp struct {
		Model   string `json:"model"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		PromptEvalCount int `json:"prompt_eval_count"`
		EvalCount       int `json:"eval_count"`
	}
	mustUnmarshalJSON(respBody, &apiResp)

	return &ChatResponse{
		Text:  apiResp.Message.Content,
		Model: apiResp.Model,
		Usage: Usage{
			InputTokens:  apiResp.PromptEvalCount,
			OutputTokens: apiResp.EvalCount,
		},
	}, nil
}
