package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleProvider implements the Provider interface for Google Gemini.
type GoogleProvider struct {
	base   *BaseHTTPProvider
	apiKey string
}

// NewGoogleProvider creates a Gemini client. An empty baseURL targets the
// public Generative Language API.
func NewGoogleProvider(apiKey, baseURL string) *GoogleProvider {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	return &GoogleProvider{
		base:   NewBaseHTTPProvider("", baseURL, ChatTimeout),
		apiKey: apiKey,
	}
}

func (p *GoogleProvider) Name() string { return "google" }

// Chat calls models/<id>:generateContent and extracts the reply from
// candidates[0].content.parts.
func (p *GoogleProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	contents := make([]map[string]interface{}, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, map[string]interface{}{
			"role":  role,
			"parts": []map[string]interface{}{{"text": msg.Content}},
		})
	}

	genConfig := map[string]interface{}{
		"temperature":     req.Temperature,
		"topP":            0.95,
		"maxOutputTokens": 8192,
	}
	if req.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = req.MaxTokens
	}

	body := map[string]interface{}{
		"contents":         contents,
		"generationConfig": genConfig,
	}

	path := fmt.Sprintf("/models/%s:generateContent?key=%s", req.Model, url.QueryEscape(p.apiKey))
	respBody, status, err := p.base.DoRequest(ctx, "POST", path, body)
	if err != nil {
		return nil, p.base.HandleError(err, status, respBody)
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	mustUnmarshalJSON(respBody, &apiResp)

	if len(apiResp.Candidates) == 0 {
		return nil, &ClassifiedError{
			Type:    ErrorTypeAPIError,
			Message: "google returned no candidates",
		}
	}

	var sb strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return &ChatResponse{
		Text:  sb.String(),
		Model: req.Model,
		Usage: Usage{
			InputTokens:  apiResp.UsageMetadata.PromptTokenCount,
			OutputTokens: apiResp.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}
