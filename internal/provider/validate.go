package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// keyPrefixes are the expected key formats for providers whose keys can
// only be checked offline.
var keyPrefixes = map[string]string{
	"openai":      "sk-",
	"anthropic":   "sk-ant-",
	"deepseek":    "sk-",
	"mistral":     "",
	"xai":         "xai-",
	"huggingface": "hf_",
}

// ValidationResult reports the outcome of a key probe.
type ValidationResult struct {
	Valid   bool
	Checked bool // false when only the key format was inspected
	Detail  string
}

// ValidateKey checks an API key against the provider. Google, Groq and
// OpenRouter expose cheap authenticated endpoints and get a live probe;
// the rest are checked by key-prefix format only.
func ValidateKey(ctx context.Context, tag, key string) (*ValidationResult, error) {
	if strings.TrimSpace(key) == "" && tag != "ollama" {
		return &ValidationResult{Valid: false, Checked: false, Detail: "empty key"}, nil
	}

	switch tag {
	case "google":
		return probeGoogle(ctx, key, "")
	case "groq":
		return probeGroq(ctx, key, "")
	case "openrouter":
		return probeOpenRouter(ctx, key, "")
	case "ollama":
		return &ValidationResult{Valid: true, Checked: false, Detail: "local provider, no key required"}, nil
	default:
		return checkKeyFormat(tag, key)
	}
}

func probeGoogle(ctx context.Context, key, baseURL string) (*ValidationResult, error) {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	base := NewBaseHTTPProvider("", baseURL, ProbeTimeout)
	path := fmt.Sprintf("/models?pageSize=1&key=%s", url.QueryEscape(key))
	_, status, err := base.DoRequest(ctx, "GET", path, nil)
	return probeResult("google", status, err)
}

func probeGroq(ctx context.Context, key, baseURL string) (*ValidationResult, error) {
	if baseURL == "" {
		baseURL = groqBaseURL
	}
	base := NewBaseHTTPProvider(key, baseURL, ProbeTimeout)
	body, status, err := base.DoRequest(ctx, "GET", "/models", nil)
	if err == nil {
		var resp struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		mustUnmarshalJSON(body, &resp)
		return &ValidationResult{
			Valid:   true,
			Checked: true,
			Detail:  fmt.Sprintf("%d models available", len(resp.Data)),
		}, nil
	}
	return probeResult("groq", status, err)
}

func probeOpenRouter(ctx context.Context, key, baseURL string) (*ValidationResult, error) {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	base := NewBaseHTTPProvider(key, baseURL, ProbeTimeout)
	base.SetHeader("HTTP-Referer", "https://github.com/openclaw/bridge")
	body, status, err := base.DoRequest(ctx, "GET", "/auth/key", nil)
	if err == nil {
		var resp struct {
			Data struct {
				Label string `json:"label"`
			} `json:"data"`
		}
		mustUnmarshalJSON(body, &resp)
		return &ValidationResult{
			Valid:   true,
			Checked: true,
			Detail:  "account: " + resp.Data.Label,
		}, nil
	}
	return probeResult("openrouter", status, err)
}

func probeResult(tag string, status int, err error) (*ValidationResult, error) {
	if err == nil {
		return &ValidationResult{Valid: true, Checked: true}, nil
	}
	ce := ClassifyError(err, status, "")
	if ce.Type == ErrorTypeAuth {
		return &ValidationResult{
			Valid:   false,
			Checked: true,
			Detail:  fmt.Sprintf("%s rejected the key (HTTP %d)", tag, status),
		}, nil
	}
	// Transport trouble means we learned nothing about the key.
	return nil, ce
}

func checkKeyFormat(tag, key string) (*ValidationResult, error) {
	expected, ok := keyPrefixes[tag]
	if !ok || expected == "" {
		return &ValidationResult{Valid: true, Checked: false, Detail: "format not verifiable"}, nil
	}
	if !strings.HasPrefix(key, expected) {
		return &ValidationResult{
			Valid:   false,
			Checked: false,
			Detail:  fmt.Sprintf("%s keys usually start with %q", tag, expected),
		}, nil
	}
	return &ValidationResult{Valid: true, Checked: false, Detail: "format looks right"}, nil
}
