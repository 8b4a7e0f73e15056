package provider

import (
	"encoding/json"
	"fmt"
)

// New creates the chat client for a provider tag. baseURL overrides the
// provider's fixed endpoint (used by tests and self-hosted gateways); pass
// "" for the real one.
//
// "huggingface" is listed in the registry for the configurator's sake but
// has no bridge client, so it surfaces as unsupported here.
func New(tag, apiKey, baseURL string) (Provider, error) {
	switch tag {
	case "google":
		return NewGoogleProvider(apiKey, baseURL), nil
	case "groq":
		return NewGroqProvider(apiKey, baseURL), nil
	case "openrouter":
		return NewOpenRouterProvider(apiKey, baseURL), nil
	case "openai":
		return NewOpenAIProvider(apiKey, baseURL), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, baseURL), nil
	case "deepseek":
		return NewDeepSeekProvider(apiKey, baseURL), nil
	case "mistral":
		return NewMistralProvider(apiKey, baseURL), nil
	case "xai":
		return NewXAIProvider(apiKey, baseURL), nil
	case "ollama":
		return NewOllamaProvider(baseURL), nil
	default:
		return nil, &ClassifiedError{
			Type:    ErrorTypeUnsupported,
			Message: fmt.Sprintf("provider %q is not supported on the bridge", tag),
		}
	}
}

// NeedsCredential reports whether a provider requires a stored secret.
// Local inference does not.
func NeedsCredential(tag string) bool {
	return tag != "ollama"
}

// mustUnmarshalJSON unmarshals JSON data into v, ignoring parse errors.
// Callers validate the interesting fields afterwards.
func mustUnmarshalJSON(data []byte, v interface{}) {
	json.Unmarshal(data, v)
}
