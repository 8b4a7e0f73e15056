package provider

import "strings"

// DefaultTag is attributed to any model identifier nothing else claims.
const DefaultTag = "google"

// Detect maps a model identifier to a provider tag. Total: unmatched input
// falls back to DefaultTag.
//
// The checks run in a fixed priority order because several substrings are
// ambiguous: "deepseek" appears inside OpenRouter catalog ids and "llama"
// inside Hugging Face ones. Prefixed forms must win before the looser
// family-name matches, and generic terms are tested late. Reordering the
// chain silently misroutes models.
func Detect(modelID string) string {
	m := strings.ToLower(modelID)
	m = strings.ReplaceAll(m, strings.ToLower(FreeMarker), "")
	m = strings.TrimSpace(m)

	switch {
	case strings.HasPrefix(m, "google/") || strings.Contains(m, "gemini"):
		return "google"
	case strings.HasPrefix(m, "groq/") || strings.Contains(m, "groq") ||
		strings.Contains(m, "llama") || strings.Contains(m, "mixtral"):
		return "groq"
	case strings.HasPrefix(m, "openrouter/"):
		return "openrouter"
	case strings.HasPrefix(m, "openai/") || strings.Contains(m, "gpt"):
		return "openai"
	case strings.HasPrefix(m, "anthropic/") || strings.Contains(m, "claude"):
		return "anthropic"
	case strings.HasPrefix(m, "deepseek/") || strings.Contains(m, "deepseek"):
		return "deepseek"
	case strings.HasPrefix(m, "mistral/") || strings.Contains(m, "mistral") ||
		strings.Contains(m, "codestral"):
		return "mistral"
	case strings.HasPrefix(m, "xai/") || strings.Contains(m, "grok"):
		return "xai"
	case strings.HasPrefix(m, "huggingface/"):
		return "huggingface"
	case strings.HasPrefix(m, "ollama/"):
		return "ollama"
	}
	return DefaultTag
}
