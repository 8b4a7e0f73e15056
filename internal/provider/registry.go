package provider

import "strings"

// FreeMarker is the display-only decoration the configurator appends to
// free-tier model identifiers. It never reaches a provider API.
const FreeMarker = " (Free)"

// Descriptor is a static registry entry for one provider: display metadata,
// where to get a key, and the known model catalog.
type Descriptor struct {
	Tag    string   // e.g. "google"
	Label  string   // human label shown by the configurator
	KeyURL string   // credential-signup page
	Models []string // catalog, free-tier entries carry FreeMarker
}

// descriptors is the process-wide provider table, free providers first.
// Treat as immutable; accessors below return copies.
var descriptors = []Descriptor{
	{
		Tag:    "google",
		Label:  "Google Gemini",
		KeyURL: "https://aistudio.google.com/app/apikey",
		Models: []string{
			"google/gemini-2.0-flash (Free)",
			"google/gemini-2.0-flash-thinking-exp-01-21 (Free)",
			"google/gemini-2.0-flash-lite (Free)",
			"google/gemini-2.0-pro-exp-02-05 (Free)",
			"google/gemini-1.5-flash (Free)",
			"google/gemini-1.5-flash-8b (Free)",
			"google/gemini-1.5-pro",
		},
	},
	{
		Tag:    "groq",
		Label:  "Groq",
		KeyURL: "https://console.groq.com/keys",
		Models: []string{
			"groq/llama-3.3-70b-versatile (Free)",
			"groq/llama-3.1-8b-instant (Free)",
			"groq/mixtral-8x7b-32768 (Free)",
			"groq/gemma2-9b-it (Free)",
			"groq/deepseek-r1-distill-llama-70b (Free)",
		},
	},
	{
		Tag:    "openrouter",
		Label:  "OpenRouter",
		KeyURL: "https://openrouter.ai/keys",
		Models: []string{
			"openrouter/google/gemini-2.0-flash-thinking-exp-01-21 (Free)",
			"openrouter/deepseek/deepseek-r1 (Free)",
			"openrouter/meta-llama/llama-3.3-70b-instruct (Free)",
			"openrouter/mistralai/mistral-7b-instruct (Free)",
			"openrouter/qwen/qwen-2.5-72b-instruct (Free)",
			"openrouter/anthropic/claude-3-5-sonnet",
			"openrouter/openai/gpt-4o",
		},
	},
	{
		Tag:    "huggingface",
		Label:  "Hugging Face",
		KeyURL: "https://huggingface.co/settings/tokens",
		Models: []string{
			"huggingface/mistralai/Mistral-7B-Instruct-v0.3 (Free)",
			"huggingface/google/gemma-2-9b-it (Free)",
			"huggingface/meta-llama/Meta-Llama-3-8B-Instruct (Free)",
		},
	},
	{
		Tag:    "ollama",
		Label:  "Ollama (local)",
		KeyURL: "https://ollama.com/library",
		Models: []string{
			"ollama/llama3 (Free)",
			"ollama/mistral (Free)",
			"ollama/gemma2 (Free)",
			"ollama/qwen2.5 (Free)",
			"ollama/deepseek-r1 (Free)",
		},
	},
	{
		Tag:    "openai",
		Label:  "OpenAI (GPT)",
		KeyURL: "https://platform.openai.com/api-keys",
		Models: []string{
			"openai/gpt-4o",
			"openai/gpt-4o-mini",
			"openai/gpt-4-turbo",
			"openai/o1",
			"openai/o1-mini",
			"openai/o3-mini",
		},
	},
	{
		Tag:    "anthropic",
		Label:  "Anthropic (Claude)",
		KeyURL: "https://console.anthropic.com/settings/keys",
		Models: []string{
			"anthropic/claude-3-5-sonnet-20241022",
			"anthropic/claude-3-5-haiku-20241022",
			"anthropic/claude-3-opus-20240229",
			"anthropic/claude-3-haiku-20240307",
		},
	},
	{
		Tag:    "deepseek",
		Label:  "DeepSeek",
		KeyURL: "https://platform.deepseek.com/api_keys",
		Models: []string{
			"deepseek/deepseek-chat",
			"deepseek/deepseek-reasoner",
		},
	},
	{
		Tag:    "mistral",
		Label:  "Mistral AI",
		KeyURL: "https://console.mistral.ai/api-keys/",
		Models: []string{
			"mistral/mistral-large-latest",
			"mistral/mistral-small-latest",
			"mistral/codestral-latest",
		},
	},
	{
		Tag:    "xai",
		Label:  "xAI (Grok)",
		KeyURL: "https://console.x.ai/",
		Models: []string{
			"xai/grok-2",
			"xai/grok-2-vision",
			"xai/grok-beta",
		},
	},
}

// Tags returns all provider tags in registry order.
func Tags() []string {
	tags := make([]string, len(descriptors))
	for i, d := range descriptors {
		tags[i] = d.Tag
	}
	return tags
}

// Lookup returns the descriptor for a tag.
func Lookup(tag string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Tag == tag {
			cp := d
			cp.Models = append([]string(nil), d.Models...)
			return cp, true
		}
	}
	return Descriptor{}, false
}

// Descriptors returns a copy of the full registry in display order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	for i, d := range descriptors {
		out[i] = d
		out[i].Models = append([]string(nil), d.Models...)
	}
	return out
}

// IsFreeModel reports whether a catalog entry is flagged free tier.
func IsFreeModel(model string) bool {
	return strings.Contains(model, FreeMarker) ||
		strings.HasPrefix(model, "groq/") ||
		strings.HasPrefix(model, "openrouter/")
}
