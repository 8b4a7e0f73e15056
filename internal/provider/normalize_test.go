package provider

import "testing"

// TestNormalize checks decoration and prefix stripping.
func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		tag  string
		want string
	}{
		{"openai/gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"google/gemini-2.0-flash (Free)", "google", "gemini-2.0-flash"},
		{"groq/llama-3.3-70b-versatile (Free)", "groq", "llama-3.3-70b-versatile"},
		// Only the detected provider's own prefix is stripped; nested
		// catalog paths stay intact for OpenRouter.
		{"openrouter/deepseek/deepseek-r1 (Free)", "openrouter", "deepseek/deepseek-r1"},
		{"anthropic/claude-3-5-sonnet-20241022", "anthropic", "claude-3-5-sonnet-20241022"},
		// No prefix, nothing to strip.
		{"gpt-4o", "openai", "gpt-4o"},
		{"  ollama/llama3 (Free)  ", "ollama", "llama3"},
		{"", "google", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Normalize(tt.raw, tt.tag); got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.raw, tt.tag, got, tt.want)
			}
		})
	}
}

// TestNormalizeIdempotent verifies normalize(normalize(x)) == normalize(x)
// across the whole registry catalog.
func TestNormalizeIdempotent(t *testing.T) {
	for _, d := range Descriptors() {
		for _, m := range d.Models {
			once := Normalize(m, d.Tag)
			twice := Normalize(once, d.Tag)
			if once != twice {
				t.Errorf("Normalize not idempotent for %q: %q != %q", m, once, twice)
			}
		}
	}
}
