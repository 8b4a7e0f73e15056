package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openclaw.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoadFrom checks parsing of the real document shape.
func TestLoadFrom(t *testing.T) {
	path := writeConfig(t, `{
		"agents": {
			"coder": {"model": {"primary": "openai/gpt-4o-mini"}},
			"defaults": {"model": {"primary": "google/gemini-2.0-flash (Free)"}}
		},
		"channels": {
			"telegram": {
				"botToken": "123:abc",
				"bots": {
					"codebot": {"token": "456:def", "agent": "coder"}
				}
			}
		}
	}`)

	cfg := LoadFrom(path)

	if got := cfg.ModelFor("coder"); got != "openai/gpt-4o-mini" {
		t.Errorf("ModelFor(coder) = %q", got)
	}
	if cfg.Channels.Telegram.BotToken != "123:abc" {
		t.Errorf("botToken = %q", cfg.Channels.Telegram.BotToken)
	}
	bot, ok := cfg.Bot("codebot")
	if !ok {
		t.Fatal("bot codebot missing")
	}
	if bot.Token != "456:def" || bot.Agent != "coder" {
		t.Errorf("bot = %+v", bot)
	}
}

// TestLoadFromBOM checks that a UTF-8 BOM does not break parsing.
func TestLoadFromBOM(t *testing.T) {
	path := writeConfig(t, "\xef\xbb\xbf"+`{"agents":{"coder":{"model":{"primary":"xai/grok-2"}}}}`)
	cfg := LoadFrom(path)
	if got := cfg.ModelFor("coder"); got != "xai/grok-2" {
		t.Errorf("ModelFor(coder) = %q", got)
	}
}

// TestLoadMissingIsEmpty checks missing files yield a usable empty config.
func TestLoadMissingIsEmpty(t *testing.T) {
	cfg := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if cfg == nil {
		t.Fatal("expected an empty config, got nil")
	}
	if got := cfg.ModelFor("anything"); got != DefaultModel {
		t.Errorf("empty config ModelFor = %q, want the default model", got)
	}
}

// TestLoadMalformedIsEmpty checks parse failures degrade to empty config.
func TestLoadMalformedIsEmpty(t *testing.T) {
	path := writeConfig(t, `{"agents": not json`)
	cfg := LoadFrom(path)
	if cfg == nil || len(cfg.Agents) != 0 {
		t.Fatal("malformed config should load as empty")
	}
}

// TestModelForFallback checks the defaults chain.
func TestModelForFallback(t *testing.T) {
	cfg := &Config{Agents: map[string]AgentConfig{
		"defaults": {Model: ModelConfig{Primary: "google/gemini-1.5-pro"}},
	}}

	if got := cfg.ModelFor("unconfigured"); got != "google/gemini-1.5-pro" {
		t.Errorf("ModelFor = %q, want the defaults model", got)
	}

	empty := &Config{}
	if got := empty.ModelFor("unconfigured"); got != DefaultModel {
		t.Errorf("ModelFor = %q, want DefaultModel", got)
	}
}

// TestAgentNames checks sorting and the reserved-key exclusion.
func TestAgentNames(t *testing.T) {
	cfg := &Config{Agents: map[string]AgentConfig{
		"writer":   {},
		"coder":    {},
		"defaults": {},
		"reviewer": {},
	}}

	names := cfg.AgentNames()
	want := []string{"coder", "reviewer", "writer"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

// TestValidateAgentName checks the reserved-name rule.
func TestValidateAgentName(t *testing.T) {
	if err := ValidateAgentName("coder"); err != nil {
		t.Errorf("coder should be valid: %v", err)
	}
	if err := ValidateAgentName("defaults"); err == nil {
		t.Error("defaults must be rejected")
	}
	if err := ValidateAgentName("  "); err == nil {
		t.Error("blank names must be rejected")
	}
}
