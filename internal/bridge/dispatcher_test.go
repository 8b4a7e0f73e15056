package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openclaw/bridge/internal/config"
	"github.com/openclaw/bridge/internal/provider"
)

type capturedRequest struct {
	path  string
	auth  string
	model string
	body  string
}

// newOpenAIStub emulates an OpenAI-style chat-completions endpoint and
// records what the dispatcher sent.
func newOpenAIStub(t *testing.T, captured *capturedRequest, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}

		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.model = req.Model
		if len(req.Messages) > 0 {
			captured.body = req.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-test",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": reply},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8},
		})
	}))
}

// TestDispatchRoutesToConfiguredProvider walks a turn end to end: agent
// model drives provider detection, the agent's own credential is picked,
// and the normalized model id goes over the wire.
func TestDispatchRoutesToConfiguredProvider(t *testing.T) {
	var captured capturedRequest
	srv := newOpenAIStub(t, &captured, "hello from the model")
	defer srv.Close()

	cfg := &config.Config{Agents: map[string]config.AgentConfig{
		"coder": {Model: config.ModelConfig{Primary: "openai/gpt-4o-mini"}},
	}}
	auth := &config.AuthProfiles{Profiles: map[string]config.Profile{
		"openai:coder": {Type: "api_key", Provider: "openai", Key: "sk-test"},
	}}

	d := NewDispatcher(func() *config.Config { return cfg }, func() *config.AuthProfiles { return auth },
		WithEndpoint("openai", srv.URL+"/v1"))

	reply, err := d.Dispatch(context.Background(), "coder", "write a quine", "[Alice]: hi\n")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if reply != "hello from the model" {
		t.Errorf("reply = %q", reply)
	}

	if captured.path != "/v1/chat/completions" {
		t.Errorf("path = %q", captured.path)
	}
	if captured.auth != "Bearer sk-test" {
		t.Errorf("auth = %q, want the coder profile's key", captured.auth)
	}
	if captured.model != "gpt-4o-mini" {
		t.Errorf("model = %q, want the provider prefix stripped", captured.model)
	}
	if !strings.Contains(captured.body, "You are coder.") {
		t.Errorf("prompt missing persona line: %q", captured.body)
	}
	if !strings.Contains(captured.body, "[Alice]: hi") {
		t.Errorf("prompt missing history context: %q", captured.body)
	}
	if !strings.Contains(captured.body, "User: write a quine") {
		t.Errorf("prompt missing user message: %q", captured.body)
	}
}

// TestDispatchFreeModelUsesDefaultsCredential checks free-tier marker
// stripping plus the defaults credential fallback.
func TestDispatchFreeModelUsesDefaultsCredential(t *testing.T) {
	var captured capturedRequest
	srv := newOpenAIStub(t, &captured, "ok")
	defer srv.Close()

	cfg := &config.Config{Agents: map[string]config.AgentConfig{
		"writer": {Model: config.ModelConfig{Primary: "groq/llama-3.3-70b-versatile (Free)"}},
	}}
	auth := &config.AuthProfiles{Profiles: map[string]config.Profile{
		"groq:defaults": {Provider: "groq", Key: "gsk-shared"},
	}}

	d := NewDispatcher(func() *config.Config { return cfg }, func() *config.AuthProfiles { return auth },
		WithEndpoint("groq", srv.URL+"/v1"))

	if _, err := d.Dispatch(context.Background(), "writer", "draft a post", ""); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if captured.model != "llama-3.3-70b-versatile" {
		t.Errorf("model = %q, want marker and prefix stripped", captured.model)
	}
	if captured.auth != "Bearer gsk-shared" {
		t.Errorf("auth = %q, want the defaults profile's key", captured.auth)
	}
}

// TestDispatchMissingCredential checks the empty-store failure mode.
func TestDispatchMissingCredential(t *testing.T) {
	cfg := &config.Config{Agents: map[string]config.AgentConfig{
		"coder": {Model: config.ModelConfig{Primary: "openai/gpt-4o-mini"}},
	}}
	auth := &config.AuthProfiles{Profiles: map[string]config.Profile{}}

	d := NewDispatcher(func() *config.Config { return cfg }, func() *config.AuthProfiles { return auth })

	_, err := d.Dispatch(context.Background(), "coder", "hi", "")
	if err == nil {
		t.Fatal("expected an error")
	}
	var ce *provider.ClassifiedError
	if !errors.As(err, &ce) || ce.Type != provider.ErrorTypeMissingCredential {
		t.Fatalf("err = %v, want missing-credential classification", err)
	}
	if !strings.Contains(FailureReply(err), "API key") {
		t.Errorf("FailureReply should point at the missing key: %q", FailureReply(err))
	}
}

// TestDispatchUnsupportedProvider checks models with no bridge client.
func TestDispatchUnsupportedProvider(t *testing.T) {
	cfg := &config.Config{Agents: map[string]config.AgentConfig{
		"coder": {Model: config.ModelConfig{Primary: "huggingface/bigcode/starcoder2-15b"}},
	}}
	auth := &config.AuthProfiles{Profiles: map[string]config.Profile{
		"huggingface:coder": {Provider: "huggingface", Key: "hf_test"},
	}}

	d := NewDispatcher(func() *config.Config { return cfg }, func() *config.AuthProfiles { return auth })

	_, err := d.Dispatch(context.Background(), "coder", "hi", "")
	var ce *provider.ClassifiedError
	if !errors.As(err, &ce) || ce.Type != provider.ErrorTypeUnsupported {
		t.Fatalf("err = %v, want unsupported classification", err)
	}
	if !strings.HasPrefix(FailureReply(err), "[System]") {
		t.Errorf("FailureReply = %q", FailureReply(err))
	}
}

// TestDispatchAuthRejection checks that a 401 surfaces as an auth error.
func TestDispatchAuthRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	cfg := &config.Config{Agents: map[string]config.AgentConfig{
		"coder": {Model: config.ModelConfig{Primary: "openai/gpt-4o-mini"}},
	}}
	auth := &config.AuthProfiles{Profiles: map[string]config.Profile{
		"openai:coder": {Key: "sk-wrong"},
	}}

	d := NewDispatcher(func() *config.Config { return cfg }, func() *config.AuthProfiles { return auth },
		WithEndpoint("openai", srv.URL+"/v1"))

	_, err := d.Dispatch(context.Background(), "coder", "hi", "")
	var ce *provider.ClassifiedError
	if !errors.As(err, &ce) || ce.Type != provider.ErrorTypeAuth {
		t.Fatalf("err = %v, want auth classification", err)
	}
}

// TestFailureReply covers the user-facing message for each error class.
func TestFailureReply(t *testing.T) {
	tests := []struct {
		errType provider.ErrorType
		want    string
	}{
		{provider.ErrorTypeMissingCredential, "API key"},
		{provider.ErrorTypeAuth, "rejected"},
		{provider.ErrorTypeRateLimit, "rate limiting"},
		{provider.ErrorTypeNotFound, "not found"},
		{provider.ErrorTypeTransport, "reach"},
		{provider.ErrorTypeAPIError, "Provider error"},
	}
	for _, tt := range tests {
		msg := FailureReply(&provider.ClassifiedError{Type: tt.errType, Message: "detail"})
		if !strings.HasPrefix(msg, "[System]") {
			t.Errorf("%s: %q lacks the system prefix", tt.errType, msg)
		}
		if !strings.Contains(msg, tt.want) {
			t.Errorf("%s: %q should mention %q", tt.errType, msg, tt.want)
		}
	}

	if got := FailureReply(errors.New("plain")); !strings.HasPrefix(got, "[System] Error:") {
		t.Errorf("unclassified error reply = %q", got)
	}
}
