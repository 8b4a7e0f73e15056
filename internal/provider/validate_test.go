package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestCheckKeyFormat checks the offline prefix heuristics.
func TestCheckKeyFormat(t *testing.T) {
	tests := []struct {
		tag   string
		key   string
		valid bool
	}{
		{"openai", "sk-abc123", true},
		{"openai", "pk-abc123", false},
		{"anthropic", "sk-ant-abc", true},
		{"anthropic", "sk-abc", false},
		{"xai", "xai-abc", true},
		{"huggingface", "hf_abc", true},
		{"huggingface", "token", false},
		// Mistral keys have no known prefix, anything passes.
		{"mistral", "whatever", true},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.key, func(t *testing.T) {
			res, err := checkKeyFormat(tt.tag, tt.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Valid != tt.valid {
				t.Errorf("valid = %v, want %v (%s)", res.Valid, tt.valid, res.Detail)
			}
			if res.Checked {
				t.Error("format checks must not claim a live probe")
			}
		})
	}
}

// TestValidateKeyEmpty checks the empty-key short circuit.
func TestValidateKeyEmpty(t *testing.T) {
	res, err := ValidateKey(context.Background(), "openai", "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Valid {
		t.Error("empty key should not validate")
	}
}

// TestValidateKeyOllama checks that the local provider never needs a key.
func TestValidateKeyOllama(t *testing.T) {
	res, err := ValidateKey(context.Background(), "ollama", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Valid {
		t.Error("ollama should validate without a key")
	}
}

// TestProbeGroq exercises the live probe against a stub server.
func TestProbeGroq(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/models" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer gsk_test" {
				t.Errorf("unexpected auth header %q", got)
			}
			w.Write([]byte(`{"data":[{"id":"llama-3.3-70b-versatile"},{"id":"gemma2-9b-it"}]}`))
		}))
		defer srv.Close()

		res, err := probeGroq(context.Background(), "gsk_test", srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Valid || !res.Checked {
			t.Errorf("expected a checked valid result, got %+v", res)
		}
	})

	t.Run("rejected key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_api_key"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		res, err := probeGroq(context.Background(), "bad", srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Valid {
			t.Error("401 should mean invalid key")
		}
		if !res.Checked {
			t.Error("a 401 is a live verdict")
		}
	})
}

// TestProbeOpenRouter checks the auth/key probe parsing.
func TestProbeOpenRouter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/key" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"label":"bridge-key"}}`))
	}))
	defer srv.Close()

	res, err := probeOpenRouter(context.Background(), "sk-or-test", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Valid {
		t.Error("expected valid result")
	}
	if res.Detail != "account: bridge-key" {
		t.Errorf("detail = %q", res.Detail)
	}
}
