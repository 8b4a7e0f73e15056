package router

import (
	"fmt"
	"testing"
)

// TestRoute checks keyword routing including the priority tie-breaks.
func TestRoute(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Please write a python function.", "coder"},
		{"fix this bug for me", "coder"},
		{"implement a stack", "coder"},
		{"Please review my code.", "reviewer"}, // reviewer outranks coder
		{"check this pr", "reviewer"},
		{"write blog about Go generics", "writer"},
		{"new post for the team", "writer"},
		{"kiểm tra giúp mình đoạn này", "reviewer"},
		{"viết hàm đảo chuỗi", "coder"},
		{"hello world", "defaults"},
		{"", "defaults"},
		{"REVIEW THIS", "reviewer"}, // case-insensitive
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Route(tt.text); got != tt.want {
				t.Errorf("Route(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

// TestRouteEveryKeyword ensures each keyword reaches its own agent when it
// appears without earlier-priority keywords.
func TestRouteEveryKeyword(t *testing.T) {
	for _, rule := range Rules() {
		for _, kw := range rule.Keywords {
			msg := fmt.Sprintf("I want to %s something", kw)
			if got := Route(msg); got != rule.Agent {
				t.Errorf("keyword %q routed to %q, want %q", kw, got, rule.Agent)
			}
		}
	}
}

// TestRulesIsCopy guards the routing table against callers mutating it.
func TestRulesIsCopy(t *testing.T) {
	r := Rules()
	r[0].Keywords[0] = "mutated"
	if Route("mutated input here") != DefaultAgent {
		t.Error("Rules() leaked the internal keyword slice")
	}
}
