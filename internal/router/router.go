// Package router maps free-text messages onto logical agents by keyword.
package router

import "strings"

// DefaultAgent receives every message no rule claims.
const DefaultAgent = "defaults"

// Rule binds an agent to its trigger keywords. Any substring match wins.
type Rule struct {
	Agent    string
	Keywords []string
}

// rules is ordered, and the order is behavior: agents with specific
// vocabularies come first so that agents with generic keywords ("code",
// "post") cannot shadow them. Reordering changes routing for ambiguous
// inputs.
var rules = []Rule{
	{Agent: "reviewer", Keywords: []string{
		"review", "check", "audit", "assess",
		"kiểm tra", "đánh giá", "sao chép",
	}},
	{Agent: "writer", Keywords: []string{
		"write blog", "post", "content",
		"viết bài", "soạn thảo", "sáng tạo",
	}},
	// Coder last: "code" and "fix" show up in too many requests.
	{Agent: "coder", Keywords: []string{
		"code", "fix", "bug", "implement", "function", "class",
		"viết hàm", "viết code", "sửa lỗi", "lập trình",
	}},
}

// Route picks the agent for a message. Total: unmatched text goes to
// DefaultAgent.
func Route(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Agent
			}
		}
	}
	return DefaultAgent
}

// Rules returns a copy of the routing table in priority order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Agent: r.Agent, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}
