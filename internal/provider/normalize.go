package provider

import "strings"

// Normalize strips display-only decoration and the redundant provider
// prefix from a raw model identifier, yielding the literal id the
// provider's API expects. Idempotent.
func Normalize(rawModelID, tag string) string {
	m := strings.ReplaceAll(rawModelID, FreeMarker, "")
	m = strings.TrimSpace(m)
	if after, ok := strings.CutPrefix(m, tag+"/"); ok {
		m = after
	}
	return m
}
