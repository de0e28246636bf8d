package models

import (
	"sort"
	"strings"
)

// AttributeSeparator joins attribute elements in the canonical string form.
const AttributeSeparator = ","

// CanonicalAttributes normalizes an attribute set into its storage form:
// elements are whitespace-trimmed, empties dropped, the rest sorted
// lexicographically and comma-joined. Every write path must produce this
// exact form so that match logic and storage agree.
func CanonicalAttributes(attrs []string) string {
	cleaned := make([]string, 0, len(attrs))
	for _, a := range attrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		cleaned = append(cleaned, a)
	}
	sort.Strings(cleaned)
	return strings.Join(cleaned, AttributeSeparator)
}

// SplitAttributes is the inverse of CanonicalAttributes: it splits a stored
// attribute string back into its elements, trimming whitespace around each.
// An empty string yields an empty slice.
func SplitAttributes(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, AttributeSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AttributesIntersect reports whether two attribute sets share at least one
// element. Matching is intentionally permissive: any single shared attribute
// qualifies, not exact-set equality.
func AttributesIntersect(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	for _, y := range b {
		if _, ok := set[y]; ok {
			return true
		}
	}
	return false
}
