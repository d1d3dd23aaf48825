// Package strings cleans up user-supplied string lists, such as the CIDR
// ranges and duplicate-policy names read from the environment.
package strings

import "strings"

// DedupeAndTrim trims whitespace, drops empties, and removes duplicates while
// preserving first-seen order.
//
//	DedupeAndTrim([]string{" 100.64.0.0/10 ", "10.0.0.0/8", "100.64.0.0/10"})
//	// ["100.64.0.0/10", "10.0.0.0/8"]
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower is DedupeAndTrim plus lowercasing, for lists compared
// case-insensitively like policy names.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	})
}

func dedupe(values []string, clean func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		c := clean(v)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
