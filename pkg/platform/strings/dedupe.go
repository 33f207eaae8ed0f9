// Package strings cleans list-valued configuration input.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value and drops empty and repeated entries,
// keeping the first occurrence. A nil or empty input is returned as is.
//
//	DedupeAndTrim([]string{" broker-1:9092", "broker-1:9092", ""})
//	// []string{"broker-1:9092"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
