// Package strings provides small string-slice helpers shared across the
// service.
package strings

import (
	"strings"
)

// DedupeAndTrim trims whitespace from every element and drops empties
// and duplicates, preserving first-seen order. Settings values pass
// through here so an admin pasting " 10.0.0.1, 10.0.0.1 " ends up with a
// single clean entry.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
