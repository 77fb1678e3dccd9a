package settings

import (
	"encoding/json"
	"strings"

	platformstrings "github.com/nameha1/synergyhr/pkg/platform/strings"
)

// ParseList normalizes a raw settings value into a clean string list.
// Admins have stored these values in three shapes over time: a JSON
// array string (`["10.0.0.1","10.0.0.2"]`), a comma-separated plain
// string, or a single scalar. All three collapse to the same trimmed,
// deduplicated list.
func ParseList(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
			return platformstrings.DedupeAndTrim(items)
		}
		// Fall through: a value that merely starts with "[" but is not
		// valid JSON is still worth a comma-split attempt.
	}

	return platformstrings.DedupeAndTrim(strings.Split(trimmed, ","))
}
