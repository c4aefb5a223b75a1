package util

import "strings"

// TruncateName shortens a course display name for console output,
// replacing the removed tail with an ellipsis. Names at or under max are
// returned unchanged; a max below 4 returns the bare prefix.
func TruncateName(name string, max int) string {
	if max <= 0 || len(name) <= max {
		return name
	}
	if max < 4 {
		return name[:max]
	}
	return strings.TrimSpace(name[:max-3]) + "..."
}
