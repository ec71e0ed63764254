package application

import "strings"

// trail joins log scope segments into the "org => project => repo => ..."
// status line format. Empty segments are dropped.
func trail(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, " => ")
}
