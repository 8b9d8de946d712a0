// Package utils provides shared utilities for text, math, and logging.
package utils

// Truncate returns s truncated to maxLen bytes. Unlike an ellipsis helper,
// the result never exceeds maxLen; answers are truncated, not padded.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
