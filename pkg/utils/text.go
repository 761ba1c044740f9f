// Package utils provides shared utilities for text, math, and logging.
package utils

import "unicode/utf8"

// TruncateBytes returns the longest prefix of s that is at most maxBytes long and does not
// split a UTF-8 sequence. If maxBytes is negative, returns s unchanged.
func TruncateBytes(s string, maxBytes int) string {
	if maxBytes < 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// SplitRunes splits s into consecutive pieces of at most size runes each.
// Returns nil for an empty string or a non-positive size.
func SplitRunes(s string, size int) []string {
	if s == "" || size <= 0 {
		return nil
	}
	var out []string
	start, n := 0, 0
	for i := range s {
		if n == size {
			out = append(out, s[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(out, s[start:])
}

// Truncate returns s cut to maxLen bytes with "..." appended, for log fields.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return TruncateBytes(s, maxLen) + "..."
}
