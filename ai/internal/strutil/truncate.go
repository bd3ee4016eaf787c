// Package strutil holds small string helpers shared by the ai packages.
package strutil

// Truncate caps a string at maxRunes runes, marking the cut with an
// ellipsis. Counting runes rather than bytes keeps multi-byte text
// intact. A non-positive maxRunes yields the empty string.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
