package summary

import (
	"strings"
	"unicode/utf8"
)

// Excerpt returns a short plain-text excerpt of a recommendation
// description, for feed items and other places that cannot run the LLM.
// It prefers the first paragraph, falls back to its first sentence when
// the paragraph is too long, and rune-truncates as a last resort.
func Excerpt(content string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 200
	}

	para := extractFirstParagraph(content)
	if para == "" {
		return ""
	}
	if utf8.RuneCountInString(para) <= maxLen {
		return para
	}

	if sentence := extractFirstSentence(para); sentence != "" && utf8.RuneCountInString(sentence) <= maxLen {
		return sentence
	}

	return truncateRunes(para, maxLen)
}

func extractFirstParagraph(content string) string {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func extractFirstSentence(content string) string {
	firstLine := extractFirstParagraph(content)
	if firstLine == "" {
		return ""
	}

	// ASCII markers first, then CJK punctuation.
	endMarkers := []string{"?", "!", ".", "？", "！", "。"}
	for _, marker := range endMarkers {
		idx := strings.Index(firstLine, marker)
		if idx < 0 {
			continue
		}
		nextIdx := idx + len(marker)
		if nextIdx >= len(firstLine) {
			return firstLine[:nextIdx]
		}
		// A space or anything but an uppercase letter after the marker
		// means the sentence really ended there. "U.S." keeps going.
		nextChar := firstLine[nextIdx]
		if nextChar == ' ' || nextChar == '\n' || nextChar < 'A' || nextChar > 'Z' {
			return firstLine[:nextIdx]
		}
	}
	return firstLine
}

// truncateRunes cuts s to maxLen runes without splitting a multibyte
// character.
func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
