package summary

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{
			name:    "first paragraph fits",
			content: "Great tacos, ask for the al pastor.\nSecond paragraph with more detail.",
			maxLen:  100,
			want:    "Great tacos, ask for the al pastor.",
		},
		{
			name:    "long paragraph falls back to first sentence",
			content: "Great tacos. The al pastor is carved off the trompo right in front of you and the salsa bar has six kinds.",
			maxLen:  40,
			want:    "Great tacos.",
		},
		{
			name:    "long sentence gets truncated",
			content: "An absurdly long single sentence that never ends and has no punctuation to cut at whatsoever",
			maxLen:  20,
			want:    "An absurdly long sin",
		},
		{
			name:    "empty content",
			content: "",
			maxLen:  100,
			want:    "",
		},
		{
			name:    "leading blank lines skipped",
			content: "\n\n  \nThe plumber showed up on time.",
			maxLen:  100,
			want:    "The plumber showed up on time.",
		},
		{
			name:    "zero maxLen uses default",
			content: "Short note.",
			maxLen:  0,
			want:    "Short note.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Excerpt(tt.content, tt.maxLen)
			if got != tt.want {
				t.Errorf("Excerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExcerpt_NeverExceedsMaxLen(t *testing.T) {
	content := strings.Repeat("word ", 100)
	for _, maxLen := range []int{1, 10, 50, 200} {
		got := Excerpt(content, maxLen)
		if utf8.RuneCountInString(got) > maxLen {
			t.Errorf("Excerpt(maxLen=%d) length = %d, want <= %d", maxLen, utf8.RuneCountInString(got), maxLen)
		}
	}
}

func TestExtractFirstParagraph(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "normal content",
			content: "first paragraph\nsecond paragraph\nthird paragraph",
			want:    "first paragraph",
		},
		{
			name:    "leading empty lines",
			content: "\n\nfirst paragraph\nsecond paragraph",
			want:    "first paragraph",
		},
		{
			name:    "empty content",
			content: "",
			want:    "",
		},
		{
			name:    "only whitespace before content",
			content: "   \n   \ncontent",
			want:    "content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractFirstParagraph(tt.content)
			if got != tt.want {
				t.Errorf("extractFirstParagraph() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFirstSentence(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "English period",
			content: "This is the first sentence. This is the second.",
			want:    "This is the first sentence.",
		},
		{
			name:    "Chinese period",
			content: "这是第一句。这是第二句。",
			want:    "这是第一句。",
		},
		{
			name:    "question mark followed by uppercase",
			content: "Are you ok? Yes, I am.",
			want:    "Are you ok?",
		},
		{
			name:    "exclamation mark",
			content: "Wow! Amazing!",
			want:    "Wow!",
		},
		{
			name:    "no end marker",
			content: "This is a sentence without end marker",
			want:    "This is a sentence without end marker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractFirstSentence(tt.content)
			if got != tt.want {
				t.Errorf("extractFirstSentence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{
			name:   "normal truncation",
			s:      "你好世界",
			maxLen: 2,
			want:   "你好",
		},
		{
			name:   "no truncation needed",
			s:      "你好",
			maxLen: 10,
			want:   "你好",
		},
		{
			name:   "zero maxLen",
			s:      "你好",
			maxLen: 0,
			want:   "你好",
		},
		{
			name:   "English truncation",
			s:      "Hello World",
			maxLen: 5,
			want:   "Hello",
		},
		{
			name:   "mixed content truncation",
			s:      "你好 World",
			maxLen: 4,
			want:   "你好 W",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunes(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncateRunes() = %q, want %q", got, tt.want)
			}
		})
	}
}
