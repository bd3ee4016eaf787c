package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stopwords are common words that carry no search intent on their own.
// Only words of 3+ runes need listing; shorter tokens are dropped by
// length before the stopword check.
var stopwords = map[string]struct{}{
	"about": {}, "and": {}, "any": {}, "anyone": {}, "are": {},
	"can": {}, "could": {}, "does": {}, "find": {}, "for": {},
	"from": {}, "get": {}, "good": {}, "great": {}, "has": {},
	"have": {}, "how": {}, "know": {}, "knows": {}, "like": {},
	"looking": {}, "near": {}, "need": {}, "place": {}, "places": {},
	"recommend": {}, "recommendation": {}, "recommendations": {},
	"some": {}, "someone": {}, "that": {}, "the": {}, "this": {},
	"want": {}, "was": {}, "what": {}, "where": {}, "which": {},
	"who": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// tokenize lowercases the text, splits on non-alphanumeric runes, and
// drops stopwords and tokens shorter than 3 runes.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) < 3 {
			continue
		}
		if _, ok := stopwords[field]; ok {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// keywordMatch reports whether any query token appears in the
// candidate text. Substring containment, so "taco" also hits "tacos".
func keywordMatch(queryTokens []string, text string) bool {
	if len(queryTokens) == 0 {
		return false
	}
	text = strings.ToLower(text)
	for _, token := range queryTokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

// applyKeywordGate filters candidates with the two-tier rule:
//
//   - similarity at or above the high threshold always passes
//   - between the low and high thresholds, a keyword match is required
//   - below the low threshold the candidate is dropped regardless
//
// With the keyword tier disabled only the high threshold applies. Both
// boundaries are inclusive. Candidates keep their input order.
func applyKeywordGate(candidates []*ScoredRecommendation, queryTokens []string, high, low float64, keywordEnabled bool) []*ScoredRecommendation {
	kept := make([]*ScoredRecommendation, 0, len(candidates))
	for _, c := range candidates {
		c.KeywordMatch = keywordMatch(queryTokens, c.Recommendation.SearchableText())

		switch {
		case c.Score >= high:
			kept = append(kept, c)
		case keywordEnabled && c.KeywordMatch && c.Score >= low:
			kept = append(kept, c)
		}
	}
	return kept
}
