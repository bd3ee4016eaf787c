package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vouchapp/vouch/ai/core/llm"
)

const (
	defaultMaxResults    = 10
	maxHighlightsPerItem = 3
	maxHighlightRunes    = 160
)

type llmSummarizer struct {
	llm     llm.Service
	timeout time.Duration
}

// NewSummarizer creates an LLM-backed summarizer. A non-positive timeout
// falls back to 30 seconds.
func NewSummarizer(llmSvc llm.Service, timeout time.Duration) Summarizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &llmSummarizer{
		llm:     llmSvc,
		timeout: timeout,
	}
}

func (s *llmSummarizer) Summarize(ctx context.Context, req *SummarizeRequest) (*SummarizeResponse, error) {
	if s.llm == nil {
		return nil, errors.New("LLM service not configured")
	}
	if len(req.Results) == 0 {
		return nil, errors.New("no results to summarize")
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	digests := req.Results
	if len(digests) > maxResults {
		digests = digests[:maxResults]
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := []llm.Message{
		llm.SystemPrompt(summarySystemPrompt),
		llm.UserMessage(buildPrompt(req.Query, digests)),
	}

	content, stats, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("summary chat failed: %w", err)
	}

	summary, err := parseSummary(content)
	if err != nil {
		return nil, err
	}

	return &SummarizeResponse{
		Summary: summary,
		Latency: time.Duration(stats.TotalDurationMs) * time.Millisecond,
	}, nil
}

func buildPrompt(query string, digests []ResultDigest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user searched for: %q\n\nTop matches:\n", query)
	for i, d := range digests {
		noun := "person"
		if d.Mentions != 1 {
			noun = "people"
		}
		fmt.Fprintf(&b, "%d. %s (%s), score %.2f, vouched for by %d %s\n", i+1, d.Name, d.Kind, d.Score, d.Mentions, noun)
		highlights := d.Highlights
		if len(highlights) > maxHighlightsPerItem {
			highlights = highlights[:maxHighlightsPerItem]
		}
		for _, h := range highlights {
			h = strings.TrimSpace(h)
			if h == "" {
				continue
			}
			fmt.Fprintf(&b, "   - %q\n", truncateRunes(h, maxHighlightRunes))
		}
	}
	b.WriteString("\nReturn JSON: {\"summary\": \"the overview\"}")
	return b.String()
}

// ErrMalformedSummary reports a model response that was not the
// documented JSON shape.
var ErrMalformedSummary = errors.New("malformed summary response")

// parseSummary requires the model output to be exactly the documented JSON
// shape. Anything else is ErrMalformedSummary so callers can drop the
// summary instead of showing salvaged text.
func parseSummary(content string) (string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var result struct {
		Summary string `json:"summary"`
	}
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSummary, err)
	}
	if dec.More() {
		return "", fmt.Errorf("%w: trailing data after JSON", ErrMalformedSummary)
	}
	summary := strings.TrimSpace(result.Summary)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary field", ErrMalformedSummary)
	}
	return summary, nil
}

const summarySystemPrompt = `You are the recommendation digest assistant for a word-of-mouth app. You turn a list of search results into a short overview of what the user's circle vouches for.

Requirements:
1. At most three sentences.
2. Mention the strongest matches by name and say why they come up.
3. Only use facts from the provided results. Never invent places or services.
4. Address the reader directly ("your circle", "your friends").
5. Return JSON: {"summary": "the overview"}`
