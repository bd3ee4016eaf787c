package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vouchapp/vouch/ai/core/llm"
)

// fakeLLM returns a canned response and records the last request.
type fakeLLM struct {
	content  string
	err      error
	messages []llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message) (string, *llm.LLMCallStats, error) {
	f.messages = messages
	if f.err != nil {
		return "", nil, f.err
	}
	return f.content, &llm.LLMCallStats{TotalDurationMs: 42}, nil
}

func (f *fakeLLM) Warmup(_ context.Context) {}

func digestFixture() []ResultDigest {
	return []ResultDigest{
		{
			Name:       "Menya Saimi",
			Kind:       "place",
			Score:      0.79,
			Mentions:   2,
			Highlights: []string{"Amazing ramen, get the tonkotsu", "Best broth in the city"},
		},
		{
			Name:       "Luigi's Plumbing",
			Kind:       "service",
			Score:      0.64,
			Mentions:   1,
			Highlights: []string{"Fixed our boiler same day"},
		},
	}
}

func TestSummarize(t *testing.T) {
	fake := &fakeLLM{content: `{"summary": "Your circle keeps vouching for Menya Saimi."}`}
	s := NewSummarizer(fake, 10*time.Second)

	resp, err := s.Summarize(context.Background(), &SummarizeRequest{
		Query:   "best ramen",
		Results: digestFixture(),
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if resp.Summary != "Your circle keeps vouching for Menya Saimi." {
		t.Errorf("Summary = %q", resp.Summary)
	}
	if resp.Latency != 42*time.Millisecond {
		t.Errorf("Latency = %v, want 42ms", resp.Latency)
	}
	if len(fake.messages) != 2 {
		t.Fatalf("messages length = %d, want system + user", len(fake.messages))
	}
	userPrompt := fake.messages[1].Content
	for _, want := range []string{"best ramen", "Menya Saimi", "Luigi's Plumbing", "vouched for by 2 people", "vouched for by 1 person"} {
		if !strings.Contains(userPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, userPrompt)
		}
	}
}

func TestSummarize_FencedResponse(t *testing.T) {
	fake := &fakeLLM{content: "```json\n{\"summary\": \"Two friends vouch for the same ramen shop.\"}\n```"}
	s := NewSummarizer(fake, 10*time.Second)

	resp, err := s.Summarize(context.Background(), &SummarizeRequest{
		Query:   "ramen",
		Results: digestFixture(),
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if resp.Summary != "Two friends vouch for the same ramen shop." {
		t.Errorf("Summary = %q", resp.Summary)
	}
}

func TestSummarize_MalformedResponseFails(t *testing.T) {
	// Prose around the JSON must fail the call, never be shown as a digest.
	fake := &fakeLLM{content: "Sure! Here is the summary you asked for."}
	s := NewSummarizer(fake, 10*time.Second)

	_, err := s.Summarize(context.Background(), &SummarizeRequest{
		Query:   "ramen",
		Results: digestFixture(),
	})
	if err == nil {
		t.Fatal("Summarize() with non-JSON response should fail")
	}
	if !errors.Is(err, ErrMalformedSummary) {
		t.Errorf("error = %v, want ErrMalformedSummary", err)
	}
}

func TestSummarize_LLMErrorPropagates(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection refused")}
	s := NewSummarizer(fake, 10*time.Second)

	_, err := s.Summarize(context.Background(), &SummarizeRequest{
		Query:   "ramen",
		Results: digestFixture(),
	})
	if err == nil {
		t.Fatal("Summarize() should propagate LLM errors")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error = %v, want wrapped LLM error", err)
	}
}

func TestSummarize_NilLLM(t *testing.T) {
	s := NewSummarizer(nil, 10*time.Second)

	_, err := s.Summarize(context.Background(), &SummarizeRequest{
		Query:   "ramen",
		Results: digestFixture(),
	})
	if err == nil {
		t.Fatal("Summarize() without an LLM should fail")
	}
}

func TestSummarize_NoResults(t *testing.T) {
	fake := &fakeLLM{content: `{"summary": "nothing"}`}
	s := NewSummarizer(fake, 10*time.Second)

	_, err := s.Summarize(context.Background(), &SummarizeRequest{Query: "ramen"})
	if err == nil {
		t.Fatal("Summarize() with no results should fail")
	}
}

func TestSummarize_CapsResults(t *testing.T) {
	fake := &fakeLLM{content: `{"summary": "capped"}`}
	s := NewSummarizer(fake, 10*time.Second)

	results := append(digestFixture(), ResultDigest{
		Name: "Overflow Cafe", Kind: "place", Score: 0.5, Mentions: 1,
	})
	_, err := s.Summarize(context.Background(), &SummarizeRequest{
		Query:      "coffee",
		Results:    results,
		MaxResults: 2,
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	userPrompt := fake.messages[1].Content
	if strings.Contains(userPrompt, "Overflow Cafe") {
		t.Errorf("prompt should only include the first 2 results:\n%s", userPrompt)
	}
}

func TestBuildPrompt_CapsHighlights(t *testing.T) {
	prompt := buildPrompt("ramen", []ResultDigest{
		{
			Name:       "Menya Saimi",
			Kind:       "place",
			Score:      0.79,
			Mentions:   4,
			Highlights: []string{"one", "two", "three", "four"},
		},
	})
	if strings.Contains(prompt, `"four"`) {
		t.Errorf("prompt should cap highlights at %d:\n%s", maxHighlightsPerItem, prompt)
	}
	for _, want := range []string{`"one"`, `"two"`, `"three"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing highlight %s:\n%s", want, prompt)
		}
	}
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "plain JSON",
			content: `{"summary": "A tidy digest."}`,
			want:    "A tidy digest.",
		},
		{
			name:    "fenced JSON",
			content: "```json\n{\"summary\": \"A tidy digest.\"}\n```",
			want:    "A tidy digest.",
		},
		{
			name:    "bare fences",
			content: "```\n{\"summary\": \"A tidy digest.\"}\n```",
			want:    "A tidy digest.",
		},
		{
			name:    "surrounding whitespace",
			content: "  \n{\"summary\": \"A tidy digest.\"}\n  ",
			want:    "A tidy digest.",
		},
		{
			name:    "unknown field",
			content: `{"summary": "x", "confidence": 0.9}`,
			wantErr: true,
		},
		{
			name:    "trailing prose",
			content: `{"summary": "x"} Hope this helps!`,
			wantErr: true,
		},
		{
			name:    "leading prose",
			content: `Here you go: {"summary": "x"}`,
			wantErr: true,
		},
		{
			name:    "empty summary",
			content: `{"summary": "  "}`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			content: "just some text",
			wantErr: true,
		},
		{
			name:    "empty content",
			content: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSummary(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSummary() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrMalformedSummary) {
				t.Errorf("error = %v, want ErrMalformedSummary", err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
