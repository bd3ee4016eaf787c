package summary

import (
	"context"
	"time"
)

// Summarizer turns a set of search results into a short digest of what
// the user's circle vouches for.
type Summarizer interface {
	Summarize(ctx context.Context, req *SummarizeRequest) (*SummarizeResponse, error)
}

// ResultDigest is one entity group fed into the digest prompt.
type ResultDigest struct {
	Name       string   // entity name, or the leading line of a standalone recommendation
	Kind       string   // "place" | "service" | "recommendation"
	Highlights []string // member descriptions backing the entity
	Score      float64
	Mentions   int
}

// SummarizeRequest describes what to digest.
type SummarizeRequest struct {
	Query      string
	Results    []ResultDigest
	MaxResults int // results included in the prompt, default 10
}

// SummarizeResponse carries the digest text.
type SummarizeResponse struct {
	Summary string
	Latency time.Duration
}
