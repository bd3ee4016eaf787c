package enrichment

import (
	"context"
	"time"

	"github.com/vouchapp/vouch/store"
)

// EnrichmentType identifies what an enricher derives.
type EnrichmentType string

// Phase identifies when an enricher runs.
type Phase string

const (
	// EnrichmentContent classifies the description into a typed payload
	// (synchronous, runs when the creator asks for analysis).
	EnrichmentContent EnrichmentType = "content"

	// EnrichmentEmbedding computes and stores the search vector
	// (asynchronous, runs after every save).
	EnrichmentEmbedding EnrichmentType = "embedding"
)

const (
	// PhasePre runs synchronously before the recommendation is saved.
	PhasePre Phase = "pre_save"

	// PhasePost runs asynchronously after the recommendation is saved.
	PhasePost Phase = "post_save"
)

// EnrichmentResult is the outcome of a single enricher run.
type EnrichmentResult struct {
	Type    EnrichmentType
	Success bool
	Data    any
	Error   error
	Latency time.Duration
}

// Enricher derives something from a recommendation.
type Enricher interface {
	// Type returns the enrichment type.
	Type() EnrichmentType
	// Phase returns the phase this enricher belongs to.
	Phase() Phase
	// Enrich runs the enrichment and returns its result.
	Enrich(ctx context.Context, rec *store.Recommendation) *EnrichmentResult
}
