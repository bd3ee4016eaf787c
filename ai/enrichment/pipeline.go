package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/vouchapp/vouch/store"
)

// Pipeline fans a recommendation out to its enrichers.
type Pipeline struct {
	enrichers []Enricher
	timeout   time.Duration
}

// NewPipeline creates an enrichment pipeline.
func NewPipeline(enrichers ...Enricher) *Pipeline {
	return &Pipeline{
		enrichers: enrichers,
		timeout:   30 * time.Second,
	}
}

// EnrichAll runs every enricher in parallel and collects the results.
func (p *Pipeline) EnrichAll(ctx context.Context, rec *store.Recommendation) map[EnrichmentType]*EnrichmentResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	results := make(map[EnrichmentType]*EnrichmentResult)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, e := range p.enrichers {
		wg.Add(1)
		go func(enricher Enricher) {
			defer wg.Done()
			result := enricher.Enrich(ctx, rec)
			mu.Lock()
			results[enricher.Type()] = result
			mu.Unlock()
		}(e)
	}

	wg.Wait()
	return results
}

// EnrichPostSave runs the post-save enrichers in parallel.
func (p *Pipeline) EnrichPostSave(ctx context.Context, rec *store.Recommendation) map[EnrichmentType]*EnrichmentResult {
	var postEnrichers []Enricher
	for _, e := range p.enrichers {
		if e.Phase() == PhasePost {
			postEnrichers = append(postEnrichers, e)
		}
	}
	if len(postEnrichers) == 0 {
		return nil
	}
	tmpPipeline := NewPipeline(postEnrichers...)
	return tmpPipeline.EnrichAll(ctx, rec)
}

// EnrichOne runs a single enrichment type.
func (p *Pipeline) EnrichOne(ctx context.Context, t EnrichmentType, rec *store.Recommendation) *EnrichmentResult {
	for _, e := range p.enrichers {
		if e.Type() == t {
			return e.Enrich(ctx, rec)
		}
	}
	return &EnrichmentResult{Type: t, Success: false, Error: ErrEnricherNotFound}
}

// Errors
var ErrEnricherNotFound = &EnricherNotFoundError{}

type EnricherNotFoundError struct{}

func (e *EnricherNotFoundError) Error() string {
	return "enricher not found"
}
