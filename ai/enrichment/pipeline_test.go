package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/vouchapp/vouch/store"
)

type mockEnricher struct {
	enrichmentType EnrichmentType
	phase          Phase
	latency        time.Duration
}

func (m *mockEnricher) Type() EnrichmentType { return m.enrichmentType }
func (m *mockEnricher) Phase() Phase         { return m.phase }
func (m *mockEnricher) Enrich(ctx context.Context, rec *store.Recommendation) *EnrichmentResult {
	time.Sleep(m.latency)
	return &EnrichmentResult{
		Type:    m.enrichmentType,
		Success: true,
		Data:    "mock result",
	}
}

func TestPipeline_EnrichAll(t *testing.T) {
	pipeline := NewPipeline(
		&mockEnricher{enrichmentType: EnrichmentContent, phase: PhasePre, latency: 10 * time.Millisecond},
		&mockEnricher{enrichmentType: EnrichmentEmbedding, phase: PhasePost, latency: 20 * time.Millisecond},
	)

	rec := &store.Recommendation{
		ID:          1,
		UID:         "rec-123",
		Description: "test content",
		CreatorID:   1,
	}

	results := pipeline.EnrichAll(context.Background(), rec)

	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	if !results[EnrichmentContent].Success {
		t.Error("content enricher should succeed")
	}
	if !results[EnrichmentEmbedding].Success {
		t.Error("embedding enricher should succeed")
	}
}

func TestPipeline_EnrichPostSave(t *testing.T) {
	pipeline := NewPipeline(
		&mockEnricher{enrichmentType: EnrichmentContent, phase: PhasePre, latency: 10 * time.Millisecond},
		&mockEnricher{enrichmentType: EnrichmentEmbedding, phase: PhasePost, latency: 10 * time.Millisecond},
	)

	rec := &store.Recommendation{ID: 1, UID: "rec-123", Description: "test", CreatorID: 1}
	results := pipeline.EnrichPostSave(context.Background(), rec)

	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
	if _, ok := results[EnrichmentContent]; ok {
		t.Error("should not include pre-save enricher in post-save results")
	}
}

func TestPipeline_EnrichPostSave_NoPostEnrichers(t *testing.T) {
	pipeline := NewPipeline(
		&mockEnricher{enrichmentType: EnrichmentContent, phase: PhasePre},
	)

	rec := &store.Recommendation{ID: 1, UID: "rec-123"}
	if results := pipeline.EnrichPostSave(context.Background(), rec); results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestPipeline_EnrichOne_NotFound(t *testing.T) {
	pipeline := NewPipeline()

	rec := &store.Recommendation{ID: 1, UID: "rec-123"}
	result := pipeline.EnrichOne(context.Background(), EnrichmentContent, rec)

	if result.Success {
		t.Error("missing enricher should not succeed")
	}
	if result.Error != ErrEnricherNotFound {
		t.Errorf("error = %v, want ErrEnricherNotFound", result.Error)
	}
}
