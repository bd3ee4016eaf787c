package enrichment

import (
	"context"
	"log/slog"
	"time"

	"github.com/vouchapp/vouch/ai"
	"github.com/vouchapp/vouch/store"
)

// embeddingUpserter is the slice of the store the enricher needs.
type embeddingUpserter interface {
	UpsertRecommendationEmbedding(ctx context.Context, embedding *store.RecommendationEmbedding) (*store.RecommendationEmbedding, error)
}

// EmbeddingEnricher computes the search vector of a recommendation and
// persists it.
type EmbeddingEnricher struct {
	embedder ai.EmbeddingService
	store    embeddingUpserter
	model    string
}

// NewEmbeddingEnricher creates an embedding enricher. The model name is
// stored with each vector so vectors from different models never mix in
// one search.
func NewEmbeddingEnricher(embedder ai.EmbeddingService, st embeddingUpserter, model string) *EmbeddingEnricher {
	return &EmbeddingEnricher{
		embedder: embedder,
		store:    st,
		model:    model,
	}
}

// Type returns the enrichment type.
func (e *EmbeddingEnricher) Type() EnrichmentType {
	return EnrichmentEmbedding
}

// Phase returns the phase this enricher belongs to.
func (e *EmbeddingEnricher) Phase() Phase {
	return PhasePost
}

// Enrich embeds the recommendation text and upserts the vector.
func (e *EmbeddingEnricher) Enrich(ctx context.Context, rec *store.Recommendation) *EnrichmentResult {
	start := time.Now()

	if e.embedder == nil {
		return &EnrichmentResult{
			Type:    EnrichmentEmbedding,
			Success: false,
			Error:   nil, // Graceful degradation
			Latency: time.Since(start),
		}
	}

	text := MarkdownToPlain(rec.SearchableText())
	if text == "" {
		// Nothing to embed. Not an error, the recommendation just
		// stays out of semantic search.
		return &EnrichmentResult{
			Type:    EnrichmentEmbedding,
			Success: false,
			Latency: time.Since(start),
		}
	}

	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("embedding enrichment failed",
			"error", err,
			"recommendation_uid", rec.UID,
			"latency_ms", time.Since(start).Milliseconds())
		return &EnrichmentResult{
			Type:    EnrichmentEmbedding,
			Success: false,
			Error:   err,
			Latency: time.Since(start),
		}
	}

	_, err = e.store.UpsertRecommendationEmbedding(ctx, &store.RecommendationEmbedding{
		RecommendationID: rec.ID,
		Model:            e.model,
		Embedding:        vector,
	})
	latency := time.Since(start)
	if err != nil {
		slog.Warn("embedding upsert failed",
			"error", err,
			"recommendation_uid", rec.UID,
			"latency_ms", latency.Milliseconds())
		return &EnrichmentResult{
			Type:    EnrichmentEmbedding,
			Success: false,
			Error:   err,
			Latency: latency,
		}
	}

	slog.Debug("embedding enrichment succeeded",
		"recommendation_uid", rec.UID,
		"dimensions", len(vector),
		"latency_ms", latency.Milliseconds())

	return &EnrichmentResult{
		Type:    EnrichmentEmbedding,
		Success: true,
		Data:    len(vector),
		Latency: latency,
	}
}
