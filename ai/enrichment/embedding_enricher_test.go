package enrichment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vouchapp/vouch/store"
)

type stubEmbedder struct {
	vector   []float32
	err      error
	lastText string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.lastText = text
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = s.vector
	}
	return vectors, nil
}

func (s *stubEmbedder) Dimensions() int { return len(s.vector) }

type stubUpserter struct {
	got *store.RecommendationEmbedding
	err error
}

func (s *stubUpserter) UpsertRecommendationEmbedding(_ context.Context, embedding *store.RecommendationEmbedding) (*store.RecommendationEmbedding, error) {
	s.got = embedding
	if s.err != nil {
		return nil, s.err
	}
	return embedding, nil
}

func TestEmbeddingEnricher_Enrich(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	upserter := &stubUpserter{}
	enricher := NewEmbeddingEnricher(embedder, upserter, "text-embedding-3-small")

	rec := &store.Recommendation{
		ID:          7,
		UID:         "rec-7",
		Description: "**Amazing** ramen, get the [tonkotsu](https://example.com/menu)",
	}
	result := enricher.Enrich(context.Background(), rec)

	if !result.Success {
		t.Fatalf("Enrich() failed: %v", result.Error)
	}
	if upserter.got == nil {
		t.Fatal("embedding was not upserted")
	}
	if upserter.got.RecommendationID != 7 {
		t.Errorf("RecommendationID = %d, want 7", upserter.got.RecommendationID)
	}
	if upserter.got.Model != "text-embedding-3-small" {
		t.Errorf("Model = %q", upserter.got.Model)
	}
	if len(upserter.got.Embedding) != 3 {
		t.Errorf("Embedding length = %d, want 3", len(upserter.got.Embedding))
	}
	if strings.Contains(embedder.lastText, "**") || strings.Contains(embedder.lastText, "https://example.com") {
		t.Errorf("markdown syntax leaked into embedding input: %q", embedder.lastText)
	}
	if !strings.Contains(embedder.lastText, "tonkotsu") {
		t.Errorf("link label missing from embedding input: %q", embedder.lastText)
	}
}

func TestEmbeddingEnricher_Enrich_IncludesContentFields(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1}}
	enricher := NewEmbeddingEnricher(embedder, &stubUpserter{}, "m")

	rec := &store.Recommendation{
		ID:          1,
		UID:         "rec-1",
		Description: "Great bowl",
		Content: store.RecommendationContent{
			Place: &store.PlaceContent{Name: "Menya Saimi", Category: "ramen shop"},
		},
	}
	result := enricher.Enrich(context.Background(), rec)

	if !result.Success {
		t.Fatalf("Enrich() failed: %v", result.Error)
	}
	for _, want := range []string{"Great bowl", "Menya Saimi", "ramen shop"} {
		if !strings.Contains(embedder.lastText, want) {
			t.Errorf("embedding input missing %q: %q", want, embedder.lastText)
		}
	}
}

func TestEmbeddingEnricher_Enrich_EmbedError(t *testing.T) {
	enricher := NewEmbeddingEnricher(&stubEmbedder{err: errors.New("quota exceeded")}, &stubUpserter{}, "m")

	rec := &store.Recommendation{ID: 1, UID: "rec-1", Description: "text"}
	result := enricher.Enrich(context.Background(), rec)

	if result.Success {
		t.Error("Enrich() should fail when embedding fails")
	}
	if result.Error == nil {
		t.Error("Error should be set")
	}
}

func TestEmbeddingEnricher_Enrich_UpsertError(t *testing.T) {
	enricher := NewEmbeddingEnricher(
		&stubEmbedder{vector: []float32{0.1}},
		&stubUpserter{err: errors.New("db down")},
		"m",
	)

	rec := &store.Recommendation{ID: 1, UID: "rec-1", Description: "text"}
	result := enricher.Enrich(context.Background(), rec)

	if result.Success {
		t.Error("Enrich() should fail when the upsert fails")
	}
}

func TestEmbeddingEnricher_Enrich_NilEmbedder(t *testing.T) {
	enricher := NewEmbeddingEnricher(nil, &stubUpserter{}, "m")

	rec := &store.Recommendation{ID: 1, UID: "rec-1", Description: "text"}
	result := enricher.Enrich(context.Background(), rec)

	if result.Success {
		t.Error("Enrich() without an embedder should not succeed")
	}
	if result.Error != nil {
		t.Errorf("nil embedder should degrade without an error, got %v", result.Error)
	}
}

func TestEmbeddingEnricher_Enrich_NothingToEmbed(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1}}
	upserter := &stubUpserter{}
	enricher := NewEmbeddingEnricher(embedder, upserter, "m")

	rec := &store.Recommendation{ID: 1, UID: "rec-1"}
	result := enricher.Enrich(context.Background(), rec)

	if result.Success {
		t.Error("Enrich() with no text should not succeed")
	}
	if result.Error != nil {
		t.Errorf("empty text should degrade without an error, got %v", result.Error)
	}
	if upserter.got != nil {
		t.Error("nothing should be upserted for empty text")
	}
}
