package store

import (
	"context"

	"github.com/pkg/errors"
)

// RecommendationEmbedding represents the vector embedding of a recommendation.
type RecommendationEmbedding struct {
	ID               int32
	RecommendationID int32
	Model            string
	Embedding        []float32
	CreatedTs        int64
	UpdatedTs        int64
}

// FindRecommendationEmbedding is the find condition for recommendation embeddings.
type FindRecommendationEmbedding struct {
	RecommendationID *int32
	Model            *string
}

// FindRecommendationsWithoutEmbedding is the find condition for
// recommendations missing an embedding for the given model.
type FindRecommendationsWithoutEmbedding struct {
	Model string
	Limit int
}

// RecommendationWithScore represents a vector search result with similarity score.
type RecommendationWithScore struct {
	Recommendation *Recommendation
	Score          float32 // Similarity score (0-1, higher is more similar)
}

// RecommendationVectorSearchOptions represents the options for
// recommendation vector search. Limit bounds the candidate set pulled
// from the index, not the final result count; downstream filtering and
// aggregation shrink it further.
type RecommendationVectorSearchOptions struct {
	Vector       []float32
	Model        string
	Limit        int
	ContentType  *ContentType
	Visibilities []Visibility
	CreatedAfter int64
}

// Validate validates the RecommendationVectorSearchOptions.
func (o *RecommendationVectorSearchOptions) Validate() error {
	if len(o.Vector) == 0 {
		return errors.Errorf("vector cannot be empty")
	}
	if o.Model == "" {
		return errors.New("embedding model cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 10 // Default limit
	}
	if o.Limit > 1000 {
		return errors.Errorf("limit too large (max 1000): %d", o.Limit)
	}
	if o.ContentType != nil && !o.ContentType.Valid() {
		return errors.Errorf("invalid content type: %q", *o.ContentType)
	}
	for _, v := range o.Visibilities {
		if !v.Valid() {
			return errors.Errorf("invalid visibility: %q", v)
		}
	}
	return nil
}

// UpsertRecommendationEmbedding inserts or updates a recommendation embedding.
// Upserts are idempotent and last-write-wins: the vector is fully
// replaced, never partially updated.
func (s *Store) UpsertRecommendationEmbedding(ctx context.Context, embedding *RecommendationEmbedding) (*RecommendationEmbedding, error) {
	if len(embedding.Embedding) == 0 {
		return nil, errors.New("embedding vector cannot be empty")
	}
	if embedding.Model == "" {
		return nil, errors.New("embedding model cannot be empty")
	}
	return s.driver.UpsertRecommendationEmbedding(ctx, embedding)
}

// GetRecommendationEmbedding gets the embedding of a specific recommendation.
func (s *Store) GetRecommendationEmbedding(ctx context.Context, recommendationID int32, model string) (*RecommendationEmbedding, error) {
	list, err := s.driver.ListRecommendationEmbeddings(ctx, &FindRecommendationEmbedding{
		RecommendationID: &recommendationID,
		Model:            &model,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListRecommendationEmbeddings lists recommendation embeddings.
func (s *Store) ListRecommendationEmbeddings(ctx context.Context, find *FindRecommendationEmbedding) ([]*RecommendationEmbedding, error) {
	return s.driver.ListRecommendationEmbeddings(ctx, find)
}

// DeleteRecommendationEmbedding deletes a recommendation embedding.
func (s *Store) DeleteRecommendationEmbedding(ctx context.Context, recommendationID int32) error {
	return s.driver.DeleteRecommendationEmbedding(ctx, recommendationID)
}

// FindRecommendationsWithoutEmbedding finds recommendations that don't
// have embeddings for the specified model. Feeds the backfill loop.
func (s *Store) FindRecommendationsWithoutEmbedding(ctx context.Context, find *FindRecommendationsWithoutEmbedding) ([]*Recommendation, error) {
	return s.driver.FindRecommendationsWithoutEmbedding(ctx, find)
}

// SearchRecommendationsByVector performs vector similarity search over
// recommendations with a non-null embedding. Results are ordered by
// ascending cosine distance, ties broken by most recent creation.
func (s *Store) SearchRecommendationsByVector(ctx context.Context, opts *RecommendationVectorSearchOptions) ([]*RecommendationWithScore, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.SearchRecommendationsByVector(ctx, opts)
}
