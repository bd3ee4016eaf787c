package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/store"
)

// UpsertRecommendationEmbedding inserts or updates a recommendation embedding.
// The ON CONFLICT clause makes retries idempotent: the vector is fully
// replaced, last write wins.
func (d *DB) UpsertRecommendationEmbedding(ctx context.Context, embedding *store.RecommendationEmbedding) (*store.RecommendationEmbedding, error) {
	stmt := `
		INSERT INTO recommendation_embedding (recommendation_id, embedding, model, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (recommendation_id, model)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts
	`

	vector := pgvector.NewVector(embedding.Embedding)
	err := d.db.QueryRowContext(ctx, stmt,
		embedding.RecommendationID,
		vector,
		embedding.Model,
		embedding.CreatedTs,
		embedding.UpdatedTs,
	).Scan(&embedding.ID, &embedding.CreatedTs, &embedding.UpdatedTs)

	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert recommendation embedding")
	}

	return embedding, nil
}

// ListRecommendationEmbeddings lists recommendation embeddings.
func (d *DB) ListRecommendationEmbeddings(ctx context.Context, find *store.FindRecommendationEmbedding) ([]*store.RecommendationEmbedding, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.RecommendationID != nil {
		where, args = append(where, "recommendation_id = "+placeholder(len(args)+1)), append(args, *find.RecommendationID)
	}
	if find.Model != nil {
		where, args = append(where, "model = "+placeholder(len(args)+1)), append(args, *find.Model)
	}

	query := `
		SELECT id, recommendation_id, embedding, model, created_ts, updated_ts
		FROM recommendation_embedding
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recommendation embeddings")
	}
	defer rows.Close()

	list := []*store.RecommendationEmbedding{}
	for rows.Next() {
		var embedding store.RecommendationEmbedding
		var vector pgvector.Vector
		err := rows.Scan(
			&embedding.ID,
			&embedding.RecommendationID,
			&vector,
			&embedding.Model,
			&embedding.CreatedTs,
			&embedding.UpdatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan recommendation embedding")
		}

		embedding.Embedding = vector.Slice()
		list = append(list, &embedding)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeleteRecommendationEmbedding deletes a recommendation embedding.
func (d *DB) DeleteRecommendationEmbedding(ctx context.Context, recommendationID int32) error {
	stmt := `DELETE FROM recommendation_embedding WHERE recommendation_id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, recommendationID)
	if err != nil {
		return errors.Wrap(err, "failed to delete recommendation embedding")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindRecommendationsWithoutEmbedding finds recommendations that don't
// have embeddings for the specified model.
func (d *DB) FindRecommendationsWithoutEmbedding(ctx context.Context, find *store.FindRecommendationsWithoutEmbedding) ([]*store.Recommendation, error) {
	limit := find.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			r.id, r.uid, r.creator_id, r.created_ts, r.updated_ts, r.content_type, r.place_id, r.service_id, r.description, r.content, r.rating, r.visibility
		FROM recommendation r
		LEFT JOIN recommendation_embedding e ON r.id = e.recommendation_id AND e.model = ` + placeholder(1) + `
		WHERE e.id IS NULL
			AND LENGTH(r.description) > 0
		ORDER BY r.created_ts DESC
		LIMIT ` + placeholder(2)

	rows, err := d.db.QueryContext(ctx, query, find.Model, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find recommendations without embedding")
	}
	defer rows.Close()

	list := []*store.Recommendation{}
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// SearchRecommendationsByVector performs vector similarity search using pgvector.
func (d *DB) SearchRecommendationsByVector(ctx context.Context, opts *store.RecommendationVectorSearchOptions) ([]*store.RecommendationWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	where, args := []string{"1 = 1"}, []any{}

	if opts.ContentType != nil {
		where, args = append(where, "r.content_type = "+placeholder(len(args)+1)), append(args, *opts.ContentType)
	}
	if len(opts.Visibilities) > 0 {
		visibilities := make([]string, 0, len(opts.Visibilities))
		for _, v := range opts.Visibilities {
			visibilities = append(visibilities, string(v))
		}
		where, args = append(where, "r.visibility = ANY("+placeholder(len(args)+1)+")"), append(args, pq.Array(visibilities))
	}
	if opts.CreatedAfter > 0 {
		where, args = append(where, "r.created_ts >= "+placeholder(len(args)+1)), append(args, opts.CreatedAfter)
	}

	argIdx := len(args) + 1

	// The <=> operator computes cosine distance (1 - cosine_similarity),
	// so ordering by distance ascending yields most similar first.
	// Ties are broken by most recent creation.
	query := `
		SELECT
			r.id, r.uid, r.creator_id, r.created_ts, r.updated_ts, r.content_type, r.place_id, r.service_id, r.description, r.content, r.rating, r.visibility,
			1 - (e.embedding <=> ` + placeholder(argIdx) + `) AS score
		FROM recommendation r
		INNER JOIN recommendation_embedding e ON r.id = e.recommendation_id
		WHERE ` + strings.Join(where, " AND ") + `
			AND e.model = ` + placeholder(argIdx+1) + `
		ORDER BY e.embedding <=> ` + placeholder(argIdx+2) + `, r.created_ts DESC
		LIMIT ` + placeholder(argIdx+3)

	vector := pgvector.NewVector(opts.Vector)
	args = append(args, vector, opts.Model, vector, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search recommendations by vector")
	}
	defer rows.Close()

	results := []*store.RecommendationWithScore{}
	for rows.Next() {
		var rec store.Recommendation
		var placeID, serviceID, rating sql.NullInt32
		var contentData []byte
		var score float32

		err := rows.Scan(
			&rec.ID,
			&rec.UID,
			&rec.CreatorID,
			&rec.CreatedTs,
			&rec.UpdatedTs,
			&rec.ContentType,
			&placeID,
			&serviceID,
			&rec.Description,
			&contentData,
			&rating,
			&rec.Visibility,
			&score,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan recommendation search result")
		}

		if placeID.Valid {
			rec.PlaceID = &placeID.Int32
		}
		if serviceID.Valid {
			rec.ServiceID = &serviceID.Int32
		}
		if rating.Valid {
			rec.Rating = &rating.Int32
		}
		if err := unmarshalContent(contentData, &rec.Content); err != nil {
			return nil, err
		}

		results = append(results, &store.RecommendationWithScore{
			Recommendation: &rec,
			Score:          clampScore(score),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// clampScore bounds a similarity score to [0, 1]. Cosine distance can
// exceed 1 for unnormalized vectors, which would otherwise surface as
// a negative similarity.
func clampScore(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
