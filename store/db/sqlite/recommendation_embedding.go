package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/store"
)

// ============================================================================
// SQLITE VECTOR SEARCH
// ============================================================================
// Vectors are stored as BLOBs of little-endian float32 values. Similarity
// search loads a bounded candidate set and computes cosine similarity in the
// application layer. There is no ANN index; candidates are pulled newest
// first, which bounds memory and favors fresh content.
// ============================================================================

// float32ArrayToBLOB converts a []float32 to its BLOB storage form.
func float32ArrayToBLOB(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, errors.New("empty embedding vector")
	}

	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf, nil
}

// blobToFloat32Array converts a stored BLOB back to a float32 array.
// This is the inverse of float32ArrayToBLOB.
func blobToFloat32Array(blob []byte) ([]float32, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding BLOB length: %d", len(blob))
	}

	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

// UpsertRecommendationEmbedding inserts or updates a recommendation embedding.
func (d *DB) UpsertRecommendationEmbedding(ctx context.Context, embedding *store.RecommendationEmbedding) (*store.RecommendationEmbedding, error) {
	vectorBLOB, err := float32ArrayToBLOB(embedding.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert embedding vector to BLOB")
	}

	now := time.Now().Unix()
	if embedding.CreatedTs == 0 {
		embedding.CreatedTs = now
	}
	embedding.UpdatedTs = now

	stmt := `INSERT INTO recommendation_embedding (recommendation_id, embedding, model, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (recommendation_id, model) DO UPDATE SET
			embedding = excluded.embedding,
			updated_ts = excluded.updated_ts
		RETURNING id, created_ts, updated_ts`

	err = d.db.QueryRowContext(ctx, stmt,
		embedding.RecommendationID,
		vectorBLOB,
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
		where, args = append(where, "recommendation_id = ?"), append(args, *find.RecommendationID)
	}
	if find.Model != nil {
		where, args = append(where, "model = ?"), append(args, *find.Model)
	}

	query := `SELECT id, recommendation_id, embedding, model, created_ts, updated_ts
		FROM recommendation_embedding
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recommendation embeddings")
	}
	defer rows.Close()

	list := []*store.RecommendationEmbedding{}
	for rows.Next() {
		var embedding store.RecommendationEmbedding
		var vectorBLOB []byte

		err := rows.Scan(
			&embedding.ID,
			&embedding.RecommendationID,
			&vectorBLOB,
			&embedding.Model,
			&embedding.CreatedTs,
			&embedding.UpdatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan recommendation embedding")
		}

		embedding.Embedding, err = blobToFloat32Array(vectorBLOB)
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert embedding BLOB to array")
		}

		list = append(list, &embedding)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeleteRecommendationEmbedding deletes a recommendation embedding.
func (d *DB) DeleteRecommendationEmbedding(ctx context.Context, recommendationID int32) error {
	stmt := `DELETE FROM recommendation_embedding WHERE recommendation_id = ?`
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
		LEFT JOIN recommendation_embedding e ON r.id = e.recommendation_id AND e.model = ?
		WHERE e.id IS NULL
			AND LENGTH(r.description) > 0
		ORDER BY r.created_ts DESC
		LIMIT ?`

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

// SearchRecommendationsByVector performs vector similarity search using
// application-layer cosine similarity.
func (d *DB) SearchRecommendationsByVector(ctx context.Context, opts *store.RecommendationVectorSearchOptions) ([]*store.RecommendationWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	where, args := []string{"e.model = ?"}, []any{opts.Model}

	if opts.ContentType != nil {
		where, args = append(where, "r.content_type = ?"), append(args, *opts.ContentType)
	}
	if len(opts.Visibilities) > 0 {
		holders := make([]string, 0, len(opts.Visibilities))
		for _, v := range opts.Visibilities {
			holders = append(holders, "?")
			args = append(args, string(v))
		}
		where = append(where, "r.visibility IN ("+strings.Join(holders, ", ")+")")
	}
	if opts.CreatedAfter > 0 {
		where, args = append(where, "r.created_ts >= ?"), append(args, opts.CreatedAfter)
	}

	// Limit candidates for memory-efficient similarity computation.
	candidateLimit := limit * 5
	if candidateLimit > 500 {
		candidateLimit = 500
	}
	args = append(args, candidateLimit)

	query := `
		SELECT
			r.id, r.uid, r.creator_id, r.created_ts, r.updated_ts, r.content_type, r.place_id, r.service_id, r.description, r.content, r.rating, r.visibility,
			e.embedding
		FROM recommendation r
		INNER JOIN recommendation_embedding e ON r.id = e.recommendation_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY r.created_ts DESC
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search recommendations by vector")
	}
	defer rows.Close()

	type candidate struct {
		rec       *store.Recommendation
		embedding []float32
	}
	candidates := []candidate{}

	for rows.Next() {
		var rec store.Recommendation
		var placeID, serviceID, rating sql.NullInt32
		var contentData []byte
		var vectorBLOB []byte

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
			&vectorBLOB,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan recommendation search candidate")
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

		embedding, err := blobToFloat32Array(vectorBLOB)
		if err != nil {
			slog.Warn("failed to convert embedding BLOB to array", "recommendation_id", rec.ID, "error", err)
			continue
		}

		candidates = append(candidates, candidate{
			rec:       &rec,
			embedding: embedding,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Compute cosine similarity and rank.
	results := []*store.RecommendationWithScore{}
	for _, cand := range candidates {
		similarity := cosineSimilarity(opts.Vector, cand.embedding)
		results = append(results, &store.RecommendationWithScore{
			Recommendation: cand.rec,
			Score:          clampScore(similarity),
		})
	}

	// Sort by similarity descending; equally similar rows surface the
	// most recent first.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Recommendation.CreatedTs > results[j].Recommendation.CreatedTs
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float32
	var normA float32
	var normB float32

	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// clampScore bounds a similarity score to [0, 1]. Float rounding can push
// cosine similarity of near-identical vectors slightly above 1.
func clampScore(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
