package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/store"
)

// marshalContent serializes the typed content payload for storage.
func marshalContent(content *store.RecommendationContent) ([]byte, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal recommendation content")
	}
	return data, nil
}

// unmarshalContent deserializes a stored content payload. Decoding is
// strict: unknown keys mean the row was written by an incompatible
// schema and must surface instead of silently dropping fields.
func unmarshalContent(data []byte, content *store.RecommendationContent) error {
	if len(data) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(content); err != nil {
		return errors.Wrap(err, "failed to unmarshal recommendation content")
	}
	return nil
}

// CreateRecommendation creates a recommendation row.
func (d *DB) CreateRecommendation(ctx context.Context, create *store.Recommendation) (*store.Recommendation, error) {
	contentData, err := marshalContent(&create.Content)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	if create.CreatedTs == 0 {
		create.CreatedTs = now
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = now
	}

	stmt := `
		INSERT INTO recommendation (uid, creator_id, created_ts, updated_ts, content_type, place_id, service_id, description, content, rating, visibility)
		VALUES (` + placeholders(11) + `)
		RETURNING id
	`

	err = d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		create.CreatedTs,
		create.UpdatedTs,
		create.ContentType,
		create.PlaceID,
		create.ServiceID,
		create.Description,
		contentData,
		create.Rating,
		create.Visibility,
	).Scan(&create.ID)

	if err != nil {
		return nil, errors.Wrap(err, "failed to create recommendation")
	}

	return create, nil
}

// ListRecommendations lists recommendation rows matching the find condition.
func (d *DB) ListRecommendations(ctx context.Context, find *store.FindRecommendation) ([]*store.Recommendation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}
	if find.ContentType != nil {
		where, args = append(where, "content_type = "+placeholder(len(args)+1)), append(args, *find.ContentType)
	}
	if find.Visibility != nil {
		where, args = append(where, "visibility = "+placeholder(len(args)+1)), append(args, *find.Visibility)
	}
	if find.PlaceID != nil {
		where, args = append(where, "place_id = "+placeholder(len(args)+1)), append(args, *find.PlaceID)
	}
	if find.ServiceID != nil {
		where, args = append(where, "service_id = "+placeholder(len(args)+1)), append(args, *find.ServiceID)
	}

	query := `
		SELECT id, uid, creator_id, created_ts, updated_ts, content_type, place_id, service_id, description, content, rating, visibility
		FROM recommendation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit > 0 {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, find.Limit)
		if find.Offset > 0 {
			query += " OFFSET " + placeholder(len(args)+1)
			args = append(args, find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recommendations")
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

// UpdateRecommendation applies a partial update and returns the updated row.
func (d *DB) UpdateRecommendation(ctx context.Context, update *store.UpdateRecommendation) (*store.Recommendation, error) {
	set, args := []string{}, []any{}

	if update.Description != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *update.Description)
	}
	if update.ContentType != nil {
		set, args = append(set, "content_type = "+placeholder(len(args)+1)), append(args, *update.ContentType)
	}
	if update.Content != nil {
		contentData, err := marshalContent(update.Content)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, contentData)
	}
	if update.Rating != nil {
		set, args = append(set, "rating = "+placeholder(len(args)+1)), append(args, *update.Rating)
	}
	if update.Visibility != nil {
		set, args = append(set, "visibility = "+placeholder(len(args)+1)), append(args, *update.Visibility)
	}
	if update.PlaceID != nil {
		set, args = append(set, "place_id = "+placeholder(len(args)+1)), append(args, *update.PlaceID)
	}
	if update.ServiceID != nil {
		set, args = append(set, "service_id = "+placeholder(len(args)+1)), append(args, *update.ServiceID)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}

	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `
		UPDATE recommendation
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, creator_id, created_ts, updated_ts, content_type, place_id, service_id, description, content, rating, visibility
	`

	rec, err := scanRecommendation(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to update recommendation")
	}
	return rec, nil
}

// DeleteRecommendation deletes recommendation rows matching the condition.
// The embedding rows follow through ON DELETE CASCADE.
func (d *DB) DeleteRecommendation(ctx context.Context, delete *store.DeleteRecommendation) error {
	where, args := []string{}, []any{}

	if delete.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *delete.ID)
	}
	if delete.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *delete.CreatorID)
	}
	if len(where) == 0 {
		return errors.New("delete condition required")
	}

	stmt := `DELETE FROM recommendation WHERE ` + strings.Join(where, " AND ")
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, "failed to delete recommendation")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecommendation(row rowScanner) (*store.Recommendation, error) {
	var rec store.Recommendation
	var placeID, serviceID, rating sql.NullInt32
	var contentData []byte

	if err := row.Scan(
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
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan recommendation")
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

	return &rec, nil
}
