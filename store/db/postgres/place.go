package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/store"
)

// UpsertPlace inserts a place, deduplicating on the external id when present.
func (d *DB) UpsertPlace(ctx context.Context, upsert *store.Place) (*store.Place, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	var stmt string
	if upsert.ExternalID != "" {
		stmt = `
			INSERT INTO place (external_id, name, address, latitude, longitude, category, created_ts, updated_ts)
			VALUES (` + placeholders(8) + `)
			ON CONFLICT (external_id) WHERE external_id <> ''
			DO UPDATE SET
				name = EXCLUDED.name,
				address = EXCLUDED.address,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				category = EXCLUDED.category,
				updated_ts = EXCLUDED.updated_ts
			RETURNING id, created_ts, updated_ts
		`
	} else {
		stmt = `
			INSERT INTO place (external_id, name, address, latitude, longitude, category, created_ts, updated_ts)
			VALUES (` + placeholders(8) + `)
			RETURNING id, created_ts, updated_ts
		`
	}

	err := d.db.QueryRowContext(ctx, stmt,
		upsert.ExternalID,
		upsert.Name,
		upsert.Address,
		upsert.Latitude,
		upsert.Longitude,
		upsert.Category,
		upsert.CreatedTs,
		upsert.UpdatedTs,
	).Scan(&upsert.ID, &upsert.CreatedTs, &upsert.UpdatedTs)

	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert place")
	}

	return upsert, nil
}

// ListPlaces lists place rows matching the find condition.
func (d *DB) ListPlaces(ctx context.Context, find *store.FindPlace) ([]*store.Place, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if len(find.IDs) > 0 {
		where, args = append(where, "id = ANY("+placeholder(len(args)+1)+")"), append(args, pq.Array(find.IDs))
	}
	if find.ExternalID != nil {
		where, args = append(where, "external_id = "+placeholder(len(args)+1)), append(args, *find.ExternalID)
	}

	query := `
		SELECT id, external_id, name, address, latitude, longitude, category, created_ts, updated_ts
		FROM place
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit > 0 {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list places")
	}
	defer rows.Close()

	list := []*store.Place{}
	for rows.Next() {
		var place store.Place
		var latitude, longitude sql.NullFloat64
		if err := rows.Scan(
			&place.ID,
			&place.ExternalID,
			&place.Name,
			&place.Address,
			&latitude,
			&longitude,
			&place.Category,
			&place.CreatedTs,
			&place.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan place")
		}
		if latitude.Valid {
			place.Latitude = &latitude.Float64
		}
		if longitude.Valid {
			place.Longitude = &longitude.Float64
		}
		list = append(list, &place)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeletePlace deletes a place row.
func (d *DB) DeletePlace(ctx context.Context, delete *store.DeletePlace) error {
	stmt := `DELETE FROM place WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete place")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
