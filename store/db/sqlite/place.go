package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/store"
)

// UpsertPlace creates a place, or updates it in-place when the external
// identifier is already known. Places without an external identifier are
// always inserted as new rows.
func (d *DB) UpsertPlace(ctx context.Context, upsert *store.Place) (*store.Place, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	fields := `external_id, name, address, latitude, longitude, category, created_ts, updated_ts`
	returning := `RETURNING id, created_ts, updated_ts`

	var stmt string
	if upsert.ExternalID != "" {
		stmt = `
			INSERT INTO place (` + fields + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (external_id) WHERE external_id <> ''
			DO UPDATE SET
				name = excluded.name,
				address = excluded.address,
				latitude = excluded.latitude,
				longitude = excluded.longitude,
				category = excluded.category,
				updated_ts = excluded.updated_ts
			` + returning
	} else {
		stmt = `
			INSERT INTO place (` + fields + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			` + returning
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

// ListPlaces lists places matching the find conditions.
func (d *DB) ListPlaces(ctx context.Context, find *store.FindPlace) ([]*store.Place, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if len(find.IDs) > 0 {
		holders := make([]string, 0, len(find.IDs))
		for _, id := range find.IDs {
			holders = append(holders, "?")
			args = append(args, id)
		}
		where = append(where, "id IN ("+strings.Join(holders, ", ")+")")
	}
	if find.ExternalID != nil {
		where, args = append(where, "external_id = ?"), append(args, *find.ExternalID)
	}

	query := `
		SELECT id, external_id, name, address, latitude, longitude, category, created_ts, updated_ts
		FROM place
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit > 0 {
		query += " LIMIT ?"
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
		err := rows.Scan(
			&place.ID,
			&place.ExternalID,
			&place.Name,
			&place.Address,
			&latitude,
			&longitude,
			&place.Category,
			&place.CreatedTs,
			&place.UpdatedTs,
		)
		if err != nil {
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

// DeletePlace deletes a place. Foreign keys are disabled for SQLite, so
// recommendations may keep a dangling place_id; read paths treat a missing
// place as a skippable reference rather than an error.
func (d *DB) DeletePlace(ctx context.Context, delete *store.DeletePlace) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM place WHERE id = ?`, delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete place")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
