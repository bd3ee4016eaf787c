package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/store"
)

// UpsertService creates a service provider, or updates it in-place when the
// same phone and email pair is already known.
func (d *DB) UpsertService(ctx context.Context, upsert *store.Service) (*store.Service, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	stmt := `
		INSERT INTO service (name, service_type, business_name, phone, email, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (phone, email)
		DO UPDATE SET
			name = excluded.name,
			service_type = excluded.service_type,
			business_name = excluded.business_name,
			updated_ts = excluded.updated_ts
		RETURNING id, created_ts, updated_ts
	`

	err := d.db.QueryRowContext(ctx, stmt,
		upsert.Name,
		upsert.ServiceType,
		upsert.BusinessName,
		upsert.Phone,
		upsert.Email,
		upsert.CreatedTs,
		upsert.UpdatedTs,
	).Scan(&upsert.ID, &upsert.CreatedTs, &upsert.UpdatedTs)

	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert service")
	}

	return upsert, nil
}

// ListServices lists service providers matching the find conditions.
func (d *DB) ListServices(ctx context.Context, find *store.FindService) ([]*store.Service, error) {
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
	if find.Phone != nil {
		where, args = append(where, "phone = ?"), append(args, *find.Phone)
	}
	if find.Email != nil {
		where, args = append(where, "email = ?"), append(args, *find.Email)
	}

	query := `
		SELECT id, name, service_type, business_name, phone, email, created_ts, updated_ts
		FROM service
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list services")
	}
	defer rows.Close()

	list := []*store.Service{}
	for rows.Next() {
		var service store.Service
		err := rows.Scan(
			&service.ID,
			&service.Name,
			&service.ServiceType,
			&service.BusinessName,
			&service.Phone,
			&service.Email,
			&service.CreatedTs,
			&service.UpdatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan service")
		}
		list = append(list, &service)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeleteService deletes a service provider. Foreign keys are disabled for
// SQLite, so recommendations may keep a dangling service_id; read paths treat
// a missing service as a skippable reference rather than an error.
func (d *DB) DeleteService(ctx context.Context, delete *store.DeleteService) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM service WHERE id = ?`, delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete service")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
