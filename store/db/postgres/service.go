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

// UpsertService inserts a service, deduplicating on the phone/email identity.
func (d *DB) UpsertService(ctx context.Context, upsert *store.Service) (*store.Service, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	stmt := `
		INSERT INTO service (name, service_type, business_name, phone, email, created_ts, updated_ts)
		VALUES (` + placeholders(7) + `)
		ON CONFLICT (phone, email)
		DO UPDATE SET
			name = EXCLUDED.name,
			service_type = EXCLUDED.service_type,
			business_name = EXCLUDED.business_name,
			updated_ts = EXCLUDED.updated_ts
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

// ListServices lists service rows matching the find condition.
func (d *DB) ListServices(ctx context.Context, find *store.FindService) ([]*store.Service, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if len(find.IDs) > 0 {
		where, args = append(where, "id = ANY("+placeholder(len(args)+1)+")"), append(args, pq.Array(find.IDs))
	}
	if find.Phone != nil {
		where, args = append(where, "phone = "+placeholder(len(args)+1)), append(args, *find.Phone)
	}
	if find.Email != nil {
		where, args = append(where, "email = "+placeholder(len(args)+1)), append(args, *find.Email)
	}

	query := `
		SELECT id, name, service_type, business_name, phone, email, created_ts, updated_ts
		FROM service
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit > 0 {
		query += " LIMIT " + placeholder(len(args)+1)
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
		if err := rows.Scan(
			&service.ID,
			&service.Name,
			&service.ServiceType,
			&service.BusinessName,
			&service.Phone,
			&service.Email,
			&service.CreatedTs,
			&service.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan service")
		}
		list = append(list, &service)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeleteService deletes a service row.
func (d *DB) DeleteService(ctx context.Context, delete *store.DeleteService) error {
	stmt := `DELETE FROM service WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete service")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
