package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/internal/version"
)

//go:embed migration
var migrationFS embed.FS

const latestSchemaFileName = "LATEST.sql"

// Migrate bootstraps the schema on an empty database and records the
// schema version. Incremental migration tooling is out of scope; an
// existing database is only checked for version compatibility.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}

	currentVersion := version.GetCurrentVersion(s.profile.Mode)
	if !initialized {
		if err := s.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if err := s.recordMigrationHistory(ctx, currentVersion); err != nil {
			return errors.Wrap(err, "failed to record migration history")
		}
		slog.Info("database schema initialized", "version", currentVersion, "driver", s.profile.Driver)
		return nil
	}

	histories, err := s.listMigrationHistory(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list migration history")
	}
	if len(histories) == 0 {
		return s.recordMigrationHistory(ctx, currentVersion)
	}

	sort.Sort(version.SortVersion(histories))
	latest := histories[len(histories)-1]
	if version.IsVersionGreaterThan(latest, currentVersion) {
		return errors.Errorf("database schema version %s is newer than binary version %s, please upgrade the binary", latest, currentVersion)
	}
	if version.IsVersionGreaterThan(currentVersion, latest) {
		if err := s.recordMigrationHistory(ctx, currentVersion); err != nil {
			return errors.Wrap(err, "failed to record migration history")
		}
	}
	return nil
}

func (s *Store) applyLatestSchema(ctx context.Context) error {
	filePath := fmt.Sprintf("migration/%s/%s", s.profile.Driver, latestSchemaFileName)
	buf, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file %q", filePath)
	}
	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrapf(err, "failed to execute latest schema for %s", s.profile.Driver)
	}
	return nil
}

func (s *Store) recordMigrationHistory(ctx context.Context, v string) error {
	stmt := "INSERT INTO migration_history (version) VALUES ($1) ON CONFLICT (version) DO NOTHING"
	if s.profile.Driver == "sqlite" {
		stmt = "INSERT OR IGNORE INTO migration_history (version) VALUES (?)"
	}
	_, err := s.driver.GetDB().ExecContext(ctx, stmt, v)
	return err
}

func (s *Store) listMigrationHistory(ctx context.Context) ([]string, error) {
	rows, err := s.driver.GetDB().QueryContext(ctx, "SELECT version FROM migration_history")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
