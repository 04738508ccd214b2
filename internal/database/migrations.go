package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zero-day-ai/memrouter/internal/types"
)

// migration is one schema step. Statements run in order inside a single
// transaction; down reverses up.
type migration struct {
	version int
	name    string
	up      []string
	down    []string
}

// migrations is ordered by version. Append only.
var migrations = []migration{
	{
		version: 1,
		name:    "memory_records",
		// payload holds the enriched record as JSON; checksum, tier and
		// ingested_at are copied out of it for indexing.
		up: []string{
			`CREATE TABLE IF NOT EXISTS memory_records (
				id          TEXT PRIMARY KEY,
				resource    TEXT NOT NULL,
				tier        TEXT NOT NULL,
				checksum    TEXT NOT NULL,
				payload     TEXT NOT NULL CHECK (json_valid(payload)),
				ingested_at TEXT NOT NULL,
				created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_memory_records_resource ON memory_records(resource, ingested_at)`,
		},
		down: []string{
			`DROP INDEX IF EXISTS idx_memory_records_resource`,
			`DROP TABLE IF EXISTS memory_records`,
		},
	},
	{
		version: 2,
		name:    "memory_records_checksum",
		up: []string{
			`CREATE INDEX IF NOT EXISTS idx_memory_records_checksum ON memory_records(resource, checksum)`,
		},
		down: []string{
			`DROP INDEX IF EXISTS idx_memory_records_checksum`,
		},
	},
}

// LatestVersion is the schema version a fully migrated database reports.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}

// MigrationInfo describes an applied migration.
type MigrationInfo struct {
	Version   int    `json:"version" yaml:"version"`
	Name      string `json:"name" yaml:"name"`
	AppliedAt string `json:"applied_at" yaml:"applied_at"`
}

// Migrator applies and reverts schema migrations, recording progress in the
// schema_migrations table.
type Migrator struct {
	db *DB
}

func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return types.WrapError(types.DB_MIGRATION_FAILED, "failed to create schema_migrations", err)
	}
	return nil
}

// Migrate applies all pending migrations. Running it on an up-to-date
// database is a no-op.
func (m *Migrator) Migrate(ctx context.Context) error {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	for _, mig := range migrations {
		if mig.version <= current {
			continue
		}
		err := m.db.WithTx(ctx, func(tx *sql.Tx) error {
			if err := execAll(ctx, tx, mig.up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mig.version, mig.name)
			return err
		})
		if err != nil {
			return types.WrapError(types.DB_MIGRATION_FAILED,
				fmt.Sprintf("migration %d (%s) failed", mig.version, mig.name), err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied version, 0 for a fresh database.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	var version int
	err := m.db.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, types.WrapError(types.DB_MIGRATION_FAILED, "failed to read schema version", err)
	}
	return version, nil
}

// Rollback reverts applied migrations newer than target, newest first.
func (m *Migrator) Rollback(ctx context.Context, target int) error {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if target < 0 || target > current {
		return types.NewError(types.DB_MIGRATION_FAILED,
			fmt.Sprintf("invalid rollback target %d (current %d)", target, current))
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		mig := migrations[i]
		if mig.version <= target {
			break
		}
		if mig.version > current {
			continue
		}
		err := m.db.WithTx(ctx, func(tx *sql.Tx) error {
			if err := execAll(ctx, tx, mig.down); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", mig.version)
			return err
		})
		if err != nil {
			return types.WrapError(types.DB_MIGRATION_FAILED,
				fmt.Sprintf("rollback of %d (%s) failed", mig.version, mig.name), err)
		}
	}
	return nil
}

// Applied lists applied migrations in version order.
func (m *Migrator) Applied(ctx context.Context) ([]MigrationInfo, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := m.db.conn.QueryContext(ctx,
		"SELECT version, name, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list migrations", err)
	}
	defer rows.Close()

	var out []MigrationInfo
	for rows.Next() {
		var info MigrationInfo
		if err := rows.Scan(&info.Version, &info.Name, &info.AppliedAt); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan migration", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list migrations", err)
	}
	return out, nil
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
