// Package sqlstore implements the primary backend on SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/database"
	"github.com/zero-day-ai/memrouter/internal/governance"
)

// Store is a backend.Backend over the memory_records table.
type Store struct {
	db     *database.DB
	logger *slog.Logger
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps an already migrated database.
func New(db *database.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens the database described by cfg, applies migrations and returns a
// store over it. The caller owns the store and must Close it.
func Open(ctx context.Context, cfg database.Config, opts ...Option) (*Store, error) {
	db, err := database.OpenWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return New(db, opts...), nil
}

// DB returns the underlying database.
func (s *Store) DB() *database.DB {
	return s.db
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Probe implements backend.Prober.
func (s *Store) Probe(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return backend.NewProbeError("sqlite health check failed", err)
	}
	return nil
}

// Insert implements backend.Backend. The whole record, enrichment fields
// included, is stored as JSON.
func (s *Store) Insert(ctx context.Context, resource string, record map[string]any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return backend.NewInsertError("failed to encode record", err)
	}

	id := s.newID()
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO memory_records (id, resource, tier, checksum, payload, ingested_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id,
			resource,
			stringField(record, governance.FieldTier),
			stringField(record, governance.FieldChecksum),
			string(payload),
			stringField(record, governance.FieldIngestedAt),
		)
		return err
	})
	if err != nil {
		return backend.NewInsertError(fmt.Sprintf("failed to insert into %s", resource), err)
	}

	s.logger.DebugContext(ctx, "record inserted",
		"backend", backend.Primary.String(),
		"resource", resource,
		"id", id,
	)
	return nil
}

// Query implements backend.Backend. Filter keys are matched against top-level
// JSON fields of the stored payload.
func (s *Store) Query(ctx context.Context, resource string, filter map[string]any) ([]map[string]any, error) {
	if err := backend.ValidateFilter(filter); err != nil {
		return nil, err
	}

	query, args := buildQuery(resource, filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, backend.NewQueryError(fmt.Sprintf("failed to query %s", resource), err)
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, backend.NewQueryError("failed to scan record", err)
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, backend.NewQueryError("failed to decode record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, backend.NewQueryError("error iterating records", err)
	}
	return out, nil
}

// buildQuery renders the SELECT for resource and filter. Filter keys are
// already validated as identifiers; they are still passed as bound JSON paths.
func buildQuery(resource string, filter map[string]any) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT payload FROM memory_records WHERE resource = ?")
	args := []any{resource}

	for _, k := range slices.Sorted(maps.Keys(filter)) {
		b.WriteString(" AND json_extract(payload, ?) = ?")
		args = append(args, fmt.Sprintf(`$."%s"`, k), filter[k])
	}
	b.WriteString(" ORDER BY ingested_at, rowid")
	return b.String(), args
}

func stringField(record map[string]any, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

var _ backend.Backend = (*Store)(nil)
