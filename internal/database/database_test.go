package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/zero-day-ai/memrouter/internal/types"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "memrouter.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func insertRecord(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO memory_records (id, resource, tier, checksum, payload, ingested_at)
		VALUES (?, 'agent_memory', 'personal', 'abc', '{"k":"v"}', '2026-01-01T00:00:00Z')`, id)
	return err
}

func countRecords(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM memory_records").Scan(&n); err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	return n
}

func TestOpenWithConfig(t *testing.T) {
	cfg := Config{
		Path:            filepath.Join(t.TempDir(), "memrouter.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		BusyTimeout:     3 * time.Second,
	}

	db, err := OpenWithConfig(cfg)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if db.Path() != cfg.Path {
		t.Errorf("expected path %s, got %s", cfg.Path, db.Path())
	}
	if db.Stats().OpenConnections < 1 {
		t.Error("expected at least one open connection after ping")
	}

	var journalMode string
	if err := db.Conn().QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("failed to query journal mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected WAL mode, got %s", journalMode)
	}
}

func TestOpen_MissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "memrouter.db"))
	if err == nil {
		t.Fatal("expected error opening database in a missing directory")
	}
	if code := types.CodeOf(err); code != types.DB_OPEN_FAILED {
		t.Errorf("expected %s, got %s", types.DB_OPEN_FAILED, code)
	}
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := db.Ping(ctx); err == nil {
		t.Error("expected error with cancelled context")
	}

	db.Close()
	err := db.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error on closed database")
	}
	if !types.IsRetryable(err) {
		t.Error("expected ping failure to be retryable")
	}
}

func TestWithTx(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		return insertRecord(ctx, tx, "rec-1")
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if n := countRecords(t, db); n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertRecord(ctx, tx, "rec-2"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n := countRecords(t, db); n != 0 {
		t.Errorf("expected rollback to leave 0 records, got %d", n)
	}
}

func TestSchema_RejectsInvalidJSON(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Conn().ExecContext(context.Background(), `
		INSERT INTO memory_records (id, resource, tier, checksum, payload, ingested_at)
		VALUES ('bad', 'agent_memory', 'personal', 'abc', '{not json', '2026-01-01T00:00:00Z')`)
	if err == nil {
		t.Fatal("expected CHECK constraint to reject invalid JSON")
	}
}

func TestCheckpoint(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.WithTx(ctx, func(tx *sql.Tx) error { return insertRecord(ctx, tx, "rec-3") }); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := db.Checkpoint(ctx); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}
	if n := countRecords(t, db); n != 1 {
		t.Errorf("expected record to survive checkpoint, got %d", n)
	}
}

func TestMigrator(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	m := NewMigrator(db)

	version, err := m.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("failed to get version: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("expected version %d, got %d", LatestVersion(), version)
	}

	if err := m.Migrate(ctx); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		t.Fatalf("failed to list migrations: %v", err)
	}
	if len(applied) != len(migrations) || applied[0].Name != "memory_records" {
		t.Errorf("unexpected applied migrations: %+v", applied)
	}

	if err := m.Rollback(ctx, 1); err != nil {
		t.Fatalf("partial rollback failed: %v", err)
	}
	if version, _ := m.CurrentVersion(ctx); version != 1 {
		t.Errorf("expected version 1 after partial rollback, got %d", version)
	}

	if err := m.Rollback(ctx, 0); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	var name string
	err = db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='memory_records'").Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected memory_records to be dropped, got %v", err)
	}

	if err := m.Rollback(ctx, 5); types.CodeOf(err) != types.DB_MIGRATION_FAILED {
		t.Errorf("expected %s rolling back to a future version, got %v", types.DB_MIGRATION_FAILED, err)
	}

	if err := m.Migrate(ctx); err != nil {
		t.Fatalf("re-migrate failed: %v", err)
	}
	if n := countRecords(t, db); n != 0 {
		t.Errorf("expected empty table after re-migrate, got %d", n)
	}
}
