// Package database owns the SQLite connection behind the primary backend:
// connection pooling, pragma verification, transactions and schema
// migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zero-day-ai/memrouter/internal/types"
)

// DB is a WAL-mode SQLite database.
type DB struct {
	conn *sql.DB
	path string
}

// Config holds database configuration options.
type Config struct {
	Path            string        `mapstructure:"path" yaml:"path" json:"path" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns" json:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns" json:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout" json:"busy_timeout"`
}

// DefaultConfig returns the pool settings used when the config file is silent.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
	}
}

// openTimeout bounds the initial ping and pragma checks.
const openTimeout = 5 * time.Second

// Open opens path with DefaultConfig settings.
func Open(path string) (*DB, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database and verifies that WAL journaling and
// foreign keys took effect. The schema is not touched; call Migrate.
func OpenWithConfig(cfg Config) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.DB_OPEN_FAILED, "failed to open database", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	db := &DB{conn: conn, path: cfg.Path}
	if err := db.verify(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) verify(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return types.WrapError(types.DB_OPEN_FAILED, fmt.Sprintf("failed to open %s", db.path), err)
	}

	pragmas := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
	}
	for _, p := range pragmas {
		var got string
		if err := db.conn.QueryRowContext(ctx, "PRAGMA "+p.name).Scan(&got); err != nil {
			return types.WrapError(types.DB_OPEN_FAILED, "failed to read pragma "+p.name, err)
		}
		if got != p.want {
			return types.NewError(types.DB_OPEN_FAILED,
				fmt.Sprintf("pragma %s is %q, want %q", p.name, got, p.want))
		}
	}
	return nil
}

func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn exposes the pool for callers that need raw access.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Path() string {
	return db.path
}

// Ping round-trips a trivial query. A failure is retryable: the file may be
// locked or briefly unavailable.
func (db *DB) Ping(ctx context.Context) error {
	var one int
	if err := db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return types.NewRetryableError(types.DB_CONNECTION_LOST, fmt.Sprintf("ping %s: %v", db.path, err))
	}
	return nil
}

// WithTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to commit transaction", err)
	}
	return nil
}

// Stats is a snapshot of connection pool usage.
type Stats struct {
	OpenConnections int   `json:"open_connections" yaml:"open_connections"`
	InUse           int   `json:"in_use" yaml:"in_use"`
	Idle            int   `json:"idle" yaml:"idle"`
	WaitCount       int64 `json:"wait_count" yaml:"wait_count"`
}

func (db *DB) Stats() Stats {
	s := db.conn.Stats()
	return Stats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
	}
}

// Checkpoint folds the WAL back into the main file and truncates it.
func (db *DB) Checkpoint(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "checkpoint failed", err)
	}
	return nil
}

// Migrate applies every pending schema migration.
func (db *DB) Migrate(ctx context.Context) error {
	return NewMigrator(db).Migrate(ctx)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}
