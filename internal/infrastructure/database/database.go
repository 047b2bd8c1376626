package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/nerrad567/holobridge/internal/infrastructure/config"
)

// MemoryPath opens a private in-memory database. Used by tests and by
// `serve` when no journal file is configured.
const MemoryPath = ":memory:"

// Database configuration constants.
const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// connMaxIdleTime is how long idle connections are kept open.
	connMaxIdleTime = 30 * time.Minute
)

// DB wraps a sql.DB connection to the journal database.
type DB struct {
	*sql.DB
	path string
}

// Config contains database configuration options.
type Config struct {
	// Path is the filesystem path to the SQLite database file, or MemoryPath.
	// The directory will be created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging. Ignored for in-memory databases.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int
}

// FromConfig maps the database section of config.yaml.
func FromConfig(cfg config.DatabaseConfig) Config {
	return Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	}
}

// InMemory reports whether the config points at a private in-memory database.
func (c Config) InMemory() bool {
	return c.Path == MemoryPath || c.Path == ""
}

// dsn builds the go-sqlite3 connection string.
// See: https://github.com/mattn/go-sqlite3#connection-string
func (c Config) dsn() string {
	path := c.Path
	if c.InMemory() {
		path = MemoryPath
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", path, c.BusyTimeout*msPerSecond)
	if c.WALMode && !c.InMemory() {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return dsn
}

// Open creates a new database connection with the specified configuration.
//
// It performs the following setup:
//  1. Creates the database directory if it doesn't exist (file databases only)
//  2. Opens the database (creates the file if not present)
//  3. Configures WAL mode and busy timeout
//  4. Verifies the connection with a ping
//  5. Restricts file permissions to 0600
//
// The pool is pinned to a single connection: SQLite has one writer, and an
// in-memory database lives only as long as its connection.
//
// Parameters:
//   - cfg: Database configuration
//
// Returns:
//   - *DB: Connected database wrapper
//   - error: If connection or configuration fails
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory() {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if cfg.InMemory() {
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	}

	path := cfg.Path
	if cfg.InMemory() {
		path = MemoryPath
	}
	db := &DB{DB: sqlDB, path: path}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	if !cfg.InMemory() {
		_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // first run creates the file on first write
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the database file path, or MemoryPath.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck verifies the database answers a trivial query.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// ExecContext executes a statement that doesn't return rows, wrapping
// driver errors with a consistent prefix.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return result, nil
}

// BeginTx starts a new transaction with the given options.
//
// Example:
//
//	tx, err := db.BeginTx(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback() // No-op if committed
//
//	// ... execute queries on tx ...
//
//	return tx.Commit()
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}
