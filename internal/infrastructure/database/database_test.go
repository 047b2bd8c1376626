package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/holobridge/internal/infrastructure/config"
)

// TestOpen verifies database connection establishment.
func TestOpen(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "journal.db")

		db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("Path() = %v, want %v", db.Path(), dbPath)
		}
	})

	t.Run("creates directory if not exists", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "journal.db")

		db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
			t.Error("database directory was not created")
		}
	})

	t.Run("in memory", func(t *testing.T) {
		db, err := Open(Config{Path: MemoryPath, WALMode: true})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if db.Path() != MemoryPath {
			t.Errorf("Path() = %v, want %v", db.Path(), MemoryPath)
		}
		if _, err := os.Stat(MemoryPath); err == nil {
			t.Error("in-memory database created a file named :memory:")
		}
	})

	t.Run("empty path is in memory", func(t *testing.T) {
		db, err := Open(Config{})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if db.Path() != MemoryPath {
			t.Errorf("Path() = %v, want %v", db.Path(), MemoryPath)
		}
	})
}

func TestFromConfig(t *testing.T) {
	got := FromConfig(config.DatabaseConfig{Enabled: true, Path: "/var/lib/holobridge/journal.db", WALMode: true, BusyTimeout: 3})
	want := Config{Path: "/var/lib/holobridge/journal.db", WALMode: true, BusyTimeout: 3}
	if got != want {
		t.Errorf("FromConfig() = %+v, want %+v", got, want)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"file with wal", Config{Path: "/tmp/j.db", WALMode: true, BusyTimeout: 5}, "file:/tmp/j.db?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL"},
		{"file without wal", Config{Path: "/tmp/j.db", BusyTimeout: 1}, "file:/tmp/j.db?_busy_timeout=1000&_foreign_keys=on"},
		{"memory ignores wal", Config{Path: MemoryPath, WALMode: true}, "file::memory:?_busy_timeout=0&_foreign_keys=on"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.dsn(); got != tt.want {
				t.Errorf("dsn() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestHealthCheck verifies the health check functionality.
func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// TestClose verifies graceful shutdown.
func TestClose(t *testing.T) {
	db, err := Open(Config{Path: MemoryPath})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}

	var nilDB *DB
	if err := nilDB.Close(); err != nil {
		t.Errorf("Close() on nil receiver error = %v", err)
	}
}

// TestExecContext verifies statement execution and error wrapping.
func TestExecContext(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE test_table (id INTEGER PRIMARY KEY, name TEXT NOT NULL)"); err != nil {
		t.Fatalf("ExecContext() CREATE error = %v", err)
	}

	result, err := db.ExecContext(ctx, "INSERT INTO test_table (name) VALUES (?)", "test")
	if err != nil {
		t.Fatalf("ExecContext() INSERT error = %v", err)
	}
	if id, _ := result.LastInsertId(); id != 1 {
		t.Errorf("LastInsertId() = %v, want 1", id)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO missing_table VALUES (1)"); err == nil {
		t.Error("ExecContext() on missing table should fail")
	}
}

// TestBeginTx verifies commit and rollback.
func TestBeginTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE tx_test (id INTEGER PRIMARY KEY, value TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}

	tests := []struct {
		value  string
		commit bool
		want   int
	}{
		{"committed", true, 1},
		{"rolled_back", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("BeginTx() error = %v", err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO tx_test (value) VALUES (?)", tt.value); err != nil {
				t.Fatalf("INSERT error = %v", err)
			}
			if tt.commit {
				err = tx.Commit()
			} else {
				err = tx.Rollback()
			}
			if err != nil {
				t.Fatalf("finishing tx: %v", err)
			}

			var count int
			if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tx_test WHERE value = ?", tt.value).Scan(&count); err != nil {
				t.Fatalf("SELECT error = %v", err)
			}
			if count != tt.want {
				t.Errorf("rows = %d, want %d", count, tt.want)
			}
		})
	}
}

// TestStats verifies the pool is pinned to one connection.
func TestStats(t *testing.T) {
	db := openTestDB(t)

	if stats := db.Stats(); stats.MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %v, want 1", stats.MaxOpenConnections)
	}
}

// openTestDB creates a file-backed database in a temp dir.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	return db
}
