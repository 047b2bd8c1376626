// Package database provides SQLite connectivity for the holobridge journal.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Private in-memory databases (Path ":memory:") for tests and ephemeral runs
//   - Versioned schema migrations read from any fs.FS
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.FromConfig(cfg.Database))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.Source()); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql.
package database
