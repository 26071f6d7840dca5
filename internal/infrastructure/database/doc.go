// Package database provides SQLite connectivity for the case store.
//
// This package manages:
//   - Database connection with WAL mode and enforced foreign keys
//   - Schema migrations read from an fs.FS (see the migrations package)
//   - Transaction helpers and constraint-error classification
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql. Migrations are additive: new columns must be
// NULLABLE or carry a DEFAULT.
package database
