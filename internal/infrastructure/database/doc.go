// Package database provides the SQLite connection and schema migrations
// for the head unit's settings store.
//
// The database is a single file opened with WAL mode and a busy timeout,
// through one pooled connection. Migrations are plain SQL files named
// YYYYMMDD_HHMMSS_name.up.sql with an optional .down.sql twin, read from
// any fs.FS (normally the embedded migrations package).
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are nullable or carry a default.
package database
