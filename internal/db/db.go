// Package db owns the SQLite handle and its schema migrations.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/voxel.carve/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the embedded migration files rooted at the directory
// that holds them.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return sub
}

// DB wraps the SQLite connection pool.
type DB struct {
	*sql.DB
}

// pragmas are applied to every connection opened by Open.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// OpenRaw opens path and applies PRAGMAs without touching the schema.
func OpenRaw(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps per-connection PRAGMAs such as foreign_keys in force.
	sqlDB.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return &DB{sqlDB}, nil
}

// Open opens path, applies PRAGMAs and migrates the schema to the latest
// embedded version.
func Open(path string) (*DB, error) {
	db, err := OpenRaw(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(Migrations()); err != nil {
		_ = db.Close()
		return nil, err
	}
	version, _, err := db.MigrateVersion(Migrations())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	monitoring.Debugf("db: opened %s at schema version %d", path, version)
	return db, nil
}
