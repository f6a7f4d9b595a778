package db

import (
	"io/fs"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestPragmasApplied verifies that essential PRAGMAs are set on all databases
func TestPragmasApplied(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("Failed to query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("Expected busy_timeout=5000, got %d", busyTimeout)
	}

	var foreignKeys int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("Failed to query foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", foreignKeys)
	}
}

func TestOpen_MigratesToLatest(t *testing.T) {
	db := openTestDB(t)

	latest, err := LatestMigrationVersion(Migrations())
	if err != nil {
		t.Fatalf("LatestMigrationVersion failed: %v", err)
	}
	if latest != 2 {
		t.Errorf("expected latest version 2, got %d", latest)
	}

	version, dirty, err := db.MigrateVersion(Migrations())
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != latest || dirty {
		t.Errorf("version=%d dirty=%v, want %d clean", version, dirty, latest)
	}

	for _, table := range []string{"voxel_grids", "carve_runs", "carve_view_results"} {
		var exists bool
		err := db.QueryRow(`
			SELECT COUNT(*) > 0
			FROM sqlite_master
			WHERE type='table' AND name=?
		`, table).Scan(&exists)
		if err != nil {
			t.Fatalf("failed to check %s: %v", table, err)
		}
		if !exists {
			t.Errorf("%s should exist after migration", table)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	db1, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	db1.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db2.Close()

	var journalMode string
	if err := db2.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal after reopening, got %s", journalMode)
	}
}

func TestMigrateDownAndUp(t *testing.T) {
	db, err := OpenRaw(filepath.Join(t.TempDir(), "steps.db"))
	if err != nil {
		t.Fatalf("OpenRaw failed: %v", err)
	}
	defer db.Close()

	version, _, err := db.MigrateVersion(Migrations())
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("fresh database should be at version 0, got %d", version)
	}

	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	// Idempotent
	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	if err := db.MigrateDown(Migrations()); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	version, dirty, err := db.MigrateVersion(Migrations())
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("after down: version=%d dirty=%v, want 1 clean", version, dirty)
	}

	var runsExist bool
	if err := db.QueryRow(`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name='carve_runs'`).Scan(&runsExist); err != nil {
		t.Fatalf("failed to check carve_runs: %v", err)
	}
	if runsExist {
		t.Error("carve_runs should not exist after rolling back")
	}
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), ".")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("expected 4 migration files, got %d", len(entries))
	}
}

func TestLatestMigrationVersion_Empty(t *testing.T) {
	if _, err := LatestMigrationVersion(fs.FS(emptyFS{})); err == nil {
		t.Error("expected error for empty migrations")
	}
}

type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) { return nil, fs.ErrNotExist }
