package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/voxel.carve/internal/db"
)

// setupTestDB opens a migrated database in a temporary directory.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d.DB
}
