package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
	"github.com/banshee-data/voxel.carve/internal/monitoring"
	"github.com/banshee-data/voxel.carve/internal/timeutil"
	"github.com/banshee-data/voxel.carve/internal/voxelgrid"
)

// GridRecord is the metadata row of a stored grid.
type GridRecord struct {
	GridID       string     `json:"grid_id"`
	Name         string     `json:"name"`
	VoxelSize    float64    `json:"voxel_size"`
	Origin       [3]float64 `json:"origin"`
	VoxelCount   int        `json:"voxel_count"`
	BlobBytes    int        `json:"blob_bytes"`
	CreatedNanos int64      `json:"created_unix_nanos"`
}

// GridStore persists voxel grids.
type GridStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewGridStore creates a new GridStore stamping rows with the wall clock.
func NewGridStore(db *sql.DB) *GridStore {
	return &GridStore{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for created_unix_nanos.
func (s *GridStore) SetClock(c timeutil.Clock) { s.clock = c }

func toVec(o [3]float64) r3.Vec { return r3.Vec{X: o[0], Y: o[1], Z: o[2]} }

// Save stores a snapshot of g under a new UUID and returns its record. The
// grid must be sized; a cleared or zero-value grid is rejected.
func (s *GridStore) Save(ctx context.Context, name string, g *voxelgrid.VoxelGrid) (*GridRecord, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: save grid: nil grid", geometry.ErrInvalidParameter)
	}
	// Load rebuilds through voxelgrid.New, so an unsized grid could never be read back.
	if !(g.VoxelSize() > 0) {
		return nil, fmt.Errorf("%w: save grid: voxel size must be positive, got %g",
			geometry.ErrInvalidParameter, g.VoxelSize())
	}
	blob, err := encodeVoxels(g)
	if err != nil {
		return nil, fmt.Errorf("save grid: %w", err)
	}

	o := g.Origin()
	rec := &GridRecord{
		GridID:       uuid.New().String(),
		Name:         name,
		VoxelSize:    g.VoxelSize(),
		Origin:       [3]float64{o.X, o.Y, o.Z},
		VoxelCount:   g.Len(),
		BlobBytes:    len(blob),
		CreatedNanos: s.clock.Now().UnixNano(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO voxel_grids (
			grid_id, name, voxel_size, origin_x, origin_y, origin_z,
			voxel_count, grid_blob, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.GridID, rec.Name, rec.VoxelSize,
		rec.Origin[0], rec.Origin[1], rec.Origin[2],
		rec.VoxelCount, blob, rec.CreatedNanos,
	)
	if err != nil {
		return nil, fmt.Errorf("insert voxel grid: %w", err)
	}
	monitoring.Debugf("storage: saved grid %s (%d voxels, %d bytes)", rec.GridID, rec.VoxelCount, rec.BlobBytes)
	return rec, nil
}

// Load returns the grid and its record. A missing ID wraps sql.ErrNoRows.
func (s *GridStore) Load(ctx context.Context, gridID string) (*voxelgrid.VoxelGrid, *GridRecord, error) {
	rec := &GridRecord{}
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT grid_id, name, voxel_size, origin_x, origin_y, origin_z,
		       voxel_count, grid_blob, created_unix_nanos
		FROM voxel_grids
		WHERE grid_id = ?
	`, gridID).Scan(
		&rec.GridID, &rec.Name, &rec.VoxelSize,
		&rec.Origin[0], &rec.Origin[1], &rec.Origin[2],
		&rec.VoxelCount, &blob, &rec.CreatedNanos,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load voxel grid %s: %w", gridID, err)
	}
	rec.BlobBytes = len(blob)

	g, err := decodeVoxels(blob, rec.VoxelSize, rec.Origin)
	if err != nil {
		return nil, nil, fmt.Errorf("load voxel grid %s: %w", gridID, err)
	}
	if g.Len() != rec.VoxelCount {
		return nil, nil, fmt.Errorf("load voxel grid %s: blob has %d voxels, row says %d", gridID, g.Len(), rec.VoxelCount)
	}
	return g, rec, nil
}

// List returns every grid record, newest first.
func (s *GridStore) List(ctx context.Context) ([]*GridRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT grid_id, name, voxel_size, origin_x, origin_y, origin_z,
		       voxel_count, length(grid_blob), created_unix_nanos
		FROM voxel_grids
		ORDER BY created_unix_nanos DESC, grid_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list voxel grids: %w", err)
	}
	defer rows.Close()

	var out []*GridRecord
	for rows.Next() {
		r := &GridRecord{}
		if err := rows.Scan(
			&r.GridID, &r.Name, &r.VoxelSize,
			&r.Origin[0], &r.Origin[1], &r.Origin[2],
			&r.VoxelCount, &r.BlobBytes, &r.CreatedNanos,
		); err != nil {
			return nil, fmt.Errorf("scan voxel grid: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a grid. Runs that used it as input are removed with it.
func (s *GridStore) Delete(ctx context.Context, gridID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM voxel_grids WHERE grid_id = ?", gridID)
	if err != nil {
		return fmt.Errorf("delete voxel grid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete voxel grid rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
