package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
	"github.com/banshee-data/voxel.carve/internal/timeutil"
	"github.com/banshee-data/voxel.carve/internal/voxelgrid"
)

func coloredGrid(t *testing.T) *voxelgrid.VoxelGrid {
	t.Helper()
	g, err := voxelgrid.New(0.25, r3.Vec{X: -1, Y: 2, Z: 0.5})
	require.NoError(t, err)
	for i, idx := range []geometry.GridIndex{{0, 0, 0}, {3, -2, 7}, {-5, 1, 1}, {1, 1, 1}} {
		_, err := g.AddVoxel(voxelgrid.Voxel{
			GridIndex: idx,
			Color:     geometry.Color{R: float64(i) / 4, G: 0.5, B: 1 - float64(i)/8},
		})
		require.NoError(t, err)
	}
	return g
}

func TestGridStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewGridStore(setupTestDB(t))
	ctx := context.Background()
	g := coloredGrid(t)

	rec, err := store.Save(ctx, "bunny", g)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.GridID)
	assert.Equal(t, 4, rec.VoxelCount)
	assert.Positive(t, rec.BlobBytes)

	loaded, got, err := store.Load(ctx, rec.GridID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, g.VoxelSize(), loaded.VoxelSize())
	assert.Equal(t, g.Origin(), loaded.Origin())
	if diff := cmp.Diff(g.Voxels(), loaded.Voxels()); diff != "" {
		t.Errorf("voxels mismatch (-want +got):\n%s", diff)
	}
}

func TestGridStore_EmptyGrid(t *testing.T) {
	store := NewGridStore(setupTestDB(t))
	ctx := context.Background()
	g, err := voxelgrid.New(1, r3.Vec{})
	require.NoError(t, err)

	rec, err := store.Save(ctx, "", g)
	require.NoError(t, err)

	loaded, _, err := store.Load(ctx, rec.GridID)
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
	assert.Equal(t, 1.0, loaded.VoxelSize())
}

func TestGridStore_SaveRejectsUnsizedGrid(t *testing.T) {
	store := NewGridStore(setupTestDB(t))
	ctx := context.Background()

	cleared, err := voxelgrid.CreateDense(1, 1, 1, 1, r3.Vec{})
	require.NoError(t, err)
	cleared.Clear()

	for name, g := range map[string]*voxelgrid.VoxelGrid{
		"cleared":    cleared,
		"zero value": {},
	} {
		_, err := store.Save(ctx, name, g)
		assert.ErrorIs(t, err, geometry.ErrInvalidParameter, name)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGridStore_SaveIsSnapshot(t *testing.T) {
	store := NewGridStore(setupTestDB(t))
	ctx := context.Background()
	g := coloredGrid(t)

	rec, err := store.Save(ctx, "snap", g)
	require.NoError(t, err)
	g.Clear()

	loaded, _, err := store.Load(ctx, rec.GridID)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Len())
}

func TestGridStore_SaveNil(t *testing.T) {
	store := NewGridStore(setupTestDB(t))
	_, err := store.Save(context.Background(), "nil", nil)
	assert.ErrorIs(t, err, geometry.ErrInvalidParameter)
}

func TestGridStore_LoadMissing(t *testing.T) {
	store := NewGridStore(setupTestDB(t))
	_, _, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGridStore_ListAndDelete(t *testing.T) {
	store := NewGridStore(setupTestDB(t))
	clock := timeutil.NewManualClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	store.SetClock(clock)
	ctx := context.Background()

	a, err := store.Save(ctx, "a", coloredGrid(t))
	require.NoError(t, err)
	clock.Advance(time.Second)
	b, err := store.Save(ctx, "b", coloredGrid(t))
	require.NoError(t, err)
	assert.Equal(t, int64(time.Second), b.CreatedNanos-a.CreatedNanos)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []*GridRecord{b, a}, list)

	require.NoError(t, store.Delete(ctx, a.GridID))
	assert.ErrorIs(t, store.Delete(ctx, a.GridID), sql.ErrNoRows)

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.GridID, list[0].GridID)
}

func TestDecodeVoxels_Corrupt(t *testing.T) {
	_, err := decodeVoxels([]byte("not zstd"), 1, [3]float64{})
	assert.Error(t, err)

	g := coloredGrid(t)
	blob, err := encodeVoxels(g)
	require.NoError(t, err)
	_, err = decodeVoxels(blob, 0, [3]float64{})
	assert.ErrorIs(t, err, geometry.ErrInvalidParameter)
}
