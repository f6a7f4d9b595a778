package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/camera"
	"github.com/banshee-data/voxel.carve/internal/carving"
	"github.com/banshee-data/voxel.carve/internal/db"
	"github.com/banshee-data/voxel.carve/internal/storage/sqlite"
	"github.com/banshee-data/voxel.carve/internal/testutil"
)

const testScene = `name: cube
volume:
  width: 10
  height: 10
  depth: 10
  voxel_size: 1
  origin: [0, 0, 0]
views:
  - name: front
    camera: front.json
    mask: front_mask.png
    depth: front_depth.png
`

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// writeScene lays out a 10m cube viewed from -Z. The mask covers the whole
// image and the depth map reads 33m everywhere.
func writeScene(t *testing.T) (dir, scenePath string) {
	t.Helper()
	dir = t.TempDir()

	cam := testutil.LookAtCamera(t, r3.Vec{X: 5, Y: 5, Z: -30}, r3.Vec{X: 5, Y: 5, Z: 5}, 200, 200, 200)
	require.NoError(t, camera.SaveParameters(filepath.Join(dir, "front.json"), cam))

	mask := image.NewGray(image.Rect(0, 0, 200, 200))
	depth := image.NewGray16(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
			depth.SetGray16(x, y, color.Gray16{Y: 33000})
		}
	}
	writePNG(t, filepath.Join(dir, "front_mask.png"), mask)
	writePNG(t, filepath.Join(dir, "front_depth.png"), depth)

	scenePath = filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(testScene), 0o644))
	return dir, scenePath
}

func TestRun_CarvesPersistsAndPlots(t *testing.T) {
	dir, scenePath := writeScene(t)
	dbPath := filepath.Join(dir, "carve.db")
	plots := filepath.Join(dir, "plots")

	sum, err := run(context.Background(), options{
		ScenePath: scenePath,
		DBPath:    &dbPath,
		PlotDir:   &plots,
	})
	require.NoError(t, err)

	assert.Equal(t, "cube", sum.Scene)
	assert.Equal(t, 1000, sum.Initial)
	assert.Equal(t, 300, sum.Final)
	require.Len(t, sum.Steps, 2)
	assert.Equal(t, carving.ModeSilhouette, sum.Steps[0].Mode)
	assert.Equal(t, 0, sum.Steps[0].Removed)
	assert.Equal(t, carving.ModeDepth, sum.Steps[1].Mode)
	assert.Equal(t, 700, sum.Steps[1].Removed)
	assert.Positive(t, sum.OctreeLeaves)

	for _, name := range []string{"voxel_count.png", "removed_per_view.png", "report.html"} {
		assert.FileExists(t, filepath.Join(sum.PlotDir, name))
	}

	d, err := db.Open(dbPath)
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	grid, _, err := sqlite.NewGridStore(d.DB).Load(ctx, sum.ResultGridID)
	require.NoError(t, err)
	assert.Equal(t, 300, grid.Len())

	runs := sqlite.NewCarveRunStore(d.DB)
	stored, err := runs.GetRun(ctx, sum.RunID)
	require.NoError(t, err)
	assert.True(t, stored.Finished())
	assert.Equal(t, sum.InputGridID, stored.InputGridID)

	results, err := runs.ListResults(ctx, sum.RunID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "front", results[1].ViewName)
	assert.Equal(t, 300, results[1].Result.Kept)
}

func TestRun_NoDBNoPlots(t *testing.T) {
	_, scenePath := writeScene(t)
	empty := ""
	tol := 0.7
	sum, err := run(context.Background(), options{
		ScenePath:      scenePath,
		NoDB:           true,
		PlotDir:        &empty,
		DepthTolerance: &tol,
	})
	require.NoError(t, err)
	assert.Equal(t, 400, sum.Final)
	assert.Empty(t, sum.RunID)
	assert.Empty(t, sum.PlotDir)
}

func TestRun_Errors(t *testing.T) {
	dir, scenePath := writeScene(t)
	ctx := context.Background()

	_, err := run(ctx, options{ScenePath: filepath.Join(dir, "missing.yaml"), NoDB: true})
	assert.Error(t, err)

	neg := -1
	_, err = run(ctx, options{ScenePath: scenePath, NoDB: true, Workers: &neg})
	assert.Error(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "front_depth.png")))
	_, err = run(ctx, options{ScenePath: scenePath, NoDB: true})
	assert.Error(t, err)
}

func TestRun_ConfineViews(t *testing.T) {
	dir, _ := writeScene(t)
	ctx := context.Background()

	inside := filepath.Join(dir, "scene.yaml")
	_, err := run(ctx, options{ScenePath: inside, NoDB: true, ConfineViews: true})
	require.NoError(t, err)

	// Move the scene one level down so its views resolve through "..".
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	escaped := strings.ReplaceAll(testScene, "front", "../front")
	escaped = strings.Replace(escaped, "name: ../front", "name: front", 1)
	scenePath := filepath.Join(sub, "scene.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(escaped), 0o644))

	_, err = run(ctx, options{ScenePath: scenePath, NoDB: true})
	require.NoError(t, err)
	_, err = run(ctx, options{ScenePath: scenePath, NoDB: true, ConfineViews: true})
	assert.Error(t, err)
}

func TestResultNames(t *testing.T) {
	img := testutil.FilledImage(t, 2, 2, 1)
	views := []carving.View{
		{Name: "a", Mask: img, Depth: img},
		{Name: "b", Depth: img},
		{Name: "c", Mask: img},
	}
	assert.Equal(t, []string{"a", "a", "b", "c"}, resultNames(views))
}
