package carving

import (
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/camera"
	"github.com/banshee-data/voxel.carve/internal/geometry"
	"github.com/banshee-data/voxel.carve/internal/monitoring"
	"github.com/banshee-data/voxel.carve/internal/raster"
	"github.com/banshee-data/voxel.carve/internal/voxelgrid"
)

// Mode names the observation a carve consumed.
type Mode string

const (
	ModeDepth      Mode = "depth"
	ModeSilhouette Mode = "silhouette"
)

// minVoxelsPerTask keeps small grids from fanning out.
const minVoxelsPerTask = 2048

// Result summarises one carve.
type Result struct {
	Mode         Mode
	Examined     int // voxels in the grid before the carve
	Removed      int
	Kept         int
	OutsideImage int // projections outside the image or behind the camera
	Duration     time.Duration
}

// Carver applies observations to voxel grids. A Carver holds no per-grid
// state and may be shared between goroutines carving different grids.
type Carver struct {
	cfg Config
}

// NewCarver returns a Carver using cfg.
func NewCarver(cfg Config) *Carver {
	return &Carver{cfg: cfg}
}

// Config returns the carver's configuration.
func (c *Carver) Config() Config { return c.cfg }

// CarveDepthMap removes every voxel whose center projects behind the
// observed surface by more than the depth tolerance. Voxels projecting
// outside the image, behind the camera, or onto a pixel with no depth
// reading (zero, negative or NaN) are kept.
func (c *Carver) CarveDepthMap(grid *voxelgrid.VoxelGrid, depth raster.Image, cam camera.PinholeCameraParameters) (Result, error) {
	tol := c.cfg.DepthTolerance
	return c.carve(ModeDepth, grid, depth, cam, func(img raster.Image, row, col int, z float64) bool {
		d := img.At(row, col)
		if !(d > 0) {
			return true
		}
		return z <= d+tol
	})
}

// CarveSilhouette removes every voxel whose center projects onto background
// (mask value at or below the threshold). Voxels projecting outside the
// image or behind the camera are removed unless KeepOutsideImage is set.
func (c *Carver) CarveSilhouette(grid *voxelgrid.VoxelGrid, mask raster.Image, cam camera.PinholeCameraParameters) (Result, error) {
	threshold := c.cfg.MaskThreshold
	return c.carve(ModeSilhouette, grid, mask, cam, func(img raster.Image, row, col int, _ float64) bool {
		return img.At(row, col) > threshold
	})
}

// decideFunc reports whether a voxel projecting in-image at (row, col) with
// camera depth z survives.
type decideFunc func(img raster.Image, row, col int, z float64) bool

func (c *Carver) validate(grid *voxelgrid.VoxelGrid, img raster.Image, cam camera.PinholeCameraParameters) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	if grid == nil {
		return fmt.Errorf("%w: nil voxel grid", geometry.ErrInvalidParameter)
	}
	if img == nil {
		return fmt.Errorf("%w: nil image", geometry.ErrInvalidParameter)
	}
	if err := cam.Validate(); err != nil {
		return err
	}
	return raster.CheckSize(img, cam.Intrinsic.Width, cam.Intrinsic.Height)
}

func (c *Carver) carve(mode Mode, grid *voxelgrid.VoxelGrid, img raster.Image, cam camera.PinholeCameraParameters, decide decideFunc) (Result, error) {
	start := time.Now()
	if err := c.validate(grid, img, cam); err != nil {
		return Result{Mode: mode}, fmt.Errorf("carve %s: %w", mode, err)
	}

	res := Result{Mode: mode, Examined: grid.Len()}
	if grid.IsEmpty() {
		res.Duration = time.Since(start)
		return res, nil
	}

	centers := grid.Centers()
	keep := make([]bool, len(centers))
	outside := c.decideAll(centers, keep, img, cam.Projector(), decide, mode == ModeDepth || c.cfg.KeepOutsideImage)

	removed, err := grid.Retain(keep)
	if err != nil {
		return Result{Mode: mode}, fmt.Errorf("carve %s: %w", mode, err)
	}

	res.Removed = removed
	res.Kept = res.Examined - removed
	res.OutsideImage = outside
	res.Duration = time.Since(start)
	instrumentCarve(res, start)
	monitoring.Debugf("carve %s: examined=%d removed=%d outside=%d in %v",
		mode, res.Examined, res.Removed, res.OutsideImage, res.Duration)
	return res, nil
}

// decideAll fills keep for every center and returns how many projected
// outside the image. Work is split into contiguous chunks so each goroutine
// owns a disjoint range of keep.
func (c *Carver) decideAll(centers []r3.Vec, keep []bool, img raster.Image, pr camera.Projector, decide decideFunc, keepOutside bool) int {
	workers := c.cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	n := len(centers)
	chunk := max(minVoxelsPerTask, (n+workers-1)/workers)
	tasks := (n + chunk - 1) / chunk
	outside := make([]int, tasks)

	var g errgroup.Group
	g.SetLimit(workers)
	for t := 0; t < tasks; t++ {
		lo, hi := t*chunk, min((t+1)*chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				row, col, z, ok := pr.Pixel(centers[i])
				if !ok {
					outside[t]++
					keep[i] = keepOutside
					continue
				}
				keep[i] = decide(img, row, col, z)
			}
			return nil
		})
	}
	_ = g.Wait() // deciders never fail

	total := 0
	for _, o := range outside {
		total += o
	}
	return total
}

// CarveDepthMap carves grid with DefaultConfig.
func CarveDepthMap(grid *voxelgrid.VoxelGrid, depth raster.Image, cam camera.PinholeCameraParameters) (Result, error) {
	return NewCarver(DefaultConfig()).CarveDepthMap(grid, depth, cam)
}

// CarveSilhouette carves grid with DefaultConfig.
func CarveSilhouette(grid *voxelgrid.VoxelGrid, mask raster.Image, cam camera.PinholeCameraParameters) (Result, error) {
	return NewCarver(DefaultConfig()).CarveSilhouette(grid, mask, cam)
}
