package voxelgrid

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
	"github.com/banshee-data/voxel.carve/internal/monitoring"
)

// MaxDenseVoxels caps CreateDense so a bad extent cannot exhaust memory.
const MaxDenseVoxels = 1 << 28

// minPointsPerWorker keeps small clouds on a single goroutine.
const minPointsPerWorker = 4096

// BuildOption configures the point cloud builders.
type BuildOption func(*buildOptions)

type buildOptions struct {
	workers int
}

// WithWorkers sets the number of goroutines used to bin points. Values below
// one select runtime.NumCPU(). The result does not depend on this setting.
func WithWorkers(n int) BuildOption {
	return func(o *buildOptions) { o.workers = n }
}

func resolveOptions(opts []BuildOption) buildOptions {
	o := buildOptions{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.NumCPU()
	}
	return o
}

// CreateFromPointCloud bins every point into a grid anchored at the cloud's
// minimum bound. Voxel color is the mean color of its points when the cloud
// has colors, black otherwise.
func CreateFromPointCloud(pc *geometry.PointCloud, voxelSize float64, opts ...BuildOption) (*VoxelGrid, error) {
	if err := checkVoxelSize(voxelSize); err != nil {
		return nil, err
	}
	if pc.IsEmpty() {
		return nil, fmt.Errorf("%w: point cloud has no points", geometry.ErrEmptyInput)
	}
	if err := pc.Validate(); err != nil {
		return nil, err
	}

	origin := pc.MinBound()
	voxels := binPoints(pc, origin, voxelSize, nil, resolveOptions(opts))
	monitoring.Debugf("voxelgrid: %d points -> %d voxels at size %g", pc.Len(), len(voxels), voxelSize)
	return newWithVoxels(voxelSize, origin, voxels), nil
}

// CreateSurfaceVoxelGridFromPointCloud bins points into a grid anchored at
// the caller's minBound, dropping points outside [minBound, maxBound]. Grids
// built with the same bounds and size share index semantics, so clouds from
// different views can be merged or carved consistently.
func CreateSurfaceVoxelGridFromPointCloud(pc *geometry.PointCloud, voxelSize float64, minBound, maxBound r3.Vec, opts ...BuildOption) (*VoxelGrid, error) {
	if err := checkVoxelSize(voxelSize); err != nil {
		return nil, err
	}
	if !geometry.IsFinite(minBound) || !geometry.IsFinite(maxBound) ||
		maxBound.X < minBound.X || maxBound.Y < minBound.Y || maxBound.Z < minBound.Z {
		return nil, fmt.Errorf("%w: malformed bounds min=%v max=%v", geometry.ErrInvalidParameter, minBound, maxBound)
	}
	if pc.IsEmpty() {
		return nil, fmt.Errorf("%w: point cloud has no points", geometry.ErrEmptyInput)
	}
	if err := pc.Validate(); err != nil {
		return nil, err
	}

	inside := func(p r3.Vec) bool { return geometry.InBox(p, minBound, maxBound) }
	voxels := binPoints(pc, minBound, voxelSize, inside, resolveOptions(opts))
	monitoring.Debugf("voxelgrid: surface grid kept %d voxels from %d points", len(voxels), pc.Len())
	return newWithVoxels(voxelSize, minBound, voxels), nil
}

// CreateDense materialises every index in
// [0, ceil(w/s)) x [0, ceil(h/s)) x [0, ceil(d/s)) as a black voxel. This is
// the full volume that carving erodes.
func CreateDense(w, h, d, voxelSize float64, origin r3.Vec) (*VoxelGrid, error) {
	if err := checkVoxelSize(voxelSize); err != nil {
		return nil, err
	}
	if !(w > 0) || !(h > 0) || !(d > 0) || math.IsInf(w+h+d, 0) {
		return nil, fmt.Errorf("%w: dense extent must be positive, got %gx%gx%g", geometry.ErrInvalidParameter, w, h, d)
	}
	if !geometry.IsFinite(origin) {
		return nil, fmt.Errorf("%w: origin is not finite: %v", geometry.ErrInvalidParameter, origin)
	}

	fx, fy, fz := cellsAlong(w, voxelSize), cellsAlong(h, voxelSize), cellsAlong(d, voxelSize)
	// Each axis is bounded before the product so no count reaches int conversion out of range.
	if !(fx <= MaxDenseVoxels && fy <= MaxDenseVoxels && fz <= MaxDenseVoxels && fx*fy*fz <= MaxDenseVoxels) {
		return nil, fmt.Errorf("%w: dense grid of %gx%gx%g cells exceeds %d voxels",
			geometry.ErrInvalidParameter, fx, fy, fz, MaxDenseVoxels)
	}
	nx, ny, nz := int(fx), int(fy), int(fz)

	voxels := make([]Voxel, 0, nx*ny*nz)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				voxels = append(voxels, NewVoxel(geometry.GridIndex{i, j, k}))
			}
		}
	}
	return newWithVoxels(voxelSize, origin, voxels), nil
}

// cellsAlong is ceil(extent/size), ignoring float noise just above an
// integer ratio so that 0.3/0.1 yields 3 cells, not 4. The count stays a
// float (possibly +Inf) so callers can bound it before converting.
func cellsAlong(extent, size float64) float64 {
	ratio := extent / size
	if math.IsInf(ratio, 1) {
		return ratio
	}
	n := math.Ceil(ratio - 1e-9*math.Max(1, ratio))
	if n < 1 {
		n = 1
	}
	return n
}

// accum is the per-index running state while binning points.
type accum struct {
	sum   r3.Vec
	count int
	first int
}

// binPoints assigns each point to its cell. Points are partitioned across
// workers, each filling a private map; the maps are merged in a single
// sequential pass. Voxels are ordered by the first point that hit them.
func binPoints(pc *geometry.PointCloud, origin r3.Vec, voxelSize float64, keep func(r3.Vec) bool, o buildOptions) []Voxel {
	n := pc.Len()
	workers := o.workers
	if limit := (n + minPointsPerWorker - 1) / minPointsPerWorker; workers > limit {
		workers = limit
	}
	if workers < 1 {
		workers = 1
	}
	hasColors := pc.HasColors()

	partials := make([]map[geometry.GridIndex]*accum, workers)
	per, rem := n/workers, n%workers
	var g errgroup.Group
	g.SetLimit(workers)
	start := 0
	for w := 0; w < workers; w++ {
		count := per
		if w < rem {
			count++
		}
		lo, hi := start, start+count
		start = hi
		g.Go(func() error {
			local := make(map[geometry.GridIndex]*accum)
			for i := lo; i < hi; i++ {
				p := pc.Points[i]
				if keep != nil && !keep(p) {
					continue
				}
				idx := geometry.CellIndex(p, origin, voxelSize)
				a, ok := local[idx]
				if !ok {
					a = &accum{first: i}
					local[idx] = a
				}
				a.count++
				if hasColors {
					a.sum = r3.Add(a.sum, pc.Colors[i].Vec())
				}
			}
			partials[w] = local
			return nil
		})
	}
	_ = g.Wait() // binning never fails

	merged := make(map[geometry.GridIndex]*accum)
	for _, local := range partials {
		for idx, a := range local {
			m, ok := merged[idx]
			if !ok {
				merged[idx] = a
				continue
			}
			m.sum = r3.Add(m.sum, a.sum)
			m.count += a.count
			m.first = min(m.first, a.first)
		}
	}

	type entry struct {
		idx geometry.GridIndex
		a   *accum
	}
	entries := make([]entry, 0, len(merged))
	for idx, a := range merged {
		entries = append(entries, entry{idx, a})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].a.first < entries[j].a.first })

	voxels := make([]Voxel, len(entries))
	for i, e := range entries {
		v := NewVoxel(e.idx)
		if hasColors {
			v.Color = geometry.ColorFromVec(r3.Scale(1/float64(e.a.count), e.a.sum))
		}
		voxels[i] = v
	}
	return voxels
}
