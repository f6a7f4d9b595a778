package voxelgrid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// VoxelGrid is a sparse set of uniquely indexed voxels on a uniform,
// axis-aligned lattice anchored at Origin. The zero value is an empty grid
// with no voxel size; New returns a grid ready for insertion.
//
// A VoxelGrid is not safe for concurrent mutation.
type VoxelGrid struct {
	voxelSize float64
	origin    r3.Vec
	voxels    []Voxel
	index     map[geometry.GridIndex]int
}

// New returns an empty grid with the given voxel size and origin.
func New(voxelSize float64, origin r3.Vec) (*VoxelGrid, error) {
	if err := checkVoxelSize(voxelSize); err != nil {
		return nil, err
	}
	if !geometry.IsFinite(origin) {
		return nil, fmt.Errorf("%w: origin is not finite: %v", geometry.ErrInvalidParameter, origin)
	}
	return &VoxelGrid{
		voxelSize: voxelSize,
		origin:    origin,
		index:     make(map[geometry.GridIndex]int),
	}, nil
}

func checkVoxelSize(voxelSize float64) error {
	if !(voxelSize > 0) || math.IsInf(voxelSize, 0) {
		return fmt.Errorf("%w: voxel size must be positive, got %g", geometry.ErrInvalidParameter, voxelSize)
	}
	return nil
}

// newWithVoxels builds a grid from voxels that are already deduplicated.
func newWithVoxels(voxelSize float64, origin r3.Vec, voxels []Voxel) *VoxelGrid {
	g := &VoxelGrid{voxelSize: voxelSize, origin: origin}
	g.reset(voxels)
	return g
}

// reset replaces the voxel collection and rebuilds the lookup index.
func (g *VoxelGrid) reset(voxels []Voxel) {
	g.voxels = voxels
	g.index = make(map[geometry.GridIndex]int, len(voxels))
	for i, v := range voxels {
		g.index[v.GridIndex] = i
	}
}

// VoxelSize returns the edge length of one voxel.
func (g *VoxelGrid) VoxelSize() float64 { return g.voxelSize }

// Origin returns the world-space corner of grid index (0,0,0).
func (g *VoxelGrid) Origin() r3.Vec { return g.origin }

// Len returns the number of occupied voxels.
func (g *VoxelGrid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.voxels)
}

// IsEmpty reports whether the grid holds no voxels. An empty grid may also
// be unsized (VoxelSize() == 0, after Clear or as a zero value); check
// VoxelSize before mapping points with GridIndexOf.
func (g *VoxelGrid) IsEmpty() bool { return g.Len() == 0 }

// HasVoxels is the negation of IsEmpty.
func (g *VoxelGrid) HasVoxels() bool { return !g.IsEmpty() }

// HasColors is always true: voxels default to black.
func (g *VoxelGrid) HasColors() bool { return true }

// Clear drops every voxel and resets size and origin to zero. The cleared
// grid is unsized: GridIndexOf maps every point to (0,0,0) and AddVoxel
// fails until Merge adopts another grid's geometry.
func (g *VoxelGrid) Clear() {
	g.voxelSize = 0
	g.origin = r3.Vec{}
	g.voxels = nil
	g.index = nil
}

// Clone returns a deep copy.
func (g *VoxelGrid) Clone() *VoxelGrid {
	voxels := make([]Voxel, len(g.voxels))
	copy(voxels, g.voxels)
	return newWithVoxels(g.voxelSize, g.origin, voxels)
}

// Voxels returns a copy of the voxel collection in internal order.
func (g *VoxelGrid) Voxels() []Voxel {
	out := make([]Voxel, len(g.voxels))
	copy(out, g.voxels)
	return out
}

// Voxel returns the voxel at collection index id.
func (g *VoxelGrid) Voxel(id int) (Voxel, error) {
	if err := g.checkID(id); err != nil {
		return Voxel{}, err
	}
	return g.voxels[id], nil
}

func (g *VoxelGrid) checkID(id int) error {
	if id < 0 || id >= len(g.voxels) {
		return fmt.Errorf("%w: voxel id %d not in [0, %d)", geometry.ErrIndexOutOfRange, id, len(g.voxels))
	}
	return nil
}

// Lookup returns the voxel with the given grid index.
func (g *VoxelGrid) Lookup(idx geometry.GridIndex) (Voxel, bool) {
	i, ok := g.index[idx]
	if !ok {
		return Voxel{}, false
	}
	return g.voxels[i], true
}

// Contains reports whether a voxel occupies idx.
func (g *VoxelGrid) Contains(idx geometry.GridIndex) bool {
	_, ok := g.index[idx]
	return ok
}

// insert appends v unless its index is already occupied.
func (g *VoxelGrid) insert(v Voxel) bool {
	if g.index == nil {
		g.index = make(map[geometry.GridIndex]int)
	}
	if _, ok := g.index[v.GridIndex]; ok {
		return false
	}
	g.index[v.GridIndex] = len(g.voxels)
	g.voxels = append(g.voxels, v)
	return true
}

// AddVoxel inserts v if its grid index is free. An existing voxel at the
// same index is kept unchanged and false is returned.
func (g *VoxelGrid) AddVoxel(v Voxel) (bool, error) {
	if err := checkVoxelSize(g.voxelSize); err != nil {
		return false, fmt.Errorf("add voxel to unsized grid: %w", err)
	}
	return g.insert(v), nil
}

// center is the one place the index-to-world mapping is evaluated.
func (g *VoxelGrid) center(idx geometry.GridIndex) r3.Vec {
	return geometry.CellCenter(idx, g.origin, g.voxelSize)
}

// CenterOf returns the world center of grid index idx, occupied or not.
func (g *VoxelGrid) CenterOf(idx geometry.GridIndex) r3.Vec { return g.center(idx) }

// VoxelCenterCoordinate returns the world center of the voxel at collection
// index id.
func (g *VoxelGrid) VoxelCenterCoordinate(id int) (r3.Vec, error) {
	if err := g.checkID(id); err != nil {
		return r3.Vec{}, err
	}
	return g.center(g.voxels[id].GridIndex), nil
}

// Centers returns the world center of every voxel in collection order.
func (g *VoxelGrid) Centers() []r3.Vec {
	out := make([]r3.Vec, len(g.voxels))
	for i, v := range g.voxels {
		out[i] = g.center(v.GridIndex)
	}
	return out
}

// GridIndexOf maps a world point to the grid index whose cell contains it,
// floor((point - Origin) / VoxelSize). Occupancy is not checked. A grid
// without a voxel size maps every point to (0,0,0).
func (g *VoxelGrid) GridIndexOf(point r3.Vec) geometry.GridIndex {
	if !(g.voxelSize > 0) {
		return geometry.GridIndex{}
	}
	return geometry.CellIndex(point, g.origin, g.voxelSize)
}

// BoundingPointsOfVoxel returns the 8 corners of the voxel at collection
// index id. Corner i takes the max coordinate on X when bit 0 is set, on Y
// for bit 1 and on Z for bit 2.
func (g *VoxelGrid) BoundingPointsOfVoxel(id int) ([8]r3.Vec, error) {
	var pts [8]r3.Vec
	if err := g.checkID(id); err != nil {
		return pts, err
	}
	c := g.center(g.voxels[id].GridIndex)
	h := g.voxelSize / 2
	for i := range pts {
		off := r3.Vec{X: -h, Y: -h, Z: -h}
		if i&1 != 0 {
			off.X = h
		}
		if i&2 != 0 {
			off.Y = h
		}
		if i&4 != 0 {
			off.Z = h
		}
		pts[i] = r3.Add(c, off)
	}
	return pts, nil
}

// MinBound returns the minimum voxel corner. An empty grid returns Origin.
func (g *VoxelGrid) MinBound() r3.Vec {
	if g.IsEmpty() {
		return g.origin
	}
	lo := g.voxels[0].GridIndex
	for _, v := range g.voxels[1:] {
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], v.GridIndex[a])
		}
	}
	return r3.Add(g.origin, r3.Scale(g.voxelSize, lo.Vec()))
}

// MaxBound returns the maximum voxel corner. An empty grid returns Origin.
func (g *VoxelGrid) MaxBound() r3.Vec {
	if g.IsEmpty() {
		return g.origin
	}
	hi := g.voxels[0].GridIndex
	for _, v := range g.voxels[1:] {
		for a := 0; a < 3; a++ {
			hi[a] = max(hi[a], v.GridIndex[a])
		}
	}
	return r3.Add(g.origin, r3.Scale(g.voxelSize, hi.Add(geometry.GridIndex{1, 1, 1}).Vec()))
}

// Retain keeps voxel i iff keep[i], compacting the collection in one
// sequential pass, and returns how many voxels were removed. keep must have
// exactly Len() entries. All collection ids are invalidated.
func (g *VoxelGrid) Retain(keep []bool) (int, error) {
	if len(keep) != len(g.voxels) {
		return 0, fmt.Errorf("%w: keep mask has %d entries for %d voxels",
			geometry.ErrInvalidParameter, len(keep), len(g.voxels))
	}
	n := 0
	for i, v := range g.voxels {
		if keep[i] {
			g.voxels[n] = v
			n++
		}
	}
	removed := len(g.voxels) - n
	if removed == 0 {
		return 0, nil
	}
	clear(g.voxels[n:])
	g.reset(g.voxels[:n])
	return removed, nil
}
