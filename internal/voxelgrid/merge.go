package voxelgrid

import (
	"fmt"
	"math"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// sameSize compares voxel sizes with a relative tolerance so that grids
// produced by identical arithmetic on different paths still merge.
func sameSize(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12*math.Max(math.Abs(a), math.Abs(b))
}

// Merge adds other's voxels into g (the += operator).
//
// Both grids must share the same voxel size; a grid that has been cleared
// (size zero, no voxels) adopts other's size and origin. When the origins
// differ, incoming voxels are re-indexed through their world centers.
// Overlapping indices keep the voxel already in g: first write wins.
func (g *VoxelGrid) Merge(other *VoxelGrid) error {
	if other == nil || other.IsEmpty() {
		return nil
	}
	if g.voxelSize == 0 && g.IsEmpty() {
		g.voxelSize = other.voxelSize
		g.origin = other.origin
	} else if !sameSize(g.voxelSize, other.voxelSize) {
		return fmt.Errorf("%w: cannot merge voxel size %g into %g",
			geometry.ErrInvalidParameter, other.voxelSize, g.voxelSize)
	}

	// g is sized from here on, so GridIndexOf is meaningful.
	sameOrigin := g.origin == other.origin
	incoming := other.voxels
	for _, v := range incoming {
		if !sameOrigin {
			v.GridIndex = g.GridIndexOf(other.center(v.GridIndex))
		}
		g.insert(v)
	}
	return nil
}

// Add returns a new grid holding a's voxels followed by b's non-overlapping
// voxels (the + operator). Neither input is modified.
func Add(a, b *VoxelGrid) (*VoxelGrid, error) {
	if a == nil {
		a = &VoxelGrid{}
	}
	out := a.Clone()
	if err := out.Merge(b); err != nil {
		return nil, err
	}
	return out, nil
}

// IntersectWith removes every voxel of g whose world center does not fall in
// an occupied voxel of other, and returns how many were removed. This is how
// independently carved copies are combined.
func (g *VoxelGrid) IntersectWith(other *VoxelGrid) (int, error) {
	if g.IsEmpty() {
		return 0, nil
	}
	if other == nil || other.IsEmpty() {
		keep := make([]bool, g.Len())
		return g.Retain(keep)
	}
	if !sameSize(g.voxelSize, other.voxelSize) {
		return 0, fmt.Errorf("%w: cannot intersect voxel size %g with %g",
			geometry.ErrInvalidParameter, g.voxelSize, other.voxelSize)
	}
	// other holds voxels, so it is sized and GridIndexOf is meaningful.
	keep := make([]bool, g.Len())
	for i, v := range g.voxels {
		keep[i] = other.Contains(other.GridIndexOf(g.center(v.GridIndex)))
	}
	return g.Retain(keep)
}

// Intersect returns the voxels of a whose centers fall in occupied voxels of
// b. Neither input is modified.
func Intersect(a, b *VoxelGrid) (*VoxelGrid, error) {
	if a == nil {
		return &VoxelGrid{}, nil
	}
	out := a.Clone()
	if _, err := out.IntersectWith(b); err != nil {
		return nil, err
	}
	return out, nil
}
