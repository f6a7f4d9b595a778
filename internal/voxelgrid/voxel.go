package voxelgrid

import "github.com/banshee-data/voxel.carve/internal/geometry"

// Voxel is one occupied cell. The zero Color is black.
type Voxel struct {
	GridIndex geometry.GridIndex
	Color     geometry.Color
}

// NewVoxel returns a black voxel at idx.
func NewVoxel(idx geometry.GridIndex) Voxel {
	return Voxel{GridIndex: idx}
}
