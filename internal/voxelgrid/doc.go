// Package voxelgrid owns the sparse voxel occupancy grid.
//
// Responsibilities: the VoxelGrid container and its invariants, builders
// from point clouds and dense extents, octree interchange, merging, and the
// affine transform capability.
// Key types: Voxel, VoxelGrid.
//
// Invariants:
//   - VoxelSize > 0 for any non-empty grid.
//   - Grid indices are unique within a grid.
//   - The world center of a voxel is Origin + (GridIndex + 0.5) * VoxelSize.
//   - Bounds are taken over voxel corners, not centers.
//
// Collection indices (the id accepted by Voxel, VoxelCenterCoordinate and
// BoundingPointsOfVoxel) are positional. Any removal, including carving,
// invalidates every previously obtained id.
package voxelgrid
