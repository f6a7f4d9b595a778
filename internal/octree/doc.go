// Package octree implements a bounded, cubic octree that stores a colored
// leaf at a fixed maximum depth. It supports exactly what the voxel grid
// bridge needs: insert-by-point with a color payload and deterministic
// traversal of occupied leaves.
//
// Child ordering: bit 0 selects +X, bit 1 selects +Y, bit 2 selects +Z.
package octree
