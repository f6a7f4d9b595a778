// Package sqlite contains SQLite repository implementations for voxel grids
// and carve runs.
//
// All database read/write operations belong here rather than in the domain
// packages (voxelgrid, carving). This keeps domain logic free of SQL noise
// and makes it easier to swap storage backends for testing.
//
// Grids are stored as one row each; the voxel collection is a gob-encoded
// blob compressed with zstd, and collection order is preserved.
package sqlite
