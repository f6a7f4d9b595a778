// Package geometry holds the shared value types of the voxel carving model.
//
// Responsibilities: grid indices, colors, the 4x4 world transform (Pose),
// the Transformer capability, the PointCloud input type, and the error
// taxonomy every other layer wraps.
// Key types: GridIndex, Color, Pose, PointCloud.
//
// Dependency rule: geometry depends on nothing else in this module.
package geometry
