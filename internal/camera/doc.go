// Package camera implements the pinhole camera model used to project voxel
// centers into depth maps and silhouette masks.
//
// Coordinate convention: the extrinsic pose maps world to camera frame with
// X=right, Y=down, Z=forward, so pixel (col, row) = (u, v) grows right and
// down from the top-left corner.
package camera
