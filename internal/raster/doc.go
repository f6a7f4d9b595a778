// Package raster provides the 2D scalar images consumed by the carver:
// depth maps (metric distances) and silhouette masks (values in [0,1]).
//
// Images are addressed by (row, col) with row 0 at the top, matching the
// pixel convention of the pinhole camera projection.
package raster
