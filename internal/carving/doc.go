// Package carving removes voxels that contradict a calibrated observation.
//
// Responsibilities: depth-map and silhouette carving of a voxelgrid.VoxelGrid
// through a pinhole camera, and carve metrics.
// Key types: Carver, Config, Result, View.
// Dependency rule: may import voxelgrid, camera, raster, config, geometry
// and monitoring; must not import storage or cmd.
//
// Each carve projects every voxel center once. Keep/remove decisions are
// computed in parallel into a mask, then committed by a single sequential
// VoxelGrid.Retain, so a carve never grows the grid and every collection id
// obtained before the call is invalid afterwards.
//
// A projection that lands outside the image, or behind the camera, carries
// no evidence. Depth carving keeps such voxels; silhouette carving removes
// them unless Config.KeepOutsideImage is set.
package carving
