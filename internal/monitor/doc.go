// Package monitor renders carve progress for offline inspection.
//
// Responsibilities: record per-view carve results, write PNG line and bar
// charts with gonum/plot, and write a self-contained HTML report with
// go-echarts including a projection of the surviving voxels.
// Key types: CarvePlotter, Step.
// Dependency rule: may import carving and voxelgrid; must not import storage.
package monitor
