package carving

import (
	"fmt"

	"github.com/banshee-data/voxel.carve/internal/camera"
	"github.com/banshee-data/voxel.carve/internal/geometry"
	"github.com/banshee-data/voxel.carve/internal/raster"
	"github.com/banshee-data/voxel.carve/internal/voxelgrid"
)

// View is one calibrated observation. Mask and Depth are optional but at
// least one must be set; the silhouette is applied before the depth map.
type View struct {
	Name   string
	Camera camera.PinholeCameraParameters
	Mask   raster.Image
	Depth  raster.Image
}

// validateView checks the camera and that every supplied image matches it.
func (c *Carver) validateView(v View) error {
	if v.Mask == nil && v.Depth == nil {
		return fmt.Errorf("%w: view %q has neither mask nor depth", geometry.ErrInvalidParameter, v.Name)
	}
	if err := v.Camera.Validate(); err != nil {
		return fmt.Errorf("view %q: %w", v.Name, err)
	}
	for _, img := range []raster.Image{v.Mask, v.Depth} {
		if img == nil {
			continue
		}
		if err := raster.CheckSize(img, v.Camera.Intrinsic.Width, v.Camera.Intrinsic.Height); err != nil {
			return fmt.Errorf("view %q: %w", v.Name, err)
		}
	}
	return nil
}

// CarveViews applies every view in order and returns one Result per carve
// performed. All views are validated before the grid is touched.
func (c *Carver) CarveViews(grid *voxelgrid.VoxelGrid, views []View) ([]Result, error) {
	for _, v := range views {
		if err := c.validateView(v); err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(views))
	for _, v := range views {
		if v.Mask != nil {
			r, err := c.CarveSilhouette(grid, v.Mask, v.Camera)
			if err != nil {
				return results, fmt.Errorf("view %q: %w", v.Name, err)
			}
			results = append(results, r)
		}
		if v.Depth != nil {
			r, err := c.CarveDepthMap(grid, v.Depth, v.Camera)
			if err != nil {
				return results, fmt.Errorf("view %q: %w", v.Name, err)
			}
			results = append(results, r)
		}
	}
	return results, nil
}
