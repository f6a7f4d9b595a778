package carving

import (
	"fmt"
	"math"

	"github.com/banshee-data/voxel.carve/internal/config"
	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// Config controls carving decisions.
type Config struct {
	DepthTolerance   float64 `json:"depth_tolerance"`    // metres a voxel may sit behind the observed surface (default: 1e-6)
	MaskThreshold    float64 `json:"mask_threshold"`     // mask values at or below this are background (default: 0)
	KeepOutsideImage bool    `json:"keep_outside_image"` // silhouette carving keeps voxels projecting outside the image (default: false)
	Workers          int     `json:"workers"`            // parallel deciders; 0 means one per CPU
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyCarveConfig())
}

// ConfigFromTuning builds a Config from a loaded CarveConfig.
func ConfigFromTuning(cfg *config.CarveConfig) Config {
	return Config{
		DepthTolerance:   cfg.GetDepthTolerance(),
		MaskThreshold:    cfg.GetMaskThreshold(),
		KeepOutsideImage: cfg.GetKeepOutsideImage(),
		Workers:          cfg.GetWorkers(),
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.DepthTolerance < 0 || math.IsNaN(c.DepthTolerance) || math.IsInf(c.DepthTolerance, 0) {
		return fmt.Errorf("%w: depth tolerance must be non-negative and finite, got %g",
			geometry.ErrInvalidParameter, c.DepthTolerance)
	}
	if math.IsNaN(c.MaskThreshold) || math.IsInf(c.MaskThreshold, 0) {
		return fmt.Errorf("%w: mask threshold must be finite, got %g", geometry.ErrInvalidParameter, c.MaskThreshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", geometry.ErrInvalidParameter, c.Workers)
	}
	return nil
}
