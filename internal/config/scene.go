package config

import (
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
)

// Scene is a carving manifest: the dense volume to start from and the
// calibrated views that carve it.
type Scene struct {
	Name   string `json:"name" yaml:"name"`
	Volume Volume `json:"volume" yaml:"volume"`
	Views  []View `json:"views" yaml:"views"`
}

// Volume describes the initial dense grid.
type Volume struct {
	Width     float64    `json:"width" yaml:"width"`
	Height    float64    `json:"height" yaml:"height"`
	Depth     float64    `json:"depth" yaml:"depth"`
	VoxelSize float64    `json:"voxel_size" yaml:"voxel_size"`
	Origin    [3]float64 `json:"origin" yaml:"origin"`
}

// OriginVec returns Origin as a world vector.
func (v Volume) OriginVec() r3.Vec {
	return r3.Vec{X: v.Origin[0], Y: v.Origin[1], Z: v.Origin[2]}
}

// View is one observation. Camera names an Open3D PinholeCameraParameters
// JSON file. At least one of Mask and Depth must be set; when both are, the
// silhouette is applied first.
type View struct {
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Camera     string   `json:"camera" yaml:"camera"`
	Mask       string   `json:"mask,omitempty" yaml:"mask,omitempty"`
	Depth      string   `json:"depth,omitempty" yaml:"depth,omitempty"`
	DepthScale *float64 `json:"depth_scale,omitempty" yaml:"depth_scale,omitempty"`
}

// LoadScene reads a .json, .yaml or .yml manifest. Relative view paths are
// resolved against the manifest's directory.
func LoadScene(path string) (*Scene, error) {
	ext, data, err := readBounded(path, ".json", ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	var s Scene
	if err := decode(ext, data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene %s: %w", path, err)
	}
	s.resolve(filepath.Dir(filepath.Clean(path)))
	return &s, nil
}

func (s *Scene) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i := range s.Views {
		s.Views[i].Camera = abs(s.Views[i].Camera)
		s.Views[i].Mask = abs(s.Views[i].Mask)
		s.Views[i].Depth = abs(s.Views[i].Depth)
	}
}

// Files returns every file the views reference, in view order.
func (s *Scene) Files() []string {
	var out []string
	for _, v := range s.Views {
		for _, p := range []string{v.Camera, v.Mask, v.Depth} {
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func positiveFinite(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// Validate checks the volume and that every view names a camera and at
// least one observation.
func (s *Scene) Validate() error {
	v := s.Volume
	if !positiveFinite(v.VoxelSize) {
		return fmt.Errorf("volume.voxel_size must be positive, got %f", v.VoxelSize)
	}
	if !positiveFinite(v.Width) || !positiveFinite(v.Height) || !positiveFinite(v.Depth) {
		return fmt.Errorf("volume extent must be positive, got %fx%fx%f", v.Width, v.Height, v.Depth)
	}
	for _, o := range v.Origin {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			return fmt.Errorf("volume.origin must be finite, got %v", v.Origin)
		}
	}
	if len(s.Views) == 0 {
		return fmt.Errorf("scene has no views")
	}
	for i, view := range s.Views {
		if view.Camera == "" {
			return fmt.Errorf("view %d: camera is required", i)
		}
		if view.Mask == "" && view.Depth == "" {
			return fmt.Errorf("view %d: one of mask or depth is required", i)
		}
		if view.DepthScale != nil && !positiveFinite(*view.DepthScale) {
			return fmt.Errorf("view %d: depth_scale must be positive, got %f", i, *view.DepthScale)
		}
	}
	return nil
}

// Label returns the view's name or a positional fallback.
func (v View) Label(i int) string {
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprintf("view-%02d", i)
}

// GetDepthScale returns the view's depth scale, falling back to the
// carve config's.
func (v View) GetDepthScale(cfg *CarveConfig) float64 {
	if v.DepthScale != nil {
		return *v.DepthScale
	}
	return cfg.GetDepthScale()
}
