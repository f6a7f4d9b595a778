package camera

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// parametersJSON is the Open3D PinholeCameraParameters file layout. Both
// matrices are stored column-major.
type parametersJSON struct {
	ClassName string        `json:"class_name"`
	Extrinsic []float64     `json:"extrinsic"`
	Intrinsic intrinsicJSON `json:"intrinsic"`
	Major     int           `json:"version_major"`
	Minor     int           `json:"version_minor"`
}

type intrinsicJSON struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Matrix []float64 `json:"intrinsic_matrix"`
}

const parametersClassName = "PinholeCameraParameters"

// MarshalJSON encodes the parameters in the Open3D file layout.
func (p PinholeCameraParameters) MarshalJSON() ([]byte, error) {
	k := p.Intrinsic
	return json.Marshal(parametersJSON{
		ClassName: parametersClassName,
		Extrinsic: p.Extrinsic.ColumnMajor(),
		Intrinsic: intrinsicJSON{
			Width:  k.Width,
			Height: k.Height,
			Matrix: []float64{k.Fx, 0, 0, k.Skew, k.Fy, 0, k.Cx, k.Cy, 1},
		},
		Major: 1,
	})
}

// UnmarshalJSON decodes the Open3D file layout.
func (p *PinholeCameraParameters) UnmarshalJSON(data []byte) error {
	var raw parametersJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ClassName != "" && raw.ClassName != parametersClassName {
		return fmt.Errorf("%w: unexpected class_name %q", geometry.ErrInvalidParameter, raw.ClassName)
	}
	ext, err := geometry.FromColumnMajor(raw.Extrinsic)
	if err != nil {
		return fmt.Errorf("extrinsic: %w", err)
	}
	m := raw.Intrinsic.Matrix
	if len(m) != 9 {
		return fmt.Errorf("%w: intrinsic_matrix needs 9 values, got %d", geometry.ErrInvalidParameter, len(m))
	}
	p.Extrinsic = ext
	p.Intrinsic = PinholeIntrinsic{
		Width:  raw.Intrinsic.Width,
		Height: raw.Intrinsic.Height,
		Fx:     m[0],
		Skew:   m[3],
		Fy:     m[4],
		Cx:     m[6],
		Cy:     m[7],
	}
	return nil
}

// LoadParameters reads and validates an Open3D camera parameter file.
func LoadParameters(path string) (PinholeCameraParameters, error) {
	var p PinholeCameraParameters
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return p, fmt.Errorf("failed to read camera file: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse camera file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("camera file %s: %w", path, err)
	}
	return p, nil
}

// SaveParameters writes p to path in the Open3D layout.
func SaveParameters(path string, p PinholeCameraParameters) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode camera: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write camera file: %w", err)
	}
	return nil
}
