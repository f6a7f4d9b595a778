package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical carve defaults file.
const DefaultConfigPath = "config/carve.defaults.json"

// maxFileSize caps every config and manifest read.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// CarveConfig holds the tunable carving and build parameters. Every field is
// optional; the Get* methods supply defaults for anything left unset, so
// partial files are safe.
type CarveConfig struct {
	// Carving
	DepthTolerance   *float64 `json:"depth_tolerance,omitempty" yaml:"depth_tolerance,omitempty"`
	MaskThreshold    *float64 `json:"mask_threshold,omitempty" yaml:"mask_threshold,omitempty"`
	KeepOutsideImage *bool    `json:"keep_outside_image,omitempty" yaml:"keep_outside_image,omitempty"`
	Workers          *int     `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Inputs
	DepthScale *float64 `json:"depth_scale,omitempty" yaml:"depth_scale,omitempty"` // raw depth units per metre

	// Outputs
	OctreeMaxDepth *int    `json:"octree_max_depth,omitempty" yaml:"octree_max_depth,omitempty"`
	DatabasePath   *string `json:"database_path,omitempty" yaml:"database_path,omitempty"`
	PlotDir        *string `json:"plot_dir,omitempty" yaml:"plot_dir,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// EmptyCarveConfig returns a CarveConfig with all fields unset.
func EmptyCarveConfig() *CarveConfig {
	return &CarveConfig{}
}

// DefaultCarveConfig returns a CarveConfig with every field set to its
// default value.
func DefaultCarveConfig() *CarveConfig {
	e := EmptyCarveConfig()
	return &CarveConfig{
		DepthTolerance:   ptrFloat64(e.GetDepthTolerance()),
		MaskThreshold:    ptrFloat64(e.GetMaskThreshold()),
		KeepOutsideImage: ptrBool(e.GetKeepOutsideImage()),
		Workers:          ptrInt(e.GetWorkers()),
		DepthScale:       ptrFloat64(e.GetDepthScale()),
		OctreeMaxDepth:   ptrInt(e.GetOctreeMaxDepth()),
		DatabasePath:     ptrString(e.GetDatabasePath()),
		PlotDir:          ptrString(e.GetPlotDir()),
	}
}

// readBounded reads a config file after checking its extension and size.
func readBounded(path string, exts ...string) (string, []byte, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	allowed := false
	for _, e := range exts {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", nil, fmt.Errorf("config file must have one of %v extensions, got %q", exts, ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return "", nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ext, data, nil
}

// decode unmarshals data as JSON or YAML depending on ext.
func decode(ext string, data []byte, v any) error {
	if ext == ".json" {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse config JSON: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

// LoadCarveConfig loads a CarveConfig from a .json, .yaml or .yml file.
// Fields omitted from the file keep their defaults.
func LoadCarveConfig(path string) (*CarveConfig, error) {
	ext, data, err := readBounded(path, ".json", ".yaml", ".yml")
	if err != nil {
		return nil, err
	}

	cfg := EmptyCarveConfig()
	if err := decode(ext, data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *CarveConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/storage/sqlite/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadCarveConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *CarveConfig) Validate() error {
	if c.DepthTolerance != nil {
		if v := *c.DepthTolerance; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("depth_tolerance must be a non-negative finite number, got %f", v)
		}
	}
	if c.MaskThreshold != nil {
		if v := *c.MaskThreshold; math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("mask_threshold must be finite, got %f", v)
		}
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.DepthScale != nil {
		if v := *c.DepthScale; !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("depth_scale must be positive, got %f", v)
		}
	}
	if c.OctreeMaxDepth != nil {
		// Matches octree.MaxDepthLimit.
		if v := *c.OctreeMaxDepth; v < 0 || v > 21 {
			return fmt.Errorf("octree_max_depth must be in [0, 21], got %d", v)
		}
	}
	return nil
}

// GetDepthTolerance returns the depth_tolerance value or the default.
func (c *CarveConfig) GetDepthTolerance() float64 {
	if c.DepthTolerance == nil {
		return 1e-6
	}
	return *c.DepthTolerance
}

// GetMaskThreshold returns the mask_threshold value or the default. Mask
// values at or below the threshold are background.
func (c *CarveConfig) GetMaskThreshold() float64 {
	if c.MaskThreshold == nil {
		return 0
	}
	return *c.MaskThreshold
}

// GetKeepOutsideImage returns the keep_outside_image value or the default.
func (c *CarveConfig) GetKeepOutsideImage() bool {
	if c.KeepOutsideImage == nil {
		return false
	}
	return *c.KeepOutsideImage
}

// GetWorkers returns the workers value or the default. Zero means one
// worker per CPU.
func (c *CarveConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetDepthScale returns the depth_scale value or the default (millimetre
// depth PNGs).
func (c *CarveConfig) GetDepthScale() float64 {
	if c.DepthScale == nil {
		return 1000
	}
	return *c.DepthScale
}

// GetOctreeMaxDepth returns the octree_max_depth value or the default.
func (c *CarveConfig) GetOctreeMaxDepth() int {
	if c.OctreeMaxDepth == nil {
		return 8
	}
	return *c.OctreeMaxDepth
}

// GetDatabasePath returns the database_path value or the default.
func (c *CarveConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "voxelcarve.db"
	}
	return *c.DatabasePath
}

// GetPlotDir returns the plot_dir value. Empty disables plotting.
func (c *CarveConfig) GetPlotDir() string {
	if c.PlotDir == nil {
		return ""
	}
	return *c.PlotDir
}
