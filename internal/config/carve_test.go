package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCarveConfig(t *testing.T) {
	cfg := DefaultCarveConfig()

	if cfg.DepthTolerance == nil || *cfg.DepthTolerance != 1e-6 {
		t.Errorf("Expected DepthTolerance 1e-6, got %v", cfg.DepthTolerance)
	}
	if cfg.KeepOutsideImage == nil || *cfg.KeepOutsideImage {
		t.Errorf("Expected KeepOutsideImage false, got %v", cfg.KeepOutsideImage)
	}
	if cfg.GetDepthScale() != 1000 {
		t.Errorf("GetDepthScale() = %f, want 1000", cfg.GetDepthScale())
	}
	if cfg.GetOctreeMaxDepth() != 8 {
		t.Errorf("GetOctreeMaxDepth() = %d, want 8", cfg.GetOctreeMaxDepth())
	}
	if cfg.GetDatabasePath() != "voxelcarve.db" {
		t.Errorf("GetDatabasePath() = %q, want voxelcarve.db", cfg.GetDatabasePath())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestMustLoadDefaultConfig_MatchesGetters(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	empty := EmptyCarveConfig()

	if cfg.GetDepthTolerance() != empty.GetDepthTolerance() {
		t.Errorf("depth_tolerance file=%g getter=%g", cfg.GetDepthTolerance(), empty.GetDepthTolerance())
	}
	if cfg.GetMaskThreshold() != empty.GetMaskThreshold() {
		t.Errorf("mask_threshold file=%g getter=%g", cfg.GetMaskThreshold(), empty.GetMaskThreshold())
	}
	if cfg.GetDepthScale() != empty.GetDepthScale() {
		t.Errorf("depth_scale file=%g getter=%g", cfg.GetDepthScale(), empty.GetDepthScale())
	}
	if cfg.GetOctreeMaxDepth() != empty.GetOctreeMaxDepth() {
		t.Errorf("octree_max_depth file=%d getter=%d", cfg.GetOctreeMaxDepth(), empty.GetOctreeMaxDepth())
	}
}

func TestLoadCarveConfig_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "carve.json")

	testJSON := `{
  "depth_tolerance": 0.005,
  "keep_outside_image": true,
  "workers": 4
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadCarveConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetDepthTolerance() != 0.005 {
		t.Errorf("GetDepthTolerance() = %g, want 0.005", cfg.GetDepthTolerance())
	}
	if !cfg.GetKeepOutsideImage() {
		t.Errorf("GetKeepOutsideImage() = false, want true")
	}
	if cfg.GetWorkers() != 4 {
		t.Errorf("GetWorkers() = %d, want 4", cfg.GetWorkers())
	}
	// Omitted fields fall back to defaults.
	if cfg.GetDepthScale() != 1000 {
		t.Errorf("GetDepthScale() = %g, want default 1000", cfg.GetDepthScale())
	}
}

func TestLoadCarveConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "carve.yaml")

	testYAML := "mask_threshold: 0.5\ndepth_scale: 5000\nplot_dir: plots\n"
	if err := os.WriteFile(configPath, []byte(testYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadCarveConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetMaskThreshold() != 0.5 {
		t.Errorf("GetMaskThreshold() = %g, want 0.5", cfg.GetMaskThreshold())
	}
	if cfg.GetDepthScale() != 5000 {
		t.Errorf("GetDepthScale() = %g, want 5000", cfg.GetDepthScale())
	}
	if cfg.GetPlotDir() != "plots" {
		t.Errorf("GetPlotDir() = %q, want plots", cfg.GetPlotDir())
	}
}

func TestLoadCarveConfig_Rejects(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "carve.txt", "{}", "extension"},
		{"bad json", "bad.json", "{not json", "parse"},
		{"negative tolerance", "neg.json", `{"depth_tolerance": -1}`, "depth_tolerance"},
		{"negative workers", "workers.yaml", "workers: -2\n", "workers"},
		{"zero depth scale", "scale.json", `{"depth_scale": 0}`, "depth_scale"},
		{"octree too deep", "deep.json", `{"octree_max_depth": 30}`, "octree_max_depth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}
			_, err := LoadCarveConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCarveConfig_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.json")
	big := make([]byte, maxFileSize+1)
	for i := range big {
		big[i] = ' '
	}
	if err := os.WriteFile(path, big, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	if _, err := LoadCarveConfig(path); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestLoadCarveConfig_Missing(t *testing.T) {
	if _, err := LoadCarveConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
