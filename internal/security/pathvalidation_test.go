package security

import (
	"os"
	"path/filepath"
	"testing"
)

// sceneBundle lays out a scene directory with a views/ subdirectory and a
// symlink pointing outside it.
func sceneBundle(t *testing.T) (root, sceneDir, outside, link string) {
	t.Helper()
	root = t.TempDir()
	sceneDir = filepath.Join(root, "scene")
	outside = filepath.Join(root, "outside")
	for _, d := range []string{filepath.Join(sceneDir, "views"), outside} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
	if err := os.WriteFile(filepath.Join(outside, "cam.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}
	link = filepath.Join(sceneDir, "shared")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	return root, sceneDir, outside, link
}

func TestValidatePathWithinDirectory(t *testing.T) {
	_, sceneDir, outside, link := sceneBundle(t)

	tests := []struct {
		name      string
		filePath  string
		wantError bool
	}{
		{"view file in scene dir", filepath.Join(sceneDir, "front.json"), false},
		{"nested view file", filepath.Join(sceneDir, "views", "front_mask.png"), false},
		{"file not yet written in new subdir", filepath.Join(sceneDir, "new", "depth.png"), false},
		{"scene dir itself", sceneDir, false},
		{"dot-dot escape", filepath.Join(sceneDir, "..", "outside", "cam.json"), true},
		{"relative escape", "../../../etc/passwd", true},
		{"absolute path elsewhere", filepath.Join(outside, "cam.json"), true},
		{"through symlink to outside", filepath.Join(link, "cam.json"), true},
		{"symlink itself", link, true},
		{"new file under symlink", filepath.Join(link, "new.png"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, sceneDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidatePathWithinDirectory_MissingSafeDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	if err := ValidatePathWithinDirectory(filepath.Join(dir, "a.png"), dir); err == nil {
		t.Error("expected error for missing safe directory")
	}
}

func TestValidatePathsWithinDirectory(t *testing.T) {
	_, sceneDir, outside, _ := sceneBundle(t)

	ok := []string{filepath.Join(sceneDir, "a.json"), filepath.Join(sceneDir, "views", "b.png")}
	if err := ValidatePathsWithinDirectory(ok, sceneDir); err != nil {
		t.Errorf("ValidatePathsWithinDirectory() unexpected error: %v", err)
	}

	bad := append(ok, filepath.Join(outside, "cam.json"))
	if err := ValidatePathsWithinDirectory(bad, sceneDir); err == nil {
		t.Error("expected error when one path escapes")
	}

	if err := ValidatePathsWithinDirectory(nil, sceneDir); err != nil {
		t.Errorf("empty path list should pass, got %v", err)
	}
}
