// Package security guards the file paths the carve command reads and writes.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// canonicalPath returns the absolute, symlink-resolved form of path. When
// path does not exist, the nearest existing ancestor is resolved and the
// remainder appended, so a new file under a symlinked directory still
// resolves to where it would really be written.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rel), nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return abs, nil
		}
	}
}

// ValidatePathWithinDirectory returns an error if filePath resolves outside
// safeDir, following symlinks on both sides. safeDir must exist.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	target, err := canonicalPath(filePath)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}
	root, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// ValidatePathsWithinDirectory checks every path against safeDir and
// reports the first escape.
func ValidatePathsWithinDirectory(paths []string, safeDir string) error {
	for _, p := range paths {
		if err := ValidatePathWithinDirectory(p, safeDir); err != nil {
			return err
		}
	}
	return nil
}

// SanitizeFilename makes a single path element from an arbitrary name such
// as a scene name. Characters other than ASCII letters, digits, dot,
// underscore and dash become one underscore per run. The result is at most
// 128 bytes and never empty.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
