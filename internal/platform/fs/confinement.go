// Package fs confines media paths to configured roots.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideRoots is returned when a path resolves outside every allowed root.
	ErrOutsideRoots = errors.New("path outside allowed roots")

	// ErrNotRegular is returned for directories, devices and other non-files.
	ErrNotRegular = errors.New("not a regular file")
)

// ConfineAbsPath ensures that target is physically underneath the resolved path of root.
// The target must be absolute. Symlinks are resolved before the check.
func ConfineAbsPath(root, target string) (string, error) {
	if strings.Contains(target, "\\") {
		return "", fmt.Errorf("path contains backslash: %s", target)
	}
	if !filepath.IsAbs(target) {
		return "", fmt.Errorf("target path must be absolute: %s", target)
	}

	realRoot, err := resolveRoot(root)
	if err != nil {
		return "", err
	}
	realPath, err := resolveTarget(filepath.Clean(target))
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoots, realPath)
	}
	return realPath, nil
}

// ConfineToRoots returns the resolved target when it lies under any of roots.
// Empty and missing roots are skipped.
func ConfineToRoots(roots []string, target string) (string, error) {
	for _, root := range roots {
		if root == "" {
			continue
		}
		if p, err := ConfineAbsPath(root, target); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrOutsideRoots, target)
}

func resolveRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		return absRoot, nil
	}
	return realRoot, nil
}

// resolveTarget follows symlinks of an existing path, or of its parent for a
// path that does not exist yet.
func resolveTarget(fullPath string) (string, error) {
	if _, err := os.Lstat(fullPath); err == nil {
		rp, err := filepath.EvalSymlinks(fullPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		return rp, nil
	}

	dir := filepath.Dir(fullPath)
	rp, err := filepath.EvalSymlinks(dir)
	if err == nil {
		return filepath.Join(rp, filepath.Base(fullPath)), nil
	}
	if _, statErr := os.Stat(dir); statErr == nil {
		return "", fmt.Errorf("failed to resolve parent path: %w", err)
	}
	return fullPath, nil
}

// IsRegularFile checks if path exists and is a regular file.
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return nil
}
