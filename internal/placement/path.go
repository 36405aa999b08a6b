package placement

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const dirPerm = 0o755

// ResolveDir builds the destination directory for basePath and subdir under
// the canonical root, creates it when missing and returns its canonical form.
//
// The not-yet-existing path is boundary checked before anything is created,
// and the canonical path is checked again afterwards.
func ResolveDir(root, basePath, subdir string) (string, error) {
	dir := strings.TrimRight(basePath, "/")
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	if sub := strings.Trim(subdir, "/"); sub != "" {
		dir = filepath.Join(dir, sub)
	}
	dir = filepath.Clean(dir)

	planned, err := resolveExisting(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if err := CheckBoundary(root, planned); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDirectory, dir, err)
	}

	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	canonical, err = filepath.Abs(canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if err := CheckBoundary(root, canonical); err != nil {
		return "", err
	}
	return canonical, nil
}

// CheckBoundary fails with ErrPathTraversal unless dir is root or lies below it.
// Both paths must already be canonical. Comparison is per path segment, so
// /srv/app2 is not inside /srv/app.
func CheckBoundary(root, dir string) error {
	rel, err := filepath.Rel(root, dir)
	if err != nil || !(rel == "." || filepath.IsLocal(rel)) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, dir)
	}
	return nil
}

// resolveExisting resolves symlinks in the deepest existing ancestor of path
// and re-appends the missing tail.
func resolveExisting(path string) (string, error) {
	var tail []string
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}
