package placement

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RootProvider resolves the trusted root all destinations must stay under.
type RootProvider interface {
	Root() (string, error)
}

// StaticRoot is a RootProvider backed by a configured directory.
// The directory is canonicalized on every call so a swapped symlink is noticed.
type StaticRoot string

func (r StaticRoot) Root() (string, error) {
	return CanonicalRoot(string(r))
}

// CanonicalRoot returns the absolute, symlink-free form of dir.
// dir must exist and be a directory.
func CanonicalRoot(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("%w: root is not set", ErrRoot)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoot, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoot, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrRoot, resolved)
	}
	return resolved, nil
}
