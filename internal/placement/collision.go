package placement

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const maxCollisionSuffix = 1 << 16

// ResolveCollision returns path when nothing exists there, otherwise the first
// free `<base>_N<.ext>` sibling, N counting from 1.
//
// The check is advisory: a concurrent writer may take the returned path before
// it is used. Mover creates the destination exclusively to catch that case.
func ResolveCollision(path string) (string, error) {
	dir := filepath.Dir(path)
	base, ext := splitExt(filepath.Base(path))

	candidate := path
	for n := 1; n <= maxCollisionSuffix; n++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
		if !taken {
			return candidate, nil
		}
		next := fmt.Sprintf("%s_%d", base, n)
		if ext != "" {
			next += "." + ext
		}
		candidate = filepath.Join(dir, next)
	}
	return "", fmt.Errorf("%w: no free name for %s", ErrWrite, filepath.Base(path))
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
