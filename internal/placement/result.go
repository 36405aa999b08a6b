package placement

import (
	"path/filepath"
	"strings"
)

// BuildResult derives the public locator of path relative to root. The
// locator always starts with a slash, also when root is the filesystem root.
func BuildResult(root, path string) Result {
	root = strings.TrimRight(root, string(filepath.Separator))
	return Result{
		URL:  filepath.ToSlash(strings.TrimPrefix(path, root)),
		Path: path,
	}
}
