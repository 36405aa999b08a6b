package placement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirCreatesNestedDirectory(t *testing.T) {
	root := canonicalTempDir(t)

	dir, err := ResolveDir(root, "uploads/", "/avatars/2024/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "avatars", "2024"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveDirAcceptsAbsoluteBaseInsideRoot(t *testing.T) {
	root := canonicalTempDir(t)

	dir, err := ResolveDir(root, filepath.Join(root, "media"), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "media"), dir)
}

func TestResolveDirRejectsTraversalWithoutCreatingAnything(t *testing.T) {
	parent := canonicalTempDir(t)
	root := filepath.Join(parent, "public")
	require.NoError(t, os.Mkdir(root, 0o755))

	_, err := ResolveDir(root, "uploads", "../../etc")
	require.ErrorIs(t, err, ErrPathTraversal)

	_, statErr := os.Stat(filepath.Join(parent, "etc"))
	assert.True(t, os.IsNotExist(statErr), "traversal target must not be created")
	_, statErr = os.Stat(filepath.Join(root, "uploads"))
	assert.True(t, os.IsNotExist(statErr), "no directory may be created on failure")
}

func TestResolveDirRejectsAbsoluteBaseOutsideRoot(t *testing.T) {
	root := canonicalTempDir(t)
	outside := canonicalTempDir(t)

	_, err := ResolveDir(root, outside, "x")
	require.ErrorIs(t, err, ErrPathTraversal)
}

func TestResolveDirRejectsSymlinkEscape(t *testing.T) {
	root := canonicalTempDir(t)
	outside := canonicalTempDir(t)
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))

	_, err := ResolveDir(root, "escape", "nested")
	require.ErrorIs(t, err, ErrPathTraversal)

	_, statErr := os.Stat(filepath.Join(outside, "nested"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestResolveDirFailsWhenPathIsAFile(t *testing.T) {
	root := canonicalTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads"), []byte("x"), 0o644))

	_, err := ResolveDir(root, "uploads", "")
	require.ErrorIs(t, err, ErrDirectory)
}

func TestCheckBoundary(t *testing.T) {
	tests := []struct {
		name string
		root string
		dir  string
		ok   bool
	}{
		{name: "root itself", root: "/srv/app", dir: "/srv/app", ok: true},
		{name: "child", root: "/srv/app", dir: "/srv/app/uploads/a", ok: true},
		{name: "sibling with shared prefix", root: "/srv/app", dir: "/srv/app2", ok: false},
		{name: "parent", root: "/srv/app", dir: "/srv", ok: false},
		{name: "elsewhere", root: "/srv/app", dir: "/etc", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBoundary(filepath.FromSlash(tt.root), filepath.FromSlash(tt.dir))
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrPathTraversal)
			}
		})
	}
}

func TestCanonicalRootRejectsMissingAndFiles(t *testing.T) {
	dir := canonicalTempDir(t)

	_, err := CanonicalRoot(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrRoot)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = CanonicalRoot(file)
	assert.ErrorIs(t, err, ErrRoot)

	_, err = StaticRoot("").Root()
	assert.ErrorIs(t, err, ErrRoot)
}
