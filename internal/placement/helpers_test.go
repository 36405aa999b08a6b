package placement

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"file-uploader/internal/shared/telemetry"
)

// fakeProvenance vouches for the paths it was told about.
type fakeProvenance struct {
	mu    sync.Mutex
	owned map[string]bool
}

func newFakeProvenance() *fakeProvenance {
	return &fakeProvenance{owned: map[string]bool{}}
}

func (p *fakeProvenance) Owns(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owned[filepath.Clean(path)]
}

func (p *fakeProvenance) Release(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.owned, filepath.Clean(path))
}

// spoolFile writes content into dir and registers it as ingested.
func (p *fakeProvenance) spoolFile(t *testing.T, dir, name, content string) UploadedFile {
	t.Helper()
	f, err := os.CreateTemp(dir, "upload-*")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	p.mu.Lock()
	p.owned[f.Name()] = true
	p.mu.Unlock()
	return UploadedFile{Name: name, TempPath: f.Name(), Size: int64(len(content))}
}

func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := CanonicalRoot(t.TempDir())
	require.NoError(t, err)
	return dir
}

func silenceLogs(t *testing.T) {
	t.Helper()
	prev := telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(prev) })
}
