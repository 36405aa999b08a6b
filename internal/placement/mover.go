package placement

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"file-uploader/internal/shared/telemetry"
)

const filePerm = 0o644

// Provenance vouches for temp files produced by this process's upload intake.
type Provenance interface {
	// Owns reports whether path was ingested and not yet released.
	Owns(path string) bool
	// Release forgets path once it has been consumed.
	Release(path string)
}

// link is replaced in tests to force relocation failures.
var link = os.Link

// errDestinationTaken reports that the exclusive create lost a race.
var errDestinationTaken = errors.New("destination already exists")

// Mover relocates ingested temp files to their final path.
type Mover struct {
	Provenance Provenance
}

// Move links src to dst without ever replacing an existing dst, then removes
// src. On failure src is left untouched and dst is not created.
func (m Mover) Move(src, dst string) error {
	if m.Provenance == nil || !m.Provenance.Owns(src) {
		return fmt.Errorf("%w: %s", ErrSourceNotUploaded, filepath.Base(src))
	}
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("%w: temporary file does not exist", ErrSourceNotUploaded)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: temporary file is not a regular file", ErrSourceNotUploaded)
	}

	// A hard link never replaces dst. Cross-device links fail with ErrWrite.
	if err := link(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errDestinationTaken
		}
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := os.Chmod(dst, filePerm); err != nil {
		telemetry.Warn("upload.chmod_failed", map[string]any{"path": dst, "err": err.Error()})
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		telemetry.Warn("upload.temp_cleanup_failed", map[string]any{"path": src, "err": err.Error()})
	}
	m.Provenance.Release(src)
	return nil
}
