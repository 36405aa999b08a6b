package placement

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"file-uploader/internal/shared/telemetry"
)

// maxPlaceAttempts bounds how often a lost exclusive-create race is retried.
const maxPlaceAttempts = 16

// Observer records the outcome of each placement.
type Observer interface {
	ObservePlacement(duration time.Duration, sizeBytes int64, err error)
}

type nopObserver struct{}

func (nopObserver) ObservePlacement(time.Duration, int64, error) {}

// Uploader places uploaded files under a trusted root.
type Uploader struct {
	roots     RootProvider
	mover     Mover
	generator FilenameStrategy
	observer  Observer
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithGenerator replaces the default filename generator.
func WithGenerator(g FilenameStrategy) Option {
	return func(u *Uploader) {
		if g != nil {
			u.generator = g
		}
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(u *Uploader) {
		if o != nil {
			u.observer = o
		}
	}
}

// New builds an Uploader. provenance decides which temp files may be moved.
func New(roots RootProvider, provenance Provenance, opts ...Option) *Uploader {
	u := &Uploader{
		roots:     roots,
		mover:     Mover{Provenance: provenance},
		generator: DefaultGenerator(),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload validates file, places it below the root as directed by uctx and
// returns its locator.
func (u *Uploader) Upload(ctx context.Context, file UploadedFile, uctx UploadContext) (Result, error) {
	start := time.Now()
	res, err := u.place(ctx, file, uctx)
	elapsed := time.Since(start)
	u.observer.ObservePlacement(elapsed, file.Size, err)

	if err != nil {
		telemetry.Error("upload.failed", map[string]any{
			"file_name":   file.Name,
			"size_bytes":  file.Size,
			"scope":       uctx.Scope,
			"kind":        Kind(err),
			"err":         err.Error(),
			"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
		})
		return Result{}, err
	}
	telemetry.Info("upload.placed", map[string]any{
		"file_name":   file.Name,
		"size_bytes":  file.Size,
		"scope":       uctx.Scope,
		"url":         res.URL,
		"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
	})
	return res, nil
}

func (u *Uploader) place(ctx context.Context, file UploadedFile, uctx UploadContext) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if file.Name == "" || file.TempPath == "" {
		return Result{}, ErrEmptyUpload
	}

	root, err := u.roots.Root()
	if err != nil {
		return Result{}, err
	}

	if uctx.Validator != nil {
		if err := uctx.Validator.Validate(ctx, file); err != nil {
			if errors.Is(err, ErrValidation) {
				return Result{}, err
			}
			return Result{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	// ResolveDir boundary checks both the planned and the canonical directory.
	dir, err := ResolveDir(root, uctx.BasePath, uctx.Subdir)
	if err != nil {
		return Result{}, err
	}

	strategy := uctx.Filename
	if strategy == nil {
		strategy = u.generator
	}
	name, err := strategy.Filename(file.Name)
	if err != nil {
		return Result{}, err
	}
	if err := ValidateFilename(name); err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	desired := filepath.Join(dir, name)
	for attempt := 1; ; attempt++ {
		target, err := ResolveCollision(desired)
		if err != nil {
			return Result{}, err
		}
		err = u.mover.Move(file.TempPath, target)
		if err == nil {
			return BuildResult(root, target), nil
		}
		if !errors.Is(err, errDestinationTaken) {
			return Result{}, err
		}
		if attempt >= maxPlaceAttempts {
			return Result{}, fmt.Errorf("%w: %s kept being taken", ErrWrite, filepath.Base(desired))
		}
	}
}

// UploadBatch places every file under the same context. All items are
// attempted. When any fails the result is nil and the error is a *BatchError
// that also lists the items stored before or after the failure.
func (u *Uploader) UploadBatch(ctx context.Context, files []UploadedFile, uctx UploadContext) ([]Result, error) {
	var (
		results  = make([]Result, 0, len(files))
		stored   []StoredItem
		failures []ItemFailure
	)
	for i, f := range files {
		res, err := u.Upload(ctx, f, uctx)
		if err != nil {
			failures = append(failures, ItemFailure{Index: i, Name: f.Name, Kind: Kind(err), Err: err})
			continue
		}
		results = append(results, res)
		stored = append(stored, StoredItem{Index: i, Name: f.Name, Result: res})
	}
	if len(failures) > 0 {
		return nil, &BatchError{Failures: failures, Stored: stored}
	}
	return results, nil
}
