package validation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"file-uploader/internal/placement"
)

// DefaultMaxSize is the size limit used when none is configured.
const DefaultMaxSize int64 = 5_000_000

// DefaultExtensions is the extension allow list used when none is configured.
var DefaultExtensions = []string{"jpg", "png", "gif", "pdf"}

// Rules is a reusable extension and size check.
type Rules struct {
	AllowedExtensions []string
	MaxSize           int64
}

// DefaultRules returns Rules with the default allow list and limit.
func DefaultRules() Rules {
	return Rules{
		AllowedExtensions: append([]string(nil), DefaultExtensions...),
		MaxSize:           DefaultMaxSize,
	}
}

// Validate implements placement.Validator.
func (r Rules) Validate(ctx context.Context, file placement.UploadedFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Name), "."))
	if len(r.AllowedExtensions) > 0 && !containsFold(r.AllowedExtensions, ext) {
		return fmt.Errorf("%w: Extension '%s' is not allowed.", placement.ErrValidation, ext)
	}
	if r.MaxSize > 0 && file.Size > r.MaxSize {
		return fmt.Errorf("%w: File size exceeds limit of %d bytes.", placement.ErrValidation, r.MaxSize)
	}
	return nil
}

// Chain runs validators in order and stops at the first failure.
func Chain(validators ...placement.Validator) placement.Validator {
	return placement.ValidatorFunc(func(ctx context.Context, file placement.UploadedFile) error {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v.Validate(ctx, file); err != nil {
				return err
			}
		}
		return nil
	})
}

// CheckAll validates files before a batch is placed. Without collectAll the
// first failure is returned as is; otherwise every failure is joined, each
// prefixed with the file name.
func CheckAll(ctx context.Context, files []placement.UploadedFile, v placement.Validator, collectAll bool) error {
	var errs []error
	for _, f := range files {
		err := v.Validate(ctx, f)
		if err == nil {
			continue
		}
		if !collectAll {
			return err
		}
		errs = append(errs, fmt.Errorf("[%s]: %w", f.Name, err))
	}
	return errors.Join(errs...)
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(item), "."), v) {
			return true
		}
	}
	return false
}
