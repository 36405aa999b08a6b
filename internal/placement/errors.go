package placement

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyUpload       = errors.New("no file was uploaded")
	ErrUploadTransport   = errors.New("upload transport failed")
	ErrDirectory         = errors.New("cannot create directory")
	ErrInvalidPath       = errors.New("invalid destination path")
	ErrPathTraversal     = errors.New("upload path exceeds the access range")
	ErrInvalidFilename   = errors.New("invalid filename")
	ErrFilenameTooLong   = errors.New("filename too long")
	ErrSourceNotUploaded = errors.New("source is not an uploaded file")
	ErrWrite             = errors.New("cannot write file to disk")
	ErrValidation        = errors.New("validation failed")
	ErrRoot              = errors.New("invalid trusted root")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrEmptyUpload, "empty_upload"},
	{ErrUploadTransport, "upload_transport"},
	{ErrDirectory, "directory"},
	{ErrInvalidPath, "invalid_path"},
	{ErrPathTraversal, "path_traversal"},
	{ErrInvalidFilename, "invalid_filename"},
	{ErrFilenameTooLong, "filename_too_long"},
	{ErrSourceNotUploaded, "source_not_uploaded"},
	{ErrWrite, "write"},
	{ErrValidation, "validation"},
	{ErrRoot, "root"},
}

// Kind returns a stable identifier for the placement error wrapped by err,
// or "internal" when err is not one of the package sentinels.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// ItemFailure describes one failed item of a batch.
type ItemFailure struct {
	Index int
	Name  string
	Kind  string
	Err   error
}

func (f ItemFailure) Error() string {
	return fmt.Sprintf("[%s]: %v", f.Name, f.Err)
}

func (f ItemFailure) Unwrap() error { return f.Err }

// StoredItem is a batch item that was placed.
type StoredItem struct {
	Index int
	Name  string
	Result
}

// BatchError is returned by UploadBatch when at least one item failed.
// Stored lists the items that were placed anyway; their files stay on disk.
type BatchError struct {
	Failures []ItemFailure
	Stored   []StoredItem
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
