package ingest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"file-uploader/internal/placement"
)

// Code classifies why the transport could not deliver a file.
type Code int

const (
	CodeSizeExceeded Code = iota + 1
	CodePartial
	CodeNoFile
	CodeNoTempDir
	CodeCantWrite
	CodeExtensionBlocked
)

// Message returns the human readable cause for c.
func (c Code) Message() string {
	switch c {
	case CodeSizeExceeded:
		return "The uploaded file exceeds the maximum allowed size."
	case CodePartial:
		return "The uploaded file was only partially uploaded."
	case CodeNoFile:
		return "No file was uploaded."
	case CodeNoTempDir:
		return "Missing a temporary folder."
	case CodeCantWrite:
		return "Failed to write file to disk."
	case CodeExtensionBlocked:
		return "File extension is blocked."
	default:
		return "Unknown upload error."
	}
}

// TransportError is a failure reported while receiving one file.
type TransportError struct {
	Field    string
	FileName string
	Code     Code
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("[%s]:%s", e.FileName, e.Code.Message())
}

// Unwrap lets errors.Is match placement.ErrUploadTransport.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{placement.ErrUploadTransport}
	}
	return []error{placement.ErrUploadTransport, e.Err}
}

// TransportErrors aggregates the failures of a multi-file field.
type TransportErrors []*TransportError

func (es TransportErrors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

func (es TransportErrors) Unwrap() []error {
	out := make([]error, 0, len(es))
	for _, e := range es {
		out = append(out, e)
	}
	return out
}

// ClassifyFormError maps a multipart parsing failure to the upload taxonomy.
func ClassifyFormError(field string, err error) error {
	if err == nil {
		return nil
	}
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return &TransportError{Field: field, FileName: field, Code: CodeSizeExceeded, Err: err}
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary), errors.Is(err, http.ErrMissingFile):
		return fmt.Errorf("%w: the input '%s' was not found", placement.ErrEmptyUpload, field)
	default:
		return &TransportError{Field: field, FileName: field, Code: CodePartial, Err: err}
	}
}
