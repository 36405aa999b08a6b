package ingest

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"file-uploader/internal/placement"
	"file-uploader/internal/shared/telemetry"
)

func newTestSpool(t *testing.T, opts ...Option) *Spool {
	t.Helper()
	prev := telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(prev) })
	s, err := NewSpool(t.TempDir(), opts...)
	require.NoError(t, err)
	return s
}

type part struct {
	field, name, content string
}

func buildForm(t *testing.T, parts ...part) *multipart.Form {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	t.Cleanup(func() { _ = req.MultipartForm.RemoveAll() })
	return req.MultipartForm
}

func TestIngestRegistersOwnership(t *testing.T) {
	s := newTestSpool(t)

	file, err := s.Ingest("file", "a.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", file.Name)
	assert.Equal(t, "text/plain", file.MediaType)
	assert.EqualValues(t, 5, file.Size)
	assert.Equal(t, s.Dir(), filepath.Dir(file.TempPath))
	assert.True(t, s.Owns(file.TempPath))

	s.Release(file.TempPath)
	assert.False(t, s.Owns(file.TempPath))
}

func TestOwnsRejectsForeignPaths(t *testing.T) {
	s := newTestSpool(t)
	foreign := filepath.Join(t.TempDir(), "x")
	require.NoError(t, os.WriteFile(foreign, nil, 0o600))

	assert.False(t, s.Owns(foreign))
	assert.False(t, s.Owns(filepath.Join(s.Dir(), "upload-unknown")))
}

func TestIngestEmptyName(t *testing.T) {
	s := newTestSpool(t)
	_, err := s.Ingest("file", "", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, placement.ErrEmptyUpload)
}

func TestIngestSizeLimit(t *testing.T) {
	s := newTestSpool(t, WithMaxBytes(4))

	_, err := s.Ingest("file", "big.txt", "", strings.NewReader("12345"))
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeSizeExceeded, te.Code)
	assert.ErrorIs(t, err, placement.ErrUploadTransport)
	assert.Equal(t, "[big.txt]:The uploaded file exceeds the maximum allowed size.", err.Error())

	entries, readErr := os.ReadDir(s.Dir())
	require.NoError(t, readErr)
	assert.Empty(t, entries, "partial spool file must be removed")

	_, err = s.Ingest("file", "ok.txt", "", strings.NewReader("1234"))
	assert.NoError(t, err)
}

func TestIngestBlockedExtension(t *testing.T) {
	s := newTestSpool(t, WithBlockedExtensions(".PHP", "exe", " "))

	_, err := s.Ingest("file", "shell.php", "", strings.NewReader("<?php"))
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeExtensionBlocked, te.Code)

	_, err = s.Ingest("file", "notes", "", strings.NewReader("x"))
	assert.NoError(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestIngestReadFailureIsPartial(t *testing.T) {
	s := newTestSpool(t)

	_, err := s.Ingest("file", "a.txt", "", failingReader{})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodePartial, te.Code)
}

func TestIngestMaxBytesReaderIsSizeExceeded(t *testing.T) {
	s := newTestSpool(t)
	rec := httptest.NewRecorder()
	body := http.MaxBytesReader(rec, io.NopCloser(strings.NewReader("0123456789")), 3)

	_, err := s.Ingest("file", "a.txt", "", body)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeSizeExceeded, te.Code)
}

func TestSingleTakesFirstFile(t *testing.T) {
	s := newTestSpool(t)
	form := buildForm(t, part{"file", "a.txt", "a"}, part{"file", "b.txt", "b"})

	file, err := s.Single(form, "file")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", file.Name)

	_, err = s.Single(form, "missing")
	assert.ErrorIs(t, err, placement.ErrEmptyUpload)
	_, err = s.Single(nil, "file")
	assert.ErrorIs(t, err, placement.ErrEmptyUpload)
}

func TestManySkipsEmptyParts(t *testing.T) {
	s := newTestSpool(t)
	form := buildForm(t, part{"files", "a.txt", "a"}, part{"files", "", ""}, part{"files", "c.txt", "c"})

	files, err := s.Many(form, "files")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, "c.txt", files[1].Name)
}

func TestManyCollectsFailuresAndDiscards(t *testing.T) {
	s := newTestSpool(t, WithMaxBytes(2))
	form := buildForm(t, part{"files", "a.txt", "a"}, part{"files", "big.txt", "big"}, part{"files", "huge.txt", "huge"})

	files, err := s.Many(form, "files")
	assert.Nil(t, files)

	var errs TransportErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "[big.txt]:The uploaded file exceeds the maximum allowed size.\n[huge.txt]:The uploaded file exceeds the maximum allowed size.", err.Error())
	assert.ErrorIs(t, err, placement.ErrUploadTransport)

	entries, readErr := os.ReadDir(s.Dir())
	require.NoError(t, readErr)
	assert.Empty(t, entries, "already spooled files are discarded")
}

func TestDiscardOnlyRemovesOwnedFiles(t *testing.T) {
	s := newTestSpool(t)
	file, err := s.Ingest("file", "a.txt", "", strings.NewReader("a"))
	require.NoError(t, err)

	s.Release(file.TempPath)
	s.Discard(file)
	_, statErr := os.Stat(file.TempPath)
	assert.NoError(t, statErr, "released files are not the spool's to remove")

	other, err := s.Ingest("file", "b.txt", "", strings.NewReader("b"))
	require.NoError(t, err)
	s.Discard(other)
	_, statErr = os.Stat(other.TempPath)
	assert.True(t, os.IsNotExist(statErr))
	assert.False(t, s.Owns(other.TempPath))
}

func TestClassifyFormError(t *testing.T) {
	assert.Nil(t, ClassifyFormError("file", nil))
	assert.ErrorIs(t, ClassifyFormError("file", http.ErrNotMultipart), placement.ErrEmptyUpload)

	var te *TransportError
	require.ErrorAs(t, ClassifyFormError("file", &http.MaxBytesError{Limit: 10}), &te)
	assert.Equal(t, CodeSizeExceeded, te.Code)

	require.ErrorAs(t, ClassifyFormError("file", io.ErrUnexpectedEOF), &te)
	assert.Equal(t, CodePartial, te.Code)
}

func TestCodeMessages(t *testing.T) {
	assert.Equal(t, "No file was uploaded.", CodeNoFile.Message())
	assert.Equal(t, "Missing a temporary folder.", CodeNoTempDir.Message())
	assert.Equal(t, "Failed to write file to disk.", CodeCantWrite.Message())
	assert.Equal(t, "Unknown upload error.", Code(99).Message())
}
