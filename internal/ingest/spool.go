package ingest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"file-uploader/internal/placement"
	"file-uploader/internal/shared/telemetry"
)

// Spool receives upload bodies into a private temp directory and remembers
// every file it wrote. It is the placement.Provenance for the Mover: only
// files spooled here can be placed.
type Spool struct {
	dir      string
	maxBytes int64
	blocked  map[string]struct{}

	mu    sync.Mutex
	owned map[string]struct{}
}

// Option configures a Spool.
type Option func(*Spool)

// WithMaxBytes rejects files larger than n bytes. Zero disables the limit.
func WithMaxBytes(n int64) Option {
	return func(s *Spool) { s.maxBytes = n }
}

// WithBlockedExtensions refuses files whose extension is listed, e.g. "exe" or ".php".
func WithBlockedExtensions(exts ...string) Option {
	return func(s *Spool) {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				s.blocked[ext] = struct{}{}
			}
		}
	}
}

// NewSpool creates dir when missing.
func NewSpool(dir string, opts ...Option) (*Spool, error) {
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "file-uploader")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve spool dir: %w", err)
	}
	canonical, err = filepath.Abs(canonical)
	if err != nil {
		return nil, fmt.Errorf("resolve spool dir: %w", err)
	}
	s := &Spool{
		dir:     canonical,
		blocked: make(map[string]struct{}),
		owned:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the canonical spool directory.
func (s *Spool) Dir() string { return s.dir }

// Ingest copies r into a new spool file.
func (s *Spool) Ingest(field, name, mediaType string, r io.Reader) (placement.UploadedFile, error) {
	if name == "" {
		return placement.UploadedFile{}, fmt.Errorf("%w: no file was uploaded for '%s'", placement.ErrEmptyUpload, field)
	}
	fail := func(code Code, err error) (placement.UploadedFile, error) {
		return placement.UploadedFile{}, &TransportError{Field: field, FileName: name, Code: code, Err: err}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, ok := s.blocked[ext]; ok && ext != "" {
		return fail(CodeExtensionBlocked, nil)
	}

	f, err := os.CreateTemp(s.dir, "upload-*")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(CodeNoTempDir, err)
		}
		return fail(CodeCantWrite, err)
	}
	path := f.Name()

	src := &trackingReader{r: r}
	var body io.Reader = src
	if s.maxBytes > 0 {
		body = io.LimitReader(src, s.maxBytes+1)
	}
	n, copyErr := io.Copy(f, body)
	closeErr := f.Close()

	switch {
	case src.err != nil:
		_ = os.Remove(path)
		var maxErr *http.MaxBytesError
		if errors.As(src.err, &maxErr) {
			return fail(CodeSizeExceeded, src.err)
		}
		return fail(CodePartial, src.err)
	case copyErr != nil:
		_ = os.Remove(path)
		return fail(CodeCantWrite, copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return fail(CodeCantWrite, closeErr)
	case s.maxBytes > 0 && n > s.maxBytes:
		_ = os.Remove(path)
		return fail(CodeSizeExceeded, nil)
	}

	s.mu.Lock()
	s.owned[path] = struct{}{}
	s.mu.Unlock()

	return placement.UploadedFile{
		Name:      name,
		MediaType: mediaType,
		TempPath:  path,
		Size:      n,
	}, nil
}

// Single spools the first file of field.
func (s *Spool) Single(form *multipart.Form, field string) (placement.UploadedFile, error) {
	headers := formFiles(form, field)
	if headers == nil {
		return placement.UploadedFile{}, fmt.Errorf("%w: the input '%s' was not found", placement.ErrEmptyUpload, field)
	}
	return s.ingestHeader(field, headers[0])
}

// Many spools every file of field, skipping empty parts. When any part fails
// the files already spooled are discarded and all failures are returned.
func (s *Spool) Many(form *multipart.Form, field string) ([]placement.UploadedFile, error) {
	headers := formFiles(form, field)
	if headers == nil {
		return nil, fmt.Errorf("%w: the input '%s' was not found", placement.ErrEmptyUpload, field)
	}

	var (
		files []placement.UploadedFile
		errs  TransportErrors
	)
	for _, fh := range headers {
		if fh == nil || fh.Filename == "" {
			continue
		}
		file, err := s.ingestHeader(field, fh)
		if err != nil {
			var te *TransportError
			if errors.As(err, &te) {
				errs = append(errs, te)
				continue
			}
			s.Discard(files...)
			return nil, err
		}
		files = append(files, file)
	}
	if len(errs) > 0 {
		s.Discard(files...)
		return nil, errs
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no file was uploaded for '%s'", placement.ErrEmptyUpload, field)
	}
	return files, nil
}

func (s *Spool) ingestHeader(field string, fh *multipart.FileHeader) (placement.UploadedFile, error) {
	if fh.Filename == "" {
		return placement.UploadedFile{}, fmt.Errorf("%w: no file was uploaded for '%s'", placement.ErrEmptyUpload, field)
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return placement.UploadedFile{}, &TransportError{Field: field, FileName: fh.Filename, Code: CodeSizeExceeded}
	}
	src, err := fh.Open()
	if err != nil {
		return placement.UploadedFile{}, &TransportError{Field: field, FileName: fh.Filename, Code: CodePartial, Err: err}
	}
	defer src.Close()
	return s.Ingest(field, fh.Filename, fh.Header.Get("Content-Type"), src)
}

// Owns implements placement.Provenance.
func (s *Spool) Owns(path string) bool {
	clean := filepath.Clean(path)
	if filepath.Dir(clean) != s.dir {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.owned[clean]
	return ok
}

// Release implements placement.Provenance.
func (s *Spool) Release(path string) {
	s.mu.Lock()
	delete(s.owned, filepath.Clean(path))
	s.mu.Unlock()
}

// Discard removes spooled files that were never placed.
func (s *Spool) Discard(files ...placement.UploadedFile) {
	for _, f := range files {
		if !s.Owns(f.TempPath) {
			continue
		}
		if err := os.Remove(f.TempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			telemetry.Warn("ingest.discard_failed", map[string]any{"path": f.TempPath, "err": err.Error()})
		}
		s.Release(f.TempPath)
	}
}

func formFiles(form *multipart.Form, field string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil
	}
	return headers
}

// trackingReader remembers read-side failures so they are not mistaken for
// write failures on the spool file.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}

var _ placement.Provenance = (*Spool)(nil)
