package placement

import "context"

// UploadedFile describes a freshly received file sitting in temporary storage.
type UploadedFile struct {
	Name      string
	MediaType string
	TempPath  string
	Size      int64
}

// Result is where a placed file ended up. Root + URL reproduces Path.
type Result struct {
	URL  string
	Path string
}

// Validator checks a file before it is placed.
type Validator interface {
	Validate(ctx context.Context, file UploadedFile) error
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc func(ctx context.Context, file UploadedFile) error

func (f ValidatorFunc) Validate(ctx context.Context, file UploadedFile) error {
	return f(ctx, file)
}

// FilenameStrategy maps an original name to the desired destination name.
type FilenameStrategy interface {
	Filename(original string) (string, error)
}

// FilenameFunc adapts a plain function to FilenameStrategy.
type FilenameFunc func(original string) (string, error)

func (f FilenameFunc) Filename(original string) (string, error) {
	return f(original)
}

// UploadContext carries the per-call placement settings.
type UploadContext struct {
	// BasePath is joined under the trusted root when relative.
	BasePath string
	Subdir   string
	// Scope tags multi-step uploads; the pipeline itself ignores it.
	Scope     string
	Validator Validator
	// Filename overrides the default generated name. Its output is still validated.
	Filename FilenameStrategy
	Options  map[string]any
}
