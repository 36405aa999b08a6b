package validation

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"file-uploader/internal/placement"
)

const mimePDF = "application/pdf"

// ContentType sniffs the spooled bytes and checks them against an allow list.
// With MatchDeclared the declared media type must agree with the content too.
type ContentType struct {
	Allowed       []string
	MatchDeclared bool
}

// Validate implements placement.Validator.
func (c ContentType) Validate(ctx context.Context, file placement.UploadedFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	detected, err := mimetype.DetectFile(file.TempPath)
	if err != nil {
		return fmt.Errorf("%w: cannot read uploaded content: %v", placement.ErrValidation, err)
	}

	if len(c.Allowed) > 0 && !matchesAny(detected, c.Allowed) {
		return fmt.Errorf("%w: Content type '%s' is not allowed.", placement.ErrValidation, detected.String())
	}
	if c.MatchDeclared && file.MediaType != "" {
		declared, _, err := mime.ParseMediaType(file.MediaType)
		if err != nil || !matchesAny(detected, []string{declared}) {
			return fmt.Errorf("%w: Declared type '%s' does not match content '%s'.", placement.ErrValidation, file.MediaType, detected.String())
		}
	}
	return nil
}

// Detect returns the sniffed media type of the file at path, or "" when it
// cannot be read.
func Detect(path string) string {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	return detected.String()
}

func matchesAny(detected *mimetype.MIME, allowed []string) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(strings.TrimSpace(a)) {
				return true
			}
		}
	}
	return false
}

// PDF rejects files presented as PDF that do not parse into at least one page.
// Other files pass untouched.
type PDF struct{}

// Validate implements placement.Validator.
func (PDF) Validate(ctx context.Context, file placement.UploadedFile) (err error) {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !presentedAsPDF(file) {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: File is not a valid PDF document.", placement.ErrValidation)
		}
	}()

	f, r, openErr := pdf.Open(file.TempPath)
	if openErr != nil {
		return fmt.Errorf("%w: File is not a valid PDF document.", placement.ErrValidation)
	}
	defer f.Close()

	if r.NumPage() == 0 {
		return fmt.Errorf("%w: PDF document has no pages.", placement.ErrValidation)
	}
	return nil
}

func presentedAsPDF(file placement.UploadedFile) bool {
	if strings.EqualFold(filepath.Ext(file.Name), ".pdf") {
		return true
	}
	declared, _, err := mime.ParseMediaType(file.MediaType)
	return err == nil && declared == mimePDF
}

// ContentTypesFor maps extensions to the media types content sniffing should
// accept. ok is false when some extension has no known media type, in which
// case sniffing cannot enforce the list.
func ContentTypesFor(exts []string) (types []string, ok bool) {
	ok = true
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		full := mime.TypeByExtension("." + ext)
		if full == "" {
			ok = false
			continue
		}
		mediaType, _, err := mime.ParseMediaType(full)
		if err != nil {
			ok = false
			continue
		}
		types = append(types, mediaType)
	}
	return types, ok && len(types) > 0
}
