package placement

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// MaxFilenameBytes is the longest name most filesystems accept.
const MaxFilenameBytes = 255

var (
	separatorRun         = regexp.MustCompile(`[\s\x0B-]+`)
	underscoreRun        = regexp.MustCompile(`_+`)
	generatedPrefix      = regexp.MustCompile(`^\d{14}_\d{3}_[0-9a-f]{16}-`)
	illegalFilenameChars = `/\:*?"<>|`
)

// SanitizeFilename turns whitespace and hyphen runs into a single underscore,
// collapses repeated underscores and trims underscores at both ends.
func SanitizeFilename(name string) string {
	s := separatorRun.ReplaceAllString(name, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Generator produces the default destination name:
//
//	YYYYMMDDhhmmss_mmm_<16 hex>-<sanitized base>[.<lowercased ext>]
//
// The timestamp keeps names sortable and the random block keeps them unique
// within a millisecond.
type Generator struct {
	Now  func() time.Time
	Rand io.Reader
}

// DefaultGenerator uses local wall-clock time and crypto/rand.
func DefaultGenerator() *Generator {
	return &Generator{Now: time.Now, Rand: rand.Reader}
}

// Filename implements FilenameStrategy.
func (g *Generator) Filename(original string) (string, error) {
	now := g.Now()

	var b [8]byte
	if _, err := io.ReadFull(g.Rand, b[:]); err != nil {
		return "", fmt.Errorf("generate random filename hash: %w", err)
	}

	prefix := fmt.Sprintf("%s_%03d_%s-",
		now.Format("20060102150405"),
		now.Nanosecond()/int(time.Millisecond),
		hex.EncodeToString(b[:]),
	)

	limit := MaxFilenameBytes - len(prefix)
	if len(original) > limit {
		return "", fmt.Errorf("%w: filename exceeds the maximum length of %d bytes", ErrFilenameTooLong, limit)
	}

	base, ext := splitExt(SanitizeFilename(lastSegment(original)))
	name := prefix + base
	if ext != "" {
		name += "." + strings.ToLower(ext)
	}
	return name, nil
}

// ValidateFilename rejects names that are empty, reserved, too long or carry
// separators, wildcard/quote/redirect characters or control characters.
func ValidateFilename(name string) error {
	switch name {
	case "", ".", "..":
		return fmt.Errorf("%w: filename cannot be empty or a reserved name like \".\" or \"..\"", ErrInvalidFilename)
	}
	illegal := strings.ContainsFunc(name, func(r rune) bool {
		return r < 0x20 || strings.ContainsRune(illegalFilenameChars, r)
	})
	if illegal {
		return fmt.Errorf("%w: filename contains illegal characters", ErrInvalidFilename)
	}
	if len(name) > MaxFilenameBytes {
		return fmt.Errorf("%w: %d bytes", ErrFilenameTooLong, len(name))
	}
	return nil
}

// RecoverOriginalName strips the generated prefix from stored. Names without
// the prefix are returned unchanged. Only the sanitized form of the original
// name can be recovered.
func RecoverOriginalName(stored string) string {
	original := generatedPrefix.ReplaceAllString(stored, "")
	if original == "" {
		return stored
	}
	return original
}

// splitExt splits at the last dot; the dot itself is dropped.
func splitExt(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// lastSegment drops any directory part a client sent along with the name.
func lastSegment(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
