package placement

import (
	"bytes"
	"crypto/rand"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedName = regexp.MustCompile(`^\d{14}_\d{3}_[0-9a-f]{16}-`)

func fixedClock() time.Time {
	return time.Date(2024, time.March, 5, 14, 7, 9, 42*int(time.Millisecond), time.UTC)
}

func TestGeneratorFormat(t *testing.T) {
	g := &Generator{Now: fixedClock, Rand: bytes.NewReader(bytes.Repeat([]byte{0xab}, 8))}

	name, err := g.Filename("My Photo.JPG")
	require.NoError(t, err)
	assert.Equal(t, "20240305140709_042_abababababababab-My_Photo.jpg", name)
}

func TestGeneratorSanitizes(t *testing.T) {
	tests := []struct {
		original string
		suffix   string
	}{
		{original: "annual - report  final.PDF", suffix: "-annual_report_final.pdf"},
		{original: "__a__b__.txt", suffix: "-a_b_.txt"},
		{original: "no_extension", suffix: "-no_extension"},
		{original: "archive.tar.GZ", suffix: "-archive.tar.gz"},
		{original: `C:\fakepath\scan.png`, suffix: "-scan.png"},
		{original: "../../etc/passwd", suffix: "-passwd"},
	}
	g := DefaultGenerator()
	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			name, err := g.Filename(tt.original)
			require.NoError(t, err)
			assert.True(t, generatedName.MatchString(name), name)
			assert.True(t, strings.HasSuffix(name, tt.suffix), name)
			assert.NoError(t, ValidateFilename(name))
		})
	}
}

func TestGeneratorUniqueWithinSameMillisecond(t *testing.T) {
	g := &Generator{Now: fixedClock, Rand: rand.Reader}
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		name, err := g.Filename("a.jpg")
		require.NoError(t, err)
		_, dup := seen[name]
		require.False(t, dup, "duplicate name %s", name)
		seen[name] = struct{}{}
	}
}

func TestGeneratorRejectsLongNames(t *testing.T) {
	g := DefaultGenerator()
	prefixLen := len("20240305140709_042_abababababababab-")

	_, err := g.Filename(strings.Repeat("a", MaxFilenameBytes-prefixLen+1))
	assert.ErrorIs(t, err, ErrFilenameTooLong)

	name, err := g.Filename(strings.Repeat("a", MaxFilenameBytes-prefixLen))
	require.NoError(t, err)
	assert.Len(t, name, MaxFilenameBytes)
}

func TestGeneratorRandomFailure(t *testing.T) {
	g := &Generator{Now: fixedClock, Rand: bytes.NewReader(nil)}
	_, err := g.Filename("a.jpg")
	assert.Error(t, err)
}

func TestValidateFilename(t *testing.T) {
	invalid := []string{"", ".", "..", "a/b", `a\b`, "a:b", "a*b", "a?b", `a"b`, "a<b", "a>b", "a|b", "a\x00b", "tab\there", "new\nline"}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateFilename(name), ErrInvalidFilename, "%q", name)
	}

	assert.ErrorIs(t, ValidateFilename(strings.Repeat("x", MaxFilenameBytes+1)), ErrFilenameTooLong)
	assert.NoError(t, ValidateFilename(strings.Repeat("x", MaxFilenameBytes)))
	assert.NoError(t, ValidateFilename("résumé final.pdf"))
}

func TestRecoverOriginalName(t *testing.T) {
	g := DefaultGenerator()
	name, err := g.Filename("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", RecoverOriginalName(name))

	assert.Equal(t, "My_Photo.jpg", RecoverOriginalName("20240305140709_042_abababababababab-My_Photo.jpg"))
	assert.Equal(t, "plain.txt", RecoverOriginalName("plain.txt"))
	assert.Equal(t, "20240305140709_042_abababababababab-", RecoverOriginalName("20240305140709_042_abababababababab-"))
	assert.Equal(t, "2024_042_abababababababab-x", RecoverOriginalName("2024_042_abababababababab-x"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename(" a - b\t\vc "))
	assert.Equal(t, "x", SanitizeFilename("__x__"))
	assert.Equal(t, "", SanitizeFilename("---"))
}
