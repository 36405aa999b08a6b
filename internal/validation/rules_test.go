package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"file-uploader/internal/placement"
)

func TestRulesExtensionAndSize(t *testing.T) {
	rules := DefaultRules()
	ctx := context.Background()

	assert.NoError(t, rules.Validate(ctx, placement.UploadedFile{Name: "photo.JPG", Size: 1200}))
	assert.NoError(t, rules.Validate(ctx, placement.UploadedFile{Name: "doc.pdf", Size: DefaultMaxSize}))

	err := rules.Validate(ctx, placement.UploadedFile{Name: "virus.exe", Size: 10})
	require.ErrorIs(t, err, placement.ErrValidation)
	assert.Contains(t, err.Error(), "Extension 'exe' is not allowed.")

	err = rules.Validate(ctx, placement.UploadedFile{Name: "big.png", Size: DefaultMaxSize + 1})
	require.ErrorIs(t, err, placement.ErrValidation)
	assert.Contains(t, err.Error(), "File size exceeds limit of 5000000 bytes.")
}

func TestRulesEmptyAllowListAcceptsAnyExtension(t *testing.T) {
	rules := Rules{MaxSize: 10}
	assert.NoError(t, rules.Validate(context.Background(), placement.UploadedFile{Name: "x.anything", Size: 10}))
	assert.NoError(t, Rules{}.Validate(context.Background(), placement.UploadedFile{Name: "x", Size: 1 << 40}))
}

func TestRulesTolerateDottedConfig(t *testing.T) {
	rules := Rules{AllowedExtensions: []string{".PNG", " gif "}}
	assert.NoError(t, rules.Validate(context.Background(), placement.UploadedFile{Name: "a.png"}))
	assert.NoError(t, rules.Validate(context.Background(), placement.UploadedFile{Name: "a.gif"}))
}

func TestChainStopsAtFirstFailure(t *testing.T) {
	var calls []string
	step := func(name string, err error) placement.Validator {
		return placement.ValidatorFunc(func(context.Context, placement.UploadedFile) error {
			calls = append(calls, name)
			return err
		})
	}
	boom := errors.New("boom")

	err := Chain(step("a", nil), nil, step("b", boom), step("c", nil)).Validate(context.Background(), placement.UploadedFile{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestCheckAll(t *testing.T) {
	files := []placement.UploadedFile{
		{Name: "ok.jpg", Size: 1},
		{Name: "bad.exe", Size: 1},
		{Name: "huge.png", Size: DefaultMaxSize + 1},
	}
	rules := DefaultRules()

	err := CheckAll(context.Background(), files, rules, false)
	require.ErrorIs(t, err, placement.ErrValidation)
	assert.NotContains(t, err.Error(), "[bad.exe]")

	err = CheckAll(context.Background(), files, rules, true)
	require.ErrorIs(t, err, placement.ErrValidation)
	assert.Contains(t, err.Error(), "[bad.exe]: ")
	assert.Contains(t, err.Error(), "[huge.png]: ")
	assert.NotContains(t, err.Error(), "ok.jpg")

	assert.NoError(t, CheckAll(context.Background(), files[:1], rules, true))
}
