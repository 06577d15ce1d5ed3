package clipclean

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func batchTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes", "old"), 0o755))
	writeFile(t, filepath.Join(dir, "a.txt"), "  spaced   out  ")
	writeFile(t, filepath.Join(dir, "notes", "b.txt"), "already clean")
	writeFile(t, filepath.Join(dir, "notes", "old", "c.txt"), "tab\there")
	writeFile(t, filepath.Join(dir, "notes", "skip.md"), "  not matched  ")
	return dir
}

func TestApplyPresetToFiles(t *testing.T) {
	dir := batchTree(t)
	preset := NewPreset("Tidy", "", NewStep(0, ModeNormalizeWhitespace))

	results, err := ApplyPresetToFiles(testContext(t), preset, []string{
		filepath.Join(dir, "**", "*.txt"),
		filepath.Join(dir, "a.txt"),
	}, BatchOptions{Concurrency: 2})
	require.NoError(t, err)

	require.Len(t, results, 3, "duplicate matches are processed once")
	assert.Equal(t, FileResult{Path: filepath.Join(dir, "a.txt"), Changed: true, Output: "spaced out"}, results[0])
	assert.Equal(t, FileResult{Path: filepath.Join(dir, "notes", "b.txt"), Changed: false, Output: "already clean"}, results[1])
	assert.Equal(t, FileResult{Path: filepath.Join(dir, "notes", "old", "c.txt"), Changed: true, Output: "tab here"}, results[2])

	// Without InPlace nothing is written
	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "  spaced   out  ", string(data))
}

func TestApplyPresetToFilesInPlace(t *testing.T) {
	dir := batchTree(t)
	path := filepath.Join(dir, "notes", "old", "c.txt")
	require.NoError(t, os.Chmod(path, 0o600))

	preset := NewPreset("Upper", "", NewStep(0, ModeToUpper))
	results, err := ApplyPresetToFiles(testContext(t), preset, []string{filepath.Join(dir, "notes", "**", "c.txt")}, BatchOptions{InPlace: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "TAB\tHERE", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestApplyPresetToFilesErrors(t *testing.T) {
	_, err := ApplyPresetToFiles(testContext(t), nil, []string{"*.txt"}, BatchOptions{})
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	preset := NewPreset("Noop", "")
	_, err = ApplyPresetToFiles(testContext(t), preset, []string{"[unclosed"}, BatchOptions{})
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	results, err := ApplyPresetToFiles(testContext(t), preset, []string{filepath.Join(t.TempDir(), "*.none")}, BatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
