package formatter

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWalker(includeTxt bool, excludes []string) *walker {
	return newWalker(includeTxt, excludes, slog.NewTextHandler(io.Discard, nil))
}

// touchFile is a local stand-in for the testutil helper: testutil imports
// this package for its mocks, so an in-package test cannot import it back.
func touchFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestWalkerDiscoversKnownExtensions(t *testing.T) {
	dir := t.TempDir()
	touchFile(t, filepath.Join(dir, "a.py"))
	touchFile(t, filepath.Join(dir, "b.pyi"))
	touchFile(t, filepath.Join(dir, "c.md"))
	touchFile(t, filepath.Join(dir, "d.markdown"))
	touchFile(t, filepath.Join(dir, "e.txt"))
	touchFile(t, filepath.Join(dir, "f.exe"))

	files, err := newTestWalker(false, nil).discover([]string{dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "b.pyi"),
		filepath.Join(dir, "c.md"),
		filepath.Join(dir, "d.markdown"),
	}, files)
}

func TestWalkerIncludeTxtOptIn(t *testing.T) {
	dir := t.TempDir()
	touchFile(t, filepath.Join(dir, "notes.txt"))

	files, err := newTestWalker(true, nil).discover([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, files)
}

func TestWalkerPrunesExcludedDirectories(t *testing.T) {
	dir := t.TempDir()
	touchFile(t, filepath.Join(dir, "keep.py"))
	touchFile(t, filepath.Join(dir, ".venv", "lib", "skip.py"))
	touchFile(t, filepath.Join(dir, "build", "skip.py"))

	files, err := newTestWalker(false, DefaultExcludes).discover([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "keep.py")}, files)
}

func TestWalkerExplicitFileTakenAsGiven(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tool.notpy")
	touchFile(t, path)

	files, err := newTestWalker(false, nil).discover([]string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestWalkerGlobExpansion(t *testing.T) {
	dir := t.TempDir()
	touchFile(t, filepath.Join(dir, "one.py"))
	touchFile(t, filepath.Join(dir, "two.py"))
	touchFile(t, filepath.Join(dir, "three.md"))

	files, err := newTestWalker(false, nil).discover([]string{filepath.Join(dir, "*.py")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "one.py"),
		filepath.Join(dir, "two.py"),
	}, files)
}

func TestWalkerDeduplicatesOverlappingArguments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	touchFile(t, path)

	files, err := newTestWalker(false, nil).discover([]string{dir, path, path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestWalkerStdinPassthrough(t *testing.T) {
	files, err := newTestWalker(false, nil).discover([]string{StdinPath})
	require.NoError(t, err)
	assert.Equal(t, []string{StdinPath}, files)
}

func TestWalkerMissingPathFails(t *testing.T) {
	_, err := newTestWalker(false, nil).discover([]string{filepath.Join(t.TempDir(), "gone.py")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestWalkerSortsResults(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"z.py", "a.py", "m.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, err := newTestWalker(false, nil).discover([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "m.md"),
		filepath.Join(dir, "z.py"),
	}, files)
}
