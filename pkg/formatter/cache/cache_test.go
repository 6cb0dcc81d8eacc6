package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/docfmt/pkg/formatter/cache"
)

func newManager(t *testing.T, dir string, mutate func(*cache.Options)) cache.Manager {
	t.Helper()
	opts := cache.Options{
		Dir:                   dir,
		LineLength:            88,
		DocstringTrailingLine: true,
		ToolVersion:           "v1.2.3",
	}
	if mutate != nil {
		mutate(&opts)
	}
	return cache.NewFileManager(opts)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "88.trail.gob", cache.FileName(88, true))
	assert.Equal(t, "72.notrail.gob", cache.FileName(72, false))
}

func TestLoadMissingFileIsEmptyIndex(t *testing.T) {
	m := newManager(t, t.TempDir(), nil)
	require.NoError(t, m.Load())
	assert.False(t, m.Check("a.py", time.Now(), 10))
}

func TestCommitThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mod := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	m := newManager(t, dir, nil)
	require.NoError(t, m.Load())
	m.Record("a.py", mod, 120)
	m.Record("b.md", mod.Add(time.Hour), 64)
	require.NoError(t, m.Commit())

	reloaded := newManager(t, dir, nil)
	require.NoError(t, reloaded.Load())
	assert.True(t, reloaded.Check("a.py", mod, 120))
	assert.True(t, reloaded.Check("b.md", mod.Add(time.Hour), 64))
	assert.False(t, reloaded.Check("a.py", mod, 121))
	assert.False(t, reloaded.Check("a.py", mod.Add(time.Second), 120))
	assert.False(t, reloaded.Check("missing.py", mod, 120))
}

func TestCommitMergesOverLoadedEntries(t *testing.T) {
	dir := t.TempDir()
	mod := time.Now().Truncate(time.Second)

	first := newManager(t, dir, nil)
	require.NoError(t, first.Load())
	first.Record("keep.py", mod, 1)
	first.Record("stale.py", mod, 2)
	require.NoError(t, first.Commit())

	second := newManager(t, dir, nil)
	require.NoError(t, second.Load())
	second.Record("stale.py", mod, 3)
	require.NoError(t, second.Commit())

	third := newManager(t, dir, nil)
	require.NoError(t, third.Load())
	assert.True(t, third.Check("keep.py", mod, 1))
	assert.True(t, third.Check("stale.py", mod, 3))
	assert.False(t, third.Check("stale.py", mod, 2))
}

func TestCommitWithNothingRecordedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir, nil)
	require.NoError(t, m.Load())
	require.NoError(t, m.Commit())

	_, err := os.Stat(m.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorruptFileIsTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir, nil)
	require.NoError(t, os.WriteFile(m.Path(), []byte("not a gob stream"), 0o644))

	require.NoError(t, m.Load())
	assert.False(t, m.Check("a.py", time.Now(), 10))
}

func TestLoadToolVersionMismatchInvalidates(t *testing.T) {
	dir := t.TempDir()
	mod := time.Now().Truncate(time.Second)

	old := newManager(t, dir, func(o *cache.Options) { o.ToolVersion = "v1.0.0" })
	require.NoError(t, old.Load())
	old.Record("a.py", mod, 10)
	require.NoError(t, old.Commit())

	current := newManager(t, dir, func(o *cache.Options) { o.ToolVersion = "v2.0.0" })
	require.NoError(t, current.Load())
	assert.False(t, current.Check("a.py", mod, 10))
}

func TestLoadDevVersionMatchesAnything(t *testing.T) {
	dir := t.TempDir()
	mod := time.Now().Truncate(time.Second)

	released := newManager(t, dir, nil)
	require.NoError(t, released.Load())
	released.Record("a.py", mod, 10)
	require.NoError(t, released.Commit())

	dev := newManager(t, dir, func(o *cache.Options) { o.ToolVersion = "dev" })
	require.NoError(t, dev.Load())
	assert.True(t, dev.Check("a.py", mod, 10))
}

func TestIgnoreReadsStillRecords(t *testing.T) {
	dir := t.TempDir()
	mod := time.Now().Truncate(time.Second)

	seed := newManager(t, dir, nil)
	require.NoError(t, seed.Load())
	seed.Record("a.py", mod, 10)
	require.NoError(t, seed.Commit())

	forced := newManager(t, dir, func(o *cache.Options) { o.IgnoreReads = true })
	require.NoError(t, forced.Load())
	assert.False(t, forced.Check("a.py", mod, 10))

	forced.Record("b.py", mod, 20)
	require.NoError(t, forced.Commit())

	after := newManager(t, dir, nil)
	require.NoError(t, after.Load())
	assert.True(t, after.Check("a.py", mod, 10))
	assert.True(t, after.Check("b.py", mod, 20))
}

func TestClearRemovesAllModes(t *testing.T) {
	dir := t.TempDir()
	mod := time.Now()

	wide := newManager(t, dir, nil)
	require.NoError(t, wide.Load())
	wide.Record("a.py", mod, 1)
	require.NoError(t, wide.Commit())

	narrow := newManager(t, dir, func(o *cache.Options) { o.LineLength = 72 })
	require.NoError(t, narrow.Load())
	narrow.Record("a.py", mod, 1)
	require.NoError(t, narrow.Commit())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("keep"), 0o644))

	require.NoError(t, wide.Clear())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "unrelated.txt", entries[0].Name())
}

func TestClearMissingDirIsNoError(t *testing.T) {
	m := newManager(t, filepath.Join(t.TempDir(), "never-created"), nil)
	assert.NoError(t, m.Clear())
}

func TestConcurrentRecordAndCheck(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, dir, nil)
	require.NoError(t, m.Load())

	mod := time.Now().Truncate(time.Second)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				m.Record(filepath.Join("pkg", "file.py"), mod, int64(i*1000+j))
				m.Check("other.py", mod, 1)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	require.NoError(t, m.Commit())
}

func TestNoOpManager(t *testing.T) {
	m := cache.NewNoOpManager()
	require.NoError(t, m.Load())
	m.Record("a.py", time.Now(), 1)
	assert.False(t, m.Check("a.py", time.Now(), 1))
	require.NoError(t, m.Commit())
	require.NoError(t, m.Clear())
	assert.Empty(t, m.Path())
}
