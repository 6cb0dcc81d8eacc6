// Package cache persists per-file formatting fingerprints so unchanged,
// already formatted files can be skipped on later runs. The index lives in
// memory during a run; workers record entries concurrently and the whole
// index is written out once, at the end of the run.
package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SchemaVersion is the version of the cache file structure. Load invalidates
// any file whose header carries a different version.
const SchemaVersion = "1.0"

// ErrLoad indicates a critical error while reading the cache file. Corruption
// and version mismatches are not critical, they just empty the index.
var ErrLoad = errors.New("failed to load fingerprint cache")

// ErrPersist indicates an error while writing the cache file.
var ErrPersist = errors.New("failed to persist fingerprint cache")

// ErrClear indicates an error while deleting cache files.
var ErrClear = errors.New("failed to clear fingerprint cache")

// Entry is the stored fingerprint for one formatted file. A file whose
// size and modification time both match its entry is assumed to still be
// canonically formatted.
type Entry struct {
	SourceModTime time.Time
	SourceSize    int64
}

type fileHeader struct {
	SchemaVersion string
	ToolVersion   string
}

// Manager is the fingerprint cache used by the formatting engine.
//
// Check and Record must be safe for concurrent use by worker goroutines.
// Commit is called once per run, after all workers have finished.
type Manager interface {
	// Load reads the cache index from disk. A missing, corrupt, or
	// version-mismatched file yields an empty index and a nil error. Only
	// critical I/O failures (for example permission errors) are returned,
	// wrapping ErrLoad.
	Load() error

	// Check reports whether path has a fingerprint matching the given stat
	// data, meaning the file can be skipped without reading it.
	Check(path string, modTime time.Time, size int64) bool

	// Record stores the fingerprint for a file that finished the run in
	// canonical form. The entry is held in memory until Commit.
	Record(path string, modTime time.Time, size int64)

	// Commit writes the in-memory index to disk atomically. Entries recorded
	// during the run are merged over those loaded at startup.
	Commit() error

	// Clear deletes every cache file in the cache directory, across all
	// line length and trailing line modes.
	Clear() error

	// Path returns the cache file location for this manager's mode.
	Path() string
}

// DefaultDir returns the per-user cache directory.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving user cache directory: %w", err)
	}
	return filepath.Join(base, "docfmt"), nil
}

// FileName returns the cache file name for one formatting mode. Runs with
// different widths or trailing line policies produce different canonical
// output, so each mode gets its own index.
func FileName(lineLength int, docstringTrailingLine bool) string {
	trail := "trail"
	if !docstringTrailingLine {
		trail = "notrail"
	}
	return fmt.Sprintf("%d.%s.gob", lineLength, trail)
}

// Options configures a file-backed Manager.
type Options struct {
	// Dir is the cache directory. Required.
	Dir string

	// LineLength and DocstringTrailingLine identify the formatting mode.
	LineLength            int
	DocstringTrailingLine bool

	// ToolVersion is recorded in the file header. Non-dev versions must
	// match on load.
	ToolVersion string

	// IgnoreReads makes Check always miss while still allowing Record and
	// Commit, so a forced run repopulates the cache.
	IgnoreReads bool

	Logger slog.Handler
}

type fileManager struct {
	mu      sync.RWMutex
	loaded  map[string]Entry
	pending map[string]Entry

	path        string
	dir         string
	toolVersion string
	ignoreReads bool
	logger      *slog.Logger
}

// NewFileManager returns the file-backed Manager for the mode in opts.
func NewFileManager(opts Options) Manager {
	handler := opts.Logger
	if handler == nil {
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	toolVersion := opts.ToolVersion
	if toolVersion == "" {
		toolVersion = "dev"
	}
	return &fileManager{
		loaded:      make(map[string]Entry),
		pending:     make(map[string]Entry),
		path:        filepath.Join(opts.Dir, FileName(opts.LineLength, opts.DocstringTrailingLine)),
		dir:         opts.Dir,
		toolVersion: toolVersion,
		ignoreReads: opts.IgnoreReads,
		logger: slog.New(handler).With(
			slog.String("component", "cacheManager"),
			slog.String("impl", "file"),
		),
	}
}

func (m *fileManager) Path() string { return m.path }

func (m *fileManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded = make(map[string]Entry)

	file, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Debug("Cache file not found, starting with empty index", "path", m.path)
			return nil
		}
		m.logger.Error("Critical cache load error", "path", m.path, "error", err.Error())
		return fmt.Errorf("%w: opening %q: %w", ErrLoad, m.path, err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)

	var header fileHeader
	if err := decoder.Decode(&header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			m.logger.Warn("Cache file is empty or truncated, treating as miss", "path", m.path)
			return nil
		}
		m.logger.Warn("Failed to decode cache header, treating as miss", "path", m.path, "error", err.Error())
		return nil
	}
	if header.SchemaVersion != SchemaVersion {
		m.logger.Warn("Cache schema version mismatch, invalidating",
			"path", m.path, "file_schema", header.SchemaVersion, "expected_schema", SchemaVersion)
		return nil
	}
	devTool := m.toolVersion == "dev"
	devCache := header.ToolVersion == "dev"
	if !devTool && !devCache && header.ToolVersion != m.toolVersion {
		m.logger.Warn("Cache tool version mismatch, invalidating",
			"path", m.path, "file_version", header.ToolVersion, "expected_version", m.toolVersion)
		return nil
	}

	var index map[string]Entry
	if err := decoder.Decode(&index); err != nil {
		if !errors.Is(err, io.EOF) {
			m.logger.Warn("Failed to decode cache index, treating as miss", "path", m.path, "error", err.Error())
		}
		return nil
	}
	if index == nil {
		index = make(map[string]Entry)
	}
	m.loaded = index
	m.logger.Debug("Cache loaded", "path", m.path, "entries", len(m.loaded))
	return nil
}

func (m *fileManager) Check(path string, modTime time.Time, size int64) bool {
	if m.ignoreReads {
		return false
	}
	m.mu.RLock()
	entry, found := m.loaded[path]
	m.mu.RUnlock()

	if !found {
		return false
	}
	hit := entry.SourceModTime.Equal(modTime) && entry.SourceSize == size
	m.logger.Debug("Cache check", "path", path, "hit", hit)
	return hit
}

func (m *fileManager) Record(path string, modTime time.Time, size int64) {
	m.mu.Lock()
	m.pending[path] = Entry{SourceModTime: modTime, SourceSize: size}
	m.mu.Unlock()
}

func (m *fileManager) Commit() error {
	m.mu.RLock()
	merged := make(map[string]Entry, len(m.loaded)+len(m.pending))
	for k, v := range m.loaded {
		merged[k] = v
	}
	for k, v := range m.pending {
		merged[k] = v
	}
	recorded := len(m.pending)
	m.mu.RUnlock()

	if recorded == 0 {
		m.logger.Debug("No new fingerprints recorded, skipping cache write", "path", m.path)
		return nil
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %q: %w", ErrPersist, m.dir, err)
	}

	tempFile, err := os.CreateTemp(m.dir, filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %q: %w", ErrPersist, m.dir, err)
	}
	tempPath := tempFile.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tempFile.Close()
		}
		if _, statErr := os.Stat(tempPath); statErr == nil {
			_ = os.Remove(tempPath)
		}
	}()

	encoder := gob.NewEncoder(tempFile)
	if err := encoder.Encode(fileHeader{SchemaVersion: SchemaVersion, ToolVersion: m.toolVersion}); err != nil {
		return fmt.Errorf("%w: encoding header to %q: %w", ErrPersist, tempPath, err)
	}
	if err := encoder.Encode(merged); err != nil {
		return fmt.Errorf("%w: encoding index to %q: %w", ErrPersist, tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		closed = true
		return fmt.Errorf("%w: closing %q: %w", ErrPersist, tempPath, err)
	}
	closed = true

	if err := os.Rename(tempPath, m.path); err != nil {
		return fmt.Errorf("%w: renaming %q to %q: %w", ErrPersist, tempPath, m.path, err)
	}

	m.logger.Debug("Cache committed", "path", m.path, "entries", len(merged), "recorded", recorded)
	return nil
}

func (m *fileManager) Clear() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: reading %q: %w", ErrClear, m.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".gob" {
			continue
		}
		target := filepath.Join(m.dir, entry.Name())
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("%w: removing %q: %w", ErrClear, target, err)
		}
	}
	m.logger.Debug("Cache cleared", "dir", m.dir)
	return nil
}

// noOpManager satisfies Manager while remembering nothing. It backs stdin
// runs and any other mode where fingerprinting makes no sense.
type noOpManager struct{}

// NewNoOpManager returns a Manager that never hits and never persists.
func NewNoOpManager() Manager { return noOpManager{} }

func (noOpManager) Load() error                         { return nil }
func (noOpManager) Check(string, time.Time, int64) bool { return false }
func (noOpManager) Record(string, time.Time, int64)     {}
func (noOpManager) Commit() error                       { return nil }
func (noOpManager) Clear() error                        { return nil }
func (noOpManager) Path() string                        { return "" }
