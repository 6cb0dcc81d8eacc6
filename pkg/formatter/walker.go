package formatter

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stackvity/docfmt/pkg/util"
)

// walker expands the requested paths into the concrete file set for a run.
// Directories are walked recursively for known extensions, glob patterns are
// expanded, and explicit file arguments are taken as given. Exclusion globs
// prune both directories and files.
type walker struct {
	extensions map[string]bool
	excludes   []string
	logger     *slog.Logger
}

func newWalker(includeTxt bool, excludes []string, handler slog.Handler) *walker {
	exts := map[string]bool{
		".py":       true,
		".pyi":      true,
		".md":       true,
		".markdown": true,
	}
	if includeTxt {
		exts[".txt"] = true
	}
	return &walker{
		extensions: exts,
		excludes:   excludes,
		logger:     slog.New(handler).With(slog.String("component", "walker")),
	}
}

func (w *walker) discover(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, path := range paths {
		if path == StdinPath {
			add(path)
			continue
		}
		expanded := []string{path}
		if strings.ContainsAny(path, "*?[") {
			matches, err := filepath.Glob(path)
			if err != nil {
				return nil, fmt.Errorf("%w: bad glob %q: %w", ErrReadFailed, path, err)
			}
			expanded = matches
		}
		for _, item := range expanded {
			info, err := os.Stat(item)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrReadFailed, item, err)
			}
			if w.excluded(item) {
				w.logger.Debug("Excluded by glob", "path", item)
				continue
			}
			if !info.IsDir() {
				add(item)
				continue
			}
			if err := w.walkDir(item, add); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

func (w *walker) walkDir(root string, add func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrReadFailed, path, err)
		}
		if w.excluded(path) {
			w.logger.Debug("Excluded by glob", "path", path)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && w.extensions[strings.ToLower(filepath.Ext(path))] {
			add(path)
		}
		return nil
	})
}

func (w *walker) excluded(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range w.excludes {
		if util.MatchesGlob(pattern, normalized) {
			return true
		}
	}
	return false
}
