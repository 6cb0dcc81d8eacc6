package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Plural formats a count with a noun, adding "s" when count != 1.
// Plural("file", 3) == "3 files".
func Plural(noun string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, noun)
	}
	return fmt.Sprintf("%d %ss", count, noun)
}

// MatchesGlob checks whether a slash-separated relative path matches a
// gitignore-style glob pattern. A leading "**/" matches the pattern at any
// depth, and a trailing "/" matches the directory and everything beneath it.
// Note: this is a simplified matcher built on filepath.Match and does not
// cover every gitignore edge case.
func MatchesGlob(pattern, pathToMatch string) bool {
	pattern = filepath.ToSlash(strings.TrimSpace(pattern))
	pathToMatch = filepath.ToSlash(pathToMatch)
	if pattern == "" || pathToMatch == "" || pathToMatch == "." {
		return false
	}

	// "dir/" means "dir and anything under it".
	if strings.HasSuffix(pattern, "/") {
		prefix := strings.TrimSuffix(pattern, "/")
		parts := strings.Split(pathToMatch, "/")
		for i := range parts {
			if matchAnyDepth(prefix, strings.Join(parts[:i+1], "/")) {
				return true
			}
		}
		return false
	}

	return matchAnyDepth(pattern, pathToMatch)
}

// matchAnyDepth applies filepath.Match, treating a leading "**/" as "at any
// directory depth, including the top level".
func matchAnyDepth(pattern, pathToMatch string) bool {
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		if matchAnyDepth(rest, pathToMatch) {
			return true
		}
		parts := strings.Split(pathToMatch, "/")
		for i := 1; i < len(parts); i++ {
			if matchAnyDepth(rest, strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}
	match, err := filepath.Match(pattern, pathToMatch)
	return err == nil && match
}
