// Package kind classifies input files as Python source or standalone markup.
package kind

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Kind is the detected classification of an input file.
type Kind string

const (
	// Source is a Python source file whose docstrings are reformatted in place.
	Source Kind = "source"
	// Markup is a standalone Markdown document reformatted as a whole.
	Markup Kind = "markup"
	// Unknown is anything the detector cannot classify; such files are skipped.
	Unknown Kind = "unknown"
)

// Detector classifies a file based on its path and, when the path is not
// conclusive, its content.
type Detector interface {
	Detect(content []byte, path string) Kind
}

// enryDetector implements Detector with an extension map backed by go-enry
// content analysis for extensionless paths.
type enryDetector struct {
	includeTxt bool
}

// NewDetector creates the default detector. When includeTxt is set, ".txt"
// files are treated as Markdown.
func NewDetector(includeTxt bool) Detector {
	return &enryDetector{includeTxt: includeTxt}
}

// Detect implements the Detector interface. Extension wins; content analysis
// is only consulted when the extension says nothing.
func (d *enryDetector) Detect(content []byte, path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyi":
		return Source
	case ".md", ".markdown":
		return Markup
	case ".txt":
		if d.includeTxt {
			return Markup
		}
		return Unknown
	case "":
		// Fall through to content detection.
	default:
		return Unknown
	}

	if len(content) == 0 {
		return Unknown
	}
	switch enry.GetLanguage(filepath.Base(path), content) {
	case "Python":
		return Source
	case "Markdown", "Text":
		return Markup
	}
	return Unknown
}
