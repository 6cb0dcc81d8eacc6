// Package markup parses Markdown text and renders it back in a single
// canonical shape: collapsed and re-wrapped paragraphs, ATX headings,
// normalized list markers and fences, with code and raw HTML preserved
// byte for byte. Rendering the canonical shape again yields the same text,
// which is what lets callers compare formatted against original content.
package markup

import (
	"fmt"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Engine turns markup text into a parsed document and renders documents to
// their canonical form.
type Engine interface {
	// Parse parses text into a Document. sourceID is used to label
	// diagnostics, typically a file path or a docstring display name.
	Parse(sourceID string, content string) (*Document, error)

	// Render writes doc back out canonically, wrapped to width columns.
	// embedded indicates the output will live inside a host string literal,
	// which changes how hard line breaks are spelled. Recoverable problems
	// are returned alongside the best-effort output.
	Render(width int, doc *Document, embedded bool) (string, []error)
}

// Document is a parsed markup document bound to its original source bytes.
type Document struct {
	SourceID string

	source     []byte
	root       ast.Node
	refs       []parser.Reference
	lineStarts []int
}

// lineOf maps a byte offset in the source to a 1-based line number.
func (d *Document) lineOf(offset int) int {
	return sort.SearchInts(d.lineStarts, offset+1)
}

// WrapError reports a line that must be preserved verbatim but does not fit
// the requested width.
type WrapError struct {
	SourceID string
	Line     int
	Width    int
}

func (e *WrapError) Error() string {
	return fmt.Sprintf("%s:%d: verbatim line exceeds width %d", e.SourceID, e.Line, e.Width)
}

type goldmarkEngine struct {
	md goldmark.Markdown
}

// NewGoldmarkEngine returns the goldmark-backed Engine.
func NewGoldmarkEngine() Engine {
	return &goldmarkEngine{md: goldmark.New()}
}

func (g *goldmarkEngine) Parse(sourceID string, content string) (*Document, error) {
	src := []byte(content)
	ctx := parser.NewContext()
	root := g.md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))

	starts := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}

	return &Document{
		SourceID:   sourceID,
		source:     src,
		root:       root,
		refs:       ctx.References(),
		lineStarts: starts,
	}, nil
}

func (g *goldmarkEngine) Render(width int, doc *Document, embedded bool) (string, []error) {
	r := &renderer{doc: doc, embedded: embedded}
	return r.render(width), r.errs
}
