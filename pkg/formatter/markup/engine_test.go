package markup_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/stackvity/docfmt/pkg/formatter/markup"
)

func render(t *testing.T, width int, content string) (string, []error) {
	t.Helper()
	eng := markup.NewGoldmarkEngine()
	doc, err := eng.Parse("test.md", content)
	require.NoError(t, err)
	return eng.Render(width, doc, false)
}

func TestRenderWrapsParagraph(t *testing.T) {
	out, errs := render(t, 30, "one two three four five six seven eight nine ten\n")
	assert.Empty(t, errs)
	assert.Equal(t, "one two three four five six\nseven eight nine ten", out)
}

func TestRenderCollapsesSoftBreaks(t *testing.T) {
	out, errs := render(t, 80, "first line\nsecond   line\nthird line\n")
	assert.Empty(t, errs)
	assert.Equal(t, "first line second line third line", out)
}

func TestRenderKeepsInlineMarkupVerbatim(t *testing.T) {
	out, errs := render(t, 80, "use `docfmt --check` or see [the docs](https://example.com) for *more*.\n")
	assert.Empty(t, errs)
	assert.Equal(t, "use `docfmt --check` or see [the docs](https://example.com) for *more*.", out)
}

func TestRenderOverlongWordGetsOwnLine(t *testing.T) {
	out, errs := render(t, 10, "a verylongunbreakabletoken b\n")
	assert.Empty(t, errs)
	assert.Equal(t, "a\nverylongunbreakabletoken\nb", out)
}

func TestRenderHeadings(t *testing.T) {
	in := "Title\n=====\n\nSub  heading\n------------\n\n###   Deep\n"
	out, errs := render(t, 80, in)
	assert.Empty(t, errs)
	assert.Equal(t, "# Title\n\n## Sub heading\n\n### Deep", out)
}

func TestRenderFencedCodeVerbatim(t *testing.T) {
	in := "```go\nfunc main() {\n\tfmt.Println(\"hi   there\")\n}\n```\n"
	out, errs := render(t, 20, in)
	assert.Empty(t, errs)
	assert.Equal(t, strings.TrimSuffix(in, "\n"), out)
}

func TestRenderIndentedCodeBecomesFenced(t *testing.T) {
	out, errs := render(t, 80, "para\n\n    x = 1\n    y = 2\n")
	assert.Empty(t, errs)
	assert.Equal(t, "para\n\n```\nx = 1\ny = 2\n```", out)
}

func TestRenderFenceGrowsPastBackticksInBody(t *testing.T) {
	out, errs := render(t, 80, "````\ncode with ``` inside\n````\n")
	assert.Empty(t, errs)
	assert.Equal(t, "````\ncode with ``` inside\n````", out)
}

func TestRenderListMarkersNormalized(t *testing.T) {
	in := "* alpha\n* beta\n+ gamma\n"
	out, errs := render(t, 80, in)
	assert.Empty(t, errs)
	// The marker switch starts a new list.
	assert.Equal(t, "- alpha\n- beta\n\n- gamma", out)
}

func TestRenderOrderedListKeepsStart(t *testing.T) {
	out, errs := render(t, 80, "3. third\n4. fourth\n")
	assert.Empty(t, errs)
	assert.Equal(t, "3. third\n4. fourth", out)
}

func TestRenderListItemHangingIndent(t *testing.T) {
	out, errs := render(t, 16, "- alpha beta gamma delta\n")
	assert.Empty(t, errs)
	assert.Equal(t, "- alpha beta\n  gamma delta", out)
}

func TestRenderLooseListKeepsBlankLines(t *testing.T) {
	in := "- alpha\n\n- beta\n"
	out, errs := render(t, 80, in)
	assert.Empty(t, errs)
	assert.Equal(t, "- alpha\n\n- beta", out)
}

func TestRenderBlockquote(t *testing.T) {
	out, errs := render(t, 20, "> quoted words that need wrapping here\n")
	assert.Empty(t, errs)
	assert.Equal(t, "> quoted words that\n> need wrapping here", out)
}

func TestRenderThematicBreak(t *testing.T) {
	out, errs := render(t, 80, "above\n\n***\n\nbelow\n")
	assert.Empty(t, errs)
	assert.Equal(t, "above\n\n---\n\nbelow", out)
}

func TestRenderHardBreakStandalone(t *testing.T) {
	out, errs := render(t, 80, "line one  \nline two\n")
	assert.Empty(t, errs)
	assert.Equal(t, "line one\\\nline two", out)
}

func TestRenderHardBreakEmbedded(t *testing.T) {
	eng := markup.NewGoldmarkEngine()
	doc, err := eng.Parse("doc", "line one\\\nline two\n")
	require.NoError(t, err)
	out, errs := eng.Render(80, doc, true)
	assert.Empty(t, errs)
	assert.Equal(t, "line one  \nline two", out)
}

func TestRenderPipeTableVerbatim(t *testing.T) {
	table := "| a | b |\n| - | - |\n| 1 | 2 |"
	out, errs := render(t, 80, table+"\n")
	assert.Empty(t, errs)
	assert.Equal(t, table, out)
}

func TestRenderPipeTableTooWideReportsError(t *testing.T) {
	table := "| column | column |\n| ------ | ------ |"
	out, errs := render(t, 10, table+"\n")
	assert.Equal(t, table, out)
	require.Len(t, errs, 1)

	var wrapErr *markup.WrapError
	require.ErrorAs(t, errs[0], &wrapErr)
	assert.Equal(t, "test.md", wrapErr.SourceID)
	assert.Equal(t, 1, wrapErr.Line)
	assert.Equal(t, 10, wrapErr.Width)
}

func TestRenderHTMLBlockVerbatim(t *testing.T) {
	in := "<div>\n  <b>kept</b>\n</div>\n"
	out, errs := render(t, 80, in)
	assert.Empty(t, errs)
	assert.Equal(t, strings.TrimSuffix(in, "\n"), out)
}

func TestRenderMovesReferenceDefinitionsToEnd(t *testing.T) {
	in := "[ref]: https://example.com \"Example\"\n\nsee [ref] for details\n"
	out, errs := render(t, 80, in)
	assert.Empty(t, errs)
	assert.Equal(t, "see [ref] for details\n\n[ref]: https://example.com \"Example\"", out)
}

func TestRenderReferenceDocumentReachesFixedPoint(t *testing.T) {
	in := "[ref]: https://example.com\n\nsee [ref] for details\n"

	once, errs := render(t, 80, in)
	assert.Empty(t, errs)
	assert.Equal(t, "see [ref] for details\n\n[ref]: https://example.com", once)

	twice, errs := render(t, 80, once)
	assert.Empty(t, errs)
	assert.Equal(t, once, twice)
}

func TestRenderIsIdempotent(t *testing.T) {
	in := strings.Join([]string{
		"Intro   paragraph with  uneven spacing that is long enough to wrap at the chosen width.",
		"",
		"## Usage",
		"",
		"* first item",
		"* second item with a tail that wraps onto the continuation line",
		"",
		"```sh",
		"docfmt --check .",
		"```",
		"",
		"> a quote",
		"",
	}, "\n")

	eng := markup.NewGoldmarkEngine()
	doc, err := eng.Parse("doc.md", in)
	require.NoError(t, err)
	once, errs := eng.Render(40, doc, false)
	require.Empty(t, errs)

	doc2, err := eng.Parse("doc.md", once)
	require.NoError(t, err)
	twice, errs := eng.Render(40, doc2, false)
	require.Empty(t, errs)

	assert.Equal(t, once, twice)
}

func TestRenderWidthProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,12}`), 1, 40).Draw(t, "words")
		width := rapid.IntRange(4, 60).Draw(t, "width")

		eng := markup.NewGoldmarkEngine()
		doc, err := eng.Parse("prop", strings.Join(words, " ")+"\n")
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		out, errs := eng.Render(width, doc, false)
		if len(errs) != 0 {
			t.Fatalf("unexpected render errors: %v", errs)
		}
		for _, line := range strings.Split(out, "\n") {
			if len(line) > width && strings.ContainsRune(line, ' ') {
				t.Fatalf("line %q exceeds width %d and is breakable", line, width)
			}
		}
	})
}
