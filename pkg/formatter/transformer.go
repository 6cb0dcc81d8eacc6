package formatter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/stackvity/docfmt/pkg/formatter/markup"
	"github.com/stackvity/docfmt/pkg/formatter/pysrc"
)

// transformer rewrites the documentation blocks of one source file. Bytes
// outside a recognized block are carried through untouched, so output equals
// input everywhere except inside replaced literals.
type transformer struct {
	lineLength   int
	trailingLine bool
	engine       markup.Engine
	logger       *slog.Logger
}

func newTransformer(lineLength int, trailingLine bool, engine markup.Engine, handler slog.Handler) *transformer {
	return &transformer{
		lineLength:   lineLength,
		trailingLine: trailingLine,
		engine:       engine,
		logger:       slog.New(handler).With(slog.String("component", "transformer")),
	}
}

// Transform scans src for documentation blocks and splices in canonical
// renderings. It returns the new source text, whether anything would change,
// and the number of errors counted. A returned error aborts the whole file;
// per-block failures are counted and traversal continues.
func (t *transformer) Transform(path, src string) (string, bool, int, error) {
	moduleName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sites, err := pysrc.Scan(moduleName, src)
	if err != nil {
		return "", false, 1, fmt.Errorf("%w: %s: %w", ErrSourceParse, path, err)
	}

	var (
		out          strings.Builder
		pos          int
		misformatted bool
		errorCount   int
	)
	out.Grow(len(src))

	for _, site := range sites {
		width := t.lineLength - site.Indent
		if width < 1 {
			return "", false, 1, fmt.Errorf("%w: line length %d leaves width %d for %s in %s",
				ErrWidthTooSmall, t.lineLength, width, site.DisplayName(), path)
		}

		source := strings.TrimRight(dedent(strings.Repeat(" ", site.Indent)+site.Body), " \t\n")

		doc, err := t.engine.Parse(site.DisplayName(), source)
		if err != nil {
			errorCount++
			t.logger.Error("Failed to parse documentation block",
				"path", path, "object", site.DisplayName(), "line", site.Line, "error", err.Error())
			continue
		}
		output, renderErrs := t.engine.Render(width, doc, true)
		output = strings.TrimRight(output, " \t\n")
		for _, re := range renderErrs {
			errorCount++
			t.logger.Error("Failed to render documentation block",
				"path", path, "object", site.DisplayName(), "line", site.Line, "error", re.Error())
		}

		if source == output && t.correctEnding(site.Body, output) {
			t.logger.Debug("Documentation block already formatted",
				"path", path, "object", site.DisplayName(), "line", site.Line)
			continue
		}

		misformatted = true
		t.logger.Info("Found incorrectly formatted documentation block",
			"path", path, "object", site.DisplayName(), "line", site.Line)

		out.WriteString(src[pos:site.Start])
		out.WriteString(t.replacement(site, output))
		pos = site.End
	}
	out.WriteString(src[pos:])
	return out.String(), misformatted, errorCount, nil
}

// correctEnding compares the trailing newline count of the original literal
// body against the policy: zero for a single-line rendering, otherwise one
// plus one more when the trailing blank line is required.
func (t *transformer) correctEnding(body, output string) bool {
	stripped := strings.TrimRight(body, " ")
	endLines := len(stripped) - len(strings.TrimRight(stripped, "\n"))
	if !strings.Contains(output, "\n") {
		return endLines == 0
	}
	want := 1
	if t.trailingLine {
		want = 2
	}
	return endLines == want
}

// replacement builds the canonical literal for a site. Single-line content
// stays inline between the quotes. Multi-line content starts right after the
// opening quotes, continuation lines carry the site's indentation, and the
// closing quotes sit on their own line, preceded by a blank line when the
// trailing line policy is on.
func (t *transformer) replacement(site pysrc.Site, output string) string {
	var b strings.Builder
	b.WriteString(site.Prefix)
	b.WriteString(site.Quote)

	if !strings.Contains(output, "\n") {
		b.WriteString(output)
		b.WriteString(site.Quote)
		return b.String()
	}

	pad := strings.Repeat(" ", site.Indent)
	for i, line := range strings.Split(output, "\n") {
		if i > 0 {
			b.WriteByte('\n')
			if line != "" {
				b.WriteString(pad)
			}
		}
		b.WriteString(line)
	}
	if t.trailingLine {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(pad)
	b.WriteString(site.Quote)
	return b.String()
}

// dedent removes the longest common leading whitespace from every non-blank
// line of text.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	margin := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		lead := len(line) - len(trimmed)
		if margin < 0 || lead < margin {
			margin = lead
		}
	}
	if margin <= 0 {
		return text
	}
	for i, line := range lines {
		if len(line) >= margin && strings.TrimLeft(line[:margin], " \t") == "" {
			lines[i] = line[margin:]
		} else if strings.TrimSpace(line) == "" {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
