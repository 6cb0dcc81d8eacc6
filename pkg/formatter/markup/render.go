package markup

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
)

type renderer struct {
	doc      *Document
	embedded bool
	errs     []error
}

func (r *renderer) render(width int) string {
	blocks := r.children(r.doc.root, width)
	if refs := r.references(); refs != "" {
		blocks = append(blocks, refs)
	}
	return strings.Join(blocks, "\n\n")
}

func (r *renderer) children(n ast.Node, width int) []string {
	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		// A paragraph consumed entirely by link reference definitions
		// leaves an empty block behind; dropping it keeps the output a
		// fixed point.
		if b := r.block(c, width); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (r *renderer) block(n ast.Node, width int) string {
	switch n := n.(type) {
	case *ast.Paragraph:
		return r.flow(n, width)
	case *ast.TextBlock:
		return r.flow(n, width)
	case *ast.Heading:
		return r.heading(n, width)
	case *ast.FencedCodeBlock:
		return r.fenced(n)
	case *ast.CodeBlock:
		return r.indentedCode(n)
	case *ast.HTMLBlock:
		return r.html(n, width)
	case *ast.ThematicBreak:
		return "---"
	case *ast.Blockquote:
		return r.blockquote(n, width)
	case *ast.List:
		return r.list(n, width)
	default:
		lines := r.rawLines(n)
		r.checkWidth(n, lines, width)
		return strings.Join(lines, "\n")
	}
}

// flow re-wraps paragraph content. Inline markup is carried through verbatim,
// word by word. Hard line breaks split the paragraph into separately wrapped
// segments. Pipe tables are not reflowable and pass through untouched.
func (r *renderer) flow(n ast.Node, width int) string {
	lines := r.rawLines(n)
	if isPipeTable(lines) {
		r.checkWidth(n, lines, width)
		return strings.Join(lines, "\n")
	}

	marker := "\\"
	if r.embedded {
		// A backslash before the newline would be swallowed by the host
		// string literal, so embedded output spells hard breaks with
		// trailing spaces instead.
		marker = "  "
	}

	var out []string
	var seg []string
	flush := func(hard bool) {
		wrapped := wrapWords(strings.Fields(strings.Join(seg, " ")), width)
		if hard && len(wrapped) > 0 {
			wrapped[len(wrapped)-1] += marker
		}
		out = append(out, wrapped...)
		seg = seg[:0]
	}

	for i, ln := range lines {
		trimmed := strings.TrimRight(ln, " \t")
		hard := false
		if i < len(lines)-1 {
			switch {
			case strings.HasSuffix(ln, "  "):
				hard = true
			case strings.HasSuffix(trimmed, "\\"):
				hard = true
				trimmed = strings.TrimRight(trimmed[:len(trimmed)-1], " \t")
			}
		}
		seg = append(seg, trimmed)
		if hard {
			flush(true)
		}
	}
	flush(false)
	return strings.Join(out, "\n")
}

func (r *renderer) heading(n *ast.Heading, width int) string {
	content := strings.Join(strings.Fields(strings.Join(r.rawLines(n), " ")), " ")
	line := strings.Repeat("#", n.Level) + " " + content
	if utf8.RuneCountInString(line) > width {
		r.reportOverflow(n, width)
	}
	return line
}

func (r *renderer) fenced(n *ast.FencedCodeBlock) string {
	lines := r.rawLines(n)
	info := ""
	if n.Info != nil {
		info = string(n.Info.Segment.Value(r.doc.source))
	}
	fence := fenceFor(lines)
	parts := make([]string, 0, len(lines)+2)
	parts = append(parts, fence+info)
	parts = append(parts, lines...)
	parts = append(parts, fence)
	return strings.Join(parts, "\n")
}

// indentedCode normalizes an indented code block to a fenced one.
func (r *renderer) indentedCode(n *ast.CodeBlock) string {
	lines := r.rawLines(n)
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	fence := fenceFor(lines)
	parts := make([]string, 0, len(lines)+2)
	parts = append(parts, fence)
	parts = append(parts, lines...)
	parts = append(parts, fence)
	return strings.Join(parts, "\n")
}

func (r *renderer) html(n *ast.HTMLBlock, width int) string {
	lines := r.rawLines(n)
	if n.HasClosure() {
		lines = append(lines, strings.TrimRight(string(n.ClosureLine.Value(r.doc.source)), "\n"))
	}
	r.checkWidth(n, lines, width)
	return strings.Join(lines, "\n")
}

func (r *renderer) blockquote(n *ast.Blockquote, width int) string {
	inner := width - 2
	if inner < 1 {
		inner = 1
	}
	body := strings.Join(r.children(n, inner), "\n\n")
	lines := strings.Split(body, "\n")
	for i, ln := range lines {
		if ln == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + ln
		}
	}
	return strings.Join(lines, "\n")
}

func (r *renderer) list(n *ast.List, width int) string {
	num := n.Start
	var items []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		marker := "- "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		inner := width - len(marker)
		if inner < 1 {
			inner = 1
		}
		body := strings.Join(r.children(c, inner), "\n\n")
		if body == "" {
			items = append(items, strings.TrimRight(marker, " "))
			continue
		}
		lines := strings.Split(body, "\n")
		pad := strings.Repeat(" ", len(marker))
		for i, ln := range lines {
			switch {
			case i == 0:
				lines[i] = marker + ln
			case ln != "":
				lines[i] = pad + ln
			}
		}
		items = append(items, strings.Join(lines, "\n"))
	}
	sep := "\n"
	if !n.IsTight {
		sep = "\n\n"
	}
	return strings.Join(items, sep)
}

// references renders link reference definitions collected during parsing.
// Their original position is not recoverable, so they are emitted as the
// final block.
func (r *renderer) references() string {
	var lines []string
	for _, ref := range r.doc.refs {
		lines = append(lines, formatReference(ref))
	}
	return strings.Join(lines, "\n")
}

func formatReference(ref parser.Reference) string {
	s := fmt.Sprintf("[%s]: %s", string(ref.Label()), string(ref.Destination()))
	if title := string(ref.Title()); title != "" {
		s += fmt.Sprintf(" %q", title)
	}
	return s
}

func (r *renderer) rawLines(n ast.Node) []string {
	ls := n.Lines()
	out := make([]string, 0, ls.Len())
	for i := 0; i < ls.Len(); i++ {
		seg := ls.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(r.doc.source)), "\n"))
	}
	return out
}

func (r *renderer) checkWidth(n ast.Node, lines []string, width int) {
	for _, ln := range lines {
		if utf8.RuneCountInString(ln) > width {
			r.reportOverflow(n, width)
			return
		}
	}
}

func (r *renderer) reportOverflow(n ast.Node, width int) {
	line := 0
	if ls := n.Lines(); ls.Len() > 0 {
		line = r.doc.lineOf(ls.At(0).Start)
	}
	r.errs = append(r.errs, &WrapError{SourceID: r.doc.SourceID, Line: line, Width: width})
}

// isPipeTable reports whether every line of a multi-line paragraph starts
// with a pipe, the common spelling of a Markdown table.
func isPipeTable(lines []string) bool {
	if len(lines) < 2 {
		return false
	}
	for _, ln := range lines {
		if !strings.HasPrefix(strings.TrimLeft(ln, " "), "|") {
			return false
		}
	}
	return true
}

func fenceFor(lines []string) string {
	longest := 0
	for _, ln := range lines {
		run := 0
		for _, c := range ln {
			if c == '`' {
				run++
				if run > longest {
					longest = run
				}
			} else {
				run = 0
			}
		}
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

func wrapWords(words []string, width int) []string {
	var lines []string
	cur := ""
	curLen := 0
	for _, w := range words {
		wl := utf8.RuneCountInString(w)
		if cur == "" {
			cur, curLen = w, wl
			continue
		}
		if curLen+1+wl <= width {
			cur += " " + w
			curLen += 1 + wl
			continue
		}
		lines = append(lines, cur)
		cur, curLen = w, wl
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
