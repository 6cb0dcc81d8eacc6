package pysrc

import (
	"fmt"
	"strings"
)

type tokType int

const (
	tokName tokType = iota
	tokOp
	tokString
	tokNewline
)

type token struct {
	typ   tokType
	text  string
	depth int
	start int // byte offset of the first byte
	end   int // byte offset just past the last byte
	col   int // bytes from the start of the physical line
	line  int // 1-based

	// string literal fields
	prefix string
	quote  string
	body   string
	triple bool
}

// ErrUnterminatedString reports a string literal with no closing delimiter.
type ErrUnterminatedString struct {
	Line int
}

func (e *ErrUnterminatedString) Error() string {
	return fmt.Sprintf("unterminated string literal starting on line %d", e.Line)
}

const stringPrefixChars = "rRbBuUfF"

// tokenize produces a flat token stream with bracket depth and positions.
// Newline tokens are emitted only at depth zero without a trailing line
// continuation, so the stream splits cleanly into logical statements.
func tokenize(src string) ([]token, error) {
	var (
		toks      []token
		depth     int
		pos       int
		line      = 1
		lineStart int
	)
	n := len(src)

	emitOp := func(text string, start int) {
		toks = append(toks, token{
			typ: tokOp, text: text, depth: depth,
			start: start, end: start + len(text),
			col: start - lineStart, line: line,
		})
	}

	for pos < n {
		c := src[pos]
		switch {
		case c == '\n':
			if depth == 0 {
				toks = append(toks, token{typ: tokNewline, start: pos, end: pos + 1, line: line})
			}
			pos++
			line++
			lineStart = pos

		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			pos++

		case c == '\\' && pos+1 < n && (src[pos+1] == '\n' || src[pos+1] == '\r'):
			pos++
			if src[pos] == '\r' && pos+1 < n && src[pos+1] == '\n' {
				pos++
			}
			pos++
			line++
			lineStart = pos

		case c == '#':
			for pos < n && src[pos] != '\n' {
				pos++
			}

		case c == '\'' || c == '"':
			t, next, err := scanString(src, pos, pos, "", line, lineStart, depth)
			if err != nil {
				return nil, err
			}
			line += strings.Count(src[pos:next], "\n")
			if i := strings.LastIndexByte(src[pos:next], '\n'); i >= 0 {
				lineStart = pos + i + 1
			}
			toks = append(toks, t)
			pos = next

		case isIdentStart(c):
			start := pos
			for pos < n && isIdentPart(src[pos]) {
				pos++
			}
			word := src[start:pos]
			if len(word) <= 2 && pos < n && (src[pos] == '\'' || src[pos] == '"') && isStringPrefix(word) {
				t, next, err := scanString(src, start, pos, word, line, lineStart, depth)
				if err != nil {
					return nil, err
				}
				line += strings.Count(src[pos:next], "\n")
				if i := strings.LastIndexByte(src[pos:next], '\n'); i >= 0 {
					lineStart = pos + i + 1
				}
				toks = append(toks, t)
				pos = next
				break
			}
			toks = append(toks, token{
				typ: tokName, text: word, depth: depth,
				start: start, end: pos, col: start - lineStart, line: line,
			})

		case c == '(' || c == '[' || c == '{':
			depth++
			emitOp(string(c), pos)
			pos++

		case c == ')' || c == ']' || c == '}':
			emitOp(string(c), pos)
			if depth > 0 {
				depth--
			}
			pos++

		case c == ';':
			if depth == 0 {
				toks = append(toks, token{typ: tokNewline, start: pos, end: pos + 1, line: line})
			}
			pos++

		case c == '=':
			if pos+1 < n && src[pos+1] == '=' {
				pos += 2
				break
			}
			if len(toks) > 0 {
				prev := toks[len(toks)-1]
				if prev.typ == tokOp && prev.end == pos && isAugmentable(prev.text) {
					pos++
					break
				}
			}
			emitOp("=", pos)
			pos++

		case c == ',' || c == '*' || c == '.' || c == ':':
			emitOp(string(c), pos)
			pos++

		default:
			// Operators and literals the scanner has no use for.
			emitOp(string(c), pos)
			pos++
		}
	}
	return toks, nil
}

// scanString consumes a string literal. start is the prefix start, quotePos
// the first quote byte.
func scanString(src string, start, quotePos int, prefix string, line, lineStart, depth int) (token, int, error) {
	n := len(src)
	q := src[quotePos]
	triple := quotePos+2 < n && src[quotePos+1] == q && src[quotePos+2] == q
	var quote string
	var bodyStart int
	if triple {
		quote = src[quotePos : quotePos+3]
		bodyStart = quotePos + 3
	} else {
		quote = src[quotePos : quotePos+1]
		bodyStart = quotePos + 1
	}

	pos := bodyStart
	for pos < n {
		c := src[pos]
		if c == '\\' && pos+1 < n {
			pos += 2
			continue
		}
		if !triple && (c == '\n' || c == '\r') {
			return token{}, 0, &ErrUnterminatedString{Line: line}
		}
		if c == q {
			if !triple {
				return stringToken(start, pos+1, prefix, quote, src[bodyStart:pos], false, line, lineStart, depth), pos + 1, nil
			}
			if pos+2 < n && src[pos+1] == q && src[pos+2] == q {
				return stringToken(start, pos+3, prefix, quote, src[bodyStart:pos], true, line, lineStart, depth), pos + 3, nil
			}
		}
		pos++
	}
	return token{}, 0, &ErrUnterminatedString{Line: line}
}

func stringToken(start, end int, prefix, quote, body string, triple bool, line, lineStart, depth int) token {
	return token{
		typ: tokString, depth: depth,
		start: start, end: end,
		col: start - lineStart, line: line,
		prefix: prefix, quote: quote, body: body, triple: triple,
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isStringPrefix(word string) bool {
	for i := 0; i < len(word); i++ {
		if !strings.ContainsRune(stringPrefixChars, rune(word[i])) {
			return false
		}
	}
	return len(word) > 0
}

// isAugmentable reports operator texts that combine with a following '=' into
// an augmented assignment or comparison, which must not read as a plain '='.
func isAugmentable(text string) bool {
	switch text {
	case "+", "-", "*", "/", "%", "&", "|", "^", "@", "<", ">", "!", ":", "~", "=":
		return true
	}
	return false
}
