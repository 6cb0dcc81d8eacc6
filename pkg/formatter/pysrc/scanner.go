// Package pysrc locates candidate documentation blocks (docstrings) in Python
// source text. It is a focused site scanner, not a Python parser: it tracks
// just enough structure (scope headers, bracket depth, string literals) to find
// standalone triple-quoted string statements with byte-accurate spans, so the
// caller can splice replacements without touching any other byte.
package pysrc

import (
	"fmt"
	"strings"
)

// SiteKind describes what a documentation block documents.
type SiteKind string

const (
	KindModule    SiteKind = "module"
	KindClass     SiteKind = "class"
	KindFunction  SiteKind = "function"
	KindAttribute SiteKind = "attribute"
)

// Site is one candidate documentation block discovered in a module, in
// document order. Start and End delimit the whole literal, prefix through
// closing quote, as byte offsets into the scanned source.
type Site struct {
	Kind       SiteKind
	ScopeChain []string // module name first, innermost name last
	Indent     int      // source column of the literal's first byte
	Line       int      // 1-based line of the literal's first byte
	Prefix     string   // literal prefix before the quotes ("", "r", "R", ...)
	Quote      string   // `"""` or `'''`
	Body       string   // raw text between the delimiters
	Start, End int
}

// DisplayName renders the site the way it is reported to users, e.g.
// `function 'pkg.Cls.method'`.
func (s Site) DisplayName() string {
	return fmt.Sprintf("%s %q", s.Kind, strings.Join(s.ScopeChain, "."))
}

// Scan tokenizes src and returns every candidate documentation block. A string
// literal is a candidate only when it uses a triple-quote style and forms a
// standalone expression statement. moduleName seeds the scope chain.
func Scan(moduleName, src string) ([]Site, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	type frame struct {
		name   string
		kind   SiteKind
		indent int
	}
	var (
		sites   []Site
		scopes  []frame
		pending string // attribute target awaiting its documentation block
		hasPend bool
	)

	chain := func(extra string) []string {
		out := make([]string, 0, len(scopes)+2)
		out = append(out, moduleName)
		for _, f := range scopes {
			out = append(out, f.name)
		}
		if extra != "" {
			out = append(out, extra)
		}
		return out
	}

	for _, stmt := range statements(toks) {
		if len(stmt) == 0 {
			continue
		}
		indent := stmt[0].col

		// Scope exit: a statement at or left of a header's column closes it.
		for len(scopes) > 0 && indent <= scopes[len(scopes)-1].indent {
			scopes = scopes[:len(scopes)-1]
			hasPend = false
		}

		if name, k, ok := scopeHeader(stmt); ok {
			scopes = append(scopes, frame{name: name, kind: k, indent: indent})
			hasPend = false
			// `def f(): """doc"""` keeps the docstring on the header
			// line; it is still a standalone expression statement.
			if t, ok := inlineSuite(stmt); ok {
				sites = append(sites, Site{
					Kind:       k,
					ScopeChain: chain(""),
					Indent:     t.col,
					Line:       t.line,
					Prefix:     t.prefix,
					Quote:      t.quote,
					Body:       t.body,
					Start:      t.start,
					End:        t.end,
				})
			}
			continue
		}

		if len(stmt) == 1 && stmt[0].typ == tokString && stmt[0].triple {
			t := stmt[0]
			site := Site{
				Indent: t.col,
				Line:   t.line,
				Prefix: t.prefix,
				Quote:  t.quote,
				Body:   t.body,
				Start:  t.start,
				End:    t.end,
			}
			switch {
			case hasPend:
				site.Kind = KindAttribute
				site.ScopeChain = chain(pending)
				hasPend = false
			case len(scopes) == 0:
				site.Kind = KindModule
				site.ScopeChain = chain("")
			default:
				site.Kind = scopes[len(scopes)-1].kind
				site.ScopeChain = chain("")
			}
			sites = append(sites, site)
			continue
		}

		if target, ok := assignTarget(stmt); ok {
			pending = target
			hasPend = true
		}
	}
	return sites, nil
}

// scopeHeader recognizes `class Name`, `def name` and `async def name`
// statement heads.
func scopeHeader(stmt []token) (string, SiteKind, bool) {
	i := 0
	if stmt[i].typ == tokName && stmt[i].text == "async" {
		i++
	}
	if i+1 >= len(stmt) || stmt[i].typ != tokName || stmt[i+1].typ != tokName {
		return "", "", false
	}
	switch stmt[i].text {
	case "class":
		return stmt[i+1].text, KindClass, true
	case "def":
		return stmt[i+1].text, KindFunction, true
	}
	return "", "", false
}

// inlineSuite returns the docstring literal of a one-line scope body: the
// sole token after the header's depth-0 colon, when it is a triple-quoted
// string. Parameter and lambda colons sit at bracket depth and never match.
func inlineSuite(stmt []token) (token, bool) {
	last := -1
	for i, t := range stmt {
		if t.typ == tokOp && t.text == ":" && t.depth == 0 {
			last = i
		}
	}
	if last >= 0 && last == len(stmt)-2 {
		if t := stmt[last+1]; t.typ == tokString && t.triple {
			return t, true
		}
	}
	return token{}, false
}

// assignTarget extracts the leading plain identifier of a simple assignment
// statement: `name = ...`, `name, other = ...`, or `(name, other) = ...`.
// Starred, dotted, subscripted and annotated targets are deliberately not
// recognized.
func assignTarget(stmt []token) (string, bool) {
	i := 0
	if stmt[i].typ == tokOp && stmt[i].text == "(" {
		i++
	}
	if i >= len(stmt) || stmt[i].typ != tokName || isKeyword(stmt[i].text) {
		return "", false
	}
	name := stmt[i].text
	if i+1 >= len(stmt) || stmt[i+1].typ != tokOp {
		return "", false
	}
	switch stmt[i+1].text {
	case "=", ",", ")":
	default:
		return "", false
	}
	for _, t := range stmt {
		if t.typ == tokOp && t.text == "=" && t.depth == 0 {
			return name, true
		}
	}
	return "", false
}

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

func isKeyword(s string) bool { return keywords[s] }

// statements splits the token stream on depth-0 newline markers.
func statements(toks []token) [][]token {
	var out [][]token
	var cur []token
	for _, t := range toks {
		if t.typ == tokNewline {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
