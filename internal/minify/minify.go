// Package minify implements the naive text minifiers used by the build
// pipeline. Each language is a fixed, ordered list of substitutions; later
// rules assume earlier ones already collapsed whitespace, so order matters.
//
// These transforms are not a real minifier: whitespace inside string
// literals is collapsed and no syntax is understood beyond comments.
package minify

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Kind identifies which transform a file gets.
type Kind int

const (
	KindUnknown Kind = iota
	KindJS
	KindCSS
	KindHTML
)

// String returns the lower-case name of the kind
func (k Kind) String() string {
	switch k {
	case KindJS:
		return "js"
	case KindCSS:
		return "css"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

// KindOf picks a Kind from a file extension.
func KindOf(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs":
		return KindJS
	case ".css":
		return KindCSS
	case ".html", ".htm":
		return KindHTML
	default:
		return KindUnknown
	}
}

// rule is one ordered substitution.
type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

func apply(src string, rules []rule) string {
	for _, r := range rules {
		src = r.pattern.ReplaceAllString(src, r.replacement)
	}
	return strings.TrimFunc(src, isSpace)
}

// space matches what a browser's \s does: RE2's \s lacks \v, the Unicode
// space separators and the line and paragraph separators.
const space = `[\t\n\v\f\r\p{Zs}\x{FEFF}\x{2028}\x{2029}]`

// spaced compiles pattern with every \s widened to space.
func spaced(pattern string) *regexp.Regexp {
	return regexp.MustCompile(strings.ReplaceAll(pattern, `\s`, space))
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

var (
	blockComment = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	lineComment  = regexp.MustCompile(`(?m)//.*$`)
	htmlComment  = regexp.MustCompile(`<!--[\s\S]*?-->`)
	whitespace   = spaced(`\s+`)
)

var cssRules = []rule{
	{blockComment, ""},
	{whitespace, " "},
	{spaced(`;\s*}`), "}"},
	{spaced(`\s*\{\s*`), "{"},
	{spaced(`;\s*`), ";"},
	{spaced(`:\s*`), ":"},
	{spaced(`,\s*`), ","},
}

// jsRules runs after comments are gone.
var jsRules = []rule{
	{whitespace, " "},
	{spaced(`;\s*}`), "}"},
	{spaced(`\s*\{\s*`), "{"},
	{spaced(`}\s*`), "}"},
	{spaced(`;\s*`), ";"},
	{spaced(`,\s*`), ","},
}

var htmlRules = []rule{
	{htmlComment, ""},
	{whitespace, " "},
	{spaced(`>\s+<`), "><"},
}

// CSS strips comments and redundant whitespace and trailing semicolons.
func CSS(src string) string {
	return apply(src, cssRules)
}

// HTML strips comments and whitespace between tags.
func HTML(src string) string {
	return apply(src, htmlRules)
}

// JSOptions tunes the JavaScript transform.
type JSOptions struct {
	// NaiveComments strips from every "//" to end of line, including inside
	// string and regex literals. Kept to compare against the old output.
	NaiveComments bool
}

// JS minifies JavaScript with the literal-aware comment stripper.
func JS(src string) string {
	return JSWithOptions(src, JSOptions{})
}

// JSWithOptions minifies JavaScript.
func JSWithOptions(src string, opts JSOptions) string {
	if opts.NaiveComments {
		src = blockComment.ReplaceAllString(src, "")
		src = lineComment.ReplaceAllString(src, "")
	} else {
		src = StripJSComments(src)
	}
	return apply(src, jsRules)
}

// Minifier dispatches on Kind.
type Minifier struct {
	JS JSOptions
}

// Minify transforms src according to kind. Unknown kinds pass through untouched.
func (m Minifier) Minify(kind Kind, src string) string {
	switch kind {
	case KindJS:
		return JSWithOptions(src, m.JS)
	case KindCSS:
		return CSS(src)
	case KindHTML:
		return HTML(src)
	default:
		return src
	}
}
