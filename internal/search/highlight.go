package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Matcher tests and highlights one query. The query is matched literally:
// regular expression metacharacters carry no meaning.
//
// A Matcher is not safe for concurrent use.
type Matcher struct {
	term    string
	lower   string
	caser   cases.Caser
	pattern *regexp.Regexp
}

// NewMatcher creates a matcher for term. The term is used as given; callers
// trim it first.
func NewMatcher(term string) *Matcher {
	caser := cases.Lower(language.Und)
	return &Matcher{
		term:    term,
		lower:   caser.String(term),
		caser:   caser,
		pattern: regexp.MustCompile("(?i)" + regexp.QuoteMeta(term)),
	}
}

// Term returns the query.
func (m *Matcher) Term() string {
	return m.term
}

// Contains reports whether text contains the query, ignoring case.
func (m *Matcher) Contains(text string) bool {
	if m.term == "" {
		return false
	}
	return strings.Contains(m.caser.String(text), m.lower)
}

// Segments splits text into unmarked and marked runs. Concatenating the runs
// yields text unchanged.
func (m *Matcher) Segments(text string) []Segment {
	if m.term == "" || text == "" {
		return []Segment{{Text: text}}
	}

	var segments []Segment
	last := 0
	for _, loc := range m.pattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segments = append(segments, Segment{Text: text[last:loc[0]]})
		}
		segments = append(segments, Segment{Text: text[loc[0]:loc[1]], Marked: true})
		last = loc[1]
	}
	if last < len(text) || len(segments) == 0 {
		segments = append(segments, Segment{Text: text[last:]})
	}
	return segments
}

// highlight returns the marked segments of text, or nil when nothing matched.
func (m *Matcher) highlight(text string) []Segment {
	segments := m.Segments(text)
	for _, s := range segments {
		if s.Marked {
			return segments
		}
	}
	return nil
}

// wholesaleTags have their content replaced by highlighted text.
var wholesaleTags = map[string]bool{
	HeadingTag: true,
	"p":        true,
	"li":       true,
}

// highlightNode marks the query inside one node of a matching section. Code
// is never rewritten.
func highlightNode(m *Matcher, n Node) {
	if n.CodeLike() {
		return
	}

	if wholesaleTags[n.Tag()] {
		text := n.Text()
		if !m.Contains(text) {
			return
		}
		if !hasCodeDescendant(n) {
			if segments := m.highlight(text); segments != nil {
				n.SetSegments(segments)
			}
			return
		}
	}

	for _, t := range textNodes(n) {
		text := t.Text()
		if !m.Contains(text) {
			continue
		}
		if segments := m.highlight(text); segments != nil {
			t.SetSegments(segments)
		}
	}
}

// textNodes collects descendant text nodes outside code elements. The list
// is built before any node is rewritten.
func textNodes(n Node) []Node {
	var out []Node
	var walk func(Node)
	walk = func(cur Node) {
		for _, c := range cur.Children() {
			switch {
			case c.IsText():
				out = append(out, c)
			case c.CodeLike():
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

func hasCodeDescendant(n Node) bool {
	for _, c := range n.Children() {
		if c.IsText() {
			continue
		}
		if c.CodeLike() || hasCodeDescendant(c) {
			return true
		}
	}
	return false
}
