// Package search filters a content container down to the level-3-heading
// sections that contain a literal, case-insensitive query.
//
// The engine works against the small Node, Container, Status and Input
// interfaces rather than a concrete document, so it can drive a parsed HTML
// tree (see internal/dom) or an in-memory test double equally well. Every
// search starts from the pristine snapshot captured when the engine was
// created; no search ever observes the result of a previous one.
package search

import "strings"

// Node is one node of the content tree.
type Node interface {
	// Tag is the lower-case element name, or "" for text nodes.
	Tag() string

	// IsText reports whether the node is a text node.
	IsText() bool

	// Text is the concatenated text of the node and its descendants.
	Text() string

	// Children returns every child node, text nodes included, in order.
	Children() []Node

	// SetVisible shows or hides the node without removing it.
	SetVisible(visible bool)

	// SetSegments replaces the node's content with the given runs. For an
	// element the children are replaced; for a text node the node itself is
	// replaced in its parent.
	SetSegments(segments []Segment)

	// CodeLike reports whether the node is a preformatted or code element.
	CodeLike() bool
}

// Snapshot is an opaque copy of a container's content.
type Snapshot interface{}

// Container owns the searchable content.
type Container interface {
	// Elements returns the direct element children.
	Elements() []Node

	Snapshot() Snapshot
	Restore(s Snapshot)

	// ShowPlaceholder replaces all content with a single message.
	ShowPlaceholder(message string)
}

// Status displays the result message.
type Status interface {
	SetText(text string)
	SetVisible(visible bool)
}

// Input is the query control.
type Input interface {
	Value() string
	SetValue(value string)
	Blur()
}

// Segment is a run of text, marked when it matched the query.
type Segment struct {
	Text   string
	Marked bool
}

// HeadingTag starts a new section.
const HeadingTag = "h3"

// Section is a heading and the nodes up to the next heading. Heading is nil
// for content that precedes the first heading; Nodes includes the heading.
type Section struct {
	Heading Node
	Nodes   []Node
}

// Text joins the text of every node with a single space.
func (s Section) Text() string {
	parts := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		parts[i] = n.Text()
	}
	return strings.Join(parts, " ")
}

// Partition groups elements into sections. Every element lands in exactly
// one section and order is preserved.
func Partition(elements []Node) []Section {
	var sections []Section
	for _, el := range elements {
		if el.Tag() == HeadingTag {
			sections = append(sections, Section{Heading: el, Nodes: []Node{el}})
			continue
		}
		if len(sections) == 0 {
			sections = append(sections, Section{})
		}
		last := &sections[len(sections)-1]
		last.Nodes = append(last.Nodes, el)
	}
	return sections
}
