package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/sitekit/internal/search"
)

// DefaultHighlightClass is the class of the mark elements wrapping matches.
const DefaultHighlightClass = "search-highlight"

// placeholderStyle is the inline style of the no-results message.
const placeholderStyle = "padding: 20px; text-align: center; color: #999;"

// Element implements search.Node for an html.Node.
type Element struct {
	Node           *html.Node
	highlightClass string
}

// NewElement wraps n. Matches are wrapped in mark elements carrying class.
func NewElement(n *html.Node, class string) *Element {
	if class == "" {
		class = DefaultHighlightClass
	}
	return &Element{Node: n, highlightClass: class}
}

// Tag returns the lower-case element name, or "" for text nodes.
func (e *Element) Tag() string {
	if e.Node.Type != html.ElementNode {
		return ""
	}
	return e.Node.Data
}

// IsText reports whether the node is a text node.
func (e *Element) IsText() bool {
	return e.Node.Type == html.TextNode
}

// Text returns the concatenated text of the node and its descendants.
func (e *Element) Text() string {
	return textContent(e.Node)
}

// Children returns element and text children; comments are skipped.
func (e *Element) Children() []search.Node {
	var children []search.Node
	for c := e.Node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode || c.Type == html.TextNode {
			children = append(children, NewElement(c, e.highlightClass))
		}
	}
	return children
}

// SetVisible clears or sets an inline display: none. Text nodes are left alone.
func (e *Element) SetVisible(visible bool) {
	if e.Node.Type != html.ElementNode {
		return
	}
	if visible {
		setDisplay(e.Node, "")
	} else {
		setDisplay(e.Node, "none")
	}
}

// CodeLike reports whether the element is a pre or code block.
func (e *Element) CodeLike() bool {
	if e.Node.Type != html.ElementNode {
		return false
	}
	return e.Node.DataAtom == atom.Pre || e.Node.DataAtom == atom.Code
}

// SetSegments replaces the node's text with segments, wrapping marked ones
// in highlight elements. A text node is replaced in its parent.
func (e *Element) SetSegments(segments []search.Segment) {
	nodes := make([]*html.Node, 0, len(segments))
	for _, s := range segments {
		nodes = append(nodes, e.segmentNode(s))
	}

	if e.Node.Type == html.ElementNode {
		removeChildren(e.Node)
		for _, n := range nodes {
			e.Node.AppendChild(n)
		}
		return
	}

	parent := e.Node.Parent
	if parent == nil {
		return
	}
	for _, n := range nodes {
		parent.InsertBefore(n, e.Node)
	}
	parent.RemoveChild(e.Node)
}

func (e *Element) segmentNode(s search.Segment) *html.Node {
	text := &html.Node{Type: html.TextNode, Data: s.Text}
	if !s.Marked {
		return text
	}
	mark := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Mark,
		Data:     "mark",
		Attr:     []html.Attribute{{Key: "class", Val: e.highlightClass}},
	}
	mark.AppendChild(text)
	return mark
}

// ContainerElement implements search.Container. Snapshots are deep copies of
// the children, so restoring never shares nodes with the snapshot.
type ContainerElement struct {
	*Element
}

// NewContainer wraps the container element n.
func NewContainer(n *html.Node, class string) *ContainerElement {
	return &ContainerElement{Element: NewElement(n, class)}
}

type snapshot []*html.Node

// Elements returns the element children of the container in document order.
func (c *ContainerElement) Elements() []search.Node {
	var out []search.Node
	for n := c.Node.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			out = append(out, NewElement(n, c.highlightClass))
		}
	}
	return out
}

// Snapshot deep-copies the container's children.
func (c *ContainerElement) Snapshot() search.Snapshot {
	var s snapshot
	for n := c.Node.FirstChild; n != nil; n = n.NextSibling {
		s = append(s, cloneNode(n))
	}
	return s
}

// Restore replaces the children with copies of a snapshot taken by this type.
func (c *ContainerElement) Restore(s search.Snapshot) {
	nodes, ok := s.(snapshot)
	if !ok {
		return
	}
	removeChildren(c.Node)
	for _, n := range nodes {
		c.Node.AppendChild(cloneNode(n))
	}
}

// ShowPlaceholder replaces the children with a centered message.
func (c *ContainerElement) ShowPlaceholder(message string) {
	removeChildren(c.Node)
	p := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.P,
		Data:     "p",
		Attr:     []html.Attribute{{Key: "style", Val: placeholderStyle}},
	}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: message})
	c.Node.AppendChild(p)
}

// HTML renders the container's current children.
func (c *ContainerElement) HTML() string {
	return innerHTML(c.Node)
}

// StatusElement implements search.Status by rewriting its text and toggling
// display between block and none.
type StatusElement struct {
	Node *html.Node
}

// SetText replaces the element's text.
func (s *StatusElement) SetText(text string) {
	removeChildren(s.Node)
	if text != "" {
		s.Node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// SetVisible toggles display between block and none.
func (s *StatusElement) SetVisible(visible bool) {
	if visible {
		setDisplay(s.Node, "block")
	} else {
		setDisplay(s.Node, "none")
	}
}

// Text returns the current message.
func (s *StatusElement) Text() string {
	return textContent(s.Node)
}

// Visible reports whether the element is displayed.
func (s *StatusElement) Visible() bool {
	return displayOf(s.Node) != "none"
}

// InputElement implements search.Input over the value attribute.
type InputElement struct {
	Node *html.Node
}

// Value returns the value attribute.
func (i *InputElement) Value() string {
	v, _ := attr(i.Node, "value")
	return v
}

// SetValue sets the value attribute, removing it for an empty value.
func (i *InputElement) SetValue(value string) {
	if value == "" {
		removeAttr(i.Node, "value")
		return
	}
	setAttr(i.Node, "value", value)
}

// Blur drops autofocus so a re-rendered page does not grab focus.
func (i *InputElement) Blur() {
	removeAttr(i.Node, "autofocus")
}
