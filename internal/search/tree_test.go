package search

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// memNode is an in-memory content tree used to drive the engine in tests.
type memNode struct {
	tag      string
	text     string
	children []*memNode
	parent   *memNode
	hidden   bool
}

func el(tag string, children ...*memNode) *memNode {
	n := &memNode{tag: tag}
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

func txt(s string) *memNode {
	return &memNode{text: s}
}

func (n *memNode) Tag() string  { return n.tag }
func (n *memNode) IsText() bool { return n.tag == "" }

func (n *memNode) Text() string {
	if n.IsText() {
		return n.text
	}
	var b strings.Builder
	for _, c := range n.children {
		b.WriteString(c.Text())
	}
	return b.String()
}

func (n *memNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *memNode) SetVisible(visible bool) { n.hidden = !visible }

func (n *memNode) CodeLike() bool { return n.tag == "pre" || n.tag == "code" }

func (n *memNode) SetSegments(segments []Segment) {
	nodes := make([]*memNode, 0, len(segments))
	for _, s := range segments {
		if s.Marked {
			nodes = append(nodes, el("mark", txt(s.Text)))
		} else {
			nodes = append(nodes, txt(s.Text))
		}
	}

	if !n.IsText() {
		n.children = nil
		for _, c := range nodes {
			c.parent = n
			n.children = append(n.children, c)
		}
		return
	}

	parent := n.parent
	var replaced []*memNode
	for _, c := range parent.children {
		if c != n {
			replaced = append(replaced, c)
			continue
		}
		for _, r := range nodes {
			r.parent = parent
			replaced = append(replaced, r)
		}
	}
	parent.children = replaced
}

func (n *memNode) clone() *memNode {
	c := &memNode{tag: n.tag, text: n.text, hidden: n.hidden}
	for _, child := range n.children {
		cc := child.clone()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

func (n *memNode) render() string {
	if n.IsText() {
		return n.text
	}
	var b strings.Builder
	b.WriteString("<" + n.tag)
	if n.hidden {
		b.WriteString(" hidden")
	}
	b.WriteString(">")
	for _, c := range n.children {
		b.WriteString(c.render())
	}
	b.WriteString("</" + n.tag + ">")
	return b.String()
}

// memContainer owns a root element whose children are the content.
type memContainer struct {
	root *memNode
}

func newContainer(children ...*memNode) *memContainer {
	return &memContainer{root: el("div", children...)}
}

func (c *memContainer) Elements() []Node {
	var out []Node
	for _, n := range c.root.children {
		if !n.IsText() {
			out = append(out, n)
		}
	}
	return out
}

func (c *memContainer) Snapshot() Snapshot {
	return c.root.clone()
}

func (c *memContainer) Restore(s Snapshot) {
	c.root = s.(*memNode).clone()
}

func (c *memContainer) ShowPlaceholder(message string) {
	c.root = el("div", el("p", txt(message)))
}

func (c *memContainer) html() string {
	var b strings.Builder
	for _, n := range c.root.children {
		b.WriteString(n.render())
	}
	return b.String()
}

type memStatus struct {
	text    string
	visible bool
}

func (s *memStatus) SetText(text string)     { s.text = text }
func (s *memStatus) SetVisible(visible bool) { s.visible = visible }

type memInput struct {
	value   string
	blurred int
}

func (i *memInput) Value() string         { return i.value }
func (i *memInput) SetValue(value string) { i.value = value }
func (i *memInput) Blur()                 { i.blurred++ }

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mutex  sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mutex.Lock()
	defer t.clock.mutex.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs every timer that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mutex.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mutex.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// sampleContent is a page with a lead paragraph and three sections.
func sampleContent() *memContainer {
	return newContainer(
		el("p", txt("Welcome to btcsuite.")),
		el("h3", txt("btcd")),
		el("p", txt("A full node written in Go.")),
		el("pre", el("code", txt("go install btcd"))),
		el("h3", txt("btcwallet")),
		el("p", txt("A wallet daemon.")),
		el("ul", el("li", txt("Supports "), el("em", txt("Go")), txt(" RPC"))),
		el("h3", txt("bolt")),
		el("p", txt("Uses the BOLT database and a Bolt cursor.")),
	)
}
