package sessiontest

import (
	"strings"

	"github.com/pinchtab/pagewright/internal/locate"
)

// Node is one element of the fake DOM. It implements locate.Element.
type Node struct {
	tag      string
	attrs    map[string]string
	text     string
	children []*Node
	parent   *Node
	doc      *Document

	hidden    bool
	hoverOnly bool
	checked   bool
	value     string
}

// E builds an element from alternating attribute names and values.
func E(tag string, kv ...string) *Node {
	n := &Node{tag: tag, attrs: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		n.attrs[kv[i]] = kv[i+1]
	}
	if v, ok := n.attrs["value"]; ok {
		n.value = v
	}
	if _, ok := n.attrs["checked"]; ok {
		n.checked = true
	}
	return n
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// T sets the node's own text.
func (n *Node) T(s string) *Node { n.text = s; return n }

// Hidden renders the node with display:none.
func (n *Node) Hidden() *Node { n.hidden = true; return n }

// HoverOnly renders the node only while the pointer is over its parent or
// an element enclosing it.
func (n *Node) HoverOnly() *Node { n.hoverOnly = true; return n }

// Checked sets the initial checked state.
func (n *Node) Checked(on bool) *Node { n.checked = on; return n }

func (n *Node) Tag() string { return n.tag }

func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) Text() string {
	var b strings.Builder
	b.WriteString(n.text)
	for _, c := range n.children {
		b.WriteString(c.Text())
	}
	return b.String()
}

func (n *Node) Children() []locate.Element {
	out := make([]locate.Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// Parent returns a nil interface at the root so resolver walks terminate.
func (n *Node) Parent() locate.Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Rendered() bool {
	if n.hidden {
		return false
	}
	if n.hoverOnly {
		return n.doc != nil && n.doc.hoverShows(n)
	}
	return true
}

// Visible reports whether n and all its ancestors render.
func (n *Node) Visible() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.Rendered() {
			return false
		}
	}
	return n.parent != nil
}

// Value is the current form value.
func (n *Node) Value() string { return n.value }

// IsChecked is the checkbox/radio state.
func (n *Node) IsChecked() bool { return n.checked }

// ID returns the id attribute.
func (n *Node) ID() string { return n.attrs["id"] }

func (n *Node) isFormField() bool {
	switch n.tag {
	case "input":
		switch n.attrs["type"] {
		case "checkbox", "radio", "button", "submit", "reset", "image":
			return false
		}
		return true
	case "textarea", "select":
		return true
	}
	return false
}

func (n *Node) isToggle() bool {
	if n.tag != "input" {
		return false
	}
	t := n.attrs["type"]
	return t == "checkbox" || t == "radio"
}

func (n *Node) contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Document is the fake page's element tree plus pointer state.
type Document struct {
	Root    *Node
	hovered *Node
	focused *Node
}

func newDocument(body ...*Node) *Document {
	d := &Document{Root: E("#document")}
	d.Root.Append(body...)
	d.adopt(d.Root)
	return d
}

func (d *Document) adopt(n *Node) {
	n.doc = d
	for _, c := range n.children {
		d.adopt(c)
	}
}

// hoverShows implements the "li:hover .destroy" reveal: n shows while the
// pointer is inside n's parent or over an element enclosing n.
func (d *Document) hoverShows(n *Node) bool {
	if d.hovered == nil || n.parent == nil {
		return false
	}
	return n.parent.contains(d.hovered) || d.hovered.contains(n)
}

// ByID finds an element by id.
func (d *Document) ByID(id string) *Node {
	var found *Node
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if found != nil {
				return
			}
			if c.attrs["id"] == id {
				found = c
				return
			}
			walk(c)
		}
	}
	walk(d.Root)
	return found
}

// labelTarget returns the control a <label> activates.
func (d *Document) labelTarget(label *Node) *Node {
	if id := label.attrs["for"]; id != "" {
		return d.ByID(id)
	}
	var found *Node
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if found != nil {
				return
			}
			if c.tag == "input" || c.tag == "select" || c.tag == "textarea" {
				found = c
				return
			}
			walk(c)
		}
	}
	walk(label)
	return found
}

func (d *Document) resolve(chain locate.Chain) []*Node {
	els := locate.Resolve(d.Root, chain)
	out := make([]*Node, 0, len(els))
	for _, e := range els {
		out = append(out, e.(*Node))
	}
	return out
}
