package vdom

import "sort"

// Node is a rendered node as seen by a client.
// A node with an empty Tag is a text node.
type Node struct {
	Tag      string            `json:"tag,omitempty"`
	Key      string            `json:"key,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attributes,omitempty"`
	Events   []string          `json:"eventHandlers,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// NewText creates a text node.
func NewText(text string) *Node {
	return &Node{Text: text}
}

// IsText returns true for text nodes.
func (n *Node) IsText() bool {
	return n != nil && n.Tag == ""
}

// HasEvent reports whether the node listens for the given event type.
func (n *Node) HasEvent(eventType string) bool {
	if n == nil {
		return false
	}
	i := sort.SearchStrings(n.Events, eventType)
	return i < len(n.Events) && n.Events[i] == eventType
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Tag:  n.Tag,
		Key:  n.Key,
		Text: n.Text,
	}
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	if n.Events != nil {
		c.Events = append([]string(nil), n.Events...)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// TextContent concatenates all text below the node in document order.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.IsText() {
		return n.Text
	}
	var out []byte
	for _, child := range n.Children {
		out = append(out, child.TextContent()...)
	}
	return string(out)
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || a.Key != b.Key || a.Text != b.Text {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) || len(a.Events) != len(b.Events) || len(a.Children) != len(b.Children) {
		return false
	}
	for k, v := range a.Attrs {
		if bv, ok := b.Attrs[k]; !ok || bv != v {
			return false
		}
	}
	for i := range a.Events {
		if a.Events[i] != b.Events[i] {
			return false
		}
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Find returns the path of the first node (depth-first, document order)
// for which match returns true.
func Find(root *Node, match func(*Node) bool) (string, *Node, bool) {
	var (
		foundPath string
		found     *Node
	)
	Walk(root, func(path string, n *Node) bool {
		if match(n) {
			foundPath, found = path, n
			return false
		}
		return true
	})
	return foundPath, found, found != nil
}

// Walk visits every node in document order with its path.
// Returning false from visit stops the walk.
func Walk(root *Node, visit func(path string, n *Node) bool) {
	if root == nil {
		return
	}
	walk(root, Root, visit)
}

func walk(n *Node, path string, visit func(string, *Node) bool) bool {
	if !visit(path, n) {
		return false
	}
	for i, child := range n.Children {
		if !walk(child, Join(path, Segment(i, child.Key)), visit) {
			return false
		}
	}
	return true
}
