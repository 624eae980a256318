package display

import (
	"strings"

	"github.com/vango-dev/idom/pkg/vdom"
)

// HasText matches a tree whose text content contains s.
func HasText(s string) func(*vdom.Node) bool {
	return func(n *vdom.Node) bool {
		return strings.Contains(n.TextContent(), s)
	}
}

// Has matches a tree containing a node that matches.
func Has(match func(*vdom.Node) bool) func(*vdom.Node) bool {
	return func(n *vdom.Node) bool {
		_, _, ok := vdom.Find(n, match)
		return ok
	}
}

// ByTag matches element nodes with the given tag.
func ByTag(tag string) func(*vdom.Node) bool {
	return func(n *vdom.Node) bool { return n.Tag == tag }
}

// ByAttr matches element nodes whose attribute name has value.
func ByAttr(name, value string) func(*vdom.Node) bool {
	return func(n *vdom.Node) bool { return n.Attrs[name] == value }
}

// ByID matches the element with the given id attribute.
func ByID(id string) func(*vdom.Node) bool { return ByAttr("id", id) }
