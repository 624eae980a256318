package vdom

import (
	"bufio"
	"io"
	"sort"
	"strings"
)

// voidElements cannot have children and have no closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// RenderHTML writes the tree as HTML. Event bindings are not rendered;
// the client attaches listeners once it receives the first layout update.
func RenderHTML(w io.Writer, n *Node) error {
	bw := bufio.NewWriter(w)
	renderNode(bw, n)
	return bw.Flush()
}

// HTML renders the tree to a string.
func HTML(n *Node) string {
	var sb strings.Builder
	_ = RenderHTML(&sb, n)
	return sb.String()
}

func renderNode(w *bufio.Writer, n *Node) {
	if n == nil {
		return
	}
	if n.IsText() {
		w.WriteString(escapeHTML(n.Text))
		return
	}

	w.WriteByte('<')
	w.WriteString(n.Tag)

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.WriteByte(' ')
		w.WriteString(k)
		w.WriteString(`="`)
		w.WriteString(escapeAttr(n.Attrs[k]))
		w.WriteByte('"')
	}
	w.WriteByte('>')

	if voidElements[n.Tag] {
		return
	}
	for _, c := range n.Children {
		renderNode(w, c)
	}
	w.WriteString("</")
	w.WriteString(n.Tag)
	w.WriteByte('>')
}

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for attribute values. Whitespace control
// characters are escaped too so they survive attribute parsing.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
