package element

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FromHTML converts an HTML fragment into elements. The input is sanitized
// with bluemonday's UGC policy first, so it is safe for user-supplied markup.
func FromHTML(src string) ([]*Element, error) {
	return FromTrustedHTML(bluemonday.UGCPolicy().Sanitize(src))
}

// FromTrustedHTML converts an HTML fragment into elements without sanitizing.
func FromTrustedHTML(src string) ([]*Element, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), context)
	if err != nil {
		return nil, err
	}
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if e := fromNode(n); e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func fromNode(n *html.Node) *Element {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return Text(n.Data)
	case html.ElementNode:
		args := make([]any, 0, len(n.Attr))
		for _, a := range n.Attr {
			if a.Key == "key" {
				args = append(args, Key(a.Val))
				continue
			}
			args = append(args, A(a.Key, a.Val))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromNode(c); child != nil {
				args = append(args, child)
			}
		}
		return New(n.Data, args...)
	default:
		return nil
	}
}
