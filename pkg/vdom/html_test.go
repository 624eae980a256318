package vdom

import "testing"

func TestHTML(t *testing.T) {
	tree := &Node{Tag: "div", Attrs: map[string]string{"id": "main", "class": `a"b`}, Children: []*Node{
		{Tag: "p", Children: []*Node{NewText("1 < 2 & 3")}},
		{Tag: "input", Attrs: map[string]string{"value": "x\ny"}},
		{Tag: "button", Events: []string{"click"}},
	}}
	got := HTML(tree)
	want := `<div class="a&quot;b" id="main"><p>1 &lt; 2 &amp; 3</p><input value="x&#10;y"><button></button></div>`
	if got != want {
		t.Errorf("HTML =\n%s\nwant\n%s", got, want)
	}
}

func TestHTMLNil(t *testing.T) {
	if got := HTML(nil); got != "" {
		t.Errorf("HTML(nil) = %q", got)
	}
}
