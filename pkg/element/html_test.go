package element

import "testing"

func TestFromHTML(t *testing.T) {
	els, err := FromTrustedHTML(`<ul class="list"><li key="a">one</li>
  <li>two</li></ul><p>tail</p>`)
	if err != nil {
		t.Fatalf("FromTrustedHTML error: %v", err)
	}
	if len(els) != 2 {
		t.Fatalf("got %d top-level elements, want 2", len(els))
	}
	ul := els[0]
	if ul.Tag() != "ul" || ul.NumChildren() != 2 {
		t.Fatalf("ul = %v with %d children", ul, ul.NumChildren())
	}
	if v, _ := ul.Attr("class"); v != "list" {
		t.Errorf("class = %v", v)
	}
	if ul.Child(0).Key() != "a" {
		t.Errorf("key = %q", ul.Child(0).Key())
	}
	if ul.Child(1).Child(0).Text() != "two" {
		t.Errorf("text = %q", ul.Child(1).Child(0).Text())
	}
}

func TestFromHTMLSanitizes(t *testing.T) {
	els, err := FromHTML(`<p onclick="steal()">hi<script>alert(1)</script></p>`)
	if err != nil {
		t.Fatalf("FromHTML error: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("got %d elements", len(els))
	}
	p := els[0]
	if _, ok := p.Attr("onclick"); ok {
		t.Error("event attribute survived sanitizing")
	}
	for _, c := range p.Children() {
		if c.Tag() == "script" {
			t.Error("script survived sanitizing")
		}
	}
}
