package element

import (
	"context"
	"errors"
	"testing"
)

type bag map[string]any

func (b bag) Attrs() Attrs { return Attrs(b) }

func TestNewArguments(t *testing.T) {
	var clicked bool
	child := Span("inner")
	e := Div(
		ID("main"),
		Class("a", "b"),
		nil,
		Key("k1"),
		A("key", "ignored-non-string-is-fine"),
		OnClick(func() { clicked = true }),
		child,
		[]*Element{P("x"), nil},
		"tail",
		bag{"data-x": "1"},
		Attrs{"title": "t"},
	)

	if e.Kind() != KindElement || e.Tag() != "div" {
		t.Fatalf("kind/tag = %v/%q", e.Kind(), e.Tag())
	}
	if e.Key() != "ignored-non-string-is-fine" {
		t.Errorf("Key = %q", e.Key())
	}
	if v, _ := e.Attr("class"); v != "a b" {
		t.Errorf("class = %v", v)
	}
	if _, ok := e.Attr("key"); ok {
		t.Error("key must not be stored as an attribute")
	}
	if e.NumAttrs() != 4 {
		t.Errorf("NumAttrs = %d, want 4 (id, class, data-x, title)", e.NumAttrs())
	}
	if e.NumChildren() != 3 {
		t.Fatalf("NumChildren = %d, want 3", e.NumChildren())
	}
	if e.Child(0) != child || e.Child(2).Kind() != KindText || e.Child(2).Text() != "tail" {
		t.Errorf("children = %v", e.Children())
	}

	h, ok := e.Handler("click")
	if !ok {
		t.Fatal("click handler missing")
	}
	if err := h(context.Background(), Event{Type: "click"}); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !clicked {
		t.Error("handler not invoked")
	}
	if got := e.EventTypes(); len(got) != 1 || got[0] != "click" {
		t.Errorf("EventTypes = %v", got)
	}
}

func TestElementIsImmutable(t *testing.T) {
	e := Ul(Li("a"), Li("b"), Class("x"))

	children := e.Children()
	children[0] = Li("changed")
	if e.Child(0).Child(0).Text() != "a" {
		t.Error("Children returned the internal slice")
	}

	attrs := e.Attrs()
	attrs["class"] = "y"
	if v, _ := e.Attr("class"); v != "x" {
		t.Error("Attrs returned the internal map")
	}
}

func TestUnsupportedArgumentPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unsupported argument")
		}
	}()
	Div(42)
}

func TestHandlerNormalisation(t *testing.T) {
	sentinel := errors.New("boom")
	var got Event

	tests := []struct {
		name    string
		fn      any
		wantErr error
	}{
		{"func()", func() {}, nil},
		{"func() error", func() error { return sentinel }, sentinel},
		{"func(Event)", func(ev Event) { got = ev }, nil},
		{"func(Event) error", func(Event) error { return sentinel }, sentinel},
		{"func(ctx, Event) error", func(context.Context, Event) error { return nil }, nil},
		{"Handler", Handler(func(context.Context, Event) error { return sentinel }), sentinel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := On("click", tt.fn)
			err := h.Handler(context.Background(), Event{Target: "/0", Type: "click"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if got.Target != "/0" {
		t.Errorf("func(Event) received %+v", got)
	}
}

func TestEventStringData(t *testing.T) {
	ev := Event{Data: []any{
		"plain",
		map[string]any{"target": map[string]any{"value": "nested"}},
		map[string]any{"value": "flat"},
		float64(3),
	}}
	want := []string{"plain", "nested", "flat", "3"}
	for i, w := range want {
		if got := ev.StringData(i); got != w {
			t.Errorf("StringData(%d) = %q, want %q", i, got, w)
		}
	}
	if ev.StringData(9) != "" {
		t.Error("out of range should be empty")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in      any
		want    string
		present bool
	}{
		{nil, "", false},
		{false, "", false},
		{true, "", true},
		{"x", "x", true},
		{7, "7", true},
		{int64(-2), "-2", true},
		{1.5, "1.5", true},
	}
	for _, tt := range tests {
		got, present := FormatValue(tt.in)
		if got != tt.want || present != tt.present {
			t.Errorf("FormatValue(%v) = %q, %v; want %q, %v", tt.in, got, present, tt.want, tt.present)
		}
	}
}

func TestComponentProps(t *testing.T) {
	var seen Props
	c := Define("Greeting", func(h Hooks, p Props) *Element {
		seen = p
		return Text("hello " + p.String("name"))
	})
	e := c.New(A("name", "ada"), Key("g"), OnClick(func() {}), Span("child"))

	if e.Kind() != KindComponent || e.Component() != c || e.Identity() != "Greeting" {
		t.Fatalf("component element = %v", e)
	}
	if e.Key() != "g" {
		t.Errorf("Key = %q", e.Key())
	}
	out := c.Render(nil, e.Props())
	if out.Text() != "hello ada" {
		t.Errorf("render = %q", out.Text())
	}
	if len(seen.Children) != 1 || seen.Handler("click").Handler == nil {
		t.Errorf("props = %+v", seen)
	}
}
