package element

import "testing"

func TestEqual(t *testing.T) {
	comp := Define("C", func(Hooks, Props) *Element { return nil })
	other := Define("C", func(Hooks, Props) *Element { return nil })

	tests := []struct {
		name string
		a, b *Element
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"nil vs element", nil, Div(), false},
		{"same tag and attrs", Div(ID("x")), Div(ID("x")), true},
		{"children ignored", Div(ID("x"), Span()), Div(ID("x")), true},
		{"handlers ignored", Div(OnClick(func() {})), Div(), true},
		{"different tag", Div(), Span(), false},
		{"different attr value", Div(ID("x")), Div(ID("y")), false},
		{"different attr type", Div(A("n", 1)), Div(A("n", "1")), false},
		{"missing attr", Div(ID("x")), Div(Class("x")), false},
		{"different key", Div(Key("a")), Div(Key("b")), false},
		{"text", Text("a"), Text("a"), true},
		{"text differs", Text("a"), Text("b"), false},
		{"same component", comp.New(A("p", 1)), comp.New(A("p", 1)), true},
		{"same name, other definition", comp.New(), other.New(), false},
		{"slice attr", Div(A("x", []int{1})), Div(A("x", []int{1})), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameIdentity(t *testing.T) {
	if !SameIdentity(Div(ID("a")), Div(ID("b"))) {
		t.Error("same tag should match")
	}
	if SameIdentity(Div(), Text("x")) {
		t.Error("element and text should not match")
	}
	if SameIdentity(nil, Div()) {
		t.Error("nil never matches")
	}
}
