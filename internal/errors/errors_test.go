package errors

import (
	stderrors "errors"
	"io"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("E102")
	if err.Category != CategoryConfig || err.Message != "Invalid duration" {
		t.Errorf("New(E102) = %+v", err)
	}
	if got := New("E999").Message; got != "Unknown error" {
		t.Errorf("unknown code message = %q", got)
	}
}

func TestErrorString(t *testing.T) {
	err := New("E103").WithLocation("idom.yaml", 3, 0).Wrap(io.EOF)
	want := "idom.yaml:3: E103: Invalid address: EOF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, io.EOF) {
		t.Error("wrapped error not found")
	}
	if !stderrors.Is(err, New("E103")) || stderrors.Is(err, New("E104")) {
		t.Error("Is should match by code")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E201") != nil {
		t.Error("FromError(nil) should be nil")
	}
	orig := New("E100")
	if FromError(orig, "E201") != orig {
		t.Error("FromError should keep an existing *Error")
	}
	if got := FromError(io.EOF, "E201"); got.Code != "E201" || got.Wrapped != io.EOF {
		t.Errorf("FromError(EOF) = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("E102").
		WithLocation("idom.yaml", 4, 2).
		WithSuggestion("Use 30s").
		Format()
	for _, want := range []string{"ERROR E102: Invalid duration", "idom.yaml:4:2", "Hint: Use 30s"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors not disabled")
	}
}

func TestCodesRegistered(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 {
		t.Fatal("no codes")
	}
	for _, c := range codes {
		if _, msg, ok := Lookup(c); !ok || msg == "" {
			t.Errorf("code %s has no message", c)
		}
	}
}
