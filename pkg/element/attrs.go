package element

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Attr is a single attribute.
type Attr struct {
	Name  string
	Value any
}

// Attrs maps attribute names to values.
type Attrs map[string]any

// AttrSource is implemented by attribute bags such as bunch.StaticBunch.
type AttrSource interface {
	Attrs() Attrs
}

// Clone returns a shallow copy.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	c := make(Attrs, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Get returns a value, or nil.
func (a Attrs) Get(name string) any {
	return a[name]
}

// String returns the formatted value of an attribute, or "".
func (a Attrs) String(name string) string {
	s, _ := FormatValue(a[name])
	return s
}

// Attrs implements AttrSource.
func (a Attrs) Attrs() Attrs { return a }

// A creates an attribute.
func A(name string, value any) Attr { return Attr{Name: name, Value: value} }

// ID sets the id attribute.
func ID(id string) Attr { return A("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return A("class", strings.Join(classes, " ")) }

// Style sets the style attribute.
func Style(style string) Attr { return A("style", style) }

// Href sets the href attribute.
func Href(url string) Attr { return A("href", url) }

// Src sets the src attribute.
func Src(url string) Attr { return A("src", url) }

// Type sets the type attribute.
func Type(t string) Attr { return A("type", t) }

// Name sets the name attribute.
func Name(name string) Attr { return A("name", name) }

// Value sets the value attribute.
func Value(v any) Attr { return A("value", v) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attr { return A("placeholder", text) }

// Checked sets the checked attribute.
func Checked(checked bool) Attr { return A("checked", checked) }

// Disabled sets the disabled attribute.
func Disabled(disabled bool) Attr { return A("disabled", disabled) }

// Data creates a data-* attribute.
func Data(key, value string) Attr { return A("data-"+key, value) }

// FormatValue converts an attribute value to its wire string.
// The second result is false when the attribute should be absent,
// which is the case for nil and false.
func FormatValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		if val {
			return "", true
		}
		return "", false
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// valuesEqual compares two attribute values for equality.
func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}
