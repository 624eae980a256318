package element

import (
	"fmt"
	"sort"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement   Kind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindComponent             // Component instance
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// Element is an immutable description of one UI node and its children.
type Element struct {
	kind     Kind
	tag      string
	text     string
	key      string
	attrs    Attrs
	children []*Element
	handlers map[string]Handler
	comp     *Component
}

// Key sets the reconciliation key of an element.
type Key string

// New creates an element with the given tag.
func New(tag string, args ...any) *Element {
	e := &Element{kind: KindElement, tag: tag}
	e.apply(args)
	return e
}

// Text creates a text node.
func Text(content string) *Element {
	return &Element{kind: KindText, text: content}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *Element {
	return Text(fmt.Sprintf(format, args...))
}

func (e *Element) apply(args []any) {
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			e.setAttr(v.Name, v.Value)
		case []Attr:
			for _, a := range v {
				e.setAttr(a.Name, a.Value)
			}
		case Attrs:
			for name, value := range v {
				e.setAttr(name, value)
			}
		case Key:
			e.key = string(v)
		case EventHandler:
			if v.Type == "" || v.Handler == nil {
				continue
			}
			if e.handlers == nil {
				e.handlers = make(map[string]Handler)
			}
			e.handlers[v.Type] = v.Handler
		case *Element:
			if v != nil {
				e.children = append(e.children, v)
			}
		case []*Element:
			for _, c := range v {
				if c != nil {
					e.children = append(e.children, c)
				}
			}
		case string:
			e.children = append(e.children, Text(v))
		case AttrSource:
			for name, value := range v.Attrs() {
				e.setAttr(name, value)
			}
		default:
			panic(fmt.Sprintf("element: unsupported argument of type %T", arg))
		}
	}
}

func (e *Element) setAttr(name string, value any) {
	if name == "" {
		return
	}
	if name == "key" {
		if s, ok := value.(string); ok {
			e.key = s
		}
		return
	}
	if e.attrs == nil {
		e.attrs = make(Attrs)
	}
	e.attrs[name] = value
}

// Kind returns the node type.
func (e *Element) Kind() Kind { return e.kind }

// Tag returns the element tag name. Empty for text and component nodes.
func (e *Element) Tag() string { return e.tag }

// Text returns the content of a text node.
func (e *Element) Text() string { return e.text }

// Key returns the reconciliation key, or "".
func (e *Element) Key() string { return e.key }

// Component returns the component definition of a component node.
func (e *Element) Component() *Component { return e.comp }

// Attr returns the value of a single attribute.
func (e *Element) Attr(name string) (any, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// Attrs returns a copy of the attributes.
func (e *Element) Attrs() Attrs {
	return e.attrs.Clone()
}

// NumAttrs returns the number of attributes.
func (e *Element) NumAttrs() int { return len(e.attrs) }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	if len(e.children) == 0 {
		return nil
	}
	return append([]*Element(nil), e.children...)
}

// NumChildren returns the number of children.
func (e *Element) NumChildren() int { return len(e.children) }

// Child returns the i-th child.
func (e *Element) Child(i int) *Element { return e.children[i] }

// Handler returns the callback bound for an event type.
func (e *Element) Handler(eventType string) (Handler, bool) {
	h, ok := e.handlers[eventType]
	return h, ok
}

// EventTypes returns the bound event types, sorted.
func (e *Element) EventTypes() []string {
	if len(e.handlers) == 0 {
		return nil
	}
	types := make([]string, 0, len(e.handlers))
	for t := range e.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Identity describes what an element is for reconciliation purposes:
// the tag for elements, the definition name for components.
func (e *Element) Identity() string {
	switch e.kind {
	case KindText:
		return "#text"
	case KindComponent:
		return e.comp.name
	default:
		return e.tag
	}
}

// String returns a short description for logs.
func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	switch e.kind {
	case KindText:
		return fmt.Sprintf("%q", e.text)
	case KindComponent:
		return "<" + e.comp.name + "/>"
	default:
		return "<" + e.tag + ">"
	}
}
