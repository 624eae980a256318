package element

import "context"

// Hooks gives a component access to the state the layout retains for it.
// Hook slots are matched by call order, so a component must request the
// same slots in the same order on every render.
type Hooks interface {
	// Context returns the layout's context (connection, session, location).
	Context() context.Context

	// Path returns the path the component is mounted at.
	Path() string

	// Slot returns the value of the next hook slot, calling init to create
	// it on the first render.
	Slot(init func() any) any

	// Invalidate schedules a re-render of the component.
	// It is safe to call from any goroutine.
	Invalidate()

	// OnUnmount registers a function to run when the component is unmounted.
	OnUnmount(fn func())
}

// RenderFunc renders a component instance.
type RenderFunc func(h Hooks, props Props) *Element

// Component is a named component definition. Two component elements have
// the same identity only if they were created from the same definition.
type Component struct {
	name   string
	render RenderFunc
}

// Define creates a component definition.
func Define(name string, render RenderFunc) *Component {
	if render == nil {
		panic("element: Define with nil render function")
	}
	return &Component{name: name, render: render}
}

// Name returns the definition name.
func (c *Component) Name() string { return c.name }

// Render calls the render function.
func (c *Component) Render(h Hooks, props Props) *Element {
	return c.render(h, props)
}

// New creates an instance of the component. Arguments are interpreted as
// by New; they become the instance's props.
func (c *Component) New(args ...any) *Element {
	e := &Element{kind: KindComponent, comp: c}
	e.apply(args)
	return e
}

// Props are the inputs of a component instance.
type Props struct {
	Attrs    Attrs
	Children []*Element
	Handlers map[string]Handler
}

// Props returns the props of a component element.
func (e *Element) Props() Props {
	p := Props{Attrs: e.attrs.Clone(), Children: e.Children()}
	if len(e.handlers) > 0 {
		p.Handlers = make(map[string]Handler, len(e.handlers))
		for k, v := range e.handlers {
			p.Handlers[k] = v
		}
	}
	return p
}

// Get returns a prop value, or nil.
func (p Props) Get(name string) any { return p.Attrs[name] }

// String returns a prop formatted as a string.
func (p Props) String(name string) string { return p.Attrs.String(name) }

// Handler returns an event handler passed to the component, as an EventHandler
// that can be forwarded to a child element.
func (p Props) Handler(eventType string) EventHandler {
	return EventHandler{Type: eventType, Handler: p.Handlers[eventType]}
}
