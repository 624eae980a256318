// Package element provides the immutable description of a UI tree.
//
// An Element is either an HTML element (tag, attributes, children, event
// handlers), a text node, or a component instance. Elements are values:
// constructors copy their inputs and no method mutates an element, so a new
// render always produces a new tree.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1("Title"),
//	    Button(OnClick(func() { count.Set(count.Get() + 1) }), "+"),
//	)
//
// Arguments may be Attr, Attrs, anything implementing AttrSource (such as a
// bunch), Key, EventHandler, *Element, []*Element, or string (a text child).
// nil arguments are ignored, which allows conditional attributes.
//
// # Components
//
// A Component is defined once and instantiated many times:
//
//	var Counter = element.Define("Counter", func(h element.Hooks, p element.Props) *element.Element {
//	    count := helpers.UseState(h, 0)
//	    return element.Button(element.OnClick(func() { count.Set(count.Get() + 1) }),
//	        element.Textf("%d", count.Get()))
//	})
//
// The layout keeps component-local state (hook slots) between renders for as
// long as the same definition stays mounted at the same path.
package element
