// Package bunch provides attribute bags that can be passed to element
// constructors.
//
// A StaticBunch has a schema fixed at construction: only the declared names
// can be set. A DynamicBunch accepts any name. Both implement
// element.AttrSource, so they can be used directly as element arguments:
//
//	style := bunch.NewStatic("class", "title")
//	style.MustSet("class", "card")
//	element.Div(style, "body")
//
// A bunch is mutable and safe for concurrent use. Elements built from it take
// a snapshot of its attributes, so later changes only show up in later renders.
package bunch
