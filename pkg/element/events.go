package element

import (
	"context"
	"fmt"
)

// Event is a client-originated occurrence addressed to the node at Target.
type Event struct {
	Target string `json:"target"`
	Type   string `json:"type"`
	Data   []any  `json:"data,omitempty"`
}

// Handler is a normalised event callback.
type Handler func(ctx context.Context, ev Event) error

// EventHandler binds a handler to an event type.
type EventHandler struct {
	Type    string // "click", "input", etc.
	Handler Handler
}

// On binds a handler for an event type. fn may be a func(), func(Event),
// func(Event) error, func(context.Context, Event) error or a Handler.
func On(eventType string, fn any) EventHandler {
	return EventHandler{Type: eventType, Handler: wrap(fn)}
}

func wrap(fn any) Handler {
	switch f := fn.(type) {
	case nil:
		return nil
	case Handler:
		return f
	case func(context.Context, Event) error:
		return f
	case func(Event) error:
		return func(_ context.Context, ev Event) error { return f(ev) }
	case func(Event):
		return func(_ context.Context, ev Event) error { f(ev); return nil }
	case func() error:
		return func(context.Context, Event) error { return f() }
	case func():
		return func(context.Context, Event) error { f(); return nil }
	default:
		panic(fmt.Sprintf("element: unsupported handler type %T", fn))
	}
}

// OnClick handles click events.
func OnClick(fn any) EventHandler { return On("click", fn) }

// OnDblClick handles double-click events.
func OnDblClick(fn any) EventHandler { return On("dblclick", fn) }

// OnInput handles input events (fired when value changes).
func OnInput(fn any) EventHandler { return On("input", fn) }

// OnChange handles change events (fired when value is committed).
func OnChange(fn any) EventHandler { return On("change", fn) }

// OnSubmit handles form submit events.
func OnSubmit(fn any) EventHandler { return On("submit", fn) }

// OnKeyDown handles keydown events.
func OnKeyDown(fn any) EventHandler { return On("keydown", fn) }

// OnFocus handles focus events.
func OnFocus(fn any) EventHandler { return On("focus", fn) }

// OnBlur handles blur events.
func OnBlur(fn any) EventHandler { return On("blur", fn) }

// StringData returns the i-th payload value as a string.
// Browsers send input values either bare or as {"target": {"value": ...}}.
func (ev Event) StringData(i int) string {
	if i < 0 || i >= len(ev.Data) {
		return ""
	}
	switch v := ev.Data[i].(type) {
	case string:
		return v
	case map[string]any:
		if target, ok := v["target"].(map[string]any); ok {
			if s, ok := target["value"].(string); ok {
				return s
			}
		}
		if s, ok := v["value"].(string); ok {
			return s
		}
	}
	s, _ := FormatValue(ev.Data[i])
	return s
}
