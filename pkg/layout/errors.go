package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrNotMounted is returned by Dispatch and Rerender before the first
	// Render or after Close.
	ErrNotMounted = errors.New("layout: not mounted")

	// ErrNilTree is returned when Render is called without a tree.
	ErrNilTree = errors.New("layout: nil tree")

	// ErrDepthExceeded is the cause of a RenderError when the tree is deeper
	// than the configured limit, usually because a component renders itself.
	ErrDepthExceeded = errors.New("layout: maximum depth exceeded")

	// ErrDuplicateKey is the cause of a RenderError when two siblings share a key.
	ErrDuplicateKey = errors.New("layout: duplicate key")

	// ErrInvalidElement is the cause of a RenderError for an element that
	// cannot be put on the wire, such as one with an empty tag.
	ErrInvalidElement = errors.New("layout: invalid element")

	// ErrRenderPanic is the cause of a RenderError when a component panics.
	ErrRenderPanic = errors.New("layout: component panicked")
)

// RenderError reports a tree that could not be rendered.
// The layout keeps its previous mounted tree.
type RenderError struct {
	Path string // Path of the offending node
	Err  error  // one of the sentinel causes above
	Info string // Optional detail
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("layout: render failed at %q: %v", e.Path, e.Err)
	if e.Info != "" {
		msg += ": " + e.Info
	}
	return msg
}

func (e *RenderError) Unwrap() error { return e.Err }

// CallbackError wraps an error returned, or a panic raised, by an event callback.
type CallbackError struct {
	Target string
	Type   string
	Err    error
	Panic  any // Recovered value if the callback panicked
}

func (e *CallbackError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("layout: %s callback at %q panicked: %v", e.Type, e.Target, e.Panic)
	}
	return fmt.Sprintf("layout: %s callback at %q: %v", e.Type, e.Target, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// Reasons for an UnknownTargetWarning.
const (
	ReasonAbsent    = "absent"
	ReasonNoHandler = "no-handler"
)

// UnknownTargetWarning records an event that could not be delivered.
// It is not an error: the client may have raced a patch that removed the node.
type UnknownTargetWarning struct {
	Target string
	Type   string
	Reason string // ReasonAbsent or ReasonNoHandler
}

func (w UnknownTargetWarning) String() string {
	return fmt.Sprintf("unknown target %q for %s event (%s)", w.Target, w.Type, w.Reason)
}
