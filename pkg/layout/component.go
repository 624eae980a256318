package layout

import (
	"context"
	"sync/atomic"

	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/vdom"
)

// componentState is what a layout retains for one mounted component
// instance across renders.
type componentState struct {
	def       *element.Component
	path      string
	slots     []any
	cleanup   []func()
	layout    *Layout
	unmounted atomic.Bool
}

func (s *componentState) invalidate() {
	if s.unmounted.Load() {
		return
	}
	s.layout.invalidate()
}

// hooks implements element.Hooks for a single render of a component.
type hooks struct {
	state  *componentState
	ctx    context.Context
	path   string
	cursor int
}

var _ element.Hooks = (*hooks)(nil)

func (h *hooks) Context() context.Context { return h.ctx }

func (h *hooks) Path() string { return h.path }

func (h *hooks) Slot(init func() any) any {
	s := h.state
	if h.cursor == len(s.slots) {
		s.slots = append(s.slots, init())
	}
	v := s.slots[h.cursor]
	h.cursor++
	return v
}

func (h *hooks) Invalidate() { h.state.invalidate() }

func (h *hooks) OnUnmount(fn func()) {
	if fn != nil {
		h.state.cleanup = append(h.state.cleanup, fn)
	}
}

// mounted pairs an element with the wire node it produced.
// A component record wraps the record of its rendered output and shares
// its node, so a component occupies its output's path.
type mounted struct {
	el       *element.Element
	node     *vdom.Node
	children []*mounted
	comp     *componentState
	inner    *mounted
}

// leaf follows component records down to the element or text record.
func (m *mounted) leaf() *mounted {
	for m.inner != nil {
		m = m.inner
	}
	return m
}
