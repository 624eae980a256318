package layout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/vdom"
)

// State is the lifecycle state of a Layout.
type State int

const (
	Unmounted State = iota
	Mounted
)

func (s State) String() string {
	if s == Mounted {
		return "mounted"
	}
	return "unmounted"
}

// Layout holds the mounted tree of one client.
type Layout struct {
	mu       sync.Mutex
	opts     options
	root     *element.Element
	mounted  *mounted
	index    map[string]*mounted
	warnings []UnknownTargetWarning

	pending atomic.Bool
	updates chan struct{}
}

// New creates an unmounted layout.
func New(opts ...Option) *Layout {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Layout{
		opts:    o,
		updates: make(chan struct{}, 1),
	}
}

// Render reconciles tree against the mounted tree and returns the patch for
// the client. On error the previous tree stays mounted and no patch is
// returned. A render in progress always completes; ctx is used for tracing.
func (l *Layout) Render(ctx context.Context, tree *element.Element) (*vdom.Patch, error) {
	_, span := l.opts.tracer.Start(ctx, "layout.render")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.render(tree)
	endSpan(span, p, err)
	return p, err
}

// Dispatch delivers ev to the callback bound on its target. It returns the
// patch of the re-render the callback caused, or nil if nothing changed.
// An event for an unknown target is recorded as an UnknownTargetWarning
// and is not an error.
func (l *Layout) Dispatch(ctx context.Context, ev element.Event) (*vdom.Patch, error) {
	ctx, span := l.opts.tracer.Start(ctx, "layout.dispatch", trace.WithAttributes(
		attribute.String("event.target", ev.Target),
		attribute.String("event.type", ev.Type),
	))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mounted == nil {
		return nil, ErrNotMounted
	}

	target, ok := l.index[ev.Target]
	if !ok {
		l.warn(UnknownTargetWarning{Target: ev.Target, Type: ev.Type, Reason: ReasonAbsent})
		return nil, nil
	}
	handler, ok := target.el.Handler(ev.Type)
	if !ok {
		l.warn(UnknownTargetWarning{Target: ev.Target, Type: ev.Type, Reason: ReasonNoHandler})
		return nil, nil
	}

	if err := invoke(ctx, handler, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "callback failed")
		return nil, err
	}

	if !l.pending.Load() {
		return nil, nil
	}
	p, err := l.render(l.root)
	endSpan(span, p, err)
	return p, err
}

// Rerender re-renders the current tree if a component was invalidated,
// typically from a goroutine outside any callback. It returns nil when
// nothing is pending.
func (l *Layout) Rerender(ctx context.Context) (*vdom.Patch, error) {
	_, span := l.opts.tracer.Start(ctx, "layout.render", trace.WithAttributes(
		attribute.Bool("render.rerender", true),
	))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mounted == nil {
		return nil, ErrNotMounted
	}
	if !l.pending.Load() {
		return nil, nil
	}
	p, err := l.render(l.root)
	endSpan(span, p, err)
	return p, err
}

// Updates is signalled whenever a component invalidates itself.
// The channel holds at most one pending signal.
func (l *Layout) Updates() <-chan struct{} {
	return l.updates
}

// Close unmounts the tree, running every component's unmount callbacks.
// Closing an unmounted layout is a no-op. A closed layout can be rendered again.
func (l *Layout) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mounted == nil {
		return nil
	}
	l.unmount(l.mounted)
	l.mounted = nil
	l.index = nil
	l.root = nil
	l.pending.Store(false)
	l.opts.logger.Debug("layout closed")
	return nil
}

// State returns the lifecycle state.
func (l *Layout) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mounted == nil {
		return Unmounted
	}
	return Mounted
}

// Tree returns a copy of the client's view of the mounted tree, or nil.
func (l *Layout) Tree() *vdom.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mounted == nil {
		return nil
	}
	return l.mounted.node.Clone()
}

// Warnings returns the warnings recorded so far.
func (l *Layout) Warnings() []UnknownTargetWarning {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]UnknownTargetWarning(nil), l.warnings...)
}

func (l *Layout) render(tree *element.Element) (*vdom.Patch, error) {
	if tree == nil {
		return nil, &RenderError{Path: vdom.Root, Err: ErrNilTree}
	}
	start := time.Now()
	wasPending := l.pending.Swap(false)

	r := newRenderer(l)
	var (
		m   *mounted
		err error
	)
	if l.mounted == nil {
		m, err = r.mount(tree, vdom.Root, "", 0)
		if err == nil {
			r.ops = append(r.ops, vdom.Op{Kind: vdom.OpReplace, Path: vdom.Root, Node: m.node})
		}
	} else {
		m, err = r.update(l.mounted, tree, vdom.Root, vdom.Root, "", 0)
	}
	if err != nil {
		r.rollback()
		if wasPending {
			l.pending.Store(true)
		}
		l.opts.logger.Error("render failed", "error", err)
		return nil, err
	}

	r.commit()
	l.root = tree
	l.mounted = m
	l.index = buildIndex(m)

	p := &vdom.Patch{Ops: r.ops}
	l.opts.logger.Debug("rendered",
		"ops", p.Len(),
		"nodes", len(l.index),
		"duration", time.Since(start))
	return p, nil
}

func (l *Layout) invalidate() {
	l.pending.Store(true)
	select {
	case l.updates <- struct{}{}:
	default:
	}
}

func (l *Layout) warn(w UnknownTargetWarning) {
	l.warnings = append(l.warnings, w)
	l.opts.logger.Warn("unknown event target",
		"target", w.Target,
		"type", w.Type,
		"reason", w.Reason)
	if l.opts.onWarning != nil {
		l.opts.onWarning(w)
	}
}

// unmount tears down every component below m.
func (l *Layout) unmount(m *mounted) {
	if m == nil {
		return
	}
	for _, c := range m.children {
		l.unmount(c)
	}
	l.unmount(m.inner)
	if m.comp != nil {
		l.unmountState(m.comp)
	}
}

func (l *Layout) unmountState(st *componentState) {
	if st.unmounted.Swap(true) {
		return
	}
	for i := len(st.cleanup) - 1; i >= 0; i-- {
		func(fn func()) {
			defer func() {
				if v := recover(); v != nil {
					l.opts.logger.Error("unmount callback panicked",
						"component", st.def.Name(),
						"path", st.path,
						"panic", v)
				}
			}()
			fn()
		}(st.cleanup[i])
	}
	st.cleanup = nil
}

func invoke(ctx context.Context, h element.Handler, ev element.Event) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &CallbackError{Target: ev.Target, Type: ev.Type, Panic: v, Err: fmt.Errorf("panic: %v", v)}
		}
	}()
	if err := h(ctx, ev); err != nil {
		return &CallbackError{Target: ev.Target, Type: ev.Type, Err: err}
	}
	return nil
}

// buildIndex maps every path to the element or text record at it.
func buildIndex(root *mounted) map[string]*mounted {
	idx := make(map[string]*mounted)
	var walk func(m *mounted, path string)
	walk = func(m *mounted, path string) {
		m = m.leaf()
		idx[path] = m
		for i, c := range m.children {
			walk(c, vdom.Join(path, vdom.Segment(i, c.node.Key)))
		}
	}
	walk(root, vdom.Root)
	return idx
}

func endSpan(span trace.Span, p *vdom.Patch, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return
	}
	span.SetAttributes(attribute.Int("patch.ops", p.Len()))
}
