package layout

import (
	"fmt"
	"sort"

	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/vdom"
)

// renderer carries the state of one render cycle. Nothing it does is
// visible until commit.
type renderer struct {
	l       *Layout
	ops     []vdom.Op
	created []*componentState
	removed []*mounted
	paths   map[*componentState]string
}

func newRenderer(l *Layout) *renderer {
	return &renderer{l: l, paths: make(map[*componentState]string)}
}

// mount builds a fresh record for el. It emits no ops; the caller inserts
// or replaces the resulting node.
func (r *renderer) mount(el *element.Element, path, key string, depth int) (*mounted, error) {
	if depth > r.l.opts.maxDepth {
		return nil, &RenderError{Path: path, Err: ErrDepthExceeded, Info: fmt.Sprintf("limit %d", r.l.opts.maxDepth)}
	}

	switch el.Kind() {
	case element.KindText:
		return &mounted{el: el, node: &vdom.Node{Key: key, Text: el.Text()}}, nil

	case element.KindComponent:
		st := &componentState{def: el.Component(), layout: r.l}
		r.created = append(r.created, st)
		out, err := r.renderComponent(st, el, path)
		if err != nil {
			return nil, err
		}
		inner, err := r.mount(out, path, key, depth+1)
		if err != nil {
			return nil, err
		}
		return &mounted{el: el, node: inner.node, comp: st, inner: inner}, nil

	default:
		if err := checkElement(el, path); err != nil {
			return nil, err
		}
		node := newElementNode(el, key)
		m := &mounted{el: el, node: node}
		for i, c := range el.Children() {
			cm, err := r.mount(c, vdom.Join(path, vdom.Segment(i, c.Key())), c.Key(), depth+1)
			if err != nil {
				return nil, err
			}
			m.children = append(m.children, cm)
			node.Children = append(node.Children, cm.node)
		}
		return m, nil
	}
}

// update reconciles old with el. prePath addresses old in the client's
// current tree; newPath is where el will live once the patch is applied.
func (r *renderer) update(old *mounted, el *element.Element, prePath, newPath, key string, depth int) (*mounted, error) {
	if depth > r.l.opts.maxDepth {
		return nil, &RenderError{Path: newPath, Err: ErrDepthExceeded, Info: fmt.Sprintf("limit %d", r.l.opts.maxDepth)}
	}

	if !element.SameIdentity(old.el, el) {
		m, err := r.mount(el, newPath, key, depth)
		if err != nil {
			return nil, err
		}
		r.ops = append(r.ops, vdom.Op{Kind: vdom.OpReplace, Path: prePath, Node: m.node})
		r.removed = append(r.removed, old)
		return m, nil
	}

	switch el.Kind() {
	case element.KindText:
		if old.node.Text != el.Text() {
			r.ops = append(r.ops, vdom.Op{Kind: vdom.OpSetText, Path: prePath, Text: el.Text()})
		}
		return &mounted{el: el, node: &vdom.Node{Key: key, Text: el.Text()}}, nil

	case element.KindComponent:
		st := old.comp
		out, err := r.renderComponent(st, el, newPath)
		if err != nil {
			return nil, err
		}
		inner, err := r.update(old.inner, out, prePath, newPath, key, depth+1)
		if err != nil {
			return nil, err
		}
		return &mounted{el: el, node: inner.node, comp: st, inner: inner}, nil

	default:
		if err := checkElement(el, newPath); err != nil {
			return nil, err
		}
		node := newElementNode(el, key)
		if op, ok := diffAttrs(old.node, node, prePath); ok {
			r.ops = append(r.ops, op)
		}
		m := &mounted{el: el, node: node}
		if err := r.diffChildren(old, m, prePath, newPath, depth); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// diffChildren reconciles one sibling group and fills m's children.
func (r *renderer) diffChildren(old, m *mounted, prePath, newPath string, depth int) error {
	oldKids := old.children
	newKids := m.el.Children()

	oldByKey := make(map[string]int)
	var oldUnkeyed []int
	for j, c := range oldKids {
		if k := c.node.Key; k != "" {
			oldByKey[k] = j
		} else {
			oldUnkeyed = append(oldUnkeyed, j)
		}
	}

	// match[i] is the index in oldKids reused for newKids[i], or -1.
	match := make([]int, len(newKids))
	used := make([]bool, len(oldKids))
	nth := 0
	for i, c := range newKids {
		match[i] = -1
		j := -1
		if k := c.Key(); k != "" {
			if oj, ok := oldByKey[k]; ok {
				j = oj
			}
		} else {
			if nth < len(oldUnkeyed) {
				j = oldUnkeyed[nth]
			}
			nth++
		}
		if j >= 0 && element.SameIdentity(oldKids[j].el, c) {
			match[i] = j
			used[j] = true
		}
	}

	oldSeg := func(j int) string { return vdom.Segment(j, oldKids[j].node.Key) }

	for j := range oldKids {
		if !used[j] {
			r.ops = append(r.ops, vdom.Op{Kind: vdom.OpRemove, Path: vdom.Join(prePath, oldSeg(j))})
			r.removed = append(r.removed, oldKids[j])
		}
	}

	var order []string
	moved := false
	last := -1
	for _, j := range match {
		if j < 0 {
			continue
		}
		if j < last {
			moved = true
		}
		last = j
		order = append(order, oldSeg(j))
	}
	if moved {
		r.ops = append(r.ops, vdom.Op{Kind: vdom.OpReorder, Path: prePath, Order: order})
	}

	for i, c := range newKids {
		childPath := vdom.Join(newPath, vdom.Segment(i, c.Key()))
		var (
			cm  *mounted
			err error
		)
		if j := match[i]; j >= 0 {
			cm, err = r.update(oldKids[j], c, vdom.Join(prePath, oldSeg(j)), childPath, c.Key(), depth+1)
		} else {
			cm, err = r.mount(c, childPath, c.Key(), depth+1)
			if err == nil {
				r.ops = append(r.ops, vdom.Op{Kind: vdom.OpInsert, Path: prePath, Index: i, Node: cm.node})
			}
		}
		if err != nil {
			return err
		}
		m.children = append(m.children, cm)
		m.node.Children = append(m.node.Children, cm.node)
	}
	return nil
}

func (r *renderer) renderComponent(st *componentState, el *element.Element, path string) (out *element.Element, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &RenderError{Path: path, Err: ErrRenderPanic, Info: fmt.Sprintf("%s: %v", st.def.Name(), v)}
		}
	}()
	h := &hooks{state: st, ctx: r.l.opts.ctx, path: path}
	out = st.def.Render(h, el.Props())
	if out == nil {
		out = element.Text("")
	}
	r.paths[st] = path
	return out, nil
}

// commit makes the cycle's results permanent: components learn their new
// paths and removed subtrees are unmounted.
func (r *renderer) commit() {
	for st, path := range r.paths {
		st.path = path
	}
	for _, m := range r.removed {
		r.l.unmount(m)
	}
}

// rollback discards components created by a failed cycle.
func (r *renderer) rollback() {
	for _, st := range r.created {
		r.l.unmountState(st)
	}
}

func checkElement(el *element.Element, path string) error {
	if el.Tag() == "" {
		return &RenderError{Path: path, Err: ErrInvalidElement, Info: "empty tag"}
	}
	seen := make(map[string]bool)
	for _, c := range el.Children() {
		k := c.Key()
		if k == "" {
			continue
		}
		if seen[k] {
			return &RenderError{Path: path, Err: ErrDuplicateKey, Info: fmt.Sprintf("%q", k)}
		}
		seen[k] = true
	}
	return nil
}

func newElementNode(el *element.Element, key string) *vdom.Node {
	node := &vdom.Node{Tag: el.Tag(), Key: key, Events: el.EventTypes()}
	for name, v := range el.Attrs() {
		s, ok := element.FormatValue(v)
		if !ok {
			continue
		}
		if node.Attrs == nil {
			node.Attrs = make(map[string]string)
		}
		node.Attrs[name] = s
	}
	return node
}

func diffAttrs(prev, next *vdom.Node, path string) (vdom.Op, bool) {
	op := vdom.Op{Kind: vdom.OpUpdateAttrs, Path: path}
	for name, v := range next.Attrs {
		if pv, ok := prev.Attrs[name]; !ok || pv != v {
			if op.Set == nil {
				op.Set = make(map[string]string)
			}
			op.Set[name] = v
		}
	}
	for name := range prev.Attrs {
		if _, ok := next.Attrs[name]; !ok {
			op.Remove = append(op.Remove, name)
		}
	}
	sort.Strings(op.Remove)
	if !equalStrings(prev.Events, next.Events) {
		op.SetEvents = true
		op.Events = next.Events
	}
	return op, len(op.Set) > 0 || len(op.Remove) > 0 || op.SetEvents
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
