package vdom

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidOp is returned when an op cannot be applied to the tree.
var ErrInvalidOp = errors.New("vdom: invalid op")

// index records the pre-patch position of every node.
type index struct {
	byPath  map[string]*Node
	parent  map[*Node]*Node
	segment map[*Node]string
}

func buildIndex(root *Node) *index {
	idx := &index{
		byPath:  make(map[string]*Node),
		parent:  make(map[*Node]*Node),
		segment: make(map[*Node]string),
	}
	Walk(root, func(path string, n *Node) bool {
		idx.byPath[path] = n
		for i, c := range n.Children {
			idx.parent[c] = n
			idx.segment[c] = Segment(i, c.Key)
		}
		return true
	})
	return idx
}

// Apply applies a patch to a copy of root and returns the new tree.
// Targets are resolved against the pre-patch tree. root is not modified.
func Apply(root *Node, p *Patch) (*Node, error) {
	if p.Empty() {
		return root, nil
	}
	root = root.Clone()
	idx := buildIndex(root)

	for i, op := range p.Ops {
		var err error
		root, err = applyOp(root, idx, op)
		if err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, op, err)
		}
	}
	return root, nil
}

func applyOp(root *Node, idx *index, op Op) (*Node, error) {
	// Replacing the root works on an empty tree; that is how a tree is first mounted.
	if op.Kind == OpReplace && op.Path == Root {
		if op.Node == nil {
			return nil, ErrInvalidOp
		}
		return op.Node.Clone(), nil
	}

	target, ok := idx.byPath[op.Path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, op.Path)
	}

	switch op.Kind {
	case OpRemove:
		if target == root {
			return nil, nil
		}
		parent := idx.parent[target]
		i := indexOf(parent.Children, target)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q already removed", ErrInvalidOp, op.Path)
		}
		parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)

	case OpReplace:
		if op.Node == nil {
			return nil, ErrInvalidOp
		}
		parent := idx.parent[target]
		i := indexOf(parent.Children, target)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q no longer attached", ErrInvalidOp, op.Path)
		}
		n := op.Node.Clone()
		parent.Children[i] = n
		idx.parent[n] = parent
		idx.segment[n] = idx.segment[target]

	case OpUpdateAttrs:
		if target.IsText() {
			return nil, fmt.Errorf("%w: attributes on text node", ErrInvalidOp)
		}
		for _, k := range op.Remove {
			delete(target.Attrs, k)
		}
		if len(op.Set) > 0 && target.Attrs == nil {
			target.Attrs = make(map[string]string, len(op.Set))
		}
		for k, v := range op.Set {
			target.Attrs[k] = v
		}
		if len(target.Attrs) == 0 {
			target.Attrs = nil
		}
		if op.SetEvents {
			target.Events = nil
			if len(op.Events) > 0 {
				target.Events = append([]string(nil), op.Events...)
				sort.Strings(target.Events)
			}
		}

	case OpSetText:
		if !target.IsText() {
			return nil, fmt.Errorf("%w: set-text on element", ErrInvalidOp)
		}
		target.Text = op.Text

	case OpReorder:
		bySeg := make(map[string]*Node, len(target.Children))
		for _, c := range target.Children {
			bySeg[idx.segment[c]] = c
		}
		if len(op.Order) != len(target.Children) {
			return nil, fmt.Errorf("%w: reorder of %d children lists %d", ErrInvalidOp, len(target.Children), len(op.Order))
		}
		ordered := make([]*Node, 0, len(op.Order))
		for _, seg := range op.Order {
			c, ok := bySeg[seg]
			if !ok {
				return nil, fmt.Errorf("%w: reorder segment %q", ErrInvalidOp, seg)
			}
			delete(bySeg, seg)
			ordered = append(ordered, c)
		}
		target.Children = ordered

	case OpInsert:
		if target.IsText() {
			return nil, fmt.Errorf("%w: insert into text node", ErrInvalidOp)
		}
		if op.Node == nil || op.Index < 0 || op.Index > len(target.Children) {
			return nil, fmt.Errorf("%w: insert at %d of %d", ErrInvalidOp, op.Index, len(target.Children))
		}
		target.Children = append(target.Children, nil)
		copy(target.Children[op.Index+1:], target.Children[op.Index:])
		target.Children[op.Index] = op.Node.Clone()

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidOp, op.Kind)
	}
	return root, nil
}

func indexOf(nodes []*Node, n *Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}
