package vdom

import "fmt"

// OpKind is the type of a patch operation.
type OpKind string

const (
	OpInsert      OpKind = "insert"       // Insert Node under Path at Index
	OpRemove      OpKind = "remove"       // Remove the node at Path
	OpReplace     OpKind = "replace"      // Replace the node at Path with Node
	OpUpdateAttrs OpKind = "update-attrs" // Set/remove attributes and event bindings
	OpSetText     OpKind = "set-text"     // Update a text node
	OpReorder     OpKind = "reorder"      // Reorder the children of Path
)

// Op is a single structural edit.
type Op struct {
	Kind OpKind `json:"op"`
	Path string `json:"path"`

	// OpInsert
	Index int   `json:"index,omitempty"`
	Node  *Node `json:"node,omitempty"`

	// OpUpdateAttrs
	Set       map[string]string `json:"set,omitempty"`
	Remove    []string          `json:"remove,omitempty"`
	SetEvents bool              `json:"setEvents,omitempty"`
	Events    []string          `json:"events,omitempty"`

	// OpSetText
	Text string `json:"text,omitempty"`

	// OpReorder: pre-patch segments of the surviving children in their new order.
	Order []string `json:"order,omitempty"`
}

// String returns a short description of the op for logs and test output.
func (op Op) String() string {
	switch op.Kind {
	case OpInsert:
		return fmt.Sprintf("insert %q[%d]", op.Path, op.Index)
	case OpUpdateAttrs:
		return fmt.Sprintf("update-attrs %q set=%d remove=%d", op.Path, len(op.Set), len(op.Remove))
	case OpSetText:
		return fmt.Sprintf("set-text %q %q", op.Path, op.Text)
	case OpReorder:
		return fmt.Sprintf("reorder %q %v", op.Path, op.Order)
	default:
		return fmt.Sprintf("%s %q", op.Kind, op.Path)
	}
}

// Patch is the ordered edit script produced by one render cycle.
type Patch struct {
	Ops []Op `json:"ops"`
}

// Empty returns true if the patch contains no operations.
func (p *Patch) Empty() bool {
	return p == nil || len(p.Ops) == 0
}

// Len returns the number of operations.
func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Ops)
}

// Count returns the number of operations of the given kind.
func (p *Patch) Count(kind OpKind) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, op := range p.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Append adds operations to the patch.
func (p *Patch) Append(ops ...Op) {
	p.Ops = append(p.Ops, ops...)
}
