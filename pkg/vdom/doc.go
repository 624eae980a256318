// Package vdom defines the wire form of a rendered element tree and the
// patches that transform one rendered tree into the next.
//
// The server-side layout never sends elements directly. It lowers them to
// Node values (components are expanded, handlers become event names) and
// describes every change as a Patch. A client keeps a replica Node tree and
// calls Apply for each patch it receives.
//
// # Paths
//
// Every node is addressed by a path. The root is "" and each child appends
// "/" plus a segment: "k:" followed by the escaped key for keyed children,
// otherwise the child's index in its sibling list:
//
//	""            <div>
//	"/0"            <h1>
//	"/k:todo-1"     <li key="todo-1">
//	"/k:todo-1/0"     "Buy milk"
//
// Both sides recompute paths from the tree after every patch.
//
// # Patch Ordering
//
// Ops reference paths in the pre-patch tree, except inserts which introduce
// new nodes. Within one sibling group the layout emits removals first, then a
// single reorder, then inserts in ascending index order, so Apply can resolve
// every target before mutating anything.
package vdom
