// Package layout reconciles element trees for a single client.
//
// A Layout owns the mounted tree: the last rendered elements, the state
// retained for each mounted component, and the wire form the client holds.
// Render diffs a new element tree against the mounted one and returns the
// patch that brings the client replica up to date. Dispatch routes a client
// event to the callback bound on the target node and, when the callback
// changed component state, returns the re-render's patch.
//
// # Reconciliation
//
// Children are matched per sibling group: keyed children by key, unkeyed
// children by their position among unkeyed siblings. A matched pair is
// updated in place when identity (tag or component definition) agrees.
// Everything else is removed or inserted. Per group the patch lists
// removals first, then at most one reorder, then inserts in ascending final
// index. Op paths refer to the tree before the patch, except inserts, which
// address their parent.
//
// # Lifecycle
//
// A Layout starts Unmounted. The first successful Render mounts it and emits
// a single replace of the root. Close unmounts every component, running
// their unmount callbacks, and returns the layout to Unmounted.
//
// All methods are safe for concurrent use; operations are serialized.
// Callbacks run while the layout is locked and must not call back into it;
// they change state through hooks instead.
package layout
