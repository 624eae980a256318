package bunch

import (
	"sort"
	"sync"

	"github.com/vango-dev/idom/pkg/element"
)

// DynamicBunch is an attribute bag with an open set of names.
type DynamicBunch struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewDynamic creates a bunch, optionally seeded with initial values.
func NewDynamic(initial element.Attrs) *DynamicBunch {
	b := &DynamicBunch{values: make(map[string]any, len(initial))}
	for k, v := range initial {
		b.values[k] = v
	}
	return b
}

// Set assigns a value.
func (b *DynamicBunch) Set(name string, value any) {
	b.mu.Lock()
	b.values[name] = value
	b.mu.Unlock()
}

// Get returns a value.
func (b *DynamicBunch) Get(name string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[name]
	return v, ok
}

// Delete removes a name. Deleting an absent name is a no-op.
func (b *DynamicBunch) Delete(name string) {
	b.mu.Lock()
	delete(b.values, name)
	b.mu.Unlock()
}

// Merge copies every attribute of src into the bunch, overwriting
// existing values.
func (b *DynamicBunch) Merge(src element.AttrSource) {
	if src == nil {
		return
	}
	attrs := src.Attrs()
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range attrs {
		b.values[k] = v
	}
}

// Len returns the number of names.
func (b *DynamicBunch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}

// Keys returns the names, sorted.
func (b *DynamicBunch) Keys() []string {
	b.mu.RLock()
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	b.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Attrs returns a snapshot of all attributes.
func (b *DynamicBunch) Attrs() element.Attrs {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return element.Attrs(b.values).Clone()
}
