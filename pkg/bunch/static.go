package bunch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vango-dev/idom/pkg/element"
)

// ErrUnknownKey is returned when setting a name outside a StaticBunch schema.
var ErrUnknownKey = errors.New("bunch: unknown key")

// StaticBunch is an attribute bag with a fixed set of names.
type StaticBunch struct {
	mu     sync.RWMutex
	schema []string
	index  map[string]int
	values []any
	set    []bool
}

// NewStatic creates a bunch that accepts exactly the given names.
// Duplicate names are collapsed.
func NewStatic(names ...string) *StaticBunch {
	b := &StaticBunch{index: make(map[string]int, len(names))}
	for _, name := range names {
		if _, dup := b.index[name]; dup || name == "" {
			continue
		}
		b.index[name] = len(b.schema)
		b.schema = append(b.schema, name)
	}
	b.values = make([]any, len(b.schema))
	b.set = make([]bool, len(b.schema))
	return b
}

// Set assigns a value to a declared name.
func (b *StaticBunch) Set(name string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	b.values[i] = value
	b.set[i] = true
	return nil
}

// MustSet is like Set but panics on an unknown name.
func (b *StaticBunch) MustSet(name string, value any) *StaticBunch {
	if err := b.Set(name, value); err != nil {
		panic(err)
	}
	return b
}

// Unset clears a declared name. The name stays in the schema.
func (b *StaticBunch) Unset(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	b.values[i] = nil
	b.set[i] = false
	return nil
}

// Get returns the value of a name and whether it has been set.
func (b *StaticBunch) Get(name string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.index[name]
	if !ok || !b.set[i] {
		return nil, false
	}
	return b.values[i], true
}

// Has reports whether name is part of the schema.
func (b *StaticBunch) Has(name string) bool {
	_, ok := b.index[name]
	return ok
}

// Keys returns the schema in declaration order.
func (b *StaticBunch) Keys() []string {
	return append([]string(nil), b.schema...)
}

// Attrs returns the names that have been set.
func (b *StaticBunch) Attrs() element.Attrs {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(element.Attrs, len(b.schema))
	for i, name := range b.schema {
		if b.set[i] {
			out[name] = b.values[i]
		}
	}
	return out
}
