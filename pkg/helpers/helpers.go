// Package helpers provides hook-based state cells and small constructors
// for writing components.
package helpers

import (
	"reflect"
	"sort"
	"sync"

	"github.com/vango-dev/idom/pkg/element"
)

// State is a component-local value. Changing it re-renders the owning
// component. It is safe to use from any goroutine.
type State[T any] struct {
	mu         sync.RWMutex
	value      T
	invalidate func()
}

// UseState returns the component's state cell, creating it with initial on
// the first render.
func UseState[T any](h element.Hooks, initial T) *State[T] {
	return h.Slot(func() any {
		return &State[T]{value: initial, invalidate: h.Invalidate}
	}).(*State[T])
}

// Get returns the current value.
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and schedules a re-render.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	s.invalidate()
}

// Update applies fn to the current value atomically and schedules a re-render.
func (s *State[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	s.mu.Unlock()
	s.invalidate()
}

// Var is a component-local mutable value that never triggers a re-render.
type Var[T any] struct {
	mu    sync.RWMutex
	value T
}

// UseVar returns the component's variable, creating it with initial on the
// first render.
func UseVar[T any](h element.Hooks, initial T) *Var[T] {
	return h.Slot(func() any { return &Var[T]{value: initial} }).(*Var[T])
}

// Get returns the current value.
func (v *Var[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set replaces the value.
func (v *Var[T]) Set(value T) {
	v.mu.Lock()
	v.value = value
	v.mu.Unlock()
}

type memo[T any] struct {
	deps  []any
	value T
}

// UseMemo returns compute's result, recomputing it only when deps change.
func UseMemo[T any](h element.Hooks, compute func() T, deps ...any) T {
	m := h.Slot(func() any { return &memo[T]{deps: deps, value: compute()} }).(*memo[T])
	if !reflect.DeepEqual(m.deps, deps) {
		m.deps = deps
		m.value = compute()
	}
	return m.value
}

// UseEffect runs fn once, when the component is first rendered. The function
// fn returns, if not nil, runs when the component is unmounted.
func UseEffect(h element.Hooks, fn func() func()) {
	h.Slot(func() any {
		if cleanup := fn(); cleanup != nil {
			h.OnUnmount(cleanup)
		}
		return struct{}{}
	})
}

// Events maps event types to handlers. Handlers may be any function accepted
// by element.On.
type Events map[string]any

// Bind returns the handlers as element arguments, in event type order.
func (ev Events) Bind() []any {
	types := make([]string, 0, len(ev))
	for t := range ev {
		types = append(types, t)
	}
	sort.Strings(types)
	args := make([]any, 0, len(types))
	for _, t := range types {
		if ev[t] == nil {
			continue
		}
		args = append(args, element.On(t, ev[t]))
	}
	return args
}

// Node builds an element from an attribute map. Children are any arguments
// accepted by element.New.
func Node(tag string, attrs map[string]any, children ...any) *element.Element {
	args := make([]any, 0, len(children)+1)
	if len(attrs) > 0 {
		args = append(args, element.Attrs(attrs).Clone())
	}
	args = append(args, children...)
	return element.New(tag, args...)
}
