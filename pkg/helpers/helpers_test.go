package helpers

import (
	"context"
	"sync"
	"testing"

	"github.com/vango-dev/idom/pkg/element"
)

// fakeHooks is a minimal Hooks implementation that replays slots by order.
type fakeHooks struct {
	slots       []any
	cursor      int
	invalidated int
	unmount     []func()
	mu          sync.Mutex
}

func (h *fakeHooks) Context() context.Context { return context.Background() }
func (h *fakeHooks) Path() string             { return "" }

func (h *fakeHooks) Slot(init func() any) any {
	if h.cursor == len(h.slots) {
		h.slots = append(h.slots, init())
	}
	v := h.slots[h.cursor]
	h.cursor++
	return v
}

func (h *fakeHooks) Invalidate() {
	h.mu.Lock()
	h.invalidated++
	h.mu.Unlock()
}

func (h *fakeHooks) OnUnmount(fn func()) { h.unmount = append(h.unmount, fn) }

func (h *fakeHooks) rerender() { h.cursor = 0 }

func TestUseStatePersistsAcrossRenders(t *testing.T) {
	h := &fakeHooks{}

	s := UseState(h, 1)
	s.Set(5)
	s.Update(func(v int) int { return v * 2 })

	h.rerender()
	again := UseState(h, 1)
	if again != s {
		t.Fatal("UseState returned a new cell on re-render")
	}
	if again.Get() != 10 {
		t.Errorf("Get = %d, want 10", again.Get())
	}
	if h.invalidated != 2 {
		t.Errorf("invalidated %d times, want 2", h.invalidated)
	}
}

func TestUseVarDoesNotInvalidate(t *testing.T) {
	h := &fakeHooks{}
	v := UseVar(h, "a")
	v.Set("b")
	if v.Get() != "b" || h.invalidated != 0 {
		t.Errorf("Get = %q, invalidated = %d", v.Get(), h.invalidated)
	}
}

func TestStateConcurrentSet(t *testing.T) {
	h := &fakeHooks{}
	s := UseState(h, 0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()
	if s.Get() != 10 {
		t.Errorf("Get = %d, want 10", s.Get())
	}
}

func TestUseMemo(t *testing.T) {
	h := &fakeHooks{}
	calls := 0
	compute := func() int { calls++; return calls }

	UseMemo(h, compute, "a", 1)
	h.rerender()
	got := UseMemo(h, compute, "a", 1)
	if got != 1 || calls != 1 {
		t.Errorf("same deps: got %d after %d calls", got, calls)
	}
	h.rerender()
	got = UseMemo(h, compute, "b", 1)
	if got != 2 || calls != 2 {
		t.Errorf("changed deps: got %d after %d calls", got, calls)
	}
}

func TestUseEffect(t *testing.T) {
	h := &fakeHooks{}
	runs, cleanups := 0, 0
	effect := func() func() {
		runs++
		return func() { cleanups++ }
	}

	UseEffect(h, effect)
	h.rerender()
	UseEffect(h, effect)
	if runs != 1 {
		t.Errorf("effect ran %d times, want 1", runs)
	}
	for _, fn := range h.unmount {
		fn()
	}
	if cleanups != 1 {
		t.Errorf("cleanup ran %d times, want 1", cleanups)
	}
}

func TestEventsBind(t *testing.T) {
	clicked := false
	e := element.Button(Events{
		"click": func() { clicked = true },
		"input": func(element.Event) {},
		"blur":  nil,
	}.Bind()...)

	if got := e.EventTypes(); len(got) != 2 || got[0] != "click" || got[1] != "input" {
		t.Fatalf("EventTypes = %v", got)
	}
	h, _ := e.Handler("click")
	_ = h(context.Background(), element.Event{})
	if !clicked {
		t.Error("click handler not bound")
	}
}

func TestNode(t *testing.T) {
	attrs := map[string]any{"class": "x", "key": "k"}
	e := Node("section", attrs, "text", element.Span())
	if e.Tag() != "section" || e.Key() != "k" || e.NumChildren() != 2 {
		t.Errorf("Node = %v key=%q children=%d", e, e.Key(), e.NumChildren())
	}
	attrs["class"] = "y"
	if v, _ := e.Attr("class"); v != "x" {
		t.Error("Node must copy its attribute map")
	}
}
