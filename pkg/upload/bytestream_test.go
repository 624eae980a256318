package upload

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestByteStreamPutGet(t *testing.T) {
	ctx := context.Background()
	s := NewByteStream(4, 2, time.Second)

	if err := s.Put(ctx, []byte("ab")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := s.Put(ctx, []byte("cd")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := s.Put(ctx, []byte("toolong")); !errors.Is(err, ErrChunkTooLarge) {
		t.Errorf("oversized Put = %v, want ErrChunkTooLarge", err)
	}
	s.Close()

	for _, want := range []string{"ab", "cd"} {
		got, err := s.Get(ctx)
		if err != nil || string(got) != want {
			t.Fatalf("Get = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := s.Get(ctx); err != io.EOF {
		t.Errorf("Get after drain = %v, want EOF", err)
	}
	if err := s.Put(ctx, []byte("x")); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Put after Close = %v, want ErrStreamClosed", err)
	}
}

func TestByteStreamTimeouts(t *testing.T) {
	ctx := context.Background()
	s := NewByteStream(0, 1, 20*time.Millisecond)

	if _, err := s.Get(ctx); !errors.Is(err, ErrTimeout) {
		t.Errorf("Get on empty stream = %v, want ErrTimeout", err)
	}
	if err := s.Put(ctx, []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, []byte("b")); !errors.Is(err, ErrTimeout) {
		t.Errorf("Put on full stream = %v, want ErrTimeout", err)
	}
}

func TestByteStreamCloseUnblocksPut(t *testing.T) {
	s := NewByteStream(0, 1, 0)
	if err := s.Put(context.Background(), []byte("a")); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Put(context.Background(), []byte("b")) }()

	time.Sleep(10 * time.Millisecond)
	s.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrStreamClosed) {
			t.Errorf("blocked Put = %v, want ErrStreamClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Put still blocked after Close")
	}
}

func TestByteStreamReader(t *testing.T) {
	ctx := context.Background()
	s := NewByteStream(0, 4, time.Second)
	go func() {
		for _, chunk := range []string{"hello", " ", "world"} {
			s.Put(ctx, []byte(chunk))
		}
		s.Close()
	}()
	data, err := io.ReadAll(s.Reader(ctx))
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("data = %q", data)
	}
}
