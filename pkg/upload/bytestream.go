package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	// ErrStreamClosed is returned when putting into a closed stream.
	ErrStreamClosed = errors.New("upload: stream closed")

	// ErrChunkTooLarge is returned when a chunk exceeds the stream's limit.
	ErrChunkTooLarge = errors.New("upload: chunk too large")

	// ErrTimeout is returned when a put or get waits longer than allowed.
	ErrTimeout = errors.New("upload: timed out")
)

// ByteStream is a bounded queue of byte chunks with one writer and one reader.
type ByteStream struct {
	queue        chan []byte
	closed       chan struct{}
	closeOnce    sync.Once
	maxChunkSize int
	timeout      time.Duration
}

// NewByteStream creates a stream. maxChunkSize of 0 means no limit;
// timeout of 0 means puts and gets wait for as long as their context allows.
func NewByteStream(maxChunkSize, maxQueueSize int, timeout time.Duration) *ByteStream {
	if maxQueueSize <= 0 {
		maxQueueSize = 1
	}
	return &ByteStream{
		queue:        make(chan []byte, maxQueueSize),
		closed:       make(chan struct{}),
		maxChunkSize: maxChunkSize,
		timeout:      timeout,
	}
}

// Put appends a chunk, waiting for room in the queue.
func (s *ByteStream) Put(ctx context.Context, data []byte) error {
	select {
	case <-s.closed:
		return ErrStreamClosed
	default:
	}
	if s.maxChunkSize > 0 && len(data) > s.maxChunkSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrChunkTooLarge, len(data), s.maxChunkSize)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	select {
	case s.queue <- data:
		return nil
	case <-s.closed:
		return ErrStreamClosed
	case <-ctx.Done():
		return timeoutErr(ctx)
	}
}

// Get returns the next chunk. Chunks queued before Close are still
// delivered; after that Get returns io.EOF.
func (s *ByteStream) Get(ctx context.Context) ([]byte, error) {
	return s.get(ctx, true)
}

// get waits for a chunk, bounded by the stream's timeout if limit is set.
func (s *ByteStream) get(ctx context.Context, limit bool) ([]byte, error) {
	select {
	case data := <-s.queue:
		return data, nil
	default:
	}

	if limit {
		var cancel context.CancelFunc
		ctx, cancel = s.withTimeout(ctx)
		defer cancel()
	}

	select {
	case data := <-s.queue:
		return data, nil
	case <-s.closed:
		select {
		case data := <-s.queue:
			return data, nil
		default:
			return nil, io.EOF
		}
	case <-ctx.Done():
		return nil, timeoutErr(ctx)
	}
}

// Close marks the end of the stream. It is safe to call more than once.
func (s *ByteStream) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Closed reports whether Close has been called.
func (s *ByteStream) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Reader returns an io.Reader over the stream's chunks.
func (s *ByteStream) Reader(ctx context.Context) io.Reader {
	return &streamReader{ctx: ctx, s: s}
}

func (s *ByteStream) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

func timeoutErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

type streamReader struct {
	ctx  context.Context
	s    *ByteStream
	rest []byte
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.rest) == 0 {
		chunk, err := r.s.Get(r.ctx)
		if err != nil {
			return 0, err
		}
		r.rest = chunk
	}
	n := copy(p, r.rest)
	r.rest = r.rest[n:]
	return n, nil
}
