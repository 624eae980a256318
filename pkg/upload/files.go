package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vango-dev/idom/pkg/protocol"
)

var (
	// ErrUnknownFile is returned for a chunk of a file no stream was opened for.
	ErrUnknownFile = errors.New("upload: no stream for file")

	// ErrEmpty is returned by Drain for a stream that closed without data,
	// which is also what happens to streams still open when Files closes.
	ErrEmpty = errors.New("upload: no data")

	// ErrBacklog is returned by Enqueue when a file has more chunks waiting
	// than its queue holds. The file's stream is closed.
	ErrBacklog = errors.New("upload: too many chunks waiting")
)

// FilesConfig bounds the uploads of one connection.
type FilesConfig struct {
	// MaxChunkSize is the largest accepted chunk. 0 means no limit.
	MaxChunkSize int

	// MaxQueueSize is the number of chunks buffered per stream, and the
	// number waiting to be put on it by Enqueue.
	// Default: 16.
	MaxQueueSize int

	// MaxStreamCount is the number of files receiving at once. Further
	// uploads wait for a slot. 0 means no limit.
	MaxStreamCount int64

	// MessageTimeout bounds each put and get. 0 means no limit.
	MessageTimeout time.Duration

	// CompletionTimeout closes a stream that has not received its last
	// chunk this long after its first. 0 means no limit.
	CompletionTimeout time.Duration
}

// DefaultFilesConfig returns a FilesConfig with sensible defaults.
func DefaultFilesConfig() FilesConfig {
	return FilesConfig{
		MaxChunkSize:      1 << 20,
		MaxQueueSize:      16,
		MaxStreamCount:    4,
		MessageTimeout:    30 * time.Second,
		CompletionTimeout: 10 * time.Minute,
	}
}

type fileState struct {
	stream   *ByteStream
	acquired bool
	timer    *time.Timer
	chunks   chan *protocol.FileUpload
	ctx      context.Context
	cancel   context.CancelFunc
}

// FilesOption configures Files.
type FilesOption func(*Files)

// WithErrorHandler sets the function told about chunks Enqueue accepted
// but could not deliver.
func WithErrorHandler(fn func(file string, err error)) FilesOption {
	return func(f *Files) { f.onError = fn }
}

// Files routes file-upload chunks to per-file streams.
type Files struct {
	config  FilesConfig
	logger  *slog.Logger
	sem     *semaphore.Weighted
	onError func(file string, err error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	streams map[string]*fileState
}

// NewFiles creates a file router.
func NewFiles(config FilesConfig, logger *slog.Logger, opts ...FilesOption) *Files {
	if config.MaxQueueSize <= 0 {
		config.MaxQueueSize = DefaultFilesConfig().MaxQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	f := &Files{
		config:  config,
		logger:  logger.With("component", "upload"),
		streams: make(map[string]*fileState),
	}
	f.ctx, f.cancel = context.WithCancel(context.Background())
	if config.MaxStreamCount > 0 {
		f.sem = semaphore.NewWeighted(config.MaxStreamCount)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the stream for a file name, creating it if needed.
func (f *Files) Get(name string) *ByteStream {
	f.mu.Lock()
	defer f.mu.Unlock()

	if st, ok := f.streams[name]; ok {
		return st.stream
	}
	st := &fileState{
		stream: NewByteStream(f.config.MaxChunkSize, f.config.MaxQueueSize, f.config.MessageTimeout),
	}
	st.ctx, st.cancel = context.WithCancel(f.ctx)
	f.streams[name] = st
	return st.stream
}

// Handle puts one chunk on its file's stream and returns once it is queued.
// The last chunk closes the stream. While the stream limit is reached it
// waits for a slot, so callers reading chunks for several files from one
// source should use Enqueue.
func (f *Files) Handle(ctx context.Context, msg *protocol.FileUpload) error {
	st, err := f.lookup(msg.File)
	if err != nil {
		return err
	}
	f.arm(msg.File, st)
	if err := f.acquire(ctx, st); err != nil {
		return err
	}
	if err := f.put(ctx, msg.File, st, msg); err != nil {
		f.finish(msg.File, st)
		return err
	}
	return nil
}

// Enqueue hands a chunk to its file's receiver and returns without waiting.
// Chunks of one file are put on its stream in order; files waiting for a
// slot do not hold up the others. Failures after Enqueue returns go to the
// error handler.
func (f *Files) Enqueue(msg *protocol.FileUpload) error {
	st, err := f.lookup(msg.File)
	if err != nil {
		return err
	}
	f.arm(msg.File, st)

	f.mu.Lock()
	if st.chunks == nil {
		st.chunks = make(chan *protocol.FileUpload, f.config.MaxQueueSize)
		f.wg.Add(1)
		go f.receive(msg.File, st)
	}
	f.mu.Unlock()

	select {
	case st.chunks <- msg:
		return nil
	default:
		f.finish(msg.File, st)
		return fmt.Errorf("%w: %q", ErrBacklog, msg.File)
	}
}

// receive puts the enqueued chunks of one file on its stream.
func (f *Files) receive(name string, st *fileState) {
	defer f.wg.Done()
	for {
		select {
		case <-st.ctx.Done():
			return
		case msg := <-st.chunks:
			err := f.acquire(st.ctx, st)
			if err == nil {
				err = f.put(st.ctx, name, st, msg)
			}
			if err != nil {
				// streams ended by a timeout or Close are not reported
				if st.ctx.Err() == nil {
					f.logger.Warn("upload chunk dropped", "file", name, "error", err)
					if f.onError != nil {
						f.onError(name, err)
					}
				}
				f.finish(name, st)
				return
			}
			if msg.Last() {
				return
			}
		}
	}
}

func (f *Files) lookup(name string) (*fileState, error) {
	f.mu.Lock()
	st, ok := f.streams[name]
	f.mu.Unlock()
	if !ok {
		f.logger.Info("no stream for file", "file", name)
		return nil, fmt.Errorf("%w: %q", ErrUnknownFile, name)
	}
	return st, nil
}

// put queues the chunk's data. The last chunk closes the stream.
func (f *Files) put(ctx context.Context, name string, st *fileState, msg *protocol.FileUpload) error {
	if len(msg.Data) > 0 {
		if err := st.stream.Put(ctx, msg.Data); err != nil {
			return err
		}
	}
	if msg.Last() {
		f.finish(name, st)
	}
	return nil
}

// arm starts the completion timer on the first chunk of a file.
func (f *Files) arm(name string, st *fileState) {
	d := f.config.CompletionTimeout
	if d <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if st.timer != nil || st.ctx.Err() != nil {
		return
	}
	st.timer = time.AfterFunc(d, func() {
		f.logger.Warn("file upload timed out", "file", name, "after", d)
		f.finish(name, st)
	})
}

// Drain copies the stream of a file into sink and returns the stored id.
// It waits as long as ctx allows for the upload to start; after that each
// chunk must arrive within the message timeout.
func (f *Files) Drain(ctx context.Context, name string, stream *ByteStream, sink Sink) (string, error) {
	first, err := stream.get(ctx, false)
	if errors.Is(err, io.EOF) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", err
	}
	r := io.MultiReader(bytes.NewReader(first), stream.Reader(ctx))
	id, err := sink.Save(ctx, name, r)
	if err != nil {
		f.logger.Error("file upload failed", "file", name, "error", err)
		return "", err
	}
	f.logger.Info("file uploaded", "file", name, "id", id)
	return id, nil
}

// Close closes every open stream and waits for Enqueue's receivers to stop.
func (f *Files) Close() {
	f.mu.Lock()
	states := f.streams
	f.streams = make(map[string]*fileState)
	f.mu.Unlock()

	f.cancel()
	for _, st := range states {
		f.release(st)
	}
	f.wg.Wait()
}

// Open returns the number of streams not yet completed.
func (f *Files) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

func (f *Files) acquire(ctx context.Context, st *fileState) error {
	if f.sem == nil {
		return nil
	}
	f.mu.Lock()
	acquired := st.acquired
	f.mu.Unlock()
	if acquired {
		return nil
	}
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := st.ctx.Err(); err != nil {
		// released while waiting
		f.sem.Release(1)
		return err
	}
	st.acquired = true
	return nil
}

// finish removes a stream if it is still registered under name.
func (f *Files) finish(name string, st *fileState) {
	f.mu.Lock()
	if cur, ok := f.streams[name]; ok && cur == st {
		delete(f.streams, name)
	}
	f.mu.Unlock()
	f.release(st)
}

func (f *Files) release(st *fileState) {
	st.cancel()
	st.stream.Close()
	f.mu.Lock()
	if st.timer != nil {
		st.timer.Stop()
	}
	acquired := st.acquired
	st.acquired = false
	f.mu.Unlock()
	if acquired {
		f.sem.Release(1)
	}
}
