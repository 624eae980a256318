// Package display is a Go client for an idom server.
//
// A Display connects to a server's stream, performs the handshake and keeps
// a replica of the server's layout by applying every layout-update it
// receives. It can send events and uploads like a browser would, which makes
// it the tool for testing applications end to end:
//
//	d, err := display.Dial(ctx, "ws://localhost:8000/_api/stream")
//	...
//	defer d.Close()
//	path, _, _ := vdom.Find(d.Tree(), display.ByTag("button"))
//	d.Send(ctx, element.Event{Target: path, Type: "click"})
//	d.WaitFor(ctx, display.HasText("count: 1"))
package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/protocol"
	"github.com/vango-dev/idom/pkg/vdom"
)

var (
	// ErrClosed is returned once the connection has ended.
	ErrClosed = errors.New("display: closed")

	// ErrHandshake is returned by Dial when the server does not open with
	// a server-handshake.
	ErrHandshake = errors.New("display: bad handshake")
)

// DefaultChunkSize is the chunk size of Upload.
const DefaultChunkSize = 64 << 10

// Option configures a Display.
type Option func(*Display)

// WithHeader sets request headers for the WebSocket dial, such as cookies.
func WithHeader(h http.Header) Option {
	return func(d *Display) { d.header = h }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Display) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithWriteTimeout bounds each write. Default: 10 seconds.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(d *Display) { d.writeTimeout = timeout }
}

// Display is a connected client.
type Display struct {
	ws           *websocket.Conn
	codec        protocol.Codec
	header       http.Header
	logger       *slog.Logger
	writeTimeout time.Duration
	version      string

	writeMu sync.Mutex

	mu      sync.Mutex
	tree    *vdom.Node
	updates int
	errs    []protocol.Error
	changed chan struct{}
	err     error
	done    chan struct{}
}

// Dial connects to the stream at rawURL and completes the handshake. The
// location sent to the server is derived from the URL path.
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Display, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	d := &Display{
		logger:       slog.Default(),
		writeTimeout: 10 * time.Second,
		changed:      make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, d.header)
	if err != nil {
		return nil, fmt.Errorf("display: dial %s: %w", rawURL, err)
	}
	d.ws = ws

	if dl, ok := ctx.Deadline(); ok {
		ws.SetReadDeadline(dl)
	}
	msg, err := d.read()
	if err != nil {
		ws.Close()
		return nil, err
	}
	hs, ok := msg.(*protocol.ServerHandshake)
	if !ok {
		ws.Close()
		return nil, fmt.Errorf("%w: got %s", ErrHandshake, msg.FrameType())
	}
	d.version = hs.Version
	ws.SetReadDeadline(time.Time{})

	loc := protocol.Location{Pathname: strings.TrimSuffix(u.Path, "/_api/stream")}
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	if u.RawQuery != "" {
		loc.Search = "?" + u.RawQuery
	}
	if err := d.write(ctx, &protocol.ClientHandshake{Version: hs.Version, Location: loc}); err != nil {
		ws.Close()
		return nil, err
	}

	go d.readLoop()
	return d, nil
}

// Version returns the protocol version the server announced.
func (d *Display) Version() string { return d.version }

// Tree returns a copy of the replica, or nil before the first update.
func (d *Display) Tree() *vdom.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tree.Clone()
}

// Updates returns the number of layout-updates applied.
func (d *Display) Updates() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updates
}

// Errors returns the error messages the server sent.
func (d *Display) Errors() []protocol.Error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.Error(nil), d.errs...)
}

// Send sends an event.
func (d *Display) Send(ctx context.Context, ev element.Event) error {
	return d.write(ctx, &protocol.LayoutEvent{Event: ev})
}

// Click sends a click event to the node at path.
func (d *Display) Click(ctx context.Context, path string) error {
	return d.Send(ctx, element.Event{Target: path, Type: "click"})
}

// Input sends an input event carrying value to the node at path, shaped the
// way the browser client sends it.
func (d *Display) Input(ctx context.Context, path, value string) error {
	return d.Send(ctx, element.Event{
		Target: path,
		Type:   "input",
		Data:   []any{map[string]any{"target": map[string]any{"value": value}}},
	})
}

// Upload sends the contents of r as file in chunks of chunkSize bytes.
// size must be the total length. A chunkSize of 0 uses DefaultChunkSize.
func (d *Display) Upload(ctx context.Context, file string, r io.Reader, size int64, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	var sent int64
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 || sent == 0 {
			sent += int64(n)
			msg := &protocol.FileUpload{
				File:           file,
				Data:           append([]byte(nil), buf[:n]...),
				ChunkSize:      chunkSize,
				BytesSent:      sent,
				BytesRemaining: size - sent,
			}
			if werr := d.write(ctx, msg); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("display: upload %s: %w", file, err)
		}
	}
}

// WaitFor blocks until match returns true for the replica and returns that
// tree.
func (d *Display) WaitFor(ctx context.Context, match func(*vdom.Node) bool) (*vdom.Node, error) {
	for {
		d.mu.Lock()
		tree, changed, err := d.tree, d.changed, d.err
		if tree != nil && match(tree) {
			tree = tree.Clone()
			d.mu.Unlock()
			return tree, nil
		}
		d.mu.Unlock()
		if err != nil {
			return nil, err
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Done is closed when the connection ends.
func (d *Display) Done() <-chan struct{} { return d.done }

// Err returns why the connection ended, or nil while it is open.
// A connection closed normally by either side reports ErrClosed.
func (d *Display) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Close closes the connection and waits for the read loop to exit.
func (d *Display) Close() error {
	select {
	case <-d.done:
		return d.ws.Close()
	default:
	}

	d.writeMu.Lock()
	d.ws.SetWriteDeadline(time.Now().Add(time.Second))
	err := d.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	d.writeMu.Unlock()

	select {
	case <-d.done:
	case <-time.After(time.Second):
	}
	d.ws.Close()
	<-d.done
	if errors.Is(err, websocket.ErrCloseSent) {
		err = nil
	}
	return err
}

func (d *Display) readLoop() {
	defer close(d.done)
	for {
		msg, err := d.read()
		if err != nil {
			var perr *protocol.ProtocolError
			if errors.As(err, &perr) {
				d.logger.Error("bad message", "error", err)
				continue
			}
			d.finish(err)
			return
		}
		switch m := msg.(type) {
		case *protocol.LayoutUpdate:
			if err := d.apply(m.Patch); err != nil {
				d.finish(err)
				return
			}
		case *protocol.Error:
			d.mu.Lock()
			d.errs = append(d.errs, *m)
			d.notify()
			d.mu.Unlock()
			d.logger.Warn("server error", "code", m.Code, "message", m.Message, "fatal", m.Fatal)
		default:
			d.logger.Warn("unexpected message", "frame", msg.FrameType())
		}
	}
}

func (d *Display) apply(p *vdom.Patch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	tree, err := vdom.Apply(d.tree, p)
	if err != nil {
		return fmt.Errorf("display: apply update %d: %w", d.updates+1, err)
	}
	d.tree = tree
	d.updates++
	d.notify()
	return nil
}

// notify wakes WaitFor callers. d.mu must be held.
func (d *Display) notify() {
	close(d.changed)
	d.changed = make(chan struct{})
}

func (d *Display) finish(err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		err = ErrClosed
	} else {
		err = fmt.Errorf("%w: %w", ErrClosed, err)
	}
	d.mu.Lock()
	d.err = err
	d.notify()
	d.mu.Unlock()
}

func (d *Display) read() (protocol.Message, error) {
	for {
		mt, data, err := d.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.BinaryMessage {
			return d.codec.Decode(data)
		}
	}
}

func (d *Display) write(ctx context.Context, msg protocol.Message) error {
	data, err := d.codec.Encode(msg)
	if err != nil {
		return err
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	deadline := time.Now().Add(d.writeTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	d.ws.SetWriteDeadline(deadline)
	if err := d.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return nil
}
