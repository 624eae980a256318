package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/layout"
	"github.com/vango-dev/idom/pkg/protocol"
	"github.com/vango-dev/idom/pkg/upload"
	"github.com/vango-dev/idom/pkg/vdom"
)

// Option configures a server.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    *Metrics
	layoutOpts []layout.Option
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records connection activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLayoutOptions adds options for every layout the server creates.
func WithLayoutOptions(opts ...layout.Option) Option {
	return func(o *options) {
		o.layoutOpts = append(o.layoutOpts, opts...)
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BaseServer runs the serve loop of a connection.
type BaseServer struct {
	config  *Config
	logger  *slog.Logger
	metrics *Metrics
	opts    []layout.Option
}

// NewBaseServer creates a BaseServer. A nil config uses DefaultConfig.
func NewBaseServer(config *Config, opts ...Option) *BaseServer {
	o := newOptions(opts)
	return &BaseServer{
		config:  config.withDefaults(),
		logger:  o.logger.With("component", "server"),
		metrics: o.metrics,
		opts:    o.layoutOpts,
	}
}

// Serve renders root for the client on conn and serves it until the client
// disconnects, ctx is cancelled or a callback returns ErrStop, all of which
// return nil. Serve closes conn before returning.
//
// The Connection in ctx, if any, is made available to components together
// with the upload streams of this connection.
func (s *BaseServer) Serve(ctx context.Context, conn Conn, root *element.Element) error {
	defer conn.Close()
	if root == nil {
		return ErrNoRoot
	}

	c := ConnectionFrom(ctx)
	if c == nil {
		c = &Connection{Location: protocol.Location{Pathname: "/"}}
	}
	files := upload.NewFiles(*s.config.Uploads, s.logger, upload.WithErrorHandler(func(file string, err error) {
		conn.Send(ctx, &protocol.Error{Code: protocol.CodeUpload, Message: err.Error()})
	}))
	defer files.Close()
	c.Files = files
	ctx = WithConnection(ctx, c)

	logger := s.logger.With("path", c.Location.Pathname)
	if c.Session != nil {
		logger = logger.With("session_id", c.Session.ID)
	}

	lopts := append([]layout.Option{
		layout.WithLogger(logger),
		layout.WithContext(ctx),
		layout.WithWarningHandler(s.metrics.warning),
	}, s.opts...)
	l := layout.New(lopts...)
	defer l.Close()

	s.metrics.connOpened()
	defer s.metrics.connClosed()
	logger.Info("client connected")
	defer logger.Info("client disconnected")

	if err := conn.Send(ctx, &protocol.ServerHandshake{Version: protocol.Version}); err != nil {
		return ignoreClosed(err)
	}

	start := time.Now()
	p, err := l.Render(ctx, root)
	s.metrics.rendered(time.Since(start))
	if err != nil {
		logger.Error("initial render failed", "error", err)
		conn.Send(ctx, &protocol.Error{Code: protocol.CodeRender, Message: err.Error(), Fatal: true})
		return err
	}
	if err := s.send(ctx, conn, p); err != nil {
		return ignoreClosed(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() { conn.Close() })
	defer stop()

	events := make(chan element.Event, s.config.EventQueueSize)
	lp := &loop{server: s, conn: conn, layout: l, files: files, logger: logger}
	g.Go(func() error { return lp.incoming(gctx, events) })
	g.Go(func() error { return lp.outgoing(gctx, events) })

	err = g.Wait()
	if errors.Is(err, ErrStop) {
		logger.Debug("stopped by callback")
		return nil
	}
	return ignoreClosed(err)
}

func (s *BaseServer) send(ctx context.Context, conn Conn, p *vdom.Patch) error {
	if p.Empty() {
		return nil
	}
	if err := conn.Send(ctx, &protocol.LayoutUpdate{Patch: p}); err != nil {
		return err
	}
	s.metrics.patchSent(p)
	return nil
}

// loop holds the state shared by the two halves of a connection.
type loop struct {
	server *BaseServer
	conn   Conn
	layout *layout.Layout
	files  *upload.Files
	logger *slog.Logger
}

// incoming reads client messages until the connection goes away. File
// chunks are handed to their receivers so uploads never hold up events.
func (lp *loop) incoming(ctx context.Context, events chan<- element.Event) error {
	for {
		msg, err := lp.conn.Receive(ctx)
		if err != nil {
			var perr *protocol.ProtocolError
			if errors.As(err, &perr) {
				lp.logger.Error("unknown message", "frame", perr.Frame, "error", err)
				continue
			}
			return err
		}

		switch m := msg.(type) {
		case *protocol.LayoutEvent:
			select {
			case events <- m.Event:
			case <-ctx.Done():
				return nil
			}
		case *protocol.ClientHandshake:
			lp.logger.Debug("client handshake", "version", m.Version, "location", m.Location.Pathname)
		case *protocol.FileUpload:
			lp.server.metrics.uploadChunk()
			if err := lp.files.Enqueue(m); err != nil {
				lp.logger.Warn("upload chunk dropped", "file", m.File, "error", err)
				if errors.Is(err, upload.ErrUnknownFile) {
					continue
				}
				if err := lp.conn.Send(ctx, &protocol.Error{Code: protocol.CodeUpload, Message: err.Error()}); err != nil {
					return err
				}
			}
		default:
			lp.logger.Error("unexpected message", "frame", msg.FrameType())
		}
	}
}

// outgoing dispatches events in order and sends a layout-update for every
// render, including renders triggered outside callbacks.
func (lp *loop) outgoing(ctx context.Context, events <-chan element.Event) error {
	for {
		var (
			p     *vdom.Patch
			err   error
			start = time.Now()
		)
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			p, err = lp.layout.Dispatch(ctx, ev)
			if !errors.Is(err, ErrStop) {
				lp.server.metrics.event(ev.Type, callbackErr(err))
			}
		case <-lp.layout.Updates():
			p, err = lp.layout.Rerender(ctx)
		}
		lp.server.metrics.rendered(time.Since(start))

		if err != nil {
			if errors.Is(err, ErrStop) {
				return ErrStop
			}
			if err := lp.report(ctx, err); err != nil {
				return err
			}
			continue
		}
		if err := lp.server.send(ctx, lp.conn, p); err != nil {
			return err
		}
	}
}

// report tells the client about a failed callback or render. The layout
// keeps its last good tree so the connection stays up.
func (lp *loop) report(ctx context.Context, err error) error {
	code := protocol.CodeInternal
	var (
		cerr *layout.CallbackError
		rerr *layout.RenderError
	)
	switch {
	case errors.As(err, &cerr):
		code = protocol.CodeCallback
		lp.logger.Error("callback failed", "target", cerr.Target, "type", cerr.Type, "error", cerr.Err)
	case errors.As(err, &rerr):
		code = protocol.CodeRender
		lp.logger.Error("render failed", "path", rerr.Path, "error", rerr.Err)
	default:
		lp.logger.Error("dispatch failed", "error", err)
	}
	return lp.conn.Send(ctx, &protocol.Error{Code: code, Message: err.Error()})
}

func callbackErr(err error) error {
	var cerr *layout.CallbackError
	if errors.As(err, &cerr) {
		return err
	}
	return nil
}

func ignoreClosed(err error) error {
	if err == nil || errors.Is(err, ErrConnClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
