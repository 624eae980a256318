package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/session"
)

// RootFunc builds the root element for a new connection. It is usually a
// component so each connection gets its own state.
type RootFunc func() *element.Element

// SimpleServer serves one layout per WebSocket connection.
type SimpleServer struct {
	base     *BaseServer
	root     RootFunc
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewSimpleServer creates a SimpleServer. A nil config uses DefaultConfig.
func NewSimpleServer(root RootFunc, config *Config, opts ...Option) *SimpleServer {
	config = config.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &SimpleServer{
		base: NewBaseServer(config, opts...),
		root: root,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// ServeHTTP upgrades the request and serves the connection until it ends.
func (s *SimpleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	var root *element.Element
	if s.root != nil {
		root = s.root()
	}
	if root == nil {
		s.base.logger.Error("no root element", "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Upgrade only writes the headers it is given.
	var header http.Header
	if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
		header = http.Header{"Set-Cookie": cookies}
	}
	ws, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade has already written the error response.
		s.base.logger.Debug("upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	ctx = WithConnection(ctx, &Connection{
		Request:  r,
		Location: locationOf(r),
		Session:  session.FromContext(r.Context()),
	})
	if err := s.base.Serve(ctx, NewWebSocketConn(ws, s.base.config), root); err != nil {
		s.base.logger.Error("connection failed", "error", err)
	}
}

// Close ends every open connection and waits for them to finish.
// Later upgrade requests are refused.
func (s *SimpleServer) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
	return nil
}
