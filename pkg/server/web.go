package server

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/idom/pkg/layout"
	"github.com/vango-dev/idom/pkg/session"
	"github.com/vango-dev/idom/pkg/upload"
	"github.com/vango-dev/idom/pkg/vdom"
)

// UploadPath is the route accepting multipart uploads when an upload sink
// is configured.
const UploadPath = "/_api/upload"

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Client}}" defer></script>
</head>
<body>
<div id="idom-app">{{.Body}}</div>
</body>
</html>
`))

// WebOption configures a SimpleWebServer.
type WebOption func(*webOptions)

type webOptions struct {
	title    string
	sessions *session.Manager
	sink     upload.Sink
	gatherer prometheus.Gatherer
	noMetric bool
	server   []Option
}

// WithTitle sets the title of the index page.
func WithTitle(title string) WebOption {
	return func(o *webOptions) { o.title = title }
}

// WithSessions enables session cookies.
func WithSessions(m *session.Manager) WebOption {
	return func(o *webOptions) { o.sessions = m }
}

// WithUploadSink accepts multipart uploads at UploadPath and saves them
// to sink.
func WithUploadSink(sink upload.Sink) WebOption {
	return func(o *webOptions) { o.sink = sink }
}

// WithGatherer serves g at /metrics. Use together with WithMetrics when
// the metrics are registered somewhere other than the server's own registry.
func WithGatherer(g prometheus.Gatherer) WebOption {
	return func(o *webOptions) { o.gatherer = g }
}

// WithMetricsEndpoint turns the /metrics route on or off. It is on by
// default. Metrics are still collected when it is off.
func WithMetricsEndpoint(enabled bool) WebOption {
	return func(o *webOptions) { o.noMetric = !enabled }
}

// WithServerOptions passes options to the underlying SimpleServer.
func WithServerOptions(opts ...Option) WebOption {
	return func(o *webOptions) { o.server = append(o.server, opts...) }
}

// SimpleWebServer is a complete web application: a chi router serving the
// browser client, a server-rendered index page for every path and the
// WebSocket stream the client connects to.
type SimpleWebServer struct {
	config *Config
	root   RootFunc
	stream *SimpleServer
	router chi.Router
	logger *slog.Logger
	title  string
	layout []layout.Option

	mu   sync.Mutex
	http *http.Server
}

// NewSimpleWebServer creates a SimpleWebServer. A nil config uses
// DefaultConfig.
func NewSimpleWebServer(root RootFunc, config *Config, opts ...WebOption) *SimpleWebServer {
	config = config.withDefaults()
	o := webOptions{title: "idom"}
	for _, opt := range opts {
		opt(&o)
	}

	so := newOptions(o.server)
	if so.metrics == nil {
		reg := prometheus.NewRegistry()
		so.metrics = NewMetrics(WithRegistry(reg))
		if o.gatherer == nil {
			o.gatherer = reg
		}
	}
	if o.gatherer == nil {
		o.gatherer = prometheus.DefaultGatherer
	}
	serverOpts := append(o.server, WithMetrics(so.metrics))

	s := &SimpleWebServer{
		config: config,
		root:   root,
		stream: NewSimpleServer(root, config, serverOpts...),
		logger: so.logger.With("component", "web"),
		title:  o.title,
		layout: so.layoutOpts,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if !o.noMetric {
		r.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get(ClientPath, serveClient)
	r.Group(func(r chi.Router) {
		if o.sessions != nil {
			r.Use(o.sessions.Middleware)
		}
		if o.sink != nil {
			r.Method(http.MethodPost, UploadPath, upload.Handler(o.sink, 0))
		}
		r.Get("/*", s.page)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *SimpleWebServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router returns the router so applications can add routes.
func (s *SimpleWebServer) Router() chi.Router {
	return s.router
}

func (s *SimpleWebServer) page(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, StreamPath) {
		s.stream.ServeHTTP(w, r)
		return
	}

	body, err := s.prerender(r)
	if err != nil {
		s.logger.Error("prerender failed", "path", r.URL.Path, "error", err)
		body = ""
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = indexTemplate.Execute(w, map[string]any{
		"Title":  s.title,
		"Client": ClientPath,
		"Body":   template.HTML(body),
	})
	if err != nil {
		s.logger.Error("index write failed", "error", err)
	}
}

// prerender renders the initial tree for r into HTML. The client replaces
// it once its connection delivers the first layout-update.
func (s *SimpleWebServer) prerender(r *http.Request) (string, error) {
	root := s.root()
	if root == nil {
		return "", ErrNoRoot
	}
	ctx := WithConnection(r.Context(), &Connection{
		Request:  r,
		Location: locationOf(r),
		Session:  session.FromContext(r.Context()),
	})
	l := layout.New(append([]layout.Option{
		layout.WithLogger(s.logger),
		layout.WithContext(ctx),
	}, s.layout...)...)
	defer l.Close()

	if _, err := l.Render(ctx, root); err != nil {
		return "", err
	}
	return vdom.HTML(l.Tree()), nil
}

// Run listens on the configured address and serves until ctx is cancelled
// or the process receives SIGINT or SIGTERM, then shuts down gracefully.
func (s *SimpleWebServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln like Run.
func (s *SimpleWebServer) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.http != nil {
		s.mu.Unlock()
		ln.Close()
		return ErrAlreadyServing
	}
	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
	srv := s.http
	s.mu.Unlock()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every client connection and stops the HTTP server.
func (s *SimpleWebServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	// hijacked WebSocket connections are not tracked by http.Server
	s.stream.Close()

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}
