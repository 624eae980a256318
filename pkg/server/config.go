package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vango-dev/idom/pkg/upload"
)

// StreamPath is the suffix of the WebSocket route. A request for
// "/some/page/_api/stream" serves the page at "/some/page".
const StreamPath = "/_api/stream"

// Config holds server configuration.
type Config struct {
	// Address is the address to listen on.
	// Default: ":8000"
	Address string

	// ReadTimeout is the deadline for a client message. The browser client
	// sends nothing while idle, so this should be generous.
	// Default: 10 minutes
	ReadTimeout time.Duration

	// WriteTimeout is the deadline for writing one message.
	// Default: 10 seconds
	WriteTimeout time.Duration

	// ReadBufferSize is the WebSocket read buffer size.
	// Default: 4096
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	// Default: 4096
	WriteBufferSize int

	// MaxMessageSize is the largest message accepted from a client.
	// Default: 8 MiB
	MaxMessageSize int64

	// EventQueueSize is the number of client events buffered between the
	// read loop and the event loop.
	// Default: 64
	EventQueueSize int

	// CheckOrigin validates the Origin header of WebSocket upgrades.
	// Default: same-origin only
	CheckOrigin func(r *http.Request) bool

	// Uploads bounds file uploads per connection.
	// Default: upload.DefaultFilesConfig()
	Uploads *upload.FilesConfig

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30 seconds
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout is passed to http.Server.
	// Default: 5 seconds
	ReadHeaderTimeout time.Duration

	// IdleTimeout is passed to http.Server.
	// Default: 60 seconds
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	files := upload.DefaultFilesConfig()
	return &Config{
		Address:           ":8000",
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Second,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		MaxMessageSize:    8 << 20,
		EventQueueSize:    64,
		CheckOrigin:       sameOrigin,
		Uploads:           &files,
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.EventQueueSize == 0 {
		out.EventQueueSize = d.EventQueueSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.Uploads == nil {
		out.Uploads = d.Uploads
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	return &out
}

// sameOrigin accepts requests without an Origin header and requests whose
// Origin host matches the Host header.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
