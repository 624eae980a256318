package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/vango-dev/idom/pkg/protocol"
	"github.com/vango-dev/idom/pkg/session"
	"github.com/vango-dev/idom/pkg/upload"
)

// Connection describes the client a layout is rendered for.
type Connection struct {
	// Request is the request that opened the connection, or nil.
	Request *http.Request

	// Location is the page the client is displaying.
	Location protocol.Location

	// Session is the client's session, or nil without session middleware.
	Session *session.State

	// Files receives the client's file uploads. Set by BaseServer.Serve.
	Files *upload.Files
}

type connKey struct{}

// WithConnection returns a context carrying c.
func WithConnection(ctx context.Context, c *Connection) context.Context {
	return context.WithValue(ctx, connKey{}, c)
}

// ConnectionFrom returns the connection stored in ctx, or nil.
func ConnectionFrom(ctx context.Context) *Connection {
	c, _ := ctx.Value(connKey{}).(*Connection)
	return c
}

// LocationFrom returns the location of the connection stored in ctx.
func LocationFrom(ctx context.Context) protocol.Location {
	if c := ConnectionFrom(ctx); c != nil {
		return c.Location
	}
	return protocol.Location{Pathname: "/"}
}

// FilesFrom returns the upload streams of the connection stored in ctx,
// or nil.
func FilesFrom(ctx context.Context) *upload.Files {
	if c := ConnectionFrom(ctx); c != nil {
		return c.Files
	}
	return nil
}

// locationOf derives the page location from a stream request.
func locationOf(r *http.Request) protocol.Location {
	path := strings.TrimSuffix(r.URL.Path, StreamPath)
	if path == "" {
		path = "/"
	}
	loc := protocol.Location{Pathname: path}
	if r.URL.RawQuery != "" {
		loc.Search = "?" + r.URL.RawQuery
	}
	return loc
}
