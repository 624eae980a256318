// Package server connects layouts to clients.
//
// BaseServer runs the serve loop for one connection: it sends the server
// handshake and the initial render, then reads client messages and pushes a
// layout-update after every render until the client goes away or a callback
// returns ErrStop. It works over any Conn.
//
// SimpleServer is an http.Handler that upgrades requests to WebSockets and
// serves one Layout per client. SimpleWebServer adds a chi router around it:
// the bundled browser client, a server-rendered index page, sessions, file
// uploads and Prometheus metrics.
//
//	srv := server.NewSimpleWebServer(func() *element.Element {
//	    return App.New()
//	}, nil)
//	log.Fatal(srv.Run(ctx))
//
// Components reach the connection they are rendered for through the context
// returned by Hooks.Context:
//
//	conn := server.ConnectionFrom(h.Context())
//	loc := server.LocationFrom(h.Context())
package server
