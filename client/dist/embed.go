// Package clientdist holds the browser client served by SimpleWebServer.
package clientdist

import _ "embed"

// IdomJS is the browser client. It is served at "/_client/idom.js".
//
//go:embed idom.js
var IdomJS []byte
