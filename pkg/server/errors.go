package server

import "errors"

var (
	// ErrStop is returned by a callback to end the connection gracefully.
	ErrStop = errors.New("server: stop")

	// ErrConnClosed is returned by a Conn used after it was closed.
	ErrConnClosed = errors.New("server: connection closed")

	// ErrNoRoot is returned when a server has no root constructor or the
	// constructor returns nil.
	ErrNoRoot = errors.New("server: no root element")

	// ErrAlreadyServing is returned by Serve on a server that is running.
	ErrAlreadyServing = errors.New("server: already serving")
)
