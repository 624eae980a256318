package protocol

import (
	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/vdom"
)

// Version is the protocol version sent in handshakes.
const Version = "1"

// Message is implemented by every protocol message.
type Message interface {
	FrameType() FrameType
}

// ServerHandshake is the first message of a connection.
type ServerHandshake struct {
	Version string `json:"version"`
}

// Location describes the page a client is displaying.
type Location struct {
	Pathname string `json:"pathname"`
	Search   string `json:"search,omitempty"`
}

// ClientHandshake answers the server handshake.
type ClientHandshake struct {
	Version  string   `json:"version"`
	Location Location `json:"location"`
}

// LayoutUpdate carries one render's patch.
type LayoutUpdate struct {
	Patch *vdom.Patch `json:"patch"`
}

// LayoutEvent carries one client event.
type LayoutEvent struct {
	element.Event
}

// FileUpload carries one chunk of a file the client is sending.
type FileUpload struct {
	File           string `json:"file"`
	Data           []byte `json:"data"`
	ChunkSize      int    `json:"bytes-chunk-size"`
	BytesSent      int64  `json:"bytes-sent"`
	BytesRemaining int64  `json:"bytes-remaining"`
}

// Last reports whether this is the final chunk of the file.
func (m *FileUpload) Last() bool { return m.BytesRemaining <= 0 }

// Error codes.
const (
	CodeProtocol = "protocol"
	CodeCallback = "callback"
	CodeRender   = "render"
	CodeUpload   = "upload"
	CodeInternal = "internal"
)

// Error reports a failure to the peer. A fatal error is followed by the
// connection closing.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal,omitempty"`
}

func (*ServerHandshake) FrameType() FrameType { return FrameServerHandshake }
func (*ClientHandshake) FrameType() FrameType { return FrameClientHandshake }
func (*LayoutUpdate) FrameType() FrameType    { return FrameLayoutUpdate }
func (*LayoutEvent) FrameType() FrameType     { return FrameLayoutEvent }
func (*FileUpload) FrameType() FrameType      { return FrameFileUpload }
func (*Error) FrameType() FrameType           { return FrameError }

// newMessage returns an empty message for a frame type.
func newMessage(ft FrameType) (Message, bool) {
	switch ft {
	case FrameServerHandshake:
		return &ServerHandshake{}, true
	case FrameClientHandshake:
		return &ClientHandshake{}, true
	case FrameLayoutUpdate:
		return &LayoutUpdate{}, true
	case FrameLayoutEvent:
		return &LayoutEvent{}, true
	case FrameFileUpload:
		return &FileUpload{}, true
	case FrameError:
		return &Error{}, true
	default:
		return nil, false
	}
}
