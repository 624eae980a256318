// Package protocol defines the messages exchanged between a server and a
// display, and the frames that carry them over a WebSocket.
//
// Every WebSocket binary message is one frame:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//	│  Payload (JSON, gzip compressed if FlagCompressed is set)   │
//	└─────────────────────────────────────────────────────────────┘
//
// The frame type names the message. A connection starts with the server
// sending a ServerHandshake; the client answers with a ClientHandshake.
// After that the server sends LayoutUpdate messages and the client sends
// LayoutEvent and FileUpload messages. Either side may send an Error.
package protocol
