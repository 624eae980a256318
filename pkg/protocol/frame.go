package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 6

	// DefaultMaxPayloadSize bounds the payload of a single frame.
	DefaultMaxPayloadSize = 8 << 20
)

// FrameType identifies the message a frame carries.
type FrameType uint8

const (
	FrameServerHandshake FrameType = 0x00 // Server → Client, first frame
	FrameClientHandshake FrameType = 0x01 // Client → Server, answer to the handshake
	FrameLayoutUpdate    FrameType = 0x02 // Server → Client patch
	FrameLayoutEvent     FrameType = 0x03 // Client → Server event
	FrameFileUpload      FrameType = 0x04 // Client → Server upload chunk
	FrameError           FrameType = 0x05 // Either direction
)

// String returns the message type name used in logs.
func (ft FrameType) String() string {
	switch ft {
	case FrameServerHandshake:
		return "server-handshake"
	case FrameClientHandshake:
		return "client-handshake"
	case FrameLayoutUpdate:
		return "layout-update"
	case FrameLayoutEvent:
		return "layout-event"
	case FrameFileUpload:
		return "file-upload"
	case FrameError:
		return "error"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(ft))
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagCompressed FrameFlags = 0x01 // Payload is gzip compressed
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a typed payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	buf := make([]byte, FrameHeaderSize+len(f.Payload))
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	binary.BigEndian.PutUint32(buf[2:FrameHeaderSize], uint32(len(f.Payload)))
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

// DecodeFrame decodes a frame from bytes.
// The input must contain the header and the full payload.
func DecodeFrame(data []byte) (*Frame, error) {
	ft, flags, length, err := DecodeFrameHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < FrameHeaderSize+length {
		return nil, io.ErrUnexpectedEOF
	}
	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+length])
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// DecodeFrameHeader decodes just the frame header, returning type, flags, and payload length.
func DecodeFrameHeader(data []byte) (FrameType, FrameFlags, int, error) {
	if len(data) < FrameHeaderSize {
		return 0, 0, 0, io.ErrUnexpectedEOF
	}
	length := binary.BigEndian.Uint32(data[2:FrameHeaderSize])
	if length > DefaultMaxPayloadSize {
		return 0, 0, 0, ErrFrameTooLarge
	}
	return FrameType(data[0]), FrameFlags(data[1]), int(length), nil
}

// ReadFrame reads a complete frame from an io.Reader.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	ft, flags, length, err := DecodeFrameHeader(header)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes a complete frame to an io.Writer.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > DefaultMaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
