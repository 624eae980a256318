package protocol

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultCompressThreshold is the payload size above which frames are compressed.
const DefaultCompressThreshold = 4 << 10

// ProtocolError reports a frame that could not be decoded.
type ProtocolError struct {
	Frame FrameType
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: %s: %v", e.Frame, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ErrDecompressedTooLarge is returned when a compressed payload expands
// beyond the payload limit.
var ErrDecompressedTooLarge = errors.New("protocol: decompressed payload too large")

// Codec converts messages to frames and back.
type Codec struct {
	// CompressThreshold is the payload size above which payloads are gzip
	// compressed. Zero uses DefaultCompressThreshold; negative disables
	// compression.
	CompressThreshold int

	// MaxPayloadSize bounds decoded payloads. Zero uses DefaultMaxPayloadSize.
	MaxPayloadSize int
}

// DefaultCodec is the codec used by Encode and Decode.
var DefaultCodec = &Codec{}

// Encode encodes msg with DefaultCodec.
func Encode(msg Message) ([]byte, error) { return DefaultCodec.Encode(msg) }

// Decode decodes a frame with DefaultCodec.
func Decode(data []byte) (Message, error) { return DefaultCodec.Decode(data) }

// Encode marshals msg into an encoded frame.
func (c *Codec) Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", msg.FrameType(), err)
	}
	f := &Frame{Type: msg.FrameType(), Payload: payload}

	threshold := c.CompressThreshold
	if threshold == 0 {
		threshold = DefaultCompressThreshold
	}
	if threshold > 0 && len(payload) > threshold {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		f.Payload = buf.Bytes()
		f.Flags |= FlagCompressed
	}
	if len(f.Payload) > c.maxPayload() {
		return nil, ErrFrameTooLarge
	}
	return f.Encode(), nil
}

// Decode unmarshals an encoded frame into its message.
func (c *Codec) Decode(data []byte) (Message, error) {
	f, err := DecodeFrame(data)
	if err != nil {
		return nil, &ProtocolError{Err: err}
	}
	return c.DecodeFrame(f)
}

// DecodeFrame unmarshals the payload of a decoded frame.
func (c *Codec) DecodeFrame(f *Frame) (Message, error) {
	msg, ok := newMessage(f.Type)
	if !ok {
		return nil, &ProtocolError{Frame: f.Type, Err: ErrInvalidFrameType}
	}
	payload := f.Payload
	if f.Flags.Has(FlagCompressed) {
		var err error
		if payload, err = c.decompress(payload); err != nil {
			return nil, &ProtocolError{Frame: f.Type, Err: err}
		}
	}
	if err := json.Unmarshal(payload, msg); err != nil {
		return nil, &ProtocolError{Frame: f.Type, Err: err}
	}
	return msg, nil
}

func (c *Codec) decompress(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	limit := int64(c.maxPayload())
	out, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, ErrDecompressedTooLarge
	}
	return out, nil
}

func (c *Codec) maxPayload() int {
	if c.MaxPayloadSize > 0 {
		return c.MaxPayloadSize
	}
	return DefaultMaxPayloadSize
}
