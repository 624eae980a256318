package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		wantLen int
	}{
		{
			name:    "empty_payload",
			frame:   Frame{Type: FrameLayoutEvent, Payload: []byte{}},
			wantLen: FrameHeaderSize,
		},
		{
			name:    "with_payload",
			frame:   Frame{Type: FrameLayoutUpdate, Payload: []byte{0x01, 0x02, 0x03}},
			wantLen: FrameHeaderSize + 3,
		},
		{
			name:    "compressed_flag",
			frame:   Frame{Type: FrameError, Flags: FlagCompressed, Payload: []byte("test")},
			wantLen: FrameHeaderSize + 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := tc.frame.Encode()
			if len(encoded) != tc.wantLen {
				t.Errorf("Encode() length = %d, want %d", len(encoded), tc.wantLen)
			}

			decoded, err := DecodeFrame(encoded)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if decoded.Type != tc.frame.Type || decoded.Flags != tc.frame.Flags {
				t.Errorf("header = %v/%v, want %v/%v", decoded.Type, decoded.Flags, tc.frame.Type, tc.frame.Flags)
			}
			if !bytes.Equal(decoded.Payload, tc.frame.Payload) {
				t.Errorf("Payload = %v, want %v", decoded.Payload, tc.frame.Payload)
			}
		})
	}
}

func TestFrameLengthIsBigEndian(t *testing.T) {
	f := Frame{Type: FrameLayoutUpdate, Payload: make([]byte, 0x010203)}
	b := f.Encode()
	if b[2] != 0x00 || b[3] != 0x01 || b[4] != 0x02 || b[5] != 0x03 {
		t.Errorf("length bytes = % x", b[2:6])
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short_header", []byte{0x00, 0x00}, io.ErrUnexpectedEOF},
		{"short_payload", []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x05, 'a'}, io.ErrUnexpectedEOF},
		{"too_large", []byte{0x02, 0x00, 0x7f, 0xff, 0xff, 0xff}, ErrFrameTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeFrame(tc.data); !errors.Is(err, tc.want) {
				t.Errorf("DecodeFrame() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	frames := []*Frame{
		{Type: FrameServerHandshake, Payload: []byte(`{"version":"1"}`)},
		{Type: FrameLayoutEvent, Payload: []byte(`{"target":"/0","type":"click"}`)},
	}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}
	for _, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		if got.Type != want.Type || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("ReadFrame() = %v %q, want %v %q", got.Type, got.Payload, want.Type, want.Payload)
		}
	}
	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("ReadFrame() at end = %v, want EOF", err)
	}
}

func TestFrameTypeString(t *testing.T) {
	if FrameLayoutEvent.String() != "layout-event" {
		t.Errorf("String() = %q", FrameLayoutEvent.String())
	}
	if FrameType(0x7f).String() != "unknown(0x7f)" {
		t.Errorf("String() = %q", FrameType(0x7f).String())
	}
}
