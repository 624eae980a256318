package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/vdom"
)

func TestCodecMessages(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"server_handshake", &ServerHandshake{Version: Version}},
		{"client_handshake", &ClientHandshake{Version: Version, Location: Location{Pathname: "/app", Search: "?q=1"}}},
		{"layout_update", &LayoutUpdate{Patch: &vdom.Patch{Ops: []vdom.Op{
			{Kind: vdom.OpSetText, Path: "/0/0", Text: "bye"},
			{Kind: vdom.OpInsert, Path: "", Index: 1, Node: &vdom.Node{Tag: "li", Key: "a", Events: []string{"click"}}},
		}}}},
		{"layout_event", &LayoutEvent{Event: element.Event{Target: "/k:a", Type: "input", Data: []any{"text", float64(2)}}}},
		{"file_upload", &FileUpload{File: "a.txt", Data: []byte{0, 1, 2}, ChunkSize: 3, BytesSent: 3, BytesRemaining: 0}},
		{"error", &Error{Code: CodeCallback, Message: "boom", Fatal: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.msg)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if FrameType(data[0]) != tc.msg.FrameType() {
				t.Errorf("frame type = %v, want %v", FrameType(data[0]), tc.msg.FrameType())
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(tc.msg, got); diff != "" {
				t.Errorf("message mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecCompression(t *testing.T) {
	big := &Error{Code: CodeInternal, Message: strings.Repeat("x", 10_000)}

	data, err := Encode(big)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !FrameFlags(data[1]).Has(FlagCompressed) {
		t.Fatal("large payload was not compressed")
	}
	if len(data) >= 10_000 {
		t.Errorf("compressed frame is %d bytes", len(data))
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(Message(big), got); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}

	plain := &Codec{CompressThreshold: -1}
	data, err = plain.Encode(big)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if FrameFlags(data[1]).Has(FlagCompressed) {
		t.Error("compression not disabled")
	}
}

func TestCodecDecompressionLimit(t *testing.T) {
	data, err := Encode(&Error{Message: strings.Repeat("y", 20_000)})
	if err != nil {
		t.Fatal(err)
	}
	small := &Codec{MaxPayloadSize: 1_000}
	if _, err := small.Decode(data); !errors.Is(err, ErrDecompressedTooLarge) {
		t.Errorf("Decode() error = %v, want ErrDecompressedTooLarge", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"unknown_type", (&Frame{Type: 0x42, Payload: []byte("{}")}).Encode(), ErrInvalidFrameType},
		{"bad_json", (&Frame{Type: FrameLayoutEvent, Payload: []byte("{")}).Encode(), nil},
		{"bad_gzip", (&Frame{Type: FrameLayoutEvent, Flags: FlagCompressed, Payload: []byte("nope")}).Encode(), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			var perr *ProtocolError
			if !errors.As(err, &perr) {
				t.Fatalf("Decode() error = %v, want *ProtocolError", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("Decode() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFileUploadLast(t *testing.T) {
	if !(&FileUpload{BytesRemaining: 0}).Last() || (&FileUpload{BytesRemaining: 1}).Last() {
		t.Error("Last() mismatch")
	}
}
