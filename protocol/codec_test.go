package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeInitialObject(t *testing.T) {
	msg, err := Decode([]byte(`{"x":100,"y":100,"width":30,"height":50}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != KindInitial {
		t.Fatalf("expected initial, got %s", msg.Kind)
	}
	if msg.Local.X != 100 || msg.Local.Y != 100 || msg.Local.Width != 30 || msg.Local.Height != 50 {
		t.Fatalf("unexpected local entity %s", msg.Local)
	}
}

func TestDecodePeerArray(t *testing.T) {
	raw := `[{"id":"p1","car":{"x":10,"y":20,"width":30,"height":50,"angle":0}}]`
	msg, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != KindPeers {
		t.Fatalf("expected peers, got %s", msg.Kind)
	}
	if len(msg.Peers) != 1 {
		t.Fatalf("expected 1 peer, got %d", len(msg.Peers))
	}
	p := msg.Peers[0]
	if p.ID != "p1" || p.Car.ID != "p1" || p.Car.X != 10 || p.Car.Y != 20 {
		t.Fatalf("unexpected peer %+v", p)
	}
}

func TestDecodeEmptyPeerArray(t *testing.T) {
	msg, err := Decode([]byte(" [] "))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != KindPeers || len(msg.Peers) != 0 {
		t.Fatalf("expected empty peer snapshot, got %+v", msg)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":     `{"x":`,
		"empty":            ``,
		"scalar":           `42`,
		"missing height":   `{"x":1,"y":2,"width":3}`,
		"peer missing id":  `[{"car":{"x":1,"y":2,"width":3,"height":4}}]`,
		"peer missing car": `[{"id":"p1"}]`,
		"peer bad car":     `[{"id":"p1","car":{"x":1}}]`,
		"tuple draft":      `[[{"x":1,"y":2,"width":3,"height":4},"p1"]]`,
	}
	for name, raw := range cases {
		_, err := Decode([]byte(raw))
		var perr *ProtocolError
		if !errors.As(err, &perr) {
			t.Fatalf("%s: expected ProtocolError, got %v", name, err)
		}
	}
}

func TestEntityRoundTripThroughInitialPath(t *testing.T) {
	in := Entity{ID: "me", X: 12.5, Y: -3.25, Width: 60, Height: 80, Angle: 1.75, Intent: Intent{Forward: true, Left: true}}
	b, err := EncodeEntity(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, field := range []string{`"x":12.5`, `"width":60`, `"angle":1.75`, `"forward":true`} {
		if !strings.Contains(string(b), field) {
			t.Fatalf("encoded entity %s missing %s", b, field)
		}
	}
	msg, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != KindInitial {
		t.Fatalf("expected initial, got %s", msg.Kind)
	}
	if msg.Local != in {
		t.Fatalf("round trip mismatch: got %s want %s", msg.Local, in)
	}
}

func TestEncodeNilPeersIsArray(t *testing.T) {
	b, err := EncodePeers(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("expected [], got %s", b)
	}
}
