package corefmt

import (
	"bytes"
	"testing"
)

func TestBase64URLRoundTrip(t *testing.T) {
	snap := []byte{0x01, 0xfe, 0x3c, 0x00, 0x9a}
	s := EncodeBase64URL(snap)
	got, err := DecodeBase64URL(s)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(got, snap) {
		t.Fatalf("round trip mismatch: %x vs %x", got, snap)
	}

	if _, err := DecodeBase64URL("!!not-base64!!"); err == nil {
		t.Fatal("expected error on invalid input")
	}
}

func TestHexRoundTrip(t *testing.T) {
	snap := []byte{0xde, 0xad, 0xbe, 0xef}
	got, err := DecodeHex(EncodeHex(snap))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(got, snap) {
		t.Fatal("round trip mismatch")
	}
}

func TestSnapFrame(t *testing.T) {
	snap := []byte{9, 8, 7, 6}

	var b bytes.Buffer
	if err := WriteSnapFrame(&b, snap); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := ReadSnapFrame(&b, 1024)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(got, snap) {
		t.Fatal("round trip mismatch")
	}

	// 超過上限應拒絕
	var b2 bytes.Buffer
	if err := WriteSnapFrame(&b2, make([]byte, 64)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := ReadSnapFrame(&b2, 8); err == nil {
		t.Fatal("expected error when payload exceeds maxBytes")
	}
}
