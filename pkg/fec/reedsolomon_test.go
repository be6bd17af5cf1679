package fec

import (
	"bytes"
	"testing"
)

func TestEncodeBlockIsSystematic(t *testing.T) {
	rs := NewReedSolomon(20, 10)
	data := []byte("0123456789")
	block := rs.EncodeBlock(data)
	if len(block) != 20 {
		t.Fatalf("block length = %d, want 20", len(block))
	}
	if !bytes.Equal(block[:10], data) {
		t.Fatalf("systematic prefix = %v, want %v", block[:10], data)
	}
}

func TestEncodeIsLinear(t *testing.T) {
	rs := NewReedSolomon(20, 10)
	a := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	b := []byte{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	axb := make([]byte, len(a))
	for i := range a {
		axb[i] = a[i] ^ b[i]
	}

	pa := rs.Encode(a)
	pb := rs.Encode(b)
	pax := rs.Encode(axb)

	for i := range pa {
		if pax[i] != pa[i]^pb[i] {
			t.Fatalf("RS encode not linear at byte %d: enc(a^b)=%d, enc(a)^enc(b)=%d", i, pax[i], pa[i]^pb[i])
		}
	}
}

func TestSuperframeRS120Sizes(t *testing.T) {
	rs := SuperframeRS120()
	if rs.N() != 120 || rs.K() != 110 || rs.ParitySize() != 10 {
		t.Fatalf("unexpected RS(120,110) sizes: n=%d k=%d parity=%d", rs.N(), rs.K(), rs.ParitySize())
	}
}

func TestPacketMode204Sizes(t *testing.T) {
	rs := PacketMode204()
	if rs.N() != 204 || rs.K() != 188 {
		t.Fatalf("unexpected RS(204,188) sizes: n=%d k=%d", rs.N(), rs.K())
	}
}

func TestNewReedSolomonRejectsInvalidParams(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for k >= n")
		}
	}()
	NewReedSolomon(10, 10)
}
