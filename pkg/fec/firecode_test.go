package fec

import "testing"

func TestFireCodeCRCDeterministic(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}
	a := FireCodeCRC(data)
	b := FireCodeCRC(data)
	if a != b {
		t.Fatalf("FireCodeCRC not deterministic: %04x != %04x", a, b)
	}
}

func TestFireCodeCRCDetectsSingleBitError(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x00, 0x11, 0x22}
	flipped := append([]byte{}, data...)
	flipped[3] ^= 0x01
	if FireCodeCRC(data) == FireCodeCRC(flipped) {
		t.Fatal("expected CRC to change after single-bit flip")
	}
}

func TestAppendFireCodeCRCLength(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	out := AppendFireCodeCRC(data)
	if len(out) != len(data)+2 {
		t.Fatalf("expected 2 extra bytes, got %d total", len(out))
	}
	if out[len(out)-2] != byte(FireCodeCRC(data)>>8) || out[len(out)-1] != byte(FireCodeCRC(data)) {
		t.Fatal("appended CRC bytes do not match FireCodeCRC(data)")
	}
}
