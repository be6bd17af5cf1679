package dabplus

import "testing"

func buildADTSFrame(profile, srIdx, channels int, payloadLen int) []byte {
	frameLen := 7 + payloadLen
	hdr := make([]byte, 7)
	hdr[0] = 0xFF
	hdr[1] = 0xF1 // MPEG-4, layer 0, protection absent
	hdr[2] = byte(profile<<6) | byte(srIdx<<2) | byte((channels>>2)&0x1)
	hdr[3] = byte((channels&0x3)<<6) | byte((frameLen>>11)&0x3)
	hdr[4] = byte(frameLen >> 3)
	hdr[5] = byte((frameLen&0x7)<<5) | 0x1F
	hdr[6] = 0xFC
	return append(hdr, make([]byte, payloadLen)...)
}

func TestParseHeaderRoundTrip(t *testing.T) {
	frame := buildADTSFrame(1, 3, 2, 100) // profile LC, 48kHz, stereo
	hdr, err := ParseHeader(frame)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hdr.SampleRate != 48000 {
		t.Fatalf("SampleRate = %d, want 48000", hdr.SampleRate)
	}
	if hdr.Profile != 1 {
		t.Fatalf("Profile = %d, want 1", hdr.Profile)
	}
	if hdr.FrameLength != 107 {
		t.Fatalf("FrameLength = %d, want 107", hdr.FrameLength)
	}
	if !hdr.IsDABCompatible() {
		t.Fatal("expected DAB-compatible header")
	}
}

func TestFindSyncSkipsGarbage(t *testing.T) {
	frame := buildADTSFrame(1, 3, 2, 10)
	data := append([]byte{0x00, 0x01, 0x02}, frame...)
	pos := FindSync(data, 0)
	if pos != 3 {
		t.Fatalf("FindSync = %d, want 3", pos)
	}
}

func TestReadFrameIncomplete(t *testing.T) {
	frame := buildADTSFrame(1, 3, 2, 50)
	_, _, ok := ReadFrame(frame[:10])
	if ok {
		t.Fatal("expected incomplete frame to be rejected")
	}
}

func TestReadFrameComplete(t *testing.T) {
	frame := buildADTSFrame(1, 3, 2, 50)
	hdr, got, ok := ReadFrame(frame)
	if !ok {
		t.Fatal("expected frame to parse")
	}
	if len(got) != hdr.FrameLength {
		t.Fatalf("frame length mismatch: got %d, header says %d", len(got), hdr.FrameLength)
	}
}
