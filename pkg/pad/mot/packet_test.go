package mot

import "testing"

func TestSegmentHeaderIsFirstSegment(t *testing.T) {
	o := NewObject(1, 1, ContentTypeImageJFIF, 0, []byte("hello world"), nil)
	groups := Segment(o, 4)
	if len(groups) < 2 {
		t.Fatalf("expected header + body segments, got %d", len(groups))
	}
	headerBytes := o.Header.Encode()
	if len(groups[0].Data) != len(headerBytes) {
		t.Fatalf("first segment len = %d, want header len %d", len(groups[0].Data), len(headerBytes))
	}
	if !groups[0].Segment {
		t.Fatal("header segment must set Segment (more segments follow)")
	}
}

func TestSegmentLastBodyChunkClearsSegmentFlag(t *testing.T) {
	o := NewObject(1, 1, ContentTypeGeneral, 0, []byte("0123456789"), nil)
	groups := Segment(o, 4)
	last := groups[len(groups)-1]
	if last.Segment {
		t.Fatal("last segment must clear the Segment (more follow) flag")
	}
}

func TestSegmentDefaultsMaxSize(t *testing.T) {
	o := NewObject(1, 1, ContentTypeGeneral, 0, make([]byte, 100), nil)
	groups := Segment(o, 0)
	if len(groups) != 2 {
		t.Fatalf("expected header + 1 body segment under default max size, got %d", len(groups))
	}
}

func TestPacketEncodeHeaderFields(t *testing.T) {
	p := Packet{Address: 5, UsefulDataLength: 4, ContinuityIndex: 2, First: true, Last: false, Data: []byte{0xAA, 0xBB, 0xCC}}
	out := p.Encode()
	if len(out) != 3+4 {
		t.Fatalf("len = %d, want 7", len(out))
	}
	headerValue := uint32(out[0])<<16 | uint32(out[1])<<8 | uint32(out[2])
	addr := uint16(headerValue >> 14)
	length := uint16((headerValue >> 1) & 0x1FFF)
	if addr != 5 {
		t.Fatalf("address = %d, want 5", addr)
	}
	if length != 4 {
		t.Fatalf("useful_data_length = %d, want 4", length)
	}
	flags := out[3]
	if flags>>6 != 2 {
		t.Fatalf("continuity_index = %d, want 2", flags>>6)
	}
	if flags&0x20 == 0 {
		t.Fatal("expected First flag set")
	}
}

func TestPacketizerContinuityIncrementsModFour(t *testing.T) {
	pz := NewPacketizer(0, 16) // small packets to force many fragments
	o := NewObject(1, 1, ContentTypeGeneral, 0, make([]byte, 100), nil)
	packets := pz.PacketizeObject(o, DefaultMaxSegmentSize)
	if len(packets) < 5 {
		t.Fatalf("expected several packets from a small max size, got %d", len(packets))
	}
	for i, p := range packets {
		want := uint8(i % 4)
		if p.ContinuityIndex != want {
			t.Fatalf("packet %d continuity_index = %d, want %d", i, p.ContinuityIndex, want)
		}
	}
}

func TestPacketizerFirstAndLastFlags(t *testing.T) {
	pz := NewPacketizer(0, 16)
	dg := Segment(NewObject(1, 1, ContentTypeGeneral, 0, make([]byte, 50), nil), DefaultMaxSegmentSize)[0]
	packets := pz.PacketizeDataGroup(dg)
	if !packets[0].First {
		t.Fatal("first packet must set First")
	}
	if !packets[len(packets)-1].Last {
		t.Fatal("last packet must set Last")
	}
	for _, p := range packets[1:] {
		if p.First {
			t.Fatal("only the first packet may set First")
		}
	}
}
