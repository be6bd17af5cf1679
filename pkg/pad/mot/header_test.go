package mot

import (
	"testing"
)

func TestParameterEncodeShortForm(t *testing.T) {
	p := Parameter{ID: ParamSlideID, Value: []byte{0x00, 0x00, 0x00, 0x2A}}
	got := p.Encode()
	want := []byte{0x40 | byte(ParamSlideID), 0x04, 0x00, 0x00, 0x00, 0x2A}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%x)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestParameterEncodeNoValue(t *testing.T) {
	p := Parameter{ID: ParamTriggerTime}
	got := p.Encode()
	if len(got) != 1 || got[0] != byte(ParamTriggerTime) {
		t.Fatalf("got %x, want single PLI=00 byte", got)
	}
}

func TestParameterEncodeLongForm(t *testing.T) {
	val := make([]byte, 200)
	p := Parameter{ID: ParamCategoryID, Value: val}
	got := p.Encode()
	if got[0]&0xC0 != 0x80 {
		t.Fatalf("expected long-form PLI bits, got %#x", got[0])
	}
	length := int(got[1])<<8 | int(got[2])
	if length != 200 {
		t.Fatalf("decoded length = %d, want 200", length)
	}
}

func TestHeaderEncodeSizesAndFields(t *testing.T) {
	h := Header{
		ContentType:    ContentTypeImageJFIF,
		ContentSubtype: 0,
		BodySize:       1234,
		Parameters: []Parameter{
			{ID: ParamSlideID, Value: []byte{0, 0, 0, 1}},
		},
	}
	out := h.Encode()

	var core uint64
	for _, b := range out[:7] {
		core = core<<8 | uint64(b)
	}

	headerSize := core >> 43
	if int(headerSize) != len(out) {
		t.Fatalf("header_size = %d, want %d (encoded length)", headerSize, len(out))
	}

	bodySize := (core >> 15) & 0x0FFFFFFF
	if bodySize != 1234 {
		t.Fatalf("body_size = %d, want 1234", bodySize)
	}

	ct := ContentType((core >> 9) & 0x3F)
	if ct != ContentTypeImageJFIF {
		t.Fatalf("content_type = %v, want ImageJFIF", ct)
	}
}

func TestHeaderEncodeEmptyParameters(t *testing.T) {
	h := Header{ContentType: ContentTypeGeneral, BodySize: 0}
	out := h.Encode()
	if len(out) != 7 {
		t.Fatalf("len = %d, want 7 (core only)", len(out))
	}
}

func TestDirectoryObjectContentType(t *testing.T) {
	dirObj := BuildDirectory(nil)
	if dirObj.Header.ContentType != ContentTypeMOTTransport {
		t.Fatalf("directory content_type = %#x, want %#x", dirObj.Header.ContentType, ContentTypeMOTTransport)
	}
	if dirObj.TransportID != 0 {
		t.Fatalf("directory transport_id = %d, want 0", dirObj.TransportID)
	}
	if dirObj.Priority != 8 {
		t.Fatalf("directory priority = %d, want 8", dirObj.Priority)
	}
}
