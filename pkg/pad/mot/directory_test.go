package mot

import "testing"

func TestDirectoryEntryEncode(t *testing.T) {
	e := DirectoryEntry{TransportID: 7, Size: 0x0102_0304}
	got := e.Encode()
	if len(got) != 6 {
		t.Fatalf("len = %d, want 6", len(got))
	}
	if got[0] != 0 || got[1] != 7 {
		t.Fatalf("transport_id bytes = %v, want [0 7]", got[0:2])
	}
	if got[2] != 0x01 || got[3] != 0x02 || got[4] != 0x03 || got[5] != 0x04 {
		t.Fatalf("size bytes = %v, want [1 2 3 4]", got[2:6])
	}
}

func TestBuildDirectoryListsEveryObject(t *testing.T) {
	objs := []Object{
		NewObject(1, 5, ContentTypeImageJFIF, 0, []byte("a"), nil),
		NewObject(2, 3, ContentTypeImagePNG, 0, []byte("bb"), nil),
	}
	dir := BuildDirectory(objs)

	wantEntries := len(objs)
	if len(dir.Body) != wantEntries*6 {
		t.Fatalf("directory body len = %d, want %d (6 bytes/entry)", len(dir.Body), wantEntries*6)
	}

	firstTransportID := uint16(dir.Body[0])<<8 | uint16(dir.Body[1])
	if firstTransportID != 1 {
		t.Fatalf("first entry transport_id = %d, want 1", firstTransportID)
	}
}
