package mot

import "encoding/binary"

// DirectoryEntry is one index row in the MOT directory object: a
// carousel member's transport ID and its total encoded size (header +
// body), adopted verbatim from original_source mot/directory.py's
// DirectoryEntry (SPEC_FULL.md §3).
type DirectoryEntry struct {
	TransportID uint16
	Size        uint32
}

// Encode packs the entry as 16-bit transport ID + 32-bit size,
// big-endian (6 bytes).
func (e DirectoryEntry) Encode() []byte {
	out := make([]byte, 6)
	binary.BigEndian.PutUint16(out[0:2], e.TransportID)
	binary.BigEndian.PutUint32(out[2:6], e.Size)
	return out
}

// BuildDirectory assembles the directory object (transport_id=0,
// content_type=0x60, priority=8, always scheduled first) listing
// every other carousel member (spec.md §4.6).
func BuildDirectory(objects []Object) Object {
	var body []byte
	for _, o := range objects {
		entry := DirectoryEntry{TransportID: o.TransportID, Size: uint32(o.TotalSize())}
		body = append(body, entry.Encode()...)
	}
	return NewObject(0, 8, ContentTypeMOTTransport, ContentSubtypeDirectory, body, nil)
}
