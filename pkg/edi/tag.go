// Package edi implements the EDI (Encoder-to-Decoder Interface, ETSI
// TS 102 693) output stage: AF packet/TAG item assembly and the
// optional PFT (Protection, Fragmentation, Transport) fragmentation
// layer with RS(255,207) erasure coding (spec.md §4.5).
//
// Grounded on spec.md §4.5's literal wire layout; the original_source
// retrieval pack includes edi/pft.py's fragmenter, whose
// `_fragment_with_fec` RS-block construction DESIGN.md records as a
// likely prototype bug (see pkg/edi/pft.go doc comment) corrected
// here to the standard construction needed for P12/P13.
package edi

import "encoding/binary"

// Tag is one named, length-prefixed item inside an AF packet's TAG
// payload (spec.md §4.5 "TAG items").
type Tag struct {
	Name  string // always 4 ASCII characters
	Value []byte
}

// Encode serializes the tag as name(4) | length-in-bits(32, BE) | value.
func (t Tag) Encode() []byte {
	name := [4]byte{' ', ' ', ' ', ' '}
	copy(name[:], t.Name)

	out := make([]byte, 0, 8+len(t.Value))
	out = append(out, name[:]...)
	var lenBits [4]byte
	binary.BigEndian.PutUint32(lenBits[:], uint32(len(t.Value))*8)
	out = append(out, lenBits[:]...)
	out = append(out, t.Value...)
	return out
}

// decodeTag parses one TAG item starting at data[0], returning the
// tag, the byte offset just past it, and ok=false if data is too
// short to hold a complete tag.
func decodeTag(data []byte) (Tag, int, bool) {
	if len(data) < 8 {
		return Tag{}, 0, false
	}
	name := string(data[0:4])
	bitLen := binary.BigEndian.Uint32(data[4:8])
	byteLen := int((bitLen + 7) / 8)
	if len(data) < 8+byteLen {
		return Tag{}, 0, false
	}
	value := make([]byte, byteLen)
	copy(value, data[8:8+byteLen])
	return Tag{Name: name, Value: value}, 8 + byteLen, true
}
