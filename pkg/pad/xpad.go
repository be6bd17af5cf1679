package pad

import "github.com/go-dab/dabmux/pkg/fic"

// DataGroup is one PAD data group carried in X-PAD: a header byte
// (Ext/CRC/Segment/UAF), a 1- or 2-byte variable length field, the
// data itself, and an optional trailing CRC-16 (spec.md §4.6).
type DataGroup struct {
	Ext     bool
	CRC     bool
	Segment bool
	UAF     uint8 // 5-bit user access field
	Data    []byte
}

// Encode serializes the data group. The variable length field uses
// the short (1-byte) form when len(Data) < 128, else the long
// (2-byte, 15-bit length) form with its MSB set (spec.md §4.6).
//
// The trailing CRC, when CRC is set, uses CRC-16-CCITT without the
// final XOR DAB's FIC/EOH/EOF fields apply — spec.md §4.6 states this
// explicitly ("CRC-16-CCITT *without* final XOR"), distinct from
// pkg/fic.CRC16's FIC/EOH/EOF variant.
func (g DataGroup) Encode() []byte {
	header := byte(0)
	if g.Ext {
		header |= 0x80
	}
	if g.CRC {
		header |= 0x40
	}
	if g.Segment {
		header |= 0x20
	}
	header |= g.UAF & 0x1F

	out := []byte{header}
	n := len(g.Data)
	if n < 128 {
		out = append(out, byte(n))
	} else {
		out = append(out, byte(0x80|(n>>8)&0x7F), byte(n))
	}
	out = append(out, g.Data...)

	if g.CRC {
		crc := crc16NoFinalXOR(out)
		out = append(out, byte(crc>>8), byte(crc))
	}
	return out
}

// crc16NoFinalXOR computes CRC-16-CCITT (poly 0x1021, init 0xFFFF)
// without the final XOR fic.CRC16 applies, per spec.md §4.6's X-PAD
// data-group CRC.
func crc16NoFinalXOR(data []byte) uint16 {
	return ^fic.CRC16(data)
}
