// Package pad implements Programme-Associated Data: the fixed-size
// F-PAD header, variable-length X-PAD data groups, and the Dynamic
// Label Segment (DLS) encoder that turns a text label into cycling
// X-PAD segments (spec.md §4.6).
//
// Grounded on spec.md §4.6's literal field layout; no original_source
// PAD module was retrieved, so the bit packing follows the spec
// directly, styled after pkg/fig's header/segment helpers for
// consistency within this module.
package pad

// FPAD is the 2-byte F-PAD field carried alongside every audio frame.
type FPAD struct {
	CI      bool // command/indicator
	AppType uint8 // 5-bit
	XPadLen int   // length of the accompanying X-PAD in bytes
}

// Encode packs the F-PAD per spec.md §4.6: byte0 = CI(1)|AppType(5)|
// reserved(2); byte1 = L(5) where L = (xpad_len-4)/2, clamped to
// [0,31].
func (f FPAD) Encode() [2]byte {
	var out [2]byte
	b0 := byte(f.AppType&0x1F) << 2
	if f.CI {
		b0 |= 0x80
	}
	out[0] = b0

	l := (f.XPadLen - 4) / 2
	if l < 0 {
		l = 0
	}
	if l > 31 {
		l = 31
	}
	out[1] = byte(l) & 0x1F
	return out
}
