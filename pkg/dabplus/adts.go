// Package dabplus parses ADTS-framed AAC input and builds the DAB+
// superframe structure defined in ETSI TS 102 563: an 11-byte header
// (FireCode CRC + format byte + AU start pointers) followed by the
// AAC payload, protected by column-interleaved Reed-Solomon.
//
// Grounded on _examples/original_source/src/dabmux/audio/aac_parser.py
// and dabplus_encoder.py.
package dabplus

import "fmt"

// sampleRates is the ISO/IEC 13818-7 sampling frequency index table.
var sampleRates = [13]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// ADTSHeader holds a parsed ADTS fixed+variable header.
type ADTSHeader struct {
	Profile      int // 0=Main, 1=LC, 2=SSR
	SampleRate   int
	Channels     int
	FrameLength  int // total frame size in bytes, header included
	Protection   bool
}

// IsDABCompatible reports whether the header matches DAB+'s required
// AAC-LC base profile at one of the four supported sample rates.
func (h ADTSHeader) IsDABCompatible() bool {
	switch h.SampleRate {
	case 16000, 24000, 32000, 48000:
	default:
		return false
	}
	return h.Profile == 1
}

// FindSync returns the offset of the next ADTS sync word (12 bits set)
// at or after start, or -1 if none is found.
func FindSync(data []byte, start int) int {
	for i := start; i+1 < len(data); i++ {
		if data[i] == 0xFF && data[i+1]&0xF0 == 0xF0 {
			return i
		}
	}
	return -1
}

// ParseHeader parses a 7-byte ADTS header at the start of data.
func ParseHeader(data []byte) (ADTSHeader, error) {
	if len(data) < 7 {
		return ADTSHeader{}, fmt.Errorf("dabplus: ADTS header needs 7 bytes, got %d", len(data))
	}
	if data[0] != 0xFF || data[1]&0xF0 != 0xF0 {
		return ADTSHeader{}, fmt.Errorf("dabplus: missing ADTS sync word")
	}

	protection := data[1]&0x01 == 0
	profile := int(data[2]>>6) & 0x3
	srIdx := int(data[2]>>2) & 0xF
	if srIdx >= len(sampleRates) {
		return ADTSHeader{}, fmt.Errorf("dabplus: invalid sampling frequency index %d", srIdx)
	}
	channels := int(data[2]&0x01)<<2 | int(data[3]>>6)&0x3
	frameLength := int(data[3]&0x03)<<11 | int(data[4])<<3 | int(data[5]>>5)&0x7

	return ADTSHeader{
		Profile:     profile,
		SampleRate:  sampleRates[srIdx],
		Channels:    channels,
		FrameLength: frameLength,
		Protection:  protection,
	}, nil
}

// ReadFrame locates and extracts the next complete ADTS frame in
// data, returning the parsed header and the raw frame bytes
// (including its ADTS header).
func ReadFrame(data []byte) (ADTSHeader, []byte, bool) {
	pos := FindSync(data, 0)
	if pos < 0 {
		return ADTSHeader{}, nil, false
	}
	hdr, err := ParseHeader(data[pos:])
	if err != nil {
		return ADTSHeader{}, nil, false
	}
	if len(data) < pos+hdr.FrameLength {
		return ADTSHeader{}, nil, false
	}
	return hdr, data[pos : pos+hdr.FrameLength], true
}
