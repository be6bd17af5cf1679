package dabplus

import (
	"fmt"

	"github.com/go-dab/dabmux/pkg/fec"
)

// SuperframeEncoder protects a 120ms DAB+ superframe (5 AUs of
// concatenated AAC data) with an 11-byte FireCode header and
// column-interleaved Reed-Solomon RS(120,110), per ETSI TS 102 563
// §6. One instance is bound to a fixed subchannel bitrate.
//
// Grounded on _examples/original_source/src/dabmux/audio/dabplus_encoder.py
// DabPlusSuperframeEncoder.encode.
type SuperframeEncoder struct {
	bitrateKbps    int
	auSize         int
	superframeSize int
	rsDataSize     int
	rsBlockSize    int
	numRSBlocks    int
	rs             *fec.ReedSolomon
}

const superframeHeaderSize = 11

// NewSuperframeEncoder builds the encoder for the given subchannel
// bitrate (24-80 kbps range typical of DAB+ audio services).
func NewSuperframeEncoder(bitrateKbps int) *SuperframeEncoder {
	auSize := bitrateKbps * 3
	superframeSize := auSize * 5
	const rsDataSize = 110
	const rsBlockSize = 120

	withHeader := superframeSize + superframeHeaderSize
	numBlocks := (withHeader + rsDataSize - 1) / rsDataSize

	return &SuperframeEncoder{
		bitrateKbps:    bitrateKbps,
		auSize:         auSize,
		superframeSize: superframeSize,
		rsDataSize:     rsDataSize,
		rsBlockSize:    rsBlockSize,
		numRSBlocks:    numBlocks,
		rs:             fec.SuperframeRS120(),
	}
}

// AUSize returns the unprotected Access Unit size in bytes.
func (e *SuperframeEncoder) AUSize() int { return e.auSize }

// SuperframeSize returns the unprotected superframe size (5 AUs).
func (e *SuperframeEncoder) SuperframeSize() int { return e.superframeSize }

// ProtectedSize returns the RS-protected superframe size in bytes.
func (e *SuperframeEncoder) ProtectedSize() int { return e.numRSBlocks * e.rsBlockSize }

// ProtectedAUSize returns one protected AU's size in bytes
// (ProtectedSize / 5).
func (e *SuperframeEncoder) ProtectedAUSize() int { return e.ProtectedSize() / 5 }

// Encode protects a superframe_size-byte block of concatenated AAC
// data. It builds the 11-byte superframe header (FireCode CRC over
// bytes 2-10, a fixed HE-AAC v2 @ 48kHz format byte, and an AU start
// pointer), pads to a multiple of the RS data size, and applies
// column-interleaved RS(120,110): data is written into the
// interleaver array column-by-column, each row is RS-encoded, and the
// whole array is read back out row-by-row.
func (e *SuperframeEncoder) Encode(superframeData []byte) ([]byte, error) {
	if len(superframeData) != e.superframeSize {
		return nil, fmt.Errorf("dabplus: expected %d bytes of superframe data, got %d", e.superframeSize, len(superframeData))
	}

	header := make([]byte, superframeHeaderSize)
	header[2] = 0x28 // 48kHz, SBR present, stereo, PS present

	auStart1 := superframeHeaderSize + e.superframeSize/2
	header[3] = byte(auStart1 >> 4)
	header[4] = byte((auStart1 & 0x0F) << 4)

	crc := fec.FireCodeCRC(header[2:11])
	header[0] = byte(crc >> 8)
	header[1] = byte(crc)

	withHeader := append(append([]byte{}, header...), superframeData...)

	target := e.numRSBlocks * e.rsDataSize
	if pad := target - len(withHeader); pad > 0 {
		withHeader = append(withHeader, make([]byte, pad)...)
	}

	interleaver := make([][]byte, e.numRSBlocks)
	for r := range interleaver {
		interleaver[r] = make([]byte, e.rsBlockSize)
	}

	idx := 0
	for col := 0; col < e.rsDataSize; col++ {
		for row := 0; row < e.numRSBlocks; row++ {
			if idx < len(withHeader) {
				interleaver[row][col] = withHeader[idx]
				idx++
			}
		}
	}

	for row := 0; row < e.numRSBlocks; row++ {
		parity := e.rs.Encode(interleaver[row][:e.rsDataSize])
		copy(interleaver[row][e.rsDataSize:], parity)
	}

	out := make([]byte, 0, e.ProtectedSize())
	for row := 0; row < e.numRSBlocks; row++ {
		out = append(out, interleaver[row]...)
	}
	return out, nil
}
