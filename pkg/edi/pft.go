package edi

import (
	"encoding/binary"

	"github.com/go-dab/dabmux/pkg/fec"
	"github.com/go-dab/dabmux/pkg/fic"
)

// DefaultFragmentSize is the max payload chunk size used when PFT FEC
// is disabled (spec.md §4.5 "default 1400 bytes").
const DefaultFragmentSize = 1400

// pftRSParity is the RS(255,207) parity size PFT's FEC mode always
// uses (spec.md §4.5 "RS(255,207)").
const (
	pftRSN      = 255
	pftRSK      = 207
	pftRSParity = pftRSN - pftRSK
)

// PFPacket is one Protection/Fragmentation/Transport fragment.
type PFPacket struct {
	PSeq    uint16
	Findex  uint32 // 24-bit
	Fcount  uint32 // 24-bit
	FEC     bool
	RSk     uint8 // chunk_len, only meaningful when FEC
	RSz     uint8 // zero-pad count, only meaningful when FEC
	Addr    bool
	Source  uint16
	Dest    uint16
	Payload []byte
}

// Encode serializes one PF packet per spec.md §4.5's "PF packet layout".
func (p PFPacket) Encode() []byte {
	header := make([]byte, 0, 16)
	header = append(header, 'P', 'F')
	header = append(header, byte(p.PSeq>>8), byte(p.PSeq))
	header = append(header, byte(p.Findex>>16), byte(p.Findex>>8), byte(p.Findex))
	header = append(header, byte(p.Fcount>>16), byte(p.Fcount>>8), byte(p.Fcount))

	plen := uint16(len(p.Payload)) & 0x3FFF
	if p.FEC {
		plen |= 0x8000
	}
	if p.Addr {
		plen |= 0x4000
	}
	header = append(header, byte(plen>>8), byte(plen))

	if p.FEC {
		header = append(header, p.RSk, p.RSz)
	}
	if p.Addr {
		header = append(header, byte(p.Source>>8), byte(p.Source), byte(p.Dest>>8), byte(p.Dest))
	}

	var crcBuf [2]byte
	binary.BigEndian.PutUint16(crcBuf[:], fic.CRC16(header))
	header = append(header, crcBuf[:]...)

	return append(header, p.Payload...)
}

// FragmentNoFEC splits an AF packet into sequential PF fragments of
// at most maxFragmentSize payload bytes each, with no erasure coding
// (spec.md §4.5 "Without FEC").
func FragmentNoFEC(af []byte, pseq uint16, maxFragmentSize int) []PFPacket {
	if maxFragmentSize <= 0 {
		maxFragmentSize = DefaultFragmentSize
	}
	fcount := (len(af) + maxFragmentSize - 1) / maxFragmentSize
	if fcount == 0 {
		fcount = 1
	}

	frags := make([]PFPacket, 0, fcount)
	for i := 0; i < fcount; i++ {
		start := i * maxFragmentSize
		end := start + maxFragmentSize
		if end > len(af) {
			end = len(af)
		}
		frags = append(frags, PFPacket{
			PSeq:    pseq,
			Findex:  uint32(i),
			Fcount:  uint32(fcount),
			Payload: append([]byte{}, af[start:end]...),
		})
	}
	return frags
}

// ReassembleNoFEC concatenates fragment payloads in Findex order,
// reproducing the original AF packet (P12).
func ReassembleNoFEC(frags []PFPacket) []byte {
	ordered := make([][]byte, len(frags))
	for _, f := range frags {
		if int(f.Findex) < len(ordered) {
			ordered[f.Findex] = f.Payload
		}
	}
	var out []byte
	for _, p := range ordered {
		out = append(out, p...)
	}
	return out
}

// FragmentWithFEC protects an AF packet with RS(255,207) and splits
// the protected block into F column-interleaved fragments recoverable
// from any (F-M) of them, per spec.md §4.5 "With FEC".
//
// The RS block is built from the full systematic codeword
// (EncodeBlock: chunk data followed by its parity) per chunk, not
// parity alone — see DESIGN.md's note on the original_source
// prototype's `_fragment_with_fec`, which concatenated parity-only
// bytes and so could never reconstruct the source AF packet. This is
// the construction spec.md's P12/P13 reconstruction properties
// require.
func FragmentWithFEC(af []byte, pseq uint16, m int) []PFPacket {
	if m < 0 {
		m = 0
	}
	if m > 5 {
		m = 5
	}

	chunkCount := pftRSK // one RS(255,207) block's worth of chunks per ETSI TS 102 821 sizing
	chunkLen := (len(af) + chunkCount - 1) / chunkCount
	if chunkLen == 0 {
		chunkLen = 1
	}
	padded := chunkCount * chunkLen
	zeroPad := padded - len(af)

	data := make([]byte, padded)
	copy(data, af)

	rs := fec.PFT(pftRSN, pftRSK)

	// Build chunkCount codewords of (chunkLen data bytes, padded/truncated
	// to K=207 symbols for the encoder, plus parity), concatenated into
	// one RS block.
	rsBlock := make([]byte, 0, chunkCount*pftRSN)
	for c := 0; c < chunkCount; c++ {
		chunkData := data[c*chunkLen : (c+1)*chunkLen]
		rsInput := make([]byte, pftRSK)
		copy(rsInput, chunkData)
		codeword := rs.EncodeBlock(rsInput)
		rsBlock = append(rsBlock, codeword...)
	}

	sMax := (chunkCount * pftRSParity) / (m + 1)
	if sMax <= 0 {
		sMax = 1
	}
	fCount := (len(rsBlock) + sMax - 1) / sMax
	if fCount == 0 {
		fCount = 1
	}

	frags := make([]PFPacket, fCount)
	for i := 0; i < fCount; i++ {
		frags[i] = PFPacket{
			PSeq:   pseq,
			Findex: uint32(i),
			Fcount: uint32(fCount),
			FEC:    true,
			RSk:    uint8(chunkLen),
			RSz:    uint8(zeroPad),
		}
	}

	// Column-major interleave: fragment i takes byte j*F+i of the RS
	// block for each j (spec.md §4.5).
	for j := 0; j < len(rsBlock); j++ {
		i := j % fCount
		frags[i].Payload = append(frags[i].Payload, rsBlock[j])
	}

	return frags
}

// ReassembleWithFEC reconstructs the RS block from any (F-M) of the F
// fragments it was produced from (P13), de-interleaves it, runs
// erasure-only RS(255,207) decoding on each chunk to recover the
// columns that missing fragments left unfilled, strips each chunk's
// parity via the systematic property (data is always codeword[0:k]),
// and trims the AF packet back to its original length.
//
// A missing fragment i erases every rsBlock position j with j%fCount
// == i, so each of the chunkCount codewords generally carries its own
// subset of erasures, not a uniform count — fec.ReedSolomon.DecodeErasures
// is invoked per codeword with that codeword's actual erased positions.
// A codeword with more erasures than RS(255,207) can correct (more
// than pftRSParity missing symbols, which P13's (F-M) bound is meant
// to preclude) falls back to the received/zero columns as-is rather
// than failing the whole reassembly.
func ReassembleWithFEC(frags []PFPacket, afLen int) []byte {
	if len(frags) == 0 {
		return nil
	}
	fCount := int(frags[0].Fcount)
	chunkLen := int(frags[0].RSk)
	zeroPad := int(frags[0].RSz)
	chunkCount := pftRSK
	rsBlockLen := chunkCount * pftRSN

	present := make([]bool, fCount)
	byIndex := make([][]byte, fCount)
	for _, f := range frags {
		if int(f.Findex) < fCount {
			byIndex[f.Findex] = f.Payload
			present[f.Findex] = true
		}
	}

	rsBlock := make([]byte, rsBlockLen)
	erased := make([]bool, rsBlockLen)
	for j := 0; j < rsBlockLen; j++ {
		i := j % fCount
		col := j / fCount
		if present[i] && col < len(byIndex[i]) {
			rsBlock[j] = byIndex[i][col]
		} else {
			erased[j] = true
		}
	}

	rs := fec.PFT(pftRSN, pftRSK)
	padded := chunkCount * chunkLen
	data := make([]byte, 0, padded)
	var erasurePositions []int
	for c := 0; c < chunkCount; c++ {
		codeword := rsBlock[c*pftRSN : c*pftRSN+pftRSN]
		erasurePositions = erasurePositions[:0]
		for p := 0; p < pftRSN; p++ {
			if erased[c*pftRSN+p] {
				erasurePositions = append(erasurePositions, p)
			}
		}

		if len(erasurePositions) == 0 {
			data = append(data, codeword[:chunkLen]...)
			continue
		}
		decoded, err := rs.DecodeErasures(codeword, erasurePositions)
		if err != nil {
			data = append(data, codeword[:chunkLen]...)
			continue
		}
		data = append(data, decoded[:chunkLen]...)
	}

	if zeroPad > 0 && len(data) >= zeroPad {
		data = data[:len(data)-zeroPad]
	}
	if afLen > 0 && afLen < len(data) {
		data = data[:afLen]
	}
	return data
}
