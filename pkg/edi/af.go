package edi

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-dab/dabmux/pkg/clock"
	"github.com/go-dab/dabmux/pkg/eti"
	"github.com/go-dab/dabmux/pkg/fic"
)

// AFPacket is the TAG packet wrapper spec.md §4.5 describes: "AF"
// sync, bit length, sequence number, protocol flag, CRC-present flag,
// TAG payload, trailing CRC-16.
type AFPacket struct {
	Sequence uint16
	Tags     []Tag
}

// Encode serializes the AF packet. The trailing CRC-16 covers every
// preceding byte (spec.md §4.5).
func (p *AFPacket) Encode() []byte {
	var payload []byte
	for _, t := range p.Tags {
		payload = append(payload, t.Encode()...)
	}

	body := make([]byte, 0, 10+len(payload)+2)
	body = append(body, 'A', 'F')
	var lenBits [4]byte
	binary.BigEndian.PutUint32(lenBits[:], uint32(len(payload))*8)
	body = append(body, lenBits[:]...)
	body = append(body, byte(p.Sequence>>8), byte(p.Sequence))
	body = append(body, 'T')
	body = append(body, 1) // CRC-present flag
	body = append(body, payload...)

	crc := fic.CRC16(body)
	body = append(body, byte(crc>>8), byte(crc))
	return body
}

// ParseAF decodes an AF packet back into its ordered TAG list (P11:
// parse(assemble(frame)) reproduces the same TAGs in the same order).
func ParseAF(data []byte) (*AFPacket, error) {
	if len(data) < 12 || data[0] != 'A' || data[1] != 'F' {
		return nil, fmt.Errorf("edi: not an AF packet (missing sync)")
	}
	payloadBits := binary.BigEndian.Uint32(data[2:6])
	payloadLen := int((payloadBits + 7) / 8)
	seq := binary.BigEndian.Uint16(data[6:8])

	end := 10 + payloadLen
	if len(data) < end+2 {
		return nil, fmt.Errorf("edi: AF packet truncated")
	}

	pkt := &AFPacket{Sequence: seq}
	cursor := data[10:end]
	for len(cursor) > 0 {
		tag, n, ok := decodeTag(cursor)
		if !ok {
			break
		}
		pkt.Tags = append(pkt.Tags, tag)
		cursor = cursor[n:]
	}
	return pkt, nil
}

// Encoder builds AF packets from assembled ETI frames, maintaining a
// strictly increasing sequence number per output stream (spec.md §5
// "EDI AF sequence numbers are strictly increasing per output
// stream").
type Encoder struct {
	sequence     uint16
	taiUTCOffset int
}

// NewEncoder creates an AF encoder. taiUTCOffsetSeconds is the
// current TAI-UTC leap-second offset used by the tist TAG.
func NewEncoder(taiUTCOffsetSeconds int) *Encoder {
	return &Encoder{taiUTCOffset: taiUTCOffsetSeconds}
}

// EncodeFrame wraps one assembled ETI frame into an AF packet
// carrying *ptr, deti, one est<n> per subchannel, and tist TAGs
// (spec.md §4.5).
func (e *Encoder) EncodeFrame(frame eti.Frame, subchannels [][]byte, now time.Time) *AFPacket {
	seq := e.sequence
	e.sequence++

	dlfc := uint32(frame.FCT)

	detiVal := make([]byte, 0, 6+len(frame.FC)+len(frame.FIC))
	detiVal = append(detiVal, byte(dlfc>>16), byte(dlfc>>8), byte(dlfc))
	detiVal = append(detiVal, 0xFF) // status: no error
	detiVal = append(detiVal, 0x00) // mode/frame-phase
	detiVal = append(detiVal, frame.FC...)
	detiVal = append(detiVal, frame.FIC...)

	pkt := &AFPacket{Sequence: seq}
	pkt.Tags = append(pkt.Tags, Tag{Name: "*ptr", Value: []byte("DETI")})
	pkt.Tags = append(pkt.Tags, Tag{Name: "deti", Value: detiVal})
	for i, streamBytes := range subchannels {
		pkt.Tags = append(pkt.Tags, Tag{Name: estTagName(i), Value: streamBytes})
	}
	tistVal := clock.EDITimestamp(now, e.taiUTCOffset)
	pkt.Tags = append(pkt.Tags, Tag{Name: "tist", Value: tistVal[:]})

	return pkt
}

// estTagName formats the "est<n>" TAG name for stream index i
// (spec.md §4.5), e.g. est0, est1, ... est9, esta, ...
func estTagName(i int) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if i < len(digits) {
		return "est" + string(digits[i])
	}
	return fmt.Sprintf("e%03d", i)
}
