package mot

import (
	"encoding/binary"

	"github.com/go-dab/dabmux/pkg/pad"
)

// DefaultMaxSegmentSize is the default chunk size an object's body is
// split into before wrapping each chunk in an MSC data group (spec.md
// §4.6 "at-most max_segment_size chunks (default 8188)").
const DefaultMaxSegmentSize = 8188

// Segment splits an object into MSC data groups: the first segment is
// always the encoded header, followed by the body split into
// at-most-maxSegmentSize chunks. Every data group uses UAF=0x001 (MOT)
// and carries a trailing CRC-16 (spec.md §4.6), grounded on
// original_source mot/msc_datagroup.py's MscDataGroupSegmenter.
func Segment(o Object, maxSegmentSize int) []pad.DataGroup {
	if maxSegmentSize <= 0 {
		maxSegmentSize = DefaultMaxSegmentSize
	}
	body := o.Body
	groups := []pad.DataGroup{{
		CRC:     true,
		Segment: true,
		UAF:     0x01,
		Data:    o.Header.Encode(),
	}}
	for offset := 0; offset < len(body); offset += maxSegmentSize {
		end := offset + maxSegmentSize
		if end > len(body) {
			end = len(body)
		}
		groups = append(groups, pad.DataGroup{
			CRC:     true,
			Segment: end < len(body),
			UAF:     0x01,
			Data:    body[offset:end],
		})
	}
	return groups
}

// Packet is an MSC packet (ETSI EN 300 401 §5.3.2): a 10-bit address,
// 13-bit useful data length, the continuity/first/last flags byte,
// and a padded payload (spec.md §4.6).
type Packet struct {
	Address          uint16
	UsefulDataLength uint16
	ContinuityIndex  uint8
	First            bool
	Last             bool
	Data             []byte
}

// Encode packs the packet: 3-byte header (address(10) | length(13) |
// padding(1)), then the continuity/first/last/reserved byte, then
// data zero-padded out to UsefulDataLength (which counts that flags
// byte too).
func (p Packet) Encode() []byte {
	headerValue := (uint32(p.Address&0x3FF) << 14) | (uint32(p.UsefulDataLength&0x1FFF) << 1)
	var headerBytes [4]byte
	binary.BigEndian.PutUint32(headerBytes[:], headerValue)

	flags := byte(p.ContinuityIndex&0x3) << 6
	if p.First {
		flags |= 0x20
	}
	if p.Last {
		flags |= 0x10
	}

	out := append([]byte{}, headerBytes[1:4]...)
	out = append(out, flags)
	out = append(out, p.Data...)
	if want := int(p.UsefulDataLength); len(out)-3 < want {
		out = append(out, make([]byte, want-(len(out)-3))...)
	}
	return out
}

// Packetizer splits MSC data groups into Packets for a given packet
// address, tracking a continuity index that increments mod 4 across
// every packet it emits (spec.md §4.6), grounded on original_source
// mot/msc_packet.py's MscPacketizer.
type Packetizer struct {
	Address       uint16
	MaxPacketSize int // total encoded packet size including the 3-byte header

	continuityIndex uint8
}

// NewPacketizer creates a packetizer for address, using maxPacketSize
// as the total on-wire packet size (header included); 0 selects a
// 96-byte packet, DAB's common packet-mode unit size.
func NewPacketizer(address uint16, maxPacketSize int) *Packetizer {
	if maxPacketSize <= 0 {
		maxPacketSize = 96
	}
	return &Packetizer{Address: address, MaxPacketSize: maxPacketSize}
}

// PacketizeDataGroup splits one encoded data group into Packets.
func (pz *Packetizer) PacketizeDataGroup(dg pad.DataGroup) []Packet {
	dgBytes := dg.Encode()
	if len(dgBytes) == 0 {
		return nil
	}

	available := pz.MaxPacketSize - 3 - 1 // header + CI/flags byte
	if available < 1 {
		available = 1
	}

	var packets []Packet
	for offset := 0; offset < len(dgBytes); offset += available {
		end := offset + available
		if end > len(dgBytes) {
			end = len(dgBytes)
		}
		chunk := dgBytes[offset:end]
		packets = append(packets, Packet{
			Address:          pz.Address,
			UsefulDataLength: uint16(len(chunk) + 1),
			ContinuityIndex:  pz.continuityIndex,
			First:            offset == 0,
			Last:             end >= len(dgBytes),
			Data:             chunk,
		})
		pz.continuityIndex = (pz.continuityIndex + 1) % 4
	}
	return packets
}

// PacketizeObject segments o and packetizes every resulting data
// group, in order, into a single flat Packet stream.
func (pz *Packetizer) PacketizeObject(o Object, maxSegmentSize int) []Packet {
	var packets []Packet
	for _, dg := range Segment(o, maxSegmentSize) {
		packets = append(packets, pz.PacketizeDataGroup(dg)...)
	}
	return packets
}
