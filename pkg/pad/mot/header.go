// Package mot implements the MOT (Multimedia Object Transfer) object
// carousel carried over packet-mode subchannels: header encoding,
// directory-scanned slide discovery with YAML sidecar metadata,
// segmentation into MSC data groups/packets, and the strict-priority
// round-robin packet scheduler (spec.md §4.6).
//
// Grounded on _examples/original_source/src/dabmux/mot/header.py
// (MotContentType table, MotParameter TLV encoding) and
// mot/directory.py (DirectoryEntry layout), both supplemented into
// spec.md per SPEC_FULL.md §3; styled after dbehnke-dmr-nexus's
// fsnotify-driven config reload for the carousel's directory watcher.
package mot

import "encoding/binary"

// ContentType is the 6-bit MOT content type (ETSI TS 101 756 Annex H,
// supplemented from original_source's fuller table beyond spec.md's
// four named image types).
type ContentType uint8

const (
	ContentTypeGeneral   ContentType = 0
	ContentTypeImageGIF  ContentType = 2
	ContentTypeImageJFIF ContentType = 3
	ContentTypeImageBMP  ContentType = 4
	ContentTypeImagePNG  ContentType = 11
)

// ContentTypeMOTTransport is the directory object's content type,
// 0x60 (spec.md §4.6 "A directory object ... content_type=0x60");
// this MOT content-type/subtype pair is reserved for transport-layer
// objects and is wider than the 6-bit ContentType field alone, so it
// is kept as its own named constant rather than folded into the enum.
const ContentTypeMOTTransport ContentType = 0x60

// ContentSubtypeDirectory is the 9-bit content subtype the directory
// object uses alongside ContentTypeMOTTransport.
const ContentSubtypeDirectory uint16 = 0x000

// ParameterID identifies a MOT parameter TLV entry.
type ParameterID uint8

const (
	ParamTriggerTime     ParameterID = 0x05
	ParamCategoryID      ParameterID = 0x24
	ParamClickThroughURL ParameterID = 0x25
	ParamSlideID         ParameterID = 0x26
)

// Parameter is one TLV entry in a MOT header's parameter list
// (original_source mot/header.py MotParameter): 6-bit parameter ID,
// short or long length form, then the raw value bytes.
type Parameter struct {
	ID    ParameterID
	Value []byte
}

// Encode serializes a parameter: header byte PLI(2)|ParamId(6), then
// for PLI=short a 1-byte length, for PLI=long a 2-byte length, then
// the value.
func (p Parameter) Encode() []byte {
	const shortMax = 0x3A // short-form length field, 6 bits reserved for PLI framing margin
	out := []byte{}
	if len(p.Value) == 0 {
		out = append(out, byte(p.ID&0x3F)) // PLI=00: no data field
		return out
	}
	if len(p.Value) <= shortMax {
		out = append(out, 0x40|byte(p.ID&0x3F), byte(len(p.Value)))
	} else {
		out = append(out, 0x80|byte(p.ID&0x3F), byte(len(p.Value)>>8), byte(len(p.Value)))
	}
	out = append(out, p.Value...)
	return out
}

// Header is a MOT object header: 13-bit header size, 28-bit body
// size, 6-bit content type, 9-bit content subtype, and a parameter
// list (spec.md §4.6).
type Header struct {
	ContentType    ContentType
	ContentSubtype uint16
	BodySize       uint32
	Parameters     []Parameter
}

// Encode serializes the MOT header: header-size(13) | body-size(28) |
// content-type(6) | content-subtype(9), packed big-endian into a
// fixed 7-byte core, followed by the parameter TLVs (spec.md §4.6;
// field widths per ETSI EN 301 234 §6). header-size counts the core
// plus every parameter's encoded length, so it is computed after the
// parameters are serialized.
func (h Header) Encode() []byte {
	var params []byte
	for _, p := range h.Parameters {
		params = append(params, p.Encode()...)
	}

	const coreSize = 7
	headerSize := uint64(coreSize+len(params)) & 0x1FFF

	core := headerSize<<43 | uint64(h.BodySize&0x0FFFFFFF)<<15 |
		uint64(h.ContentType&0x3F)<<9 | uint64(h.ContentSubtype&0x1FF)
	var coreBytes [8]byte
	binary.BigEndian.PutUint64(coreBytes[:], core)

	out := make([]byte, 0, coreSize+len(params))
	out = append(out, coreBytes[1:]...)
	out = append(out, params...)
	return out
}
