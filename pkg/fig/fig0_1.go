package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// Fig0_1 encodes subchannel organization (type 0, extension 1): one
// entry per subchannel giving its start address and protection
// profile, either the UEP short form (table index) or the EEP long
// form (profile + level + explicit size). One or more subchannels may
// be split across Fill calls if the remaining FIB space is too small
// — each subchannel entry is atomic (never split mid-entry).
type Fig0_1 struct {
	State
	Ens *ensemble.Ensemble

	next int // index into Ens.Subchannels of the next entry to emit
}

func (f *Fig0_1) FigType() int         { return 0 }
func (f *Fig0_1) FigExtension() int    { return 1 }
func (f *Fig0_1) RepetitionRate() Rate { return RateA }
func (f *Fig0_1) Priority() Priority   { return PriorityHigh }
func (f *Fig0_1) Name() string         { return "0/1" }

func subchannelEntrySize(sc *ensemble.Subchannel) int {
	if sc.Protection.Form == ensemble.ProtectionUEP {
		return 3
	}
	return 4
}

func encodeSubchannelEntry(buf []byte, sc *ensemble.Subchannel) int {
	buf[0] = byte(sc.SubChId&0x3F)<<2 | byte(sc.StartAddress>>8)&0x3
	buf[1] = byte(sc.StartAddress)
	if sc.Protection.Form == ensemble.ProtectionUEP {
		idx := sc.Protection.TPL(sc.BitrateKbps)
		buf[2] = 0x00 | (idx & 0x3F) // short-form flag=0 in bit7
		return 3
	}
	size := sc.SizeCU()
	option := 0
	if sc.Protection.EEP == ensemble.EEPProfileB {
		option = 1
	}
	// long-form flag=1 | option(3) | level(2) | size(10)
	buf[2] = 0x80 | byte(option&0x7)<<4 | byte(sc.Protection.Level&0x3)<<2 | byte(size>>8)&0x3
	buf[3] = byte(size)
	return 4
}

// Fill emits as many complete subchannel entries as fit in the
// remaining space, resuming from f.next across calls.
func (f *Fig0_1) Fill(buf []byte, maxSize int) FillStatus {
	if f.Ens == nil || len(f.Ens.Subchannels) == 0 {
		return FillStatus{Complete: true}
	}
	if maxSize < 2 {
		return FillStatus{}
	}

	written := 1
	payload := buf[1:]
	payloadUsed := 0

	for f.next < len(f.Ens.Subchannels) {
		sc := f.Ens.Subchannels[f.next]
		entrySize := subchannelEntrySize(sc)
		if written+entrySize > maxSize {
			break
		}
		n := encodeSubchannelEntry(payload[payloadUsed:], sc)
		payloadUsed += n
		written += n
		f.next++
	}

	if payloadUsed == 0 {
		return FillStatus{}
	}

	buf[0] = figHeader(0, payloadUsed)

	complete := f.next >= len(f.Ens.Subchannels)
	if complete {
		f.next = 0
	}
	return FillStatus{BytesWritten: written, Complete: complete}
}
