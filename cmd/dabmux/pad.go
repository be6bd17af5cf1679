package main

import (
	"github.com/go-dab/dabmux/pkg/eti"
	"github.com/go-dab/dabmux/pkg/pad"
)

// padSource wraps an audio subchannel's source, overwriting the
// trailing xpadLen bytes of each tick's frame with F-PAD plus one
// X-PAD data group carrying the next DLS segment (spec.md §4.6).
type padSource struct {
	inner   eti.SubchannelSource
	dls     *pad.DLSEncoder
	xpadLen int
}

func (p *padSource) ReadFrame(size int) []byte {
	data := p.inner.ReadFrame(size)
	if p.xpadLen <= 0 || p.xpadLen > size {
		return data
	}

	fpad := pad.FPAD{AppType: 2, XPadLen: p.xpadLen}.Encode()
	dg := pad.DataGroup{UAF: 0x02, Data: p.dls.NextSegment()}.Encode()

	tail := data[size-p.xpadLen:]
	copy(tail, fpad[:])
	if len(tail) > 2 {
		n := copy(tail[2:], dg)
		for i := 2 + n; i < len(tail); i++ {
			tail[i] = 0
		}
	}
	return data
}
