package main

import (
	"github.com/go-dab/dabmux/pkg/dabplus"
	"github.com/go-dab/dabmux/pkg/eti"
)

// dabplusSource wraps a raw audio source with DAB+ superframe
// protection, reading one Access Unit's worth of unprotected AAC
// bytes from inner every tick, accumulating five of them into a
// superframe, and emitting the RS(120,110)-protected AU bytes one
// superframe (five ticks) behind (spec.md §4.2 "DAB+ subchannels carry RS-protected
// superframes, never raw MST bytes").
type dabplusSource struct {
	inner  eti.SubchannelSource
	buf    *dabplus.Buffer
	auSize int
	pos    int
}

func newDABPlusSource(inner eti.SubchannelSource, bitrateKbps int) *dabplusSource {
	return &dabplusSource{
		inner:  inner,
		buf:    dabplus.NewBuffer(bitrateKbps),
		auSize: dabplus.NewSuperframeEncoder(bitrateKbps).AUSize(),
	}
}

func (d *dabplusSource) ReadFrame(size int) []byte {
	d.buf.AddFrame(d.inner.ReadFrame(d.auSize))

	out := make([]byte, size)
	copy(out, d.buf.AU(d.pos))

	d.pos++
	if d.pos == 5 {
		d.pos = 0
		_ = d.buf.BuildSuperframe() // data is always SuperframeSize bytes; Encode cannot fail here
	}
	return out
}
