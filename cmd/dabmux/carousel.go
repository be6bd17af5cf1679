package main

import "github.com/go-dab/dabmux/pkg/pad/mot"

// carouselSource adapts a mot.Carousel to eti.SubchannelSource,
// popping one packet per 24ms tick — DAB's conventional one-packet-
// per-CIF packet-mode cadence (spec.md §4.6).
type carouselSource struct {
	carousel *mot.Carousel
}

func (c *carouselSource) ReadFrame(size int) []byte {
	buf := make([]byte, size)
	pkt, ok := c.carousel.Next()
	if !ok {
		return buf
	}
	enc := pkt.Encode()
	copy(buf, enc)
	return buf
}
