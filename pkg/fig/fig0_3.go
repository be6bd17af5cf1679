package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// Fig0_3 encodes packet-mode service component description (type 0,
// extension 3): SCId, data service component type, and the packet
// address on its subchannel.
type Fig0_3 struct {
	State
	Ens *ensemble.Ensemble

	next int
}

func (f *Fig0_3) FigType() int         { return 0 }
func (f *Fig0_3) FigExtension() int    { return 3 }
func (f *Fig0_3) RepetitionRate() Rate { return RateB }
func (f *Fig0_3) Priority() Priority   { return PriorityNormal }
func (f *Fig0_3) Name() string         { return "0/3" }

func (f *Fig0_3) packetComponents() []*ensemble.Component {
	var out []*ensemble.Component
	for _, c := range f.Ens.Components {
		sc := f.Ens.SubchannelByUID(c.SubchanUID)
		if sc != nil && sc.Type == ensemble.SubchannelPacketData {
			out = append(out, c)
		}
	}
	return out
}

// Fill emits one 5-byte entry per packet-mode component per call up
// to capacity, the same atomic-entry convention as Fig0_1/Fig0_2.
func (f *Fig0_3) Fill(buf []byte, maxSize int) FillStatus {
	if f.Ens == nil {
		return FillStatus{Complete: true}
	}
	comps := f.packetComponents()
	if len(comps) == 0 {
		return FillStatus{Complete: true}
	}
	if maxSize < 1+5 {
		return FillStatus{}
	}

	written := 1
	payload := buf[1:]
	payloadUsed := 0

	for f.next < len(comps) {
		if written+5 > maxSize {
			break
		}
		c := comps[f.next]
		sc := f.Ens.SubchannelByUID(c.SubchanUID)
		p := payload[payloadUsed:]
		p[0] = byte(c.SCIdS >> 4)
		p[1] = byte(c.SCIdS)<<4 | byte(sc.SubChId>>2)&0xF
		p[2] = byte(sc.SubChId&0x3)<<6 | byte(c.Type&0x3F)
		p[3] = 0
		p[4] = 0
		payloadUsed += 5
		written += 5
		f.next++
	}

	if payloadUsed == 0 {
		return FillStatus{}
	}
	buf[0] = figHeader(0, payloadUsed)

	complete := f.next >= len(comps)
	if complete {
		f.next = 0
	}
	return FillStatus{BytesWritten: written, Complete: complete}
}
