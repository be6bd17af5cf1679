package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// Fig0_8 encodes the service component global definition (type 0,
// extension 8): binds a service component to its SCIdS and, via the
// extension flag, its global SubChId/SCId — the link receivers use to
// resolve a component's carrying subchannel independent of FIG 0/2
// ordering.
type Fig0_8 struct {
	State
	Ens *ensemble.Ensemble

	next int
}

func (f *Fig0_8) FigType() int         { return 0 }
func (f *Fig0_8) FigExtension() int    { return 8 }
func (f *Fig0_8) RepetitionRate() Rate { return RateB }
func (f *Fig0_8) Priority() Priority   { return PriorityNormal }
func (f *Fig0_8) Name() string         { return "0/8" }

func (f *Fig0_8) entrySize(sidExtended bool) int {
	if sidExtended {
		return 6 // SId(32) + SCIdS/ext byte + SubChId byte
	}
	return 4 // SId(16) + SCIdS/ext byte + SubChId byte
}

// Fill emits one service-component binding entry per call up to
// capacity.
func (f *Fig0_8) Fill(buf []byte, maxSize int) FillStatus {
	if f.Ens == nil || len(f.Ens.Components) == 0 {
		return FillStatus{Complete: true}
	}
	if maxSize < 1+4 {
		return FillStatus{}
	}

	written := 1
	payload := buf[1:]
	payloadUsed := 0

	for f.next < len(f.Ens.Components) {
		c := f.Ens.Components[f.next]
		svc := f.Ens.ServiceByUID(c.ServiceUID)
		sc := f.Ens.SubchannelByUID(c.SubchanUID)
		if svc == nil || sc == nil {
			f.next++
			continue
		}
		size := f.entrySize(svc.SIdExtended)
		if written+size > maxSize {
			break
		}
		p := payload[payloadUsed:]
		pos := 0
		if svc.SIdExtended {
			p[0] = byte(svc.SId >> 24)
			p[1] = byte(svc.SId >> 16)
			p[2] = byte(svc.SId >> 8)
			p[3] = byte(svc.SId)
			pos = 4
		} else {
			p[0] = byte(svc.SId >> 8)
			p[1] = byte(svc.SId)
			pos = 2
		}
		p[pos] = 0x80 | byte(c.SCIdS&0xF) // ext-flag=1, SCIdS(4)
		p[pos+1] = byte(sc.SubChId & 0x3F)
		pos += 2

		payloadUsed += pos
		written += pos
		f.next++
	}

	if payloadUsed == 0 {
		return FillStatus{}
	}
	buf[0] = figHeader(0, payloadUsed)

	complete := f.next >= len(f.Ens.Components)
	if complete {
		f.next = 0
	}
	return FillStatus{BytesWritten: written, Complete: complete}
}
