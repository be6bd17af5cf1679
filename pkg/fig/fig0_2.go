package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// Fig0_2 encodes service organization (type 0, extension 2): for each
// service, SId, CAId, and a variable-length list of its components,
// each naming the subchannel (audio) or SCId (packet) it is carried
// on. Like Fig0_1, whole services are the atomic unit for partial
// fills — a service's component list is never split across Fill
// calls.
type Fig0_2 struct {
	State
	Ens *ensemble.Ensemble

	next int // index into Ens.Services
}

func (f *Fig0_2) FigType() int         { return 0 }
func (f *Fig0_2) FigExtension() int    { return 2 }
func (f *Fig0_2) RepetitionRate() Rate { return RateA }
func (f *Fig0_2) Priority() Priority   { return PriorityHigh }
func (f *Fig0_2) Name() string         { return "0/2" }

func serviceEntrySize(e *ensemble.Ensemble, svc *ensemble.Service) int {
	sidBytes := 2
	if svc.SIdExtended {
		sidBytes = 4
	}
	n := sidBytes + 1 // SId + (local-flag|CAId|NumComponents byte)
	n += 2 * len(e.ComponentsForService(svc.UID))
	return n
}

func encodeServiceEntry(buf []byte, e *ensemble.Ensemble, svc *ensemble.Service) int {
	pos := 0
	if svc.SIdExtended {
		buf[0] = byte(svc.SId >> 24)
		buf[1] = byte(svc.SId >> 16)
		buf[2] = byte(svc.SId >> 8)
		buf[3] = byte(svc.SId)
		pos = 4
	} else {
		buf[0] = byte(svc.SId >> 8)
		buf[1] = byte(svc.SId)
		pos = 2
	}

	comps := e.ComponentsForService(svc.UID)
	buf[pos] = byte(len(comps) & 0xF) // local-flag=0, CAId=0, NumComponents(4)
	pos++

	for _, c := range comps {
		sc := e.SubchannelByUID(c.SubchanUID)
		if sc == nil {
			continue
		}
		switch sc.Type {
		case ensemble.SubchannelPacketData:
			// TMId=11, SCId(12) | P/S(1) | CA(1)
			buf[pos] = 0xC0 | byte(c.SCIdS>>4)&0xF
			buf[pos+1] = byte(c.SCIdS) << 4
		default:
			// TMId=00, ASCTy(6) | SubChId(6) | P/S(1) | CA(1)
			buf[pos] = byte(c.Type&0x3F) << 2
			buf[pos+1] = byte(sc.SubChId&0x3F) << 2
		}
		pos += 2
	}
	return pos
}

// Fill emits as many complete service entries as fit, resuming from
// f.next across calls.
func (f *Fig0_2) Fill(buf []byte, maxSize int) FillStatus {
	if f.Ens == nil || len(f.Ens.Services) == 0 {
		return FillStatus{Complete: true}
	}
	if maxSize < 2 {
		return FillStatus{}
	}

	written := 1
	payload := buf[1:]
	payloadUsed := 0

	for f.next < len(f.Ens.Services) {
		svc := f.Ens.Services[f.next]
		entrySize := serviceEntrySize(f.Ens, svc)
		if written+entrySize > maxSize {
			break
		}
		n := encodeServiceEntry(payload[payloadUsed:], f.Ens, svc)
		payloadUsed += n
		written += n
		f.next++
	}

	if payloadUsed == 0 {
		return FillStatus{}
	}

	buf[0] = figHeader(0, payloadUsed)

	complete := f.next >= len(f.Ens.Services)
	if complete {
		f.next = 0
	}
	return FillStatus{BytesWritten: written, Complete: complete}
}
