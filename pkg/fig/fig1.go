package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// encodeLabelPayload writes the common label tail shared by every
// FIG type-1 extension: 16 EBU-Latin label bytes followed by the
// 16-bit short-label character mask (ETSI EN 300 401 §5.2.2.3).
func encodeLabelPayload(buf []byte, label ensemble.Label) {
	chars := ensemble.EncodeEBULatin(label.Text)
	copy(buf, chars[:])
	mask := label.ShortMask()
	buf[16] = byte(mask >> 8)
	buf[17] = byte(mask)
}

// Fig1_0 encodes the ensemble label (type 1, extension 0): EId plus
// the 16-byte label and short-label mask. Fixed size, always complete
// in one Fill call.
type Fig1_0 struct {
	State
	Ens *ensemble.Ensemble
}

func (f *Fig1_0) FigType() int         { return 1 }
func (f *Fig1_0) FigExtension() int    { return 0 }
func (f *Fig1_0) RepetitionRate() Rate { return RateB }
func (f *Fig1_0) Priority() Priority   { return PriorityHigh }
func (f *Fig1_0) Name() string         { return "1/0" }

func (f *Fig1_0) Fill(buf []byte, maxSize int) FillStatus {
	const payloadLen = 20 // EId(2) + label(16) + mask(2)
	if f.Ens == nil || maxSize < 1+payloadLen {
		return FillStatus{}
	}
	buf[0] = figHeader(1, payloadLen)
	buf[1] = byte(f.Ens.EId >> 8)
	buf[2] = byte(f.Ens.EId)
	encodeLabelPayload(buf[3:], f.Ens.Label)
	return FillStatus{BytesWritten: 1 + payloadLen, Complete: true}
}

// Fig1_1 encodes a programme service label (type 1, extension 1):
// SId(16) plus the 16-byte label and short-label mask. Cycles over
// all services, one per Fill call (the common case: 18 bytes per
// entry fits comfortably in a 30-byte FIB).
type Fig1_1 struct {
	State
	Ens *ensemble.Ensemble

	next int
}

func (f *Fig1_1) FigType() int         { return 1 }
func (f *Fig1_1) FigExtension() int    { return 1 }
func (f *Fig1_1) RepetitionRate() Rate { return RateB }
func (f *Fig1_1) Priority() Priority   { return PriorityNormal }
func (f *Fig1_1) Name() string         { return "1/1" }

func (f *Fig1_1) Fill(buf []byte, maxSize int) FillStatus {
	if f.Ens == nil || len(f.Ens.Services) == 0 {
		return FillStatus{Complete: true}
	}
	const payloadLen = 20 // SId(2) + label(16) + mask(2)
	if maxSize < 1+payloadLen {
		return FillStatus{}
	}
	if f.next >= len(f.Ens.Services) {
		f.next = 0
	}
	svc := f.Ens.Services[f.next]

	buf[0] = figHeader(1, payloadLen)
	buf[1] = byte(svc.SId >> 8)
	buf[2] = byte(svc.SId)
	encodeLabelPayload(buf[3:], svc.Label)

	f.next++
	complete := f.next >= len(f.Ens.Services)
	if complete {
		f.next = 0
	}
	return FillStatus{BytesWritten: 1 + payloadLen, Complete: complete}
}

// Fig1_4 encodes a service component label (type 1, extension 4):
// SId(16), SCIdS, plus the 16-byte label and short-label mask.
type Fig1_4 struct {
	State
	Ens *ensemble.Ensemble

	next int
}

func (f *Fig1_4) FigType() int         { return 1 }
func (f *Fig1_4) FigExtension() int    { return 4 }
func (f *Fig1_4) RepetitionRate() Rate { return RateC }
func (f *Fig1_4) Priority() Priority   { return PriorityLow }
func (f *Fig1_4) Name() string         { return "1/4" }

func (f *Fig1_4) labeledComponents() []*ensemble.Component {
	var out []*ensemble.Component
	if f.Ens == nil {
		return out
	}
	for _, c := range f.Ens.Components {
		if c.Label.Text != "" {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fig1_4) Fill(buf []byte, maxSize int) FillStatus {
	comps := f.labeledComponents()
	if len(comps) == 0 {
		return FillStatus{Complete: true}
	}
	const payloadLen = 21 // SId(2) + SCIdS(1) + label(16) + mask(2)
	if maxSize < 1+payloadLen {
		return FillStatus{}
	}
	if f.next >= len(comps) {
		f.next = 0
	}
	c := comps[f.next]
	svc := f.Ens.ServiceByUID(c.ServiceUID)
	if svc == nil {
		f.next++
		return FillStatus{}
	}

	buf[0] = figHeader(1, payloadLen)
	buf[1] = byte(svc.SId >> 8)
	buf[2] = byte(svc.SId)
	buf[3] = c.SCIdS & 0xF
	encodeLabelPayload(buf[4:], c.Label)

	f.next++
	complete := f.next >= len(comps)
	if complete {
		f.next = 0
	}
	return FillStatus{BytesWritten: 1 + payloadLen, Complete: complete}
}

// Fig1_5 encodes a data service label (type 1, extension 5): the
// 32-bit SId form used by data-only services, plus the 16-byte label
// and short-label mask.
type Fig1_5 struct {
	State
	Ens *ensemble.Ensemble

	next int
}

func (f *Fig1_5) FigType() int         { return 1 }
func (f *Fig1_5) FigExtension() int    { return 5 }
func (f *Fig1_5) RepetitionRate() Rate { return RateC }
func (f *Fig1_5) Priority() Priority   { return PriorityLow }
func (f *Fig1_5) Name() string         { return "1/5" }

func (f *Fig1_5) extendedServices() []*ensemble.Service {
	var out []*ensemble.Service
	if f.Ens == nil {
		return out
	}
	for _, svc := range f.Ens.Services {
		if svc.SIdExtended {
			out = append(out, svc)
		}
	}
	return out
}

func (f *Fig1_5) Fill(buf []byte, maxSize int) FillStatus {
	services := f.extendedServices()
	if len(services) == 0 {
		return FillStatus{Complete: true}
	}
	const payloadLen = 22 // SId(4) + label(16) + mask(2)
	if maxSize < 1+payloadLen {
		return FillStatus{}
	}
	if f.next >= len(services) {
		f.next = 0
	}
	svc := services[f.next]

	buf[0] = figHeader(1, payloadLen)
	buf[1] = byte(svc.SId >> 24)
	buf[2] = byte(svc.SId >> 16)
	buf[3] = byte(svc.SId >> 8)
	buf[4] = byte(svc.SId)
	encodeLabelPayload(buf[5:], svc.Label)

	f.next++
	complete := f.next >= len(services)
	if complete {
		f.next = 0
	}
	return FillStatus{BytesWritten: 1 + payloadLen, Complete: complete}
}
