package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// Fig0_17 encodes programme type (type 0, extension 17): per service,
// its language and programme type code.
type Fig0_17 struct {
	State
	Ens *ensemble.Ensemble

	next int
}

func (f *Fig0_17) FigType() int         { return 0 }
func (f *Fig0_17) FigExtension() int    { return 17 }
func (f *Fig0_17) RepetitionRate() Rate { return RateB }
func (f *Fig0_17) Priority() Priority   { return PriorityNormal }
func (f *Fig0_17) Name() string         { return "0/17" }

func (f *Fig0_17) Fill(buf []byte, maxSize int) FillStatus {
	if f.Ens == nil || len(f.Ens.Services) == 0 {
		return FillStatus{Complete: true}
	}
	if maxSize < 1+5 {
		return FillStatus{}
	}

	written := 1
	payload := buf[1:]
	payloadUsed := 0

	for f.next < len(f.Ens.Services) {
		if written+5 > maxSize {
			break
		}
		svc := f.Ens.Services[f.next]
		p := payload[payloadUsed:]
		p[0] = byte(svc.SId >> 8)
		p[1] = byte(svc.SId)
		p[2] = 0 // CAId=0, rfu
		p[3] = svc.Language
		p[4] = svc.PTy & 0x1F // static PTy, dynamic flag left 0
		payloadUsed += 5
		written += 5
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
