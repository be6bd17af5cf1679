package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// UserApplication describes one X-PAD/data application carried by a
// component, announced via FIG 0/13.
type UserApplication struct {
	ComponentUID string
	AppType      uint16 // 11-bit user application type
	Data         []byte // application-specific data
}

// Fig0_13 encodes user application information (type 0, extension
// 13): per service component, the list of user applications (e.g.
// DLS, MOT Slideshow) it carries.
type Fig0_13 struct {
	State
	Ens  *ensemble.Ensemble
	Apps []UserApplication

	next int
}

func (f *Fig0_13) FigType() int         { return 0 }
func (f *Fig0_13) FigExtension() int    { return 13 }
func (f *Fig0_13) RepetitionRate() Rate { return RateC }
func (f *Fig0_13) Priority() Priority   { return PriorityLow }
func (f *Fig0_13) Name() string         { return "0/13" }

func (f *Fig0_13) Fill(buf []byte, maxSize int) FillStatus {
	if len(f.Apps) == 0 {
		return FillStatus{Complete: true}
	}
	if maxSize < 1+5 {
		return FillStatus{}
	}

	written := 1
	payload := buf[1:]
	payloadUsed := 0

	for f.next < len(f.Apps) {
		app := f.Apps[f.next]
		comp := findComponent(f.Ens, app.ComponentUID)
		if comp == nil {
			f.next++
			continue
		}
		entrySize := 5 + len(app.Data)
		if written+entrySize > maxSize {
			break
		}
		svc := f.Ens.ServiceByUID(comp.ServiceUID)
		p := payload[payloadUsed:]
		p[0] = byte(svc.SId >> 8)
		p[1] = byte(svc.SId)
		p[2] = comp.SCIdS & 0xF
		p[3] = byte(app.AppType >> 3)
		p[4] = byte(app.AppType&0x7)<<5 | byte(len(app.Data)&0x1F)
		copy(p[5:], app.Data)
		payloadUsed += entrySize
		written += entrySize
		f.next++
	}

	if payloadUsed == 0 {
		return FillStatus{}
	}
	buf[0] = figHeader(0, payloadUsed)

	complete := f.next >= len(f.Apps)
	if complete {
		f.next = 0
	}
	return FillStatus{BytesWritten: written, Complete: complete}
}

func findComponent(e *ensemble.Ensemble, uid string) *ensemble.Component {
	if e == nil {
		return nil
	}
	for _, c := range e.Components {
		if c.UID == uid {
			return c
		}
	}
	return nil
}
