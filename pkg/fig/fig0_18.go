package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// Fig0_18 encodes announcement support (type 0, extension 18): per
// service, the ASu announcement-type support bitmask and the list of
// clusters it participates in.
type Fig0_18 struct {
	State
	Ens *ensemble.Ensemble

	next int
}

func (f *Fig0_18) FigType() int         { return 0 }
func (f *Fig0_18) FigExtension() int    { return 18 }
func (f *Fig0_18) RepetitionRate() Rate { return RateC }
func (f *Fig0_18) Priority() Priority   { return PriorityLow }
func (f *Fig0_18) Name() string         { return "0/18" }

func (f *Fig0_18) Fill(buf []byte, maxSize int) FillStatus {
	services := servicesWithAnnouncements(f.Ens)
	if len(services) == 0 {
		return FillStatus{Complete: true}
	}
	if maxSize < 1+5 {
		return FillStatus{}
	}

	written := 1
	payload := buf[1:]
	payloadUsed := 0

	for f.next < len(services) {
		svc := services[f.next]
		entrySize := 5 + len(svc.Clusters)
		if written+entrySize > maxSize {
			break
		}
		p := payload[payloadUsed:]
		p[0] = byte(svc.SId >> 8)
		p[1] = byte(svc.SId)
		p[2] = byte(svc.Announcements >> 8)
		p[3] = byte(svc.Announcements)
		p[4] = byte(len(svc.Clusters))
		copy(p[5:], svc.Clusters)
		payloadUsed += entrySize
		written += entrySize
		f.next++
	}

	if payloadUsed == 0 {
		return FillStatus{}
	}
	buf[0] = figHeader(0, payloadUsed)

	complete := f.next >= len(services)
	if complete {
		f.next = 0
	}
	return FillStatus{BytesWritten: written, Complete: complete}
}

func servicesWithAnnouncements(e *ensemble.Ensemble) []*ensemble.Service {
	if e == nil {
		return nil
	}
	var out []*ensemble.Service
	for _, svc := range e.Services {
		if svc.Announcements != 0 {
			out = append(out, svc)
		}
	}
	return out
}
