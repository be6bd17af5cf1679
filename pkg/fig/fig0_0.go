package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// Fig0_0 encodes the ensemble information FIG (type 0, extension 0):
// EId plus the CIF counter fields that let a receiver track frame
// continuity. It must appear complete in FIB 0 of every frame
// (spec P5), so it reports PriorityCritical and the tight FIG0_0
// repetition class.
type Fig0_0 struct {
	State
	Ens *ensemble.Ensemble

	// CIFCount is the current Common Interleaved Frame count,
	// incremented by the frame loop once per 24ms tick and wrapped at
	// 5000 (ETSI EN 300 401 §5.2.2.1).
	CIFCount int
}

func (f *Fig0_0) FigType() int         { return 0 }
func (f *Fig0_0) FigExtension() int    { return 0 }
func (f *Fig0_0) RepetitionRate() Rate { return RateFIG0_0 }
func (f *Fig0_0) Priority() Priority   { return PriorityCritical }
func (f *Fig0_0) Name() string         { return "0/0" }

// Fill writes the complete FIG 0/0 in one shot; it is small enough
// (6 bytes total) to never need partial transmission.
func (f *Fig0_0) Fill(buf []byte, maxSize int) FillStatus {
	const payloadLen = 5
	if maxSize < 1+payloadLen {
		return FillStatus{}
	}

	cifHi := uint8((f.CIFCount >> 8) & 0x1F)
	cifLo := uint8(f.CIFCount & 0xFF)

	buf[0] = figHeader(0, payloadLen)
	buf[1] = 0x00 // extension=0 in bits 0-4, C/N=0, OE=0, P/D=0
	if f.Ens != nil {
		buf[2] = byte(f.Ens.EId >> 8)
		buf[3] = byte(f.Ens.EId)
	}
	buf[4] = cifHi // change-flag(2) | alarm-flag(1) | CIF-hi(5), change/alarm left 0
	buf[5] = cifLo

	return FillStatus{BytesWritten: 1 + payloadLen, Complete: true}
}
