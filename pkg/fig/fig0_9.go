package fig

import "github.com/go-dab/dabmux/pkg/ensemble"

// Fig0_9 encodes country, LTO, and international table (type 0,
// extension 9): a single fixed-size entry, always complete in one
// Fill call.
type Fig0_9 struct {
	State
	Ens *ensemble.Ensemble
}

func (f *Fig0_9) FigType() int         { return 0 }
func (f *Fig0_9) FigExtension() int    { return 9 }
func (f *Fig0_9) RepetitionRate() Rate { return RateC }
func (f *Fig0_9) Priority() Priority   { return PriorityLow }
func (f *Fig0_9) Name() string         { return "0/9" }

func (f *Fig0_9) Fill(buf []byte, maxSize int) FillStatus {
	const payloadLen = 3
	if f.Ens == nil || maxSize < 1+payloadLen {
		return FillStatus{}
	}
	lto := f.Ens.LTOHalfHours
	ltoSign := byte(0)
	if lto < 0 {
		ltoSign = 1
		lto = -lto
	}

	buf[0] = figHeader(0, payloadLen)
	buf[1] = byte(f.Ens.InternationalTable) & 0x1F
	buf[2] = ltoSign<<5 | byte(lto&0x1F)
	buf[3] = f.Ens.ECC

	return FillStatus{BytesWritten: 1 + payloadLen, Complete: true}
}
