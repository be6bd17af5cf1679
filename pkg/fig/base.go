// Package fig implements the Fast Information Group encoders carried
// in the FIC: per-FIG scheduling state (repetition rate, priority,
// in-progress/completed-cycle tracking) and the binary encoders for
// each (type, extension) pair the ensemble needs to announce.
//
// Grounded on _examples/original_source/src/dabmux/fig/base.py.
package fig

// Priority orders FIG transmission within a frame; lower values take
// precedence (ETSI TR 101 496-2 scheduling guidance).
type Priority int

const (
	PriorityCritical Priority = iota + 1
	PriorityHigh
	PriorityNormal
	PriorityLow
)

// Rate identifies a FIG's repetition-rate class (ETSI TR 101 496-2
// Table 3.6.1).
type Rate int

const (
	RateFIG0_0 Rate = iota
	RateA
	RateAB
	RateB
	RateC
	RateD
	RateE
)

// IntervalMS returns the maximum inter-transmission gap in
// milliseconds for a repetition rate class.
func (r Rate) IntervalMS() int {
	switch r {
	case RateFIG0_0:
		return 96
	case RateA:
		return 100
	case RateAB:
		return 500
	case RateB:
		return 1000
	case RateC:
		return 10000
	case RateD:
		return 30000
	case RateE:
		return 120000
	default:
		return 1000
	}
}

// FillStatus reports the outcome of one Fill call.
type FillStatus struct {
	BytesWritten int
	Complete     bool
}

// Encoder is implemented by every FIG. Fill writes up to maxSize
// bytes of this FIG's payload (header included) into buf[:] starting
// at offset 0 and reports how much was written and whether the FIG's
// content is now fully represented for this transmission cycle.
type Encoder interface {
	Fill(buf []byte, maxSize int) FillStatus
	RepetitionRate() Rate
	FigType() int
	FigExtension() int
	Priority() Priority
	Name() string
}

// State is the per-FIG scheduling state embedded by every concrete
// encoder: last-complete-transmission time, in-progress flag, and
// whether a full cycle has completed at least once.
type State struct {
	lastCompleteMS   int64
	hasTransmitted   bool
	inProgress       bool
	completedOneCycle bool
}

// ShouldTransmit reports whether this FIG is due for transmission at
// nowMS. A FIG with a partial transmission in progress is always due
// (it must finish); a FIG that has never completed a cycle is always
// due; otherwise the configured repetition interval gates it.
func (s *State) ShouldTransmit(nowMS int64, rate Rate) bool {
	if s.inProgress {
		return true
	}
	if !s.hasTransmitted || !s.completedOneCycle {
		return true
	}
	return nowMS-s.lastCompleteMS >= int64(rate.IntervalMS())
}

// MarkTransmitted records a Fill outcome. complete=false marks the
// FIG in-progress for immediate retry in the next FIB without
// advancing lastCompleteMS; complete=true closes out the cycle.
func (s *State) MarkTransmitted(nowMS int64, complete bool) {
	if complete {
		s.lastCompleteMS = nowMS
		s.hasTransmitted = true
		s.inProgress = false
		s.completedOneCycle = true
		return
	}
	s.inProgress = true
}

// FigState exposes the embedded scheduling state so pkg/fic's
// scheduler can drive ShouldTransmit/MarkTransmitted/Urgency through
// a single type assertion without knowing the concrete FIG type.
func (s *State) FigState() *State { return s }

// Urgency reports how overdue this FIG is at nowMS relative to its
// repetition interval, used by the scheduler to break priority ties
// in favor of the most-overdue FIG.
func (s *State) Urgency(nowMS int64, rate Rate) int64 {
	return nowMS - s.lastCompleteMS - int64(rate.IntervalMS())
}

// figHeader packs the 1-byte FIG header: type(3) | length(5), where
// length counts the payload bytes following the header.
func figHeader(figType int, payloadLen int) byte {
	return byte(figType&0x7)<<5 | byte(payloadLen&0x1F)
}
