// Package fic implements the Fast Information Channel scheduler:
// three 32-byte FIBs per ETI frame, each a 30-byte FIG payload plus a
// CRC-16-CCITT checksum, filled from a pool of FIG encoders in
// priority-then-urgency order.
//
// Grounded on spec.md §4.2's per-FIB fill algorithm; no direct
// original_source equivalent exists (the Python prototype's FIC layer
// was not retrieved), so the scheduling loop is built from the
// spec's literal description and the shared fig.State machine.
package fic

import "github.com/go-dab/dabmux/pkg/fig"

const (
	fibPayloadSize = 30
	fibSize        = 32
	fibsPerFrame   = 3
)

// Scheduler multiplexes a pool of FIG encoders into the three FIBs of
// one ETI frame.
type Scheduler struct {
	figs []fig.Encoder

	// UndeliveredCount counts, per FIB, the due FIGs that did not fit
	// into it; a FIG that then fits a later FIB of the same frame has
	// still been counted once (exposed to metrics per spec.md's
	// failure policy).
	UndeliveredCount int
}

// NewScheduler creates a Scheduler over the given FIG encoders. FIG
// 0/0 must be present in figs for P5 (FIG 0/0 presence in FIB 0) to
// hold; the caller is responsible for including it.
func NewScheduler(figs []fig.Encoder) *Scheduler {
	return &Scheduler{figs: figs}
}

// figState extracts the embedded *fig.State pointer every concrete
// FIG exposes via FigState() (promoted from its embedded fig.State),
// letting the scheduler drive scheduling state without knowing the
// concrete FIG type.
func figState(f fig.Encoder) *fig.State {
	if sh, ok := f.(interface{ FigState() *fig.State }); ok {
		return sh.FigState()
	}
	return nil
}

// FillFrame builds the three FIBs for one frame at time nowMS and
// returns their concatenated bytes (fibsPerFrame * fibSize = 96
// bytes in TM-I).
func (s *Scheduler) FillFrame(nowMS int64) []byte {
	out := make([]byte, 0, fibsPerFrame*fibSize)
	for fibIdx := 0; fibIdx < fibsPerFrame; fibIdx++ {
		out = append(out, s.fillFIB(nowMS, fibIdx)...)
	}
	return out
}

// fillFIB builds one 32-byte FIB: up to 30 payload bytes ordered by
// (priority, urgency), end-marker padding, then a CRC-16 over the
// 30-byte payload.
func (s *Scheduler) fillFIB(nowMS int64, fibIdx int) []byte {
	payload := make([]byte, fibPayloadSize)
	used := 0

	order := s.orderedCandidates(nowMS, fibIdx)
	for _, i := range order {
		f := s.figs[i]
		remaining := fibPayloadSize - used
		if remaining <= 0 {
			break
		}
		status := f.Fill(payload[used:], remaining)
		if status.BytesWritten == 0 {
			if st := figState(f); st != nil {
				if status.Complete {
					// Nothing to send this cycle (e.g. no entries).
					st.MarkTransmitted(nowMS, true)
				} else {
					s.UndeliveredCount++
				}
			}
			continue
		}
		used += status.BytesWritten
		if st := figState(f); st != nil {
			st.MarkTransmitted(nowMS, status.Complete)
		}
	}

	if used < fibPayloadSize {
		payload[used] = 0xFF
		for i := used + 1; i < fibPayloadSize; i++ {
			payload[i] = 0x00
		}
	}

	crc := CRC16(payload)
	fib := make([]byte, fibSize)
	copy(fib, payload)
	fib[fibPayloadSize] = byte(crc >> 8)
	fib[fibPayloadSize+1] = byte(crc)
	return fib
}

// orderedCandidates returns the index order the current FIB should
// try FIGs in: FIG 0/0 always first in FIB 0 (spec P5), then all due
// FIGs by (priority ascending, urgency descending).
func (s *Scheduler) orderedCandidates(nowMS int64, fibIdx int) []int {
	var order []int
	for i, f := range s.figs {
		st := figState(f)
		if st == nil {
			continue
		}
		forced := fibIdx == 0 && f.FigType() == 0 && f.FigExtension() == 0
		if !forced && !st.ShouldTransmit(nowMS, f.RepetitionRate()) {
			continue
		}
		order = append(order, i)
	}

	// Stable-sort by (priority, -urgency); FIG 0/0, a candidate of
	// every FIB 0 whatever its timer says, sorts first there since it
	// is PriorityCritical.
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && less(s.figs[order[j]], s.figs[order[j-1]], nowMS) {
			order[j], order[j-1] = order[j-1], order[j]
			j--
		}
	}
	return order
}

func less(a, b fig.Encoder, nowMS int64) bool {
	if a.Priority() != b.Priority() {
		return a.Priority() < b.Priority()
	}
	return urgencyOf(a, nowMS) > urgencyOf(b, nowMS)
}

func urgencyOf(f fig.Encoder, nowMS int64) int64 {
	st := figState(f)
	if st == nil {
		return 0
	}
	return st.Urgency(nowMS, f.RepetitionRate())
}
