// Package clock provides the 24ms frame-pacing timer and TIST
// (Time Stamp) arithmetic the ETI assembler and EDI encoder both need
// (spec.md §4.1 step 9, §4.5 tist TAG, §5 "the frame loop never
// suspends on network I/O; it may suspend only on the 24ms timer").
//
// Grounded on spec.md §5's description of a dedicated frame-pacing
// thread using a monotonic clock and blocking sleep-until; no pack
// repo carries an equivalent fixed-period real-time loop (the teacher
// drives everything from network readiness instead), so this is built
// directly from the spec using stdlib time.Ticker with drift
// correction, the idiomatic Go analogue of "sleep until next
// deadline" rather than a naive fixed Sleep that would accumulate
// drift.
package clock

import "time"

// FramePeriod is the ETI frame cadence (spec.md §1, §4.1).
const FramePeriod = 24 * time.Millisecond

// TISTTicksPerSecond is the TIST sub-second tick resolution,
// 1/16384000 s (spec.md §4.1 step 9).
const TISTTicksPerSecond = 16384000

// Pacer emits a tick every FramePeriod, correcting for scheduling
// jitter by tracking an absolute deadline rather than sleeping a fixed
// duration each iteration (which would drift under load).
type Pacer struct {
	period   time.Duration
	deadline time.Time
	started  bool
}

// NewPacer creates a Pacer ticking at FramePeriod.
func NewPacer() *Pacer {
	return &Pacer{period: FramePeriod}
}

// Wait blocks until the next tick deadline and returns. The first
// call returns immediately and establishes the deadline baseline.
func (p *Pacer) Wait() {
	now := time.Now()
	if !p.started {
		p.started = true
		p.deadline = now.Add(p.period)
		return
	}
	if d := p.deadline.Sub(now); d > 0 {
		time.Sleep(d)
	}
	p.deadline = p.deadline.Add(p.period)
	// If we fell behind by more than one period (e.g. a long GC pause
	// or blocked accept loop elsewhere), resynchronize instead of
	// bursting catch-up ticks.
	if p.deadline.Before(time.Now()) {
		p.deadline = time.Now().Add(p.period)
	}
}

// TIST computes the 24-bit sub-second tick count plus 1-byte filler
// for the current wall-clock time, per spec.md §4.1 step 9. The
// filler byte is always 0x00; disabled TIST is represented by the
// caller emitting 0xFFFFFFFF instead of calling TIST.
func TIST(t time.Time) [4]byte {
	nanoOfSecond := t.Nanosecond()
	ticks := uint32(int64(nanoOfSecond) * TISTTicksPerSecond / int64(time.Second))
	return [4]byte{
		byte(ticks >> 16),
		byte(ticks >> 8),
		byte(ticks),
		0x00,
	}
}

// taiEpoch is 2000-01-01T00:00:00Z, the EDI tist TAG epoch (spec.md
// §4.5 "seconds since 2000-01-01T00:00:00Z").
var taiEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// EDITimestamp computes the 56-bit EDI tist TAG value: 32-bit seconds
// since the 2000-01-01 epoch (after adding the UTC-to-TAI leap-second
// offset) in the upper bits, 24-bit sub-second ticks in the lower
// bits, returned as a big-endian 7-byte array ready to append to the
// TAG payload.
func EDITimestamp(t time.Time, taiUTCOffsetSeconds int) [7]byte {
	secs := uint32(t.UTC().Sub(taiEpoch).Seconds()) + uint32(taiUTCOffsetSeconds)
	tist := TIST(t)
	var out [7]byte
	out[0] = byte(secs >> 24)
	out[1] = byte(secs >> 16)
	out[2] = byte(secs >> 8)
	out[3] = byte(secs)
	out[4] = tist[0]
	out[5] = tist[1]
	out[6] = tist[2]
	return out
}
