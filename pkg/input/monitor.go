package input

import "time"

// glitchWindow is the rolling window over which consecutive underruns
// are counted toward the UNSTABLE transition (spec.md §5).
const glitchWindow = 20

// unstableThreshold is the glitch count within glitchWindow reads that
// trips UNSTABLE (spec.md §5 "tagged UNSTABLE after >=5 glitches in a
// rolling window").
const unstableThreshold = 5

// noDataThreshold is how long a continuously empty buffer must
// persist before NO_DATA (spec.md §5 ">=1s").
const noDataThreshold = time.Second

// silenceFrames is how many consecutive low-peak frames trip SILENCE
// (spec.md §5 "Peak level < 100 for >=10 consecutive frames").
const silenceFrames = 10

// silencePeakThreshold is the peak-sample threshold below which a
// frame counts toward SILENCE.
const silencePeakThreshold = 100

// Monitor wraps a Source and classifies its health per spec.md §5's
// backpressure rules, exposed to the remote-control surface via
// get_input_status. It is owned by the frame loop, which is the sole
// reader of each subchannel's frame bytes.
type Monitor struct {
	Source Source

	glitches    [glitchWindow]bool
	glitchIdx   int
	lastDataAt  time.Time
	silentRun   int
	Underruns   int
}

// NewMonitor wraps src for health tracking.
func NewMonitor(src Source) *Monitor {
	return &Monitor{Source: src, lastDataAt: time.Now()}
}

// ReadFrame reads size bytes from the wrapped Source and updates the
// rolling health classification.
func (m *Monitor) ReadFrame(size int) []byte {
	data := m.Source.ReadFrame(size)

	glitch := isZero(data)
	m.glitches[m.glitchIdx%glitchWindow] = glitch
	m.glitchIdx++
	if glitch {
		m.Underruns++
	} else {
		m.lastDataAt = time.Now()
	}

	if peak(data) < silencePeakThreshold {
		m.silentRun++
	} else {
		m.silentRun = 0
	}

	return data
}

// State reports the current backpressure classification.
func (m *Monitor) State() State {
	if time.Since(m.lastDataAt) >= noDataThreshold {
		return StateNoData
	}
	if m.glitchCount() >= unstableThreshold {
		return StateUnstable
	}
	if m.silentRun >= silenceFrames {
		return StateSilence
	}
	return StateOK
}

func (m *Monitor) glitchCount() int {
	n := 0
	for _, g := range m.glitches {
		if g {
			n++
		}
	}
	return n
}

func isZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

func peak(data []byte) int {
	p := 0
	for _, b := range data {
		v := int(b)
		if v < 0 {
			v = -v
		}
		if v > p {
			p = v
		}
	}
	return p
}
