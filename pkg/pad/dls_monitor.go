package pad

import (
	"bufio"
	"os"
	"strings"
	"time"
)

// FileMonitor polls a text file's mtime at a configured interval and
// feeds its first line into a DLSEncoder, trimming whitespace. A
// disappeared file is treated as an empty label rather than an error
// (spec.md §4.6 "disappearance treated as empty").
type FileMonitor struct {
	Path     string
	Interval time.Duration
	Encoder  *DLSEncoder

	lastMod time.Time
}

// NewFileMonitor creates a monitor for path, polling every interval
// (spec.md's configured poll_interval, in seconds) and feeding lines
// to enc.
func NewFileMonitor(path string, interval time.Duration, enc *DLSEncoder) *FileMonitor {
	return &FileMonitor{Path: path, Interval: interval, Encoder: enc}
}

// Poll checks the file's mtime and, if changed (or on first call),
// reads the first line and updates the encoder's label. It is safe to
// call more often than Interval; callers typically gate calls with
// their own ticker.
func (m *FileMonitor) Poll() {
	info, err := os.Stat(m.Path)
	if err != nil {
		m.Encoder.SetLabel("")
		return
	}
	if info.ModTime().Equal(m.lastMod) {
		return
	}
	m.lastMod = info.ModTime()

	f, err := os.Open(m.Path)
	if err != nil {
		m.Encoder.SetLabel("")
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := ""
	if scanner.Scan() {
		line = scanner.Text()
	}
	m.Encoder.SetLabel(strings.TrimSpace(line))
}

// Run blocks, polling at Interval until stop is closed.
func (m *FileMonitor) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	m.Poll()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}
