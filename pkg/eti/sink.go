package eti

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// OutputFormat selects one of the three ETI file output formats
// spec.md §4.1/§6 defines.
type OutputFormat int

const (
	// FormatRaw writes bare 6144-byte frames with no framing.
	FormatRaw OutputFormat = iota
	// FormatFramed prefixes each frame with a 4-byte big-endian length.
	FormatFramed
	// FormatStreamed is raw output with a flush after every frame.
	FormatStreamed
)

// ParseOutputFormat maps an output.format config value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "raw":
		return FormatRaw, nil
	case "framed":
		return FormatFramed, nil
	case "streamed":
		return FormatStreamed, nil
	default:
		return FormatRaw, fmt.Errorf("eti: unknown output format %q", s)
	}
}

// FileSink writes assembled frames to a file in one of the three
// output formats.
type FileSink struct {
	f      *os.File
	format OutputFormat
}

// NewFileSink opens path for writing in the given format.
func NewFileSink(path string, format OutputFormat) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("eti: create sink %q: %w", path, err)
	}
	return &FileSink{f: f, format: format}, nil
}

// Write emits one frame in the configured format. Callers must pass
// exactly FrameSize bytes.
func (s *FileSink) Write(frame []byte) error {
	if len(frame) != FrameSize {
		return fmt.Errorf("eti: sink expects %d-byte frames, got %d", FrameSize, len(frame))
	}

	switch s.format {
	case FormatFramed:
		var lenPrefix [4]byte
		binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(frame)))
		if _, err := s.f.Write(lenPrefix[:]); err != nil {
			return err
		}
		if _, err := s.f.Write(frame); err != nil {
			return err
		}
	case FormatStreamed:
		if _, err := s.f.Write(frame); err != nil {
			return err
		}
		return s.f.Sync()
	default: // FormatRaw
		if _, err := s.f.Write(frame); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	return s.f.Close()
}

var _ io.Closer = (*FileSink)(nil)
