package input

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// FileSource reads contiguous bytes from a local file. On EOF, it
// either seeks back to the start (Loop) or zero-fills the remainder
// of the request (spec.md §4.2 "File input").
type FileSource struct {
	path        string
	loop        bool
	bitrateKbps int

	mu   sync.Mutex
	f    *os.File
	open bool
}

// NewFileSource creates a file-backed Source for path.
func NewFileSource(path string, loop bool, bitrateKbps int) *FileSource {
	return &FileSource{path: path, loop: loop, bitrateKbps: bitrateKbps}
}

func (s *FileSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("input: open %q: %w", s.path, err)
	}
	s.f = f
	s.open = true
	return nil
}

func (s *FileSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *FileSource) ReadFrame(size int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, size)
	if !s.open {
		return out
	}

	filled := 0
	for filled < size {
		n, err := s.f.Read(out[filled:])
		filled += n
		if err != nil {
			if err == io.EOF {
				if s.loop {
					if _, seekErr := s.f.Seek(0, io.SeekStart); seekErr != nil {
						return out
					}
					continue
				}
			}
			return out
		}
	}
	return out
}

func (s *FileSource) GetBitrate() int { return s.bitrateKbps }

func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	return s.f.Close()
}
