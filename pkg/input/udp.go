package input

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultUDPQueueSize is the bounded recv queue depth (spec.md §4.2
// "bounded queue (default 10 frames)").
const DefaultUDPQueueSize = 10

// DefaultUDPReadTimeout is the reader's block-on-queue timeout
// (spec.md §4.2 "readers block on the queue with a short timeout
// (<=100ms)").
const DefaultUDPReadTimeout = 100 * time.Millisecond

// UDPSource receives subchannel frames over UDP on a background
// goroutine and hands them to the frame loop through a bounded
// channel. Packets whose length doesn't exactly match the expected
// frame size are dropped and counted; a full queue drops the newly
// received packet and counts it too, so a stalled consumer never blocks the
// network goroutine (spec.md §4.2 "UDP input").
type UDPSource struct {
	addr        string
	bitrateKbps int
	queueSize   int
	readTimeout time.Duration

	mu            sync.Mutex
	conn          *net.UDPConn
	open          bool
	queue         chan []byte
	stopCh        chan struct{}
	SizeMismatch  int
	QueueDrops    int
	Underruns     int
}

// NewUDPSource creates a UDP-backed Source bound to addr (host:port).
func NewUDPSource(addr string, bitrateKbps int) *UDPSource {
	return &UDPSource{
		addr:        addr,
		bitrateKbps: bitrateKbps,
		queueSize:   DefaultUDPQueueSize,
		readTimeout: DefaultUDPReadTimeout,
	}
}

func (s *UDPSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("input: resolve udp addr %q: %w", s.addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("input: listen udp %q: %w", s.addr, err)
	}

	s.conn = conn
	s.open = true
	s.queue = make(chan []byte, s.queueSize)
	s.stopCh = make(chan struct{})
	go s.recvLoop()
	return nil
}

func (s *UDPSource) recvLoop() {
	expected := frameSize(s.bitrateKbps)
	buf := make([]byte, expected+1500)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		if n != expected {
			s.mu.Lock()
			s.SizeMismatch++
			s.mu.Unlock()
			continue
		}

		packet := make([]byte, n)
		copy(packet, buf[:n])
		select {
		case s.queue <- packet:
		default:
			// Queue full: drop the new packet rather than blocking the
			// network goroutine or evicting in-flight data.
			s.mu.Lock()
			s.QueueDrops++
			s.mu.Unlock()
		}
	}
}

func (s *UDPSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *UDPSource) ReadFrame(size int) []byte {
	select {
	case packet := <-s.queue:
		if len(packet) == size {
			return packet
		}
		out := make([]byte, size)
		copy(out, packet)
		return out
	case <-time.After(s.readTimeout):
		s.mu.Lock()
		s.Underruns++
		s.mu.Unlock()
		return make([]byte, size)
	}
}

func (s *UDPSource) GetBitrate() int { return s.bitrateKbps }

func (s *UDPSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	close(s.stopCh)
	s.open = false
	return s.conn.Close()
}
