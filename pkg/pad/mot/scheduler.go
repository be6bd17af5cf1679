package mot

// objectQueue holds one priority level's carousel members, a
// round-robin cursor into that list, and each member's next-packet
// index so a finished stream recycles instead of stalling.
type objectQueue struct {
	transportIDs []uint16
	cursor       int
	nextPacket   map[uint16]int
}

// Scheduler serves carousel packets in strict priority order 8→1,
// round-robin within each priority level across its member objects;
// when a priority level is empty, it falls through to the next lower
// one, wrapping back to 8 (spec.md §4.6), grounded on original_source
// mot/carousel.py's CarouselManager.get_next_packet.
type Scheduler struct {
	packets  map[uint16][]Packet
	queues   map[uint8]*objectQueue
	priority uint8 // current priority level being served, 8 downto 1
}

// NewScheduler builds a scheduler over the given objects' already
// segmented+packetized streams, keyed by transport ID and priority.
// The directory object (transport_id=0, priority 8) always leads its
// priority level's round-robin order.
func NewScheduler(objects []Object, packets map[uint16][]Packet) *Scheduler {
	s := &Scheduler{
		packets:  packets,
		queues:   make(map[uint8]*objectQueue, 8),
		priority: 8,
	}
	for p := uint8(1); p <= 8; p++ {
		s.queues[p] = &objectQueue{nextPacket: make(map[uint16]int)}
	}
	for _, o := range objects {
		q := s.queues[o.Priority]
		q.transportIDs = append(q.transportIDs, o.TransportID)
	}
	if dirQ := s.queues[8]; len(dirQ.transportIDs) > 1 {
		for i, id := range dirQ.transportIDs {
			if id == 0 {
				dirQ.transportIDs[0], dirQ.transportIDs[i] = dirQ.transportIDs[i], dirQ.transportIDs[0]
				break
			}
		}
	}
	return s
}

// NumObjects returns the number of distinct carousel objects currently
// scheduled across all priority levels.
func (s *Scheduler) NumObjects() int {
	n := 0
	for _, q := range s.queues {
		n += len(q.transportIDs)
	}
	return n
}

// Next returns the next packet to transmit, or false if no object has
// any packets at all.
func (s *Scheduler) Next() (Packet, bool) {
	for attempts := 0; attempts < 8; attempts++ {
		q := s.queues[s.priority]
		if len(q.transportIDs) == 0 {
			s.advancePriority()
			continue
		}
		if q.cursor >= len(q.transportIDs) {
			q.cursor = 0
		}
		id := q.transportIDs[q.cursor]
		stream := s.packets[id]
		if len(stream) == 0 {
			q.cursor++
			s.wrapAndAdvanceIfNeeded(q)
			continue
		}

		idx := q.nextPacket[id]
		if idx >= len(stream) {
			idx = 0
		}
		pkt := stream[idx]
		q.nextPacket[id] = idx + 1

		q.cursor++
		s.wrapAndAdvanceIfNeeded(q)
		return pkt, true
	}
	return Packet{}, false
}

// wrapAndAdvanceIfNeeded resets a priority level's round-robin cursor
// and moves to the next lower priority once its object list has been
// fully cycled once.
func (s *Scheduler) wrapAndAdvanceIfNeeded(q *objectQueue) {
	if q.cursor >= len(q.transportIDs) {
		q.cursor = 0
		s.advancePriority()
	}
}

func (s *Scheduler) advancePriority() {
	if s.priority <= 1 {
		s.priority = 8
		return
	}
	s.priority--
}
