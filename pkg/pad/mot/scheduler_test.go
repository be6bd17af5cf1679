package mot

import "testing"

func packetStream(n int) []Packet {
	out := make([]Packet, n)
	for i := range out {
		out[i] = Packet{Address: uint16(i)}
	}
	return out
}

func TestSchedulerServesHighestPriorityFirst(t *testing.T) {
	// Single-member priority levels serve one packet per full 8->1
	// sweep each, so priority 8's member must be the very first packet
	// out, ahead of priority 3's.
	objs := []Object{
		{TransportID: 1, Priority: 3},
		{TransportID: 2, Priority: 8},
	}
	packets := map[uint16][]Packet{
		1: {{Address: 100}, {Address: 101}},
		2: {{Address: 200}, {Address: 201}},
	}
	s := NewScheduler(objs, packets)

	first, ok := s.Next()
	if !ok || first.Address != 200 {
		t.Fatalf("expected priority 8's first packet (200) first, got %+v ok=%v", first, ok)
	}
	second, ok := s.Next()
	if !ok || second.Address != 100 {
		t.Fatalf("expected priority 3's first packet (100) next, got %+v ok=%v", second, ok)
	}
	third, ok := s.Next()
	if !ok || third.Address != 201 {
		t.Fatalf("expected priority 8's second packet (201) on the next sweep, got %+v ok=%v", third, ok)
	}
}

func TestSchedulerRoundRobinsWithinPriority(t *testing.T) {
	objs := []Object{
		{TransportID: 1, Priority: 5},
		{TransportID: 2, Priority: 5},
	}
	packets := map[uint16][]Packet{
		1: {{Address: 100}},
		2: {{Address: 200}},
	}
	s := NewScheduler(objs, packets)

	first, _ := s.Next()
	second, _ := s.Next()
	if first.Address == second.Address {
		t.Fatal("expected round-robin to alternate between objects")
	}
	third, _ := s.Next()
	if third.Address != first.Address {
		t.Fatal("expected the round-robin to cycle back to the first object")
	}
}

func TestSchedulerSkipsEmptyPriorities(t *testing.T) {
	objs := []Object{{TransportID: 1, Priority: 1}}
	packets := map[uint16][]Packet{1: {{Address: 42}}}
	s := NewScheduler(objs, packets)

	pkt, ok := s.Next()
	if !ok || pkt.Address != 42 {
		t.Fatalf("expected the lone priority-1 object to be served, got %+v ok=%v", pkt, ok)
	}
}

func TestSchedulerEmptyCarouselReturnsFalse(t *testing.T) {
	s := NewScheduler(nil, nil)
	if _, ok := s.Next(); ok {
		t.Fatal("expected no packet from an empty carousel")
	}
}

func TestSchedulerDirectoryLeadsItsQueue(t *testing.T) {
	objs := []Object{
		{TransportID: 5, Priority: 8},
		{TransportID: 0, Priority: 8},
	}
	packets := map[uint16][]Packet{
		5: {{Address: 500}},
		0: {{Address: 0}},
	}
	s := NewScheduler(objs, packets)
	first, _ := s.Next()
	if first.Address != 0 {
		t.Fatalf("expected directory object (transport_id=0) to be served first, got %+v", first)
	}
}
