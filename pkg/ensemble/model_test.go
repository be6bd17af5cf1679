package ensemble

import "testing"

func TestLabelShortMask(t *testing.T) {
	l := Label{Text: "Radio One", Short: "R1"}
	mask := l.ShortMask()
	// "R" at position 0, "1" does not appear in "Radio One" so only one
	// bit should be set (greedy left-to-right match).
	if mask&(1<<15) == 0 {
		t.Fatalf("expected bit 15 set for 'R' at position 0, mask=%016b", mask)
	}
}

func TestLabelShortMaskExactSubsequence(t *testing.T) {
	l := Label{Text: "Classic FM", Short: "Cla"}
	mask := l.ShortMask()
	want := uint16(1<<15 | 1<<14 | 1<<13)
	if mask != want {
		t.Fatalf("mask = %016b, want %016b", mask, want)
	}
	if popcount(mask) != len([]rune(l.Short)) {
		t.Fatalf("popcount(mask) = %d, want %d", popcount(mask), len(l.Short))
	}
}

func popcount(v uint16) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

func TestEncodeEBULatinPadsAndTruncates(t *testing.T) {
	out := EncodeEBULatin("Hi")
	if out[0] != 'H' || out[1] != 'i' || out[2] != ' ' {
		t.Fatalf("unexpected encoding: %v", out)
	}
	long := EncodeEBULatin("0123456789ABCDEFGHIJ")
	if len(long) != 16 {
		t.Fatalf("expected fixed 16 bytes, got %d", len(long))
	}
	if long[15] != 'F' {
		t.Fatalf("expected truncation at 16 chars, got %q", long)
	}
}

func buildTestEnsemble() *Ensemble {
	return &Ensemble{
		EId:  0xCE15,
		ECC:  0xE1,
		Label: Label{Text: "Test", Short: "Test"},
		Mode: TM_I,
		Subchannels: []*Subchannel{
			{
				UID:         "audio1",
				SubChId:     0,
				Type:        SubchannelDABAudio,
				BitrateKbps: 128,
				Protection:  Protection{Form: ProtectionUEP, Level: 2},
			},
		},
		Services: []*Service{
			{UID: "radio1", SId: 0x5001, Label: Label{Text: "Radio1"}},
		},
	}
}

func TestBuildAssignsStartAddresses(t *testing.T) {
	e := buildTestEnsemble()
	if err := e.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if e.Subchannels[0].StartAddress != 0 {
		t.Fatalf("expected first subchannel at address 0, got %d", e.Subchannels[0].StartAddress)
	}
	if e.Subchannels[0].SizeCU() <= 0 {
		t.Fatalf("expected positive size_cu for 128kbps level 2")
	}
}

func TestBuildRejectsCapacityOverflow(t *testing.T) {
	e := &Ensemble{Mode: TM_I}
	for i := 0; i < 20; i++ {
		e.Subchannels = append(e.Subchannels, &Subchannel{
			UID:         "sc",
			SubChId:     i,
			BitrateKbps: 384,
			Protection:  Protection{Form: ProtectionUEP, Level: 0},
		})
	}
	if err := e.Build(); err == nil {
		t.Fatal("expected capacity overflow error")
	}
}

func TestBuildRejectsDuplicateSubChId(t *testing.T) {
	e := &Ensemble{
		Mode: TM_I,
		Subchannels: []*Subchannel{
			{UID: "a", SubChId: 5, BitrateKbps: 128, Protection: Protection{Level: 2}},
			{UID: "b", SubChId: 5, BitrateKbps: 128, Protection: Protection{Level: 2}},
		},
	}
	if err := e.Build(); err == nil {
		t.Fatal("expected duplicate SubChId error")
	}
}

func TestServiceValidateRejectsZeroSId(t *testing.T) {
	s := &Service{UID: "x", SId: 0}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for SId=0")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	e := buildTestEnsemble()
	if err := e.Build(); err != nil {
		t.Fatal(err)
	}
	clone := e.Clone()
	clone.Services[0].Label.Text = "Changed"
	if e.Services[0].Label.Text == "Changed" {
		t.Fatal("mutating clone must not affect original")
	}
}

func TestStoreSwap(t *testing.T) {
	e := buildTestEnsemble()
	store := NewStore(e)
	if store.Load() != e {
		t.Fatal("expected initial load to return stored ensemble")
	}
	next := e.Clone()
	next.Label.Text = "New"
	store.Swap(next)
	if store.Load().Label.Text != "New" {
		t.Fatal("expected swapped snapshot to be visible")
	}
}
