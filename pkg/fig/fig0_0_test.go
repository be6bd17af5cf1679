package fig

import (
	"testing"

	"github.com/go-dab/dabmux/pkg/ensemble"
)

func TestFig0_0AlwaysCompletesInOneCall(t *testing.T) {
	f := &Fig0_0{Ens: &ensemble.Ensemble{EId: 0xCE15}, CIFCount: 0}
	buf := make([]byte, 32)
	status := f.Fill(buf, 30)
	if !status.Complete {
		t.Fatal("expected FIG 0/0 to always complete in one Fill call")
	}
	if status.BytesWritten != 6 {
		t.Fatalf("BytesWritten = %d, want 6", status.BytesWritten)
	}
	gotEId := uint16(buf[2])<<8 | uint16(buf[3])
	if gotEId != 0xCE15 {
		t.Fatalf("EId encoded = %#x, want 0xCE15", gotEId)
	}
}

func TestFig0_0RejectsInsufficientSpace(t *testing.T) {
	f := &Fig0_0{Ens: &ensemble.Ensemble{}}
	buf := make([]byte, 32)
	status := f.Fill(buf, 3)
	if status.Complete || status.BytesWritten != 0 {
		t.Fatal("expected no write when space is insufficient")
	}
}

func TestFig0_0Priority(t *testing.T) {
	f := &Fig0_0{}
	if f.Priority() != PriorityCritical {
		t.Fatal("FIG 0/0 must be PriorityCritical")
	}
	if f.RepetitionRate() != RateFIG0_0 {
		t.Fatal("FIG 0/0 must use the FIG0_0 repetition class")
	}
}
