package fig

import (
	"testing"

	"github.com/go-dab/dabmux/pkg/ensemble"
)

func TestFig1_1EncodesUpdatedLabel(t *testing.T) {
	ens := &ensemble.Ensemble{
		Services: []*ensemble.Service{
			{SId: 0x5001, Label: ensemble.Label{Text: "New", Short: "New"}},
		},
	}
	f := &Fig1_1{Ens: ens}
	buf := make([]byte, 32)
	status := f.Fill(buf, 30)
	if !status.Complete {
		t.Fatal("expected single-service FIG 1/1 to complete in one call")
	}

	gotSId := uint16(buf[1])<<8 | uint16(buf[2])
	if gotSId != 0x5001 {
		t.Fatalf("SId = %#x, want 0x5001", gotSId)
	}
	label := buf[3:19]
	if label[0] != 'N' || label[1] != 'e' || label[2] != 'w' {
		t.Fatalf("label bytes = %q", label[:3])
	}
	mask := uint16(buf[19])<<8 | uint16(buf[20])
	want := uint16(1<<15 | 1<<14 | 1<<13)
	if mask != want {
		t.Fatalf("mask = %016b, want %016b", mask, want)
	}
}

func TestFig1_0EncodesEnsembleLabel(t *testing.T) {
	ens := &ensemble.Ensemble{EId: 0xCE15, Label: ensemble.Label{Text: "Test", Short: "Test"}}
	f := &Fig1_0{Ens: ens}
	buf := make([]byte, 32)
	status := f.Fill(buf, 30)
	if !status.Complete {
		t.Fatal("expected FIG 1/0 to complete in one call")
	}
	gotEId := uint16(buf[1])<<8 | uint16(buf[2])
	if gotEId != 0xCE15 {
		t.Fatalf("EId = %#x, want 0xCE15", gotEId)
	}
}

func TestFig1_1CyclesThroughMultipleServices(t *testing.T) {
	ens := &ensemble.Ensemble{
		Services: []*ensemble.Service{
			{SId: 0x1, Label: ensemble.Label{Text: "One"}},
			{SId: 0x2, Label: ensemble.Label{Text: "Two"}},
		},
	}
	f := &Fig1_1{Ens: ens}
	buf := make([]byte, 32)

	f.Fill(buf, 30)
	firstComplete := f.next // after first call, next should have advanced
	if firstComplete != 1 {
		t.Fatalf("expected cursor to advance to 1, got %d", firstComplete)
	}
	f.Fill(buf, 30)
	if f.next != 0 {
		t.Fatalf("expected cursor to wrap to 0 after cycling both services, got %d", f.next)
	}
}
