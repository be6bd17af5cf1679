package fig

import (
	"testing"

	"github.com/go-dab/dabmux/pkg/ensemble"
)

func TestFig0_1EncodesUEPEntry(t *testing.T) {
	ens := &ensemble.Ensemble{
		Subchannels: []*ensemble.Subchannel{
			{SubChId: 3, StartAddress: 10, BitrateKbps: 128, Protection: ensemble.Protection{Form: ensemble.ProtectionUEP, Level: 2}},
		},
	}
	f := &Fig0_1{Ens: ens}
	buf := make([]byte, 32)
	status := f.Fill(buf, 30)
	if !status.Complete {
		t.Fatal("expected single-subchannel FIG 0/1 to complete in one call")
	}
	gotSubChId := (buf[1] >> 2) & 0x3F
	if gotSubChId != 3 {
		t.Fatalf("SubChId = %d, want 3", gotSubChId)
	}
	if buf[3]&0x80 != 0 {
		t.Fatal("expected short-form flag clear for UEP entry")
	}
}

func TestFig0_1EncodesEEPEntry(t *testing.T) {
	ens := &ensemble.Ensemble{
		Subchannels: []*ensemble.Subchannel{
			{SubChId: 5, StartAddress: 0, BitrateKbps: 64, Protection: ensemble.Protection{Form: ensemble.ProtectionEEP, Level: 2, EEP: ensemble.EEPProfileA}},
		},
	}
	f := &Fig0_1{Ens: ens}
	buf := make([]byte, 32)
	status := f.Fill(buf, 30)
	if !status.Complete {
		t.Fatal("expected EEP FIG 0/1 entry to complete in one call")
	}
	if buf[3]&0x80 == 0 {
		t.Fatal("expected long-form flag set for EEP entry")
	}
}

func TestFig0_1EmptyEnsembleCompletesImmediately(t *testing.T) {
	f := &Fig0_1{Ens: &ensemble.Ensemble{}}
	buf := make([]byte, 32)
	status := f.Fill(buf, 30)
	if !status.Complete {
		t.Fatal("expected empty ensemble to report complete")
	}
}
