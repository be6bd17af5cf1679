package main

import (
	"time"

	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/fic"
	"github.com/go-dab/dabmux/pkg/fig"
)

// datetimeSettings carries the ensemble's FIG 0/10 configuration
// through to buildFIGs; Now is injected so tests (and, incidentally,
// any future replay tooling) can drive a fixed clock.
type datetimeSettings struct {
	Enabled bool
	Now     func() time.Time
	UTCFlag bool
}

// figSet bundles one ensemble snapshot's FIG encoder pool with the
// handles the frame loop drives directly every tick: the CIF counter
// that increments once per frame (spec.md §4.1 step 3) and the
// scheduler that multiplexes every FIG into the FIC.
type figSet struct {
	scheduler *fic.Scheduler
	cif       *fig.Fig0_0
}

// buildFIGs constructs the full FIG 0/x + 1/x encoder pool for one
// ensemble snapshot (spec.md §4.2's FIG catalogue), wiring the
// announcement FIG to reg so triggered/cleared announcements surface
// without requiring a fresh ensemble snapshot.
func buildFIGs(ens *ensemble.Ensemble, dt datetimeSettings, reg *announcementRegistry) *figSet {
	cif := &fig.Fig0_0{Ens: ens}

	figs := []fig.Encoder{
		cif,
		&fig.Fig0_1{Ens: ens},
		&fig.Fig0_2{Ens: ens},
		&fig.Fig0_3{Ens: ens},
		&fig.Fig0_8{Ens: ens},
		&fig.Fig0_9{Ens: ens},
		&fig.Fig0_13{Ens: ens, Apps: buildUserApplications(ens)},
		&fig.Fig0_17{Ens: ens},
		&fig.Fig0_18{Ens: ens},
		&liveAnnouncementFig{Fig0_19: &fig.Fig0_19{}, reg: reg},
		&fig.Fig1_0{Ens: ens},
		&fig.Fig1_1{Ens: ens},
		&fig.Fig1_4{Ens: ens},
		&fig.Fig1_5{Ens: ens},
	}

	if dt.Enabled {
		figs = append(figs, &fig.Fig0_10{Now: dt.Now, UTCFlag: dt.UTCFlag})
	}

	return &figSet{scheduler: fic.NewScheduler(figs), cif: cif}
}

// buildUserApplications announces the DLS user application (type
// 0x002, ETSI TS 101 756 table) for every component whose subchannel
// carries PAD with DLS enabled, so receivers know to look for dynamic
// label segments in that component's X-PAD (spec.md §4.6).
func buildUserApplications(ens *ensemble.Ensemble) []fig.UserApplication {
	var apps []fig.UserApplication
	for _, c := range ens.Components {
		sc := ens.SubchannelByUID(c.SubchanUID)
		if sc == nil || sc.PAD == nil || !sc.PAD.Enabled || !sc.PAD.DLS.Enabled {
			continue
		}
		apps = append(apps, fig.UserApplication{ComponentUID: c.UID, AppType: 0x002})
	}
	return apps
}
