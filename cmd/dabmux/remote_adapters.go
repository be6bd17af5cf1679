package main

import (
	"time"

	"github.com/go-dab/dabmux/pkg/database"
	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/input"
	"github.com/go-dab/dabmux/pkg/metrics"
	"github.com/go-dab/dabmux/pkg/pad"
	"github.com/go-dab/dabmux/pkg/pad/mot"
	"github.com/go-dab/dabmux/pkg/remote"
	"github.com/go-dab/dabmux/pkg/web"
)

// auditSinkAdapter implements remote.AuditSink over the durable audit
// repository, translating the field-compatible row shape.
type auditSinkAdapter struct{ repo *database.AuditRepository }

func (a auditSinkAdapter) Create(row remote.AuditRow) error {
	return a.repo.Create(&database.AuditEntry{
		Timestamp:  row.Timestamp,
		Source:     row.Source,
		Client:     row.Client,
		Command:    row.Command,
		ArgsJSON:   row.ArgsJSON,
		Success:    row.Success,
		DurationMS: row.DurationMS,
		Error:      row.Error,
	})
}

// statsAdapter is the single source of truth behind both pkg/remote's
// and pkg/web's statistics surfaces, so the frame loop updates one
// collector and both interfaces read it consistently.
type statsAdapter struct {
	collector *metrics.Collector
	store     *ensemble.Store
	started   time.Time
}

func (a *statsAdapter) remoteStatistics() remote.Statistics {
	ens := a.store.Load()
	return remote.Statistics{
		FrameCount:      a.collector.GetFrameCount(),
		UptimeSeconds:   time.Since(a.started).Seconds(),
		NumServices:     len(ens.Services),
		NumSubchannels:  len(ens.Subchannels),
		UndeliveredFIGs: a.collector.GetUndeliveredFIGs(),
		InputUnderruns:  a.collector.GetInputUnderruns(),
	}
}

func (a *statsAdapter) webSnapshot() web.StatisticsSnapshot {
	return web.StatisticsSnapshot{
		FrameCount:      a.collector.GetFrameCount(),
		UndeliveredFIGs: a.collector.GetUndeliveredFIGs(),
		InputUnderruns:  a.collector.GetInputUnderruns(),
	}
}

// remoteStatsProvider implements remote.StatisticsProvider over a
// statsAdapter.
type remoteStatsProvider struct{ a *statsAdapter }

func (p remoteStatsProvider) Statistics() remote.Statistics { return p.a.remoteStatistics() }

// webStatsProvider implements web.StatisticsProvider over the same
// statsAdapter.
type webStatsProvider struct{ a *statsAdapter }

func (p webStatsProvider) Statistics() web.StatisticsSnapshot { return p.a.webSnapshot() }

// ensembleProvider implements web.EnsembleProvider directly over the
// ensemble Store.
type ensembleProvider struct{ store *ensemble.Store }

func (p ensembleProvider) CurrentEnsemble() *ensemble.Ensemble { return p.store.Load() }

// inputStatusAdapter implements remote.InputStatusProvider over the
// subchannel input monitors keyed by UID.
type inputStatusAdapter struct{ monitors map[string]*input.Monitor }

func (a inputStatusAdapter) InputStatus(subchannelUID string) (remote.InputStatus, bool) {
	mon, ok := a.monitors[subchannelUID]
	if !ok {
		return remote.InputStatus{}, false
	}
	return remote.InputStatus{
		Connected:   mon.Source.IsOpen(),
		BitrateKbps: mon.Source.GetBitrate(),
		State:       mon.State().String(),
	}, true
}

// carouselControllerAdapter implements remote.CarouselController over
// one mot.Carousel.
type carouselControllerAdapter struct{ c *mot.Carousel }

func (a carouselControllerAdapter) Reload() (int, error) { return a.c.Reload() }

func (a carouselControllerAdapter) Stats() remote.CarouselStats {
	s := a.c.Stats()
	return remote.CarouselStats{
		NumObjects:         s.NumObjects,
		PacketsTransmitted: s.PacketsTransmitted,
		TotalBytes:         s.TotalBytes,
	}
}

// carouselRegistryAdapter implements remote.CarouselRegistry,
// resolving a component UID to its bound subchannel's carousel.
type carouselRegistryAdapter struct {
	store     *ensemble.Store
	carousels map[string]*mot.Carousel // keyed by subchannel UID
}

func (a carouselRegistryAdapter) Carousel(componentUID string) (remote.CarouselController, bool) {
	ens := a.store.Load()
	for _, c := range ens.Components {
		if c.UID != componentUID {
			continue
		}
		if car, ok := a.carousels[c.SubchanUID]; ok {
			return carouselControllerAdapter{c: car}, true
		}
	}
	return nil, false
}

// labelStoreAdapter implements remote.LabelStore, resolving a
// component UID to its bound subchannel's DLS encoder.
type labelStoreAdapter struct {
	store *ensemble.Store
	dls   map[string]*pad.DLSEncoder // keyed by subchannel UID
}

func (a labelStoreAdapter) GetLabel(componentUID string) (remote.Label, bool) {
	ens := a.store.Load()
	for _, c := range ens.Components {
		if c.UID != componentUID {
			continue
		}
		if d, ok := a.dls[c.SubchanUID]; ok {
			return remote.Label{Text: d.Label(), Charset: int(d.Charset), Toggle: d.Toggle()}, true
		}
	}
	return remote.Label{}, false
}

func (a labelStoreAdapter) SetLabel(componentUID, text string) bool {
	ens := a.store.Load()
	for _, c := range ens.Components {
		if c.UID != componentUID {
			continue
		}
		if d, ok := a.dls[c.SubchanUID]; ok {
			d.SetLabel(text)
			return true
		}
	}
	return false
}
