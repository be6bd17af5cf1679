package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/eti"
	"github.com/go-dab/dabmux/pkg/input"
	"github.com/go-dab/dabmux/pkg/logger"
	"github.com/go-dab/dabmux/pkg/pad"
	"github.com/go-dab/dabmux/pkg/pad/mot"
)

// subchannelInputs owns every live resource feeding the frame loop's
// per-subchannel sources: stream monitors, DLS encoders, and MOT
// carousels, all keyed by subchannel UID so cmd/dabmux's remote
// control adapters can look them up by the same key the ensemble uses.
type subchannelInputs struct {
	sources   map[string]eti.SubchannelSource
	monitors  map[string]*input.Monitor
	dls       map[string]*pad.DLSEncoder
	carousels map[string]*mot.Carousel

	stopMOT    []chan struct{}
	stopDLS    []chan struct{}
}

// buildSubchannelSources opens every subchannel's configured input
// (spec.md §4.2 file/fifo/udp for audio, a watched directory for
// packet-mode MOT carousels) and wraps audio inputs with PAD overlay
// where DLS is enabled.
func buildSubchannelSources(ens *ensemble.Ensemble, log *logger.Logger) (*subchannelInputs, error) {
	out := &subchannelInputs{
		sources:   map[string]eti.SubchannelSource{},
		monitors:  map[string]*input.Monitor{},
		dls:       map[string]*pad.DLSEncoder{},
		carousels: map[string]*mot.Carousel{},
	}

	for _, sc := range ens.Subchannels {
		if sc.InputURI == "" {
			continue
		}

		if sc.Type == ensemble.SubchannelPacketData {
			c, err := mot.NewCarousel(sc.InputURI, uint16(sc.StartAddress), sc.SizeBytes(), log)
			if err != nil {
				return nil, fmt.Errorf("subchannel %s: %w", sc.UID, err)
			}
			stop := make(chan struct{})
			go c.Run(stop)
			out.stopMOT = append(out.stopMOT, stop)
			out.carousels[sc.UID] = c
			out.sources[sc.UID] = &carouselSource{carousel: c}
			continue
		}

		src, err := input.ParseURI(sc.InputURI, sc.BitrateKbps)
		if err != nil {
			return nil, fmt.Errorf("subchannel %s: %w", sc.UID, err)
		}
		if err := src.Open(); err != nil {
			return nil, fmt.Errorf("subchannel %s: open input: %w", sc.UID, err)
		}
		mon := input.NewMonitor(src)
		out.monitors[sc.UID] = mon

		var source eti.SubchannelSource = mon

		// DAB+ audio carries its own RS(120,110)-protected superframe
		// structure (spec.md §4.2); F-PAD/X-PAD's trailing-byte overlay
		// is a plain-DAB-audio mechanism that would corrupt the
		// protected superframe bytes if applied downstream of it, so
		// the two are mutually exclusive here.
		switch {
		case sc.Type == ensemble.SubchannelDABPlusAudio:
			source = newDABPlusSource(mon, sc.BitrateKbps)

		case sc.PAD != nil && sc.PAD.Enabled && sc.PAD.DLS.Enabled:
			dls := &pad.DLSEncoder{Charset: pad.Charset(sc.PAD.DLS.Charset)}
			dls.SetLabel(sc.PAD.DLS.Label)
			out.dls[sc.UID] = dls
			source = &padSource{inner: mon, dls: dls, xpadLen: sc.PAD.Length}

			if sc.PAD.DLS.InputType == "file" && sc.PAD.DLS.InputPath != "" {
				out.stopDLS = append(out.stopDLS, startDLSFilePoller(dls, sc.PAD.DLS, log))
			}
		}
		out.sources[sc.UID] = source
	}

	return out, nil
}

// startDLSFilePoller rereads path on a PollInterval ticker, pushing
// any changed text into dls (spec.md §4.6 "file:// DLS input source").
func startDLSFilePoller(dls *pad.DLSEncoder, cfg ensemble.DLSConfig, log *logger.Logger) chan struct{} {
	interval := time.Duration(cfg.PollInterval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				data, err := os.ReadFile(cfg.InputPath)
				if err != nil {
					log.Warn("dls file read failed", logger.String("path", cfg.InputPath), logger.Error(err))
					continue
				}
				dls.SetLabel(strings.TrimRight(string(data), "\r\n"))
			}
		}
	}()
	return stop
}

// Close releases every live input resource.
func (si *subchannelInputs) Close() {
	for _, stop := range si.stopMOT {
		close(stop)
	}
	for _, stop := range si.stopDLS {
		close(stop)
	}
	for _, mon := range si.monitors {
		mon.Source.Close()
	}
}
