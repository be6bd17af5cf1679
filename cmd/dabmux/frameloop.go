package main

import (
	"context"
	"time"

	"github.com/go-dab/dabmux/pkg/clock"
	"github.com/go-dab/dabmux/pkg/edi"
	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/eti"
	"github.com/go-dab/dabmux/pkg/input"
	"github.com/go-dab/dabmux/pkg/logger"
	"github.com/go-dab/dabmux/pkg/metrics"
)

// ediSender is the common shape network.UDPSender/Client/Server share
// for fragment delivery, letting the frame loop fan one AF packet's
// PFT fragments out to every configured destination uniformly.
type ediSender interface {
	Send(fragment []byte) error
}

// broadcastSender adapts network.Server's Broadcast (no error return)
// to ediSender.
type broadcastSender struct{ s interface{ Broadcast([]byte) } }

func (b broadcastSender) Send(fragment []byte) error {
	b.s.Broadcast(fragment)
	return nil
}

// frameLoop owns the 24ms tick that assembles one ETI frame, writes
// it to the configured sinks, and refreshes per-tick metrics (spec.md
// §4.1, §5 "the frame loop never suspends on network I/O").
type frameLoop struct {
	store     *ensemble.Store
	assembler *eti.Assembler
	collector *metrics.Collector
	log       *logger.Logger

	reg datetimeWithReg
	dt  datetimeSettings

	sink *eti.FileSink

	ediEnabled  bool
	ediEncoder  *edi.Encoder
	ediPFT      bool
	ediPFTFEC   int
	ediFragSize int
	ediSenders  []ediSender

	inputs *subchannelInputs

	currentEns *ensemble.Ensemble
	figs       *figSet
}

// datetimeWithReg bundles the live announcement registry alongside
// the loop so FIG rebuilds on an ensemble swap keep wiring it.
type datetimeWithReg struct {
	reg *announcementRegistry
}

// newFrameLoop builds a frameLoop whose FIG pool and scheduler are
// bound to the store's current ensemble snapshot.
func newFrameLoop(store *ensemble.Store, reg *announcementRegistry, dt datetimeSettings, inputs *subchannelInputs, collector *metrics.Collector, log *logger.Logger) *frameLoop {
	ens := store.Load()
	figs := buildFIGs(ens, dt, reg)

	asm := eti.NewAssembler(figs.scheduler)
	asm.TISTEnabled = true
	for uid, src := range inputs.sources {
		asm.Sources[uid] = src
	}

	return &frameLoop{
		store:      store,
		assembler:  asm,
		collector:  collector,
		log:        log.WithComponent("frameloop"),
		reg:        datetimeWithReg{reg: reg},
		dt:         dt,
		inputs:     inputs,
		currentEns: ens,
		figs:       figs,
	}
}

// rebuildIfChanged rebuilds the FIG pool and scheduler when the
// store's ensemble identity has changed since the last tick — every
// concrete FIG closes over the *ensemble.Ensemble it was built from,
// so a Clone-then-Swap mutation (spec.md §5) is only observed once the
// pool is rebuilt against the new snapshot.
func (fl *frameLoop) rebuildIfChanged() *ensemble.Ensemble {
	ens := fl.store.Load()
	if ens == fl.currentEns {
		return ens
	}
	fl.currentEns = ens
	fl.figs = buildFIGs(ens, fl.dt, fl.reg.reg)
	fl.assembler.Scheduler = fl.figs.scheduler
	return ens
}

// Run drives the 24ms frame loop until ctx is cancelled.
func (fl *frameLoop) Run(ctx context.Context) {
	pacer := clock.NewPacer()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		pacer.Wait()

		ens := fl.rebuildIfChanged()
		fl.figs.cif.CIFCount = (fl.figs.cif.CIFCount + 1) % 5000

		frame := fl.assembler.Next(ens)
		fl.collector.FrameAssembled()

		for i := 0; i < fl.figs.scheduler.UndeliveredCount; i++ {
			fl.collector.FIGUndelivered()
		}
		fl.figs.scheduler.UndeliveredCount = 0

		for uid, mon := range fl.inputs.monitors {
			st := mon.State()
			fl.collector.SetInputState(uid, st.String())
			if st != input.StateOK {
				fl.collector.InputUnderrun()
			}
		}

		if fl.sink != nil {
			if err := fl.sink.Write(frame.Bytes); err != nil {
				fl.log.Error("eti sink write failed", logger.Error(err))
			}
		}

		if fl.ediEnabled {
			fl.emitEDI(ens, frame)
		}
	}
}

// emitEDI wraps the assembled frame's MST into one AF packet (split
// per-subchannel, matching est<n> TAG ordering to Ens.Subchannels
// declaration order) and fans its PFT fragments out to every
// configured destination (spec.md §4.5).
func (fl *frameLoop) emitEDI(ens *ensemble.Ensemble, frame eti.Frame) {
	subStreams := make([][]byte, 0, len(ens.Subchannels))
	offset := 0
	for _, sc := range ens.Subchannels {
		size := sc.SizeBytes()
		if offset+size > len(frame.MST) {
			break
		}
		subStreams = append(subStreams, frame.MST[offset:offset+size])
		offset += size
	}

	af := fl.ediEncoder.EncodeFrame(frame, subStreams, time.Now())
	afBytes := af.Encode()

	var frags []edi.PFPacket
	if fl.ediPFT {
		if fl.ediPFTFEC > 0 {
			frags = edi.FragmentWithFEC(afBytes, af.Sequence, fl.ediPFTFEC)
		} else {
			frags = edi.FragmentNoFEC(afBytes, af.Sequence, fl.ediFragSize)
		}
	} else {
		frags = []edi.PFPacket{{PSeq: af.Sequence, Findex: 0, Fcount: 1, Payload: afBytes}}
	}

	for _, frag := range frags {
		fragBytes := frag.Encode()
		for _, sender := range fl.ediSenders {
			if err := sender.Send(fragBytes); err != nil {
				fl.log.Warn("edi send failed", logger.Error(err))
				continue
			}
			fl.collector.EDIFragmentSent(len(fragBytes))
		}
	}
}
