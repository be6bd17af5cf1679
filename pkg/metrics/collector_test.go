package metrics

import (
	"testing"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector()
	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
}

func TestCollector_FrameCount(t *testing.T) {
	collector := NewCollector()
	collector.FrameAssembled()
	collector.FrameAssembled()
	if got := collector.GetFrameCount(); got != 2 {
		t.Errorf("expected frame count 2, got %d", got)
	}
}

func TestCollector_UndeliveredFIGs(t *testing.T) {
	collector := NewCollector()
	collector.FIGUndelivered()
	if got := collector.GetUndeliveredFIGs(); got != 1 {
		t.Errorf("expected 1 undelivered FIG, got %d", got)
	}
}

func TestCollector_InputUnderruns(t *testing.T) {
	collector := NewCollector()
	collector.InputUnderrun()
	collector.InputUnderrun()
	collector.InputUnderrun()
	if got := collector.GetInputUnderruns(); got != 3 {
		t.Errorf("expected 3 input underruns, got %d", got)
	}
}

func TestCollector_InputStates(t *testing.T) {
	collector := NewCollector()
	collector.SetInputState("sub1", "ok")
	collector.SetInputState("sub2", "silence")

	states := collector.GetInputStates()
	if states["sub1"] != "ok" || states["sub2"] != "silence" {
		t.Errorf("unexpected input states: %+v", states)
	}
}

func TestCollector_EDIFragments(t *testing.T) {
	collector := NewCollector()
	collector.EDIFragmentSent(100)
	collector.EDIFragmentSent(200)

	if got := collector.GetEDIFragmentsSent(); got != 2 {
		t.Errorf("expected 2 fragments sent, got %d", got)
	}
	if got := collector.GetEDIBytesSent(); got != 300 {
		t.Errorf("expected 300 bytes sent, got %d", got)
	}
}

func TestCollector_CarouselMetrics(t *testing.T) {
	collector := NewCollector()
	collector.CarouselReloaded()
	collector.SetCarouselObjects("comp1", 5)

	if got := collector.GetCarouselReloads(); got != 1 {
		t.Errorf("expected 1 carousel reload, got %d", got)
	}
	objs := collector.GetCarouselObjects()
	if objs["comp1"] != 5 {
		t.Errorf("expected comp1 to have 5 objects, got %d", objs["comp1"])
	}
}

func TestCollector_Reset(t *testing.T) {
	collector := NewCollector()
	collector.FrameAssembled()
	collector.SetInputState("sub1", "ok")
	collector.Reset()

	if got := collector.GetFrameCount(); got != 1 {
		t.Errorf("expected cumulative frame count to survive reset, got %d", got)
	}
	if states := collector.GetInputStates(); len(states) != 0 {
		t.Errorf("expected input states cleared by reset, got %+v", states)
	}
}
