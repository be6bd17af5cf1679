package remote

import (
	"fmt"
	"testing"

	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/logger"
)

func testEnsemble() *ensemble.Ensemble {
	return &ensemble.Ensemble{
		EId: 0xCE15,
		Services: []*ensemble.Service{
			{UID: "radio1", SId: 0x5001, Label: ensemble.Label{Text: "Radio One"}, PTy: 10, Language: 9},
		},
		Subchannels: []*ensemble.Subchannel{
			{UID: "sub1", SubChId: 0, BitrateKbps: 128},
		},
		Components: []*ensemble.Component{
			{UID: "comp1", ServiceUID: "radio1", SubchanUID: "sub1"},
		},
	}
}

func newTestDispatcher() *Dispatcher {
	store := ensemble.NewStore(testEnsemble())
	log := logger.New(logger.Config{Level: "error"})
	reg := logger.NewRegistry(log)
	return NewDispatcher(store, log, reg)
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Handle(Request{Command: "does_not_exist"})
	if resp.Success {
		t.Fatal("expected failure for unknown command")
	}
}

func TestDispatcher_GetServiceInfo(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Handle(Request{Command: "get_service_info", Args: map[string]any{"service_uid": "radio1"}})
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if resp.Data["pty"] != uint8(10) {
		t.Fatalf("expected pty 10, got %v", resp.Data["pty"])
	}
}

func TestDispatcher_GetServiceInfo_UnknownService(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Handle(Request{Command: "get_service_info", Args: map[string]any{"service_uid": "nope"}})
	if resp.Success {
		t.Fatal("expected failure for unknown service")
	}
}

func TestDispatcher_SetServicePty_SwapsEnsembleAtomically(t *testing.T) {
	d := newTestDispatcher()
	before := d.store.Load()

	resp := d.Handle(Request{Command: "set_service_pty", Args: map[string]any{"service_uid": "radio1", "pty": 20}})
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}

	after := d.store.Load()
	if after == before {
		t.Fatal("expected Swap to publish a new ensemble snapshot, not mutate in place")
	}
	if before.ServiceByUID("radio1").PTy != 10 {
		t.Fatal("expected prior snapshot to remain unmutated (copy-on-write)")
	}
	if after.ServiceByUID("radio1").PTy != 20 {
		t.Fatalf("expected new snapshot to carry pty 20, got %d", after.ServiceByUID("radio1").PTy)
	}
}

func TestDispatcher_SetServicePty_RejectsOutOfRange(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Handle(Request{Command: "set_service_pty", Args: map[string]any{"service_uid": "radio1", "pty": 99}})
	if resp.Success {
		t.Fatal("expected failure for out-of-range pty")
	}
}

func TestDispatcher_SetServiceLabel(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Handle(Request{Command: "set_service_label", Args: map[string]any{
		"service_uid": "radio1", "text": "New Name", "short_text": "New",
	}})
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	svc := d.store.Load().ServiceByUID("radio1")
	if svc.Label.Text != "New Name" || svc.Label.Short != "New" {
		t.Fatalf("unexpected label after update: %+v", svc.Label)
	}
}

func TestDispatcher_GetAllServicesComponentsSubchannels(t *testing.T) {
	d := newTestDispatcher()
	for _, cmd := range []string{"get_all_services", "get_all_components", "get_all_subchannels"} {
		resp := d.Handle(Request{Command: cmd})
		if !resp.Success {
			t.Fatalf("%s: expected success, got %q", cmd, resp.Error)
		}
	}
}

func TestDispatcher_GetStatistics_RequiresProvider(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Handle(Request{Command: "get_statistics"})
	if resp.Success {
		t.Fatal("expected failure with no statistics provider configured")
	}
}

type fakeStats struct{ s Statistics }

func (f fakeStats) Statistics() Statistics { return f.s }

func TestDispatcher_GetStatistics_WithProvider(t *testing.T) {
	d := newTestDispatcher().WithStatistics(fakeStats{s: Statistics{FrameCount: 42, NumServices: 1}})
	resp := d.Handle(Request{Command: "get_statistics"})
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	if resp.Data["frame_count"] != uint64(42) {
		t.Fatalf("expected frame_count 42, got %v", resp.Data["frame_count"])
	}
}

type fakeLabels struct {
	labels map[string]Label
}

func (f *fakeLabels) GetLabel(uid string) (Label, bool) {
	l, ok := f.labels[uid]
	return l, ok
}

func (f *fakeLabels) SetLabel(uid, text string) bool {
	l, ok := f.labels[uid]
	if !ok {
		return false
	}
	l.Text = text
	f.labels[uid] = l
	return true
}

func TestDispatcher_GetSetLabel(t *testing.T) {
	fl := &fakeLabels{labels: map[string]Label{"comp1": {Text: "Old"}}}
	d := newTestDispatcher().WithLabels(fl)

	resp := d.Handle(Request{Command: "set_label", Args: map[string]any{"component_uid": "comp1", "text": "New"}})
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}

	resp = d.Handle(Request{Command: "get_label", Args: map[string]any{"component_uid": "comp1"}})
	if !resp.Success || resp.Data["text"] != "New" {
		t.Fatalf("expected updated label, got %+v", resp)
	}

	resp = d.Handle(Request{Command: "get_label", Args: map[string]any{"component_uid": "missing"}})
	if resp.Success {
		t.Fatal("expected failure for component with no label")
	}
}

type fakeAnnouncer struct {
	triggered bool
	cleared   bool
	failNext  bool
}

func (f *fakeAnnouncer) Trigger(serviceID uint32, annType string, subchannelID int) error {
	if f.failNext {
		return fmt.Errorf("no active subchannel")
	}
	f.triggered = true
	return nil
}

func (f *fakeAnnouncer) Clear(serviceID uint32, annType string) error {
	f.cleared = true
	return nil
}

func TestDispatcher_TriggerAndClearAnnouncement(t *testing.T) {
	fa := &fakeAnnouncer{}
	d := newTestDispatcher().WithAnnouncements(fa)

	resp := d.Handle(Request{Command: "trigger_announcement", Args: map[string]any{
		"service_id": 0x5001, "type": "alarm", "subchannel_id": 0,
	}})
	if !resp.Success || !fa.triggered {
		t.Fatalf("expected trigger to succeed, got %+v", resp)
	}

	resp = d.Handle(Request{Command: "clear_announcement", Args: map[string]any{
		"service_id": 0x5001, "type": "alarm",
	}})
	if !resp.Success || !fa.cleared {
		t.Fatalf("expected clear to succeed, got %+v", resp)
	}
}

func TestDispatcher_TriggerAnnouncement_PropagatesError(t *testing.T) {
	fa := &fakeAnnouncer{failNext: true}
	d := newTestDispatcher().WithAnnouncements(fa)
	resp := d.Handle(Request{Command: "trigger_announcement", Args: map[string]any{
		"service_id": 1, "type": "alarm",
	}})
	if resp.Success {
		t.Fatal("expected failure to propagate from announcement controller")
	}
}

type fakeInputStatus struct{ st InputStatus }

func (f fakeInputStatus) InputStatus(uid string) (InputStatus, bool) {
	if uid != "sub1" {
		return InputStatus{}, false
	}
	return f.st, true
}

func TestDispatcher_GetInputStatus(t *testing.T) {
	d := newTestDispatcher().WithInputStatus(fakeInputStatus{st: InputStatus{Connected: true, BitrateKbps: 128, State: "OK"}})
	resp := d.Handle(Request{Command: "get_input_status", Args: map[string]any{"subchannel_uid": "sub1"}})
	if !resp.Success || resp.Data["state"] != "OK" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

type fakeCarousel struct {
	stats        CarouselStats
	objectsAfter int
	reloadErr    error
}

func (f *fakeCarousel) Reload() (int, error) { return f.objectsAfter, f.reloadErr }
func (f *fakeCarousel) Stats() CarouselStats { return f.stats }

type fakeCarouselRegistry struct {
	carousels map[string]CarouselController
}

func (r *fakeCarouselRegistry) Carousel(uid string) (CarouselController, bool) {
	c, ok := r.carousels[uid]
	return c, ok
}

func TestDispatcher_ReloadAndStatsCarousel(t *testing.T) {
	fc := &fakeCarousel{objectsAfter: 3, stats: CarouselStats{NumObjects: 3, PacketsTransmitted: 10, TotalBytes: 500}}
	reg := &fakeCarouselRegistry{carousels: map[string]CarouselController{"comp1": fc}}
	d := newTestDispatcher().WithCarousels(reg)

	resp := d.Handle(Request{Command: "reload_carousel", Args: map[string]any{"component_uid": "comp1"}})
	if !resp.Success || resp.Data["objects_loaded"] != 3 {
		t.Fatalf("unexpected reload response: %+v", resp)
	}

	resp = d.Handle(Request{Command: "get_carousel_stats", Args: map[string]any{"component_uid": "comp1"}})
	if !resp.Success || resp.Data["num_objects"] != 3 {
		t.Fatalf("unexpected stats response: %+v", resp)
	}

	resp = d.Handle(Request{Command: "reload_carousel", Args: map[string]any{"component_uid": "unknown"}})
	if resp.Success {
		t.Fatal("expected failure for unbound component")
	}
}

func TestDispatcher_SetAndGetLogLevel(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Handle(Request{Command: "set_log_level", Args: map[string]any{"level": "debug"}})
	if !resp.Success || resp.Data["level"] != "debug" {
		t.Fatalf("unexpected set_log_level response: %+v", resp)
	}

	resp = d.Handle(Request{Command: "get_log_level", Args: map[string]any{}})
	if !resp.Success || resp.Data["level"] != "debug" {
		t.Fatalf("unexpected get_log_level response: %+v", resp)
	}
}

func TestDispatcher_SetLogLevel_InvalidLevel(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Handle(Request{Command: "set_log_level", Args: map[string]any{"level": "verbose"}})
	if resp.Success {
		t.Fatal("expected failure for invalid level name")
	}
}

func TestDispatcher_ListCommandsAndCommandInfo(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Handle(Request{Command: "list_commands"})
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	cmds, ok := resp.Data["commands"].([]string)
	if !ok || len(cmds) != len(commandSpecs) {
		t.Fatalf("expected %d commands, got %+v", len(commandSpecs), resp.Data["commands"])
	}

	resp = d.Handle(Request{Command: "get_command_info", Args: map[string]any{"command": "set_label"}})
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	if resp.Data["description"] == "" {
		t.Fatal("expected non-empty description")
	}
}
