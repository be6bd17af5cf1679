package remote

import (
	"fmt"
	"time"

	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/logger"
)

// Statistics is the live counter snapshot get_statistics reports,
// supplied by the frame loop (spec.md §4.7).
type Statistics struct {
	FrameCount      uint64
	UptimeSeconds   float64
	NumServices     int
	NumSubchannels  int
	UndeliveredFIGs uint64
	InputUnderruns  uint64
}

// StatisticsProvider supplies the running frame-loop counters.
// Decoupled from any concrete collector so pkg/remote never imports
// the frame loop or pkg/metrics directly.
type StatisticsProvider interface {
	Statistics() Statistics
}

// InputStatus is one subchannel's ingest health, mirroring
// pkg/input.Monitor's classification without requiring pkg/remote to
// import pkg/input.
type InputStatus struct {
	Connected  bool
	BitrateKbps int
	State      string
}

// InputStatusProvider reports per-subchannel input health by
// subchannel UID.
type InputStatusProvider interface {
	InputStatus(subchannelUID string) (InputStatus, bool)
}

// CarouselStats mirrors pkg/pad/mot.Stats without requiring pkg/remote
// to import pkg/pad/mot.
type CarouselStats struct {
	NumObjects         int
	PacketsTransmitted uint64
	TotalBytes         uint64
}

// CarouselController reloads and reports on a MOT carousel bound to a
// data component.
type CarouselController interface {
	Reload() (objectsLoaded int, err error)
	Stats() CarouselStats
}

// CarouselRegistry locates the CarouselController bound to a
// component UID (a packet-mode component carrying a MOT carousel).
type CarouselRegistry interface {
	Carousel(componentUID string) (CarouselController, bool)
}

// Label is one dynamic-label read, mirroring a pad.DLSEncoder's text,
// charset and toggle state without requiring pkg/remote to import
// pkg/pad.
type Label struct {
	Text    string
	Charset int
	Toggle  bool
}

// LabelStore reads and writes a component's dynamic label text
// (spec.md §4.7 get_label/set_label).
type LabelStore interface {
	GetLabel(componentUID string) (Label, bool)
	SetLabel(componentUID, text string) bool
}

// AnnouncementController triggers and clears FIG 0/19 announcements.
type AnnouncementController interface {
	Trigger(serviceID uint32, annType string, subchannelID int) error
	Clear(serviceID uint32, annType string) error
}

// Dispatcher implements every command in commandSpecs against the
// live ensemble state and the runtime components above, mutating
// ensemble state only through Store's Clone-then-Swap single-writer
// discipline (spec.md §5; grounded on pkg/ensemble.Store's existing
// Load/Swap pattern).
type Dispatcher struct {
	store   *ensemble.Store
	log     *logger.Logger
	logReg  *logger.Registry
	started time.Time

	stats        StatisticsProvider
	inputStatus  InputStatusProvider
	carousels    CarouselRegistry
	labels       LabelStore
	announcer    AnnouncementController
}

// NewDispatcher builds a Dispatcher. Any optional provider may be nil;
// commands that need a nil provider fail with a clear error instead of
// panicking.
func NewDispatcher(store *ensemble.Store, log *logger.Logger, logReg *logger.Registry) *Dispatcher {
	return &Dispatcher{store: store, log: log.WithComponent("remote-dispatch"), logReg: logReg, started: time.Now()}
}

// WithStatistics attaches the frame loop's counter source.
func (d *Dispatcher) WithStatistics(p StatisticsProvider) *Dispatcher { d.stats = p; return d }

// WithInputStatus attaches the input-health source.
func (d *Dispatcher) WithInputStatus(p InputStatusProvider) *Dispatcher { d.inputStatus = p; return d }

// WithCarousels attaches the MOT carousel registry.
func (d *Dispatcher) WithCarousels(r CarouselRegistry) *Dispatcher { d.carousels = r; return d }

// WithLabels attaches the dynamic-label store.
func (d *Dispatcher) WithLabels(l LabelStore) *Dispatcher { d.labels = l; return d }

// WithAnnouncements attaches the announcement controller.
func (d *Dispatcher) WithAnnouncements(a AnnouncementController) *Dispatcher { d.announcer = a; return d }

// Handle executes one command and returns its Response. It never
// panics on malformed args; every failure mode returns Response.Error.
func (d *Dispatcher) Handle(req Request) Response {
	if _, ok := findCommandSpec(req.Command); !ok {
		return fail(fmt.Sprintf("unknown command %q", req.Command))
	}

	switch req.Command {
	case "get_statistics":
		return d.getStatistics()
	case "get_label":
		return d.getLabel(req.Args)
	case "set_label":
		return d.setLabel(req.Args)
	case "trigger_announcement":
		return d.triggerAnnouncement(req.Args)
	case "clear_announcement":
		return d.clearAnnouncement(req.Args)
	case "get_service_info":
		return d.getServiceInfo(req.Args)
	case "set_service_pty":
		return d.setServicePty(req.Args)
	case "set_service_language":
		return d.setServiceLanguage(req.Args)
	case "set_service_label":
		return d.setServiceLabel(req.Args)
	case "get_all_services":
		return d.getAllServices()
	case "get_all_components":
		return d.getAllComponents()
	case "get_all_subchannels":
		return d.getAllSubchannels()
	case "get_input_status":
		return d.getInputStatus(req.Args)
	case "reload_carousel":
		return d.reloadCarousel(req.Args)
	case "get_carousel_stats":
		return d.getCarouselStats(req.Args)
	case "set_log_level":
		return d.setLogLevel(req.Args)
	case "get_log_level":
		return d.getLogLevel(req.Args)
	case "list_commands":
		return d.listCommands()
	case "get_command_info":
		return d.getCommandInfo(req.Args)
	default:
		return fail(fmt.Sprintf("command %q is documented but not dispatched", req.Command))
	}
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intArg(args map[string]any, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func (d *Dispatcher) getStatistics() Response {
	if d.stats == nil {
		return fail("statistics provider not configured")
	}
	s := d.stats.Statistics()
	return ok(map[string]any{
		"frame_count":      s.FrameCount,
		"uptime_seconds":   s.UptimeSeconds,
		"ensemble_id":      fmt.Sprintf("0x%04X", d.store.Load().EId),
		"num_services":     s.NumServices,
		"num_subchannels":  s.NumSubchannels,
		"undelivered_figs": s.UndeliveredFIGs,
		"input_underruns":  s.InputUnderruns,
	})
}

func (d *Dispatcher) getLabel(args map[string]any) Response {
	uid, ok1 := stringArg(args, "component_uid")
	if !ok1 {
		return fail("component_uid is required")
	}
	if d.labels == nil {
		return fail("label store not configured")
	}
	label, found := d.labels.GetLabel(uid)
	if !found {
		return fail(fmt.Sprintf("component %q has no dynamic label", uid))
	}
	return ok(map[string]any{
		"text":    label.Text,
		"charset": label.Charset,
		"toggle":  label.Toggle,
	})
}

func (d *Dispatcher) setLabel(args map[string]any) Response {
	uid, ok1 := stringArg(args, "component_uid")
	text, ok2 := stringArg(args, "text")
	if !ok1 || !ok2 {
		return fail("component_uid and text are required")
	}
	if d.labels == nil {
		return fail("label store not configured")
	}
	if !d.labels.SetLabel(uid, text) {
		return fail(fmt.Sprintf("component %q has no dynamic label input", uid))
	}
	return ok(map[string]any{"success": true})
}

func (d *Dispatcher) triggerAnnouncement(args map[string]any) Response {
	if d.announcer == nil {
		return fail("announcement controller not configured")
	}
	serviceID, ok1 := intArg(args, "service_id")
	annType, ok2 := stringArg(args, "type")
	subchanID, _ := intArg(args, "subchannel_id")
	if !ok1 || !ok2 {
		return fail("service_id and type are required")
	}
	if err := d.announcer.Trigger(uint32(serviceID), annType, subchanID); err != nil {
		return fail(err.Error())
	}
	return ok(map[string]any{"success": true})
}

func (d *Dispatcher) clearAnnouncement(args map[string]any) Response {
	if d.announcer == nil {
		return fail("announcement controller not configured")
	}
	serviceID, ok1 := intArg(args, "service_id")
	annType, ok2 := stringArg(args, "type")
	if !ok1 || !ok2 {
		return fail("service_id and type are required")
	}
	if err := d.announcer.Clear(uint32(serviceID), annType); err != nil {
		return fail(err.Error())
	}
	return ok(map[string]any{"success": true})
}

func (d *Dispatcher) getServiceInfo(args map[string]any) Response {
	uid, ok1 := stringArg(args, "service_uid")
	if !ok1 {
		return fail("service_uid is required")
	}
	svc := d.store.Load().ServiceByUID(uid)
	if svc == nil {
		return fail(fmt.Sprintf("unknown service %q", uid))
	}
	return ok(map[string]any{
		"id":       fmt.Sprintf("0x%X", svc.SId),
		"label":    svc.Label.Text,
		"pty":      svc.PTy,
		"language": svc.Language,
	})
}

// mutateService clones the live ensemble, looks up svc by UID in the
// clone, applies mutate, and atomically swaps it in — the only
// writer-exclusive path into ensemble state (spec.md §5).
func (d *Dispatcher) mutateService(uid string, mutate func(*ensemble.Service)) error {
	next := d.store.Load().Clone()
	svc := next.ServiceByUID(uid)
	if svc == nil {
		return fmt.Errorf("unknown service %q", uid)
	}
	mutate(svc)
	d.store.Swap(next)
	return nil
}

func (d *Dispatcher) setServicePty(args map[string]any) Response {
	uid, ok1 := stringArg(args, "service_uid")
	pty, ok2 := intArg(args, "pty")
	if !ok1 || !ok2 {
		return fail("service_uid and pty are required")
	}
	if pty < 0 || pty > 31 {
		return fail("pty must be in [0,31]")
	}
	if err := d.mutateService(uid, func(s *ensemble.Service) { s.PTy = uint8(pty) }); err != nil {
		return fail(err.Error())
	}
	return ok(map[string]any{"success": true})
}

func (d *Dispatcher) setServiceLanguage(args map[string]any) Response {
	uid, ok1 := stringArg(args, "service_uid")
	lang, ok2 := intArg(args, "language")
	if !ok1 || !ok2 {
		return fail("service_uid and language are required")
	}
	if err := d.mutateService(uid, func(s *ensemble.Service) { s.Language = uint8(lang) }); err != nil {
		return fail(err.Error())
	}
	return ok(map[string]any{"success": true})
}

func (d *Dispatcher) setServiceLabel(args map[string]any) Response {
	uid, ok1 := stringArg(args, "service_uid")
	text, ok2 := stringArg(args, "text")
	shortText, _ := stringArg(args, "short_text")
	if !ok1 || !ok2 {
		return fail("service_uid and text are required")
	}
	if err := d.mutateService(uid, func(s *ensemble.Service) {
		s.Label = ensemble.Label{Text: text, Short: shortText}
	}); err != nil {
		return fail(err.Error())
	}
	return ok(map[string]any{"success": true})
}

func (d *Dispatcher) getAllServices() Response {
	e := d.store.Load()
	list := make([]map[string]any, 0, len(e.Services))
	for _, s := range e.Services {
		list = append(list, map[string]any{
			"uid":      s.UID,
			"id":       fmt.Sprintf("0x%X", s.SId),
			"label":    s.Label.Text,
			"pty":      s.PTy,
			"language": s.Language,
		})
	}
	return ok(map[string]any{"services": list})
}

func (d *Dispatcher) getAllComponents() Response {
	e := d.store.Load()
	list := make([]map[string]any, 0, len(e.Components))
	for _, c := range e.Components {
		list = append(list, map[string]any{
			"uid":         c.UID,
			"service_uid": c.ServiceUID,
			"subchan_uid": c.SubchanUID,
			"scids":       c.SCIdS,
			"type":        c.Type,
			"label":       c.Label.Text,
		})
	}
	return ok(map[string]any{"components": list})
}

func (d *Dispatcher) getAllSubchannels() Response {
	e := d.store.Load()
	list := make([]map[string]any, 0, len(e.Subchannels))
	for _, sc := range e.Subchannels {
		list = append(list, map[string]any{
			"uid":           sc.UID,
			"subchid":       sc.SubChId,
			"bitrate_kbps":  sc.BitrateKbps,
			"start_address": sc.StartAddress,
			"size_cu":       sc.SizeCU(),
		})
	}
	return ok(map[string]any{"subchannels": list})
}

func (d *Dispatcher) getInputStatus(args map[string]any) Response {
	uid, ok1 := stringArg(args, "subchannel_uid")
	if !ok1 {
		return fail("subchannel_uid is required")
	}
	if d.inputStatus == nil {
		return fail("input status provider not configured")
	}
	st, found := d.inputStatus.InputStatus(uid)
	if !found {
		return fail(fmt.Sprintf("unknown subchannel %q", uid))
	}
	return ok(map[string]any{
		"connected": st.Connected,
		"bitrate":   st.BitrateKbps,
		"state":     st.State,
	})
}

func (d *Dispatcher) reloadCarousel(args map[string]any) Response {
	uid, ok1 := stringArg(args, "component_uid")
	if !ok1 {
		return fail("component_uid is required")
	}
	if d.carousels == nil {
		return fail("carousel registry not configured")
	}
	c, found := d.carousels.Carousel(uid)
	if !found {
		return fail(fmt.Sprintf("component %q has no carousel", uid))
	}
	n, err := c.Reload()
	if err != nil {
		return fail(err.Error())
	}
	return ok(map[string]any{"objects_loaded": n})
}

func (d *Dispatcher) getCarouselStats(args map[string]any) Response {
	uid, ok1 := stringArg(args, "component_uid")
	if !ok1 {
		return fail("component_uid is required")
	}
	if d.carousels == nil {
		return fail("carousel registry not configured")
	}
	c, found := d.carousels.Carousel(uid)
	if !found {
		return fail(fmt.Sprintf("component %q has no carousel", uid))
	}
	stats := c.Stats()
	return ok(map[string]any{
		"num_objects":         stats.NumObjects,
		"packets_transmitted": stats.PacketsTransmitted,
		"total_bytes":         stats.TotalBytes,
	})
}

func (d *Dispatcher) setLogLevel(args map[string]any) Response {
	levelStr, ok1 := stringArg(args, "level")
	module, _ := stringArg(args, "module")
	if !ok1 {
		return fail("level is required")
	}
	level, valid := logger.ParseLevel(levelStr)
	if !valid {
		return fail(fmt.Sprintf("invalid level %q", levelStr))
	}
	if d.logReg == nil {
		return fail("log level registry not configured")
	}
	matched := d.logReg.SetLevel(module, level)
	msg := fmt.Sprintf("log level set to %s", level)
	if module != "" {
		msg = fmt.Sprintf("%s for module %s", msg, module)
	}
	return ok(map[string]any{
		"success": matched > 0,
		"level":   level.String(),
		"module":  module,
		"message": msg,
	})
}

func (d *Dispatcher) getLogLevel(args map[string]any) Response {
	module, _ := stringArg(args, "module")
	if d.logReg == nil {
		return fail("log level registry not configured")
	}
	level, found := d.logReg.GetLevel(module)
	if !found {
		return fail(fmt.Sprintf("unknown module %q", module))
	}
	return ok(map[string]any{
		"level":         level.String(),
		"numeric_level": int(level),
		"module":        module,
	})
}

func (d *Dispatcher) listCommands() Response {
	names := make([]string, 0, len(commandSpecs))
	for _, c := range commandSpecs {
		names = append(names, c.Name)
	}
	return ok(map[string]any{"commands": names})
}

func (d *Dispatcher) getCommandInfo(args map[string]any) Response {
	name, ok1 := stringArg(args, "command")
	if !ok1 {
		return fail("command is required")
	}
	spec, found := findCommandSpec(name)
	if !found {
		return fail(fmt.Sprintf("unknown command %q", name))
	}
	return ok(map[string]any{
		"description": spec.Description,
		"args":        spec.Args,
		"returns":     spec.Returns,
	})
}
