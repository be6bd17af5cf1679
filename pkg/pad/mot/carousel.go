package mot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/go-dab/dabmux/pkg/logger"
)

var contentExtensions = map[string]ContentType{
	".jpg":  ContentTypeImageJFIF,
	".jpeg": ContentTypeImageJFIF,
	".png":  ContentTypeImagePNG,
	".gif":  ContentTypeImageGIF,
	".bmp":  ContentTypeImageBMP,
	".dat":  ContentTypeGeneral,
}

// sidecarMeta is the YAML sidecar shape a carousel content file
// declares (spec.md §4.6: transport_id, priority, enabled,
// content_type, category, slide_id, trigger_time, click_through_url).
type sidecarMeta struct {
	TransportID     uint16 `yaml:"transport_id"`
	Priority        uint8  `yaml:"priority"`
	Enabled         *bool  `yaml:"enabled"`
	ContentType     string `yaml:"content_type"`
	Category        uint8  `yaml:"category"`
	SlideID         uint32 `yaml:"slide_id"`
	TriggerTime     uint32 `yaml:"trigger_time"`
	ClickThroughURL string `yaml:"click_through_url"`
}

func (m sidecarMeta) enabled() bool {
	return m.Enabled == nil || *m.Enabled
}

func (m sidecarMeta) parameters() []Parameter {
	var params []Parameter
	if m.Category != 0 {
		params = append(params, Parameter{ID: ParamCategoryID, Value: []byte{m.Category}})
	}
	if m.SlideID != 0 {
		params = append(params, Parameter{ID: ParamSlideID, Value: be32(m.SlideID)})
	}
	if m.TriggerTime != 0 {
		params = append(params, Parameter{ID: ParamTriggerTime, Value: be32(m.TriggerTime)})
	}
	if m.ClickThroughURL != "" {
		params = append(params, Parameter{ID: ParamClickThroughURL, Value: []byte(m.ClickThroughURL)})
	}
	return params
}

func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// carousel is an immutable, fully-packetized snapshot of one carousel
// directory scan. A rebuild produces a new carousel and swaps it in
// atomically, so in-flight packet scheduling never observes a
// half-built state (spec.md §4.6 "the rebuild is atomic with respect
// to packet emission").
type carousel struct {
	scheduler *Scheduler
}

// Stats reports the running carousel counters exposed via
// get_carousel_stats (spec.md §4.7).
type Stats struct {
	NumObjects         int
	PacketsTransmitted uint64
	TotalBytes         uint64
}

// Carousel watches a directory of content files plus YAML sidecars,
// builds the MOT directory object, and schedules packets for
// transmission, live-reloading on any file create/modify/delete.
type Carousel struct {
	dir           string
	address       uint16
	maxPacketSize int
	maxSegment    int
	log           *logger.Logger

	current atomic.Pointer[carousel]
	watcher *fsnotify.Watcher

	packetsTransmitted atomic.Uint64
	totalBytes         atomic.Uint64
}

// NewCarousel scans dir, builds the initial carousel snapshot, and
// starts watching dir for changes. address and maxPacketSize configure
// the MSC packet stream (0 selects the default 96-byte packet).
func NewCarousel(dir string, address uint16, maxPacketSize int, log *logger.Logger) (*Carousel, error) {
	c := &Carousel{
		dir:           dir,
		address:       address,
		maxPacketSize: maxPacketSize,
		maxSegment:    DefaultMaxSegmentSize,
		log:           log.WithComponent("mot-carousel"),
	}
	if err := c.reload(); err != nil {
		return nil, fmt.Errorf("mot: initial carousel scan: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("mot: create directory watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("mot: watch %s: %w", dir, err)
	}
	c.watcher = w
	return c, nil
}

// Run blocks, rebuilding the carousel on every relevant filesystem
// event until stop is closed.
func (c *Carousel) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			c.watcher.Close()
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !isCarouselFile(ev.Name) {
				continue
			}
			if err := c.reload(); err != nil {
				c.log.Error("carousel reload failed", logger.Error(err))
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.log.Error("carousel watcher error", logger.Error(err))
		}
	}
}

func isCarouselFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".yaml" || ext == ".yml" {
		return true
	}
	_, ok := contentExtensions[ext]
	return ok
}

// Next returns the next packet to transmit per the strict-priority
// round-robin schedule, or false if the carousel has no objects yet.
func (c *Carousel) Next() (Packet, bool) {
	cur := c.current.Load()
	if cur == nil {
		return Packet{}, false
	}
	pkt, ok := cur.scheduler.Next()
	if ok {
		c.packetsTransmitted.Add(1)
		c.totalBytes.Add(uint64(len(pkt.Data)))
	}
	return pkt, ok
}

// Stats reports the current carousel counters for get_carousel_stats.
func (c *Carousel) Stats() Stats {
	cur := c.current.Load()
	numObjects := 0
	if cur != nil {
		numObjects = cur.scheduler.NumObjects()
	}
	return Stats{
		NumObjects:         numObjects,
		PacketsTransmitted: c.packetsTransmitted.Load(),
		TotalBytes:         c.totalBytes.Load(),
	}
}

// Reload forces an immediate directory rescan outside the fsnotify
// event loop, returning the number of objects loaded (spec.md §4.7
// reload_carousel).
func (c *Carousel) Reload() (int, error) {
	if err := c.reload(); err != nil {
		return 0, err
	}
	return c.current.Load().scheduler.NumObjects(), nil
}

// reload rescans the directory, builds a fresh scheduler, and
// publishes it atomically.
func (c *Carousel) reload() error {
	objects, err := c.scanDirectory()
	if err != nil {
		return err
	}
	objects = append(objects, BuildDirectory(objects))

	packets := make(map[uint16][]Packet, len(objects))
	for _, o := range objects {
		pz := NewPacketizer(c.address, c.maxPacketSize)
		packets[o.TransportID] = pz.PacketizeObject(o, c.maxSegment)
	}

	c.current.Store(&carousel{scheduler: NewScheduler(objects, packets)})
	c.log.Info("carousel reloaded",
		logger.Int("objects", len(objects)),
		logger.String("directory", c.dir))
	return nil
}

// scanDirectory pairs every content file with its .yaml sidecar
// (name.ext.yaml, else name.yaml) and builds the resulting Object
// list. A content file without a sidecar is skipped with a warning; a
// sidecar without a matching content file is ignored (spec.md §4.6's
// directory scan contract).
func (c *Carousel) scanDirectory() ([]Object, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read carousel directory: %w", err)
	}

	var objects []Object
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		contentType, known := contentExtensions[ext]
		if !known {
			continue
		}

		path := filepath.Join(c.dir, entry.Name())
		sidecarPath := path + ".yaml"
		meta, err := readSidecar(sidecarPath)
		if err != nil {
			sidecarPath = strings.TrimSuffix(path, ext) + ".yaml"
			meta, err = readSidecar(sidecarPath)
		}
		if err != nil {
			c.log.Warn("carousel file missing sidecar metadata", logger.String("file", path))
			continue
		}
		if !meta.enabled() {
			continue
		}

		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read carousel content %s: %w", path, err)
		}
		if meta.ContentType != "" {
			if ct, ok := parseContentType(meta.ContentType); ok {
				contentType = ct
			}
		}

		priority := meta.Priority
		if priority == 0 {
			priority = 1
		}
		objects = append(objects, NewObject(meta.TransportID, priority, contentType, 0, body, meta.parameters()))
	}
	return objects, nil
}

func readSidecar(path string) (sidecarMeta, error) {
	var meta sidecarMeta
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse %s: %w", path, err)
	}
	return meta, nil
}

func parseContentType(name string) (ContentType, bool) {
	switch strings.ToLower(name) {
	case "image/jpeg", "image/jpg", "jfif":
		return ContentTypeImageJFIF, true
	case "image/png", "png":
		return ContentTypeImagePNG, true
	case "image/gif", "gif":
		return ContentTypeImageGIF, true
	case "image/bmp", "bmp":
		return ContentTypeImageBMP, true
	default:
		return ContentTypeGeneral, false
	}
}
