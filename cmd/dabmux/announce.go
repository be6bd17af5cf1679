package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/fig"
)

// annTypeBits maps the announcement type names spec.md §4.7's
// trigger_announcement/clear_announcement commands accept to the ASu/
// ASw bitmask positions FIG 0/18 and FIG 0/19 share (ETSI EN 300 401
// Table 14, "Announcement type").
var annTypeBits = map[string]uint16{
	"alarm":          1 << 0,
	"traffic":        1 << 1,
	"travel":         1 << 2,
	"warning":        1 << 3,
	"news":           1 << 4,
	"weather":        1 << 5,
	"event":          1 << 6,
	"special_event":  1 << 7,
	"programme_info": 1 << 8,
	"sports":         1 << 9,
	"finance":        1 << 10,
}

// clusterState is one cluster's current announcement mix: the ASw
// bitmask of active types and the subchannel currently carrying their
// replacement audio.
type clusterState struct {
	asw     uint16
	subChID int
}

// announcementRegistry tracks active cluster-level announcements at
// runtime, independent of the ensemble snapshot so a live
// announcement survives a config reload that swaps the snapshot out
// from under it. It satisfies pkg/remote.AnnouncementController.
type announcementRegistry struct {
	store *ensemble.Store

	mu     sync.Mutex
	active map[uint8]clusterState
}

func newAnnouncementRegistry(store *ensemble.Store) *announcementRegistry {
	return &announcementRegistry{store: store, active: map[uint8]clusterState{}}
}

func (r *announcementRegistry) findService(serviceID uint32) *ensemble.Service {
	for _, svc := range r.store.Load().Services {
		if svc.SId == serviceID {
			return svc
		}
	}
	return nil
}

// Trigger activates annType on every cluster the named service
// belongs to, replacing their audio with subchannelID (spec.md §4.7
// trigger_announcement).
func (r *announcementRegistry) Trigger(serviceID uint32, annType string, subchannelID int) error {
	bit, ok := annTypeBits[strings.ToLower(annType)]
	if !ok {
		return fmt.Errorf("unknown announcement type %q", annType)
	}
	svc := r.findService(serviceID)
	if svc == nil {
		return fmt.Errorf("no service with id %d", serviceID)
	}
	if svc.Announcements&bit == 0 {
		return fmt.Errorf("service %s does not support announcement type %q", svc.UID, annType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range svc.Clusters {
		st := r.active[c]
		st.asw |= bit
		st.subChID = subchannelID
		r.active[c] = st
	}
	return nil
}

// Clear deactivates annType on every cluster the named service
// belongs to (spec.md §4.7 clear_announcement).
func (r *announcementRegistry) Clear(serviceID uint32, annType string) error {
	bit, ok := annTypeBits[strings.ToLower(annType)]
	if !ok {
		return fmt.Errorf("unknown announcement type %q", annType)
	}
	svc := r.findService(serviceID)
	if svc == nil {
		return fmt.Errorf("no service with id %d", serviceID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range svc.Clusters {
		st, ok := r.active[c]
		if !ok {
			continue
		}
		st.asw &^= bit
		if st.asw == 0 {
			delete(r.active, c)
			continue
		}
		r.active[c] = st
	}
	return nil
}

// snapshot returns the currently active announcements for FIG 0/19.
func (r *announcementRegistry) snapshot() []fig.Announcement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]fig.Announcement, 0, len(r.active))
	for cluster, st := range r.active {
		out = append(out, fig.Announcement{Cluster: cluster, ASw: st.asw, SubChId: st.subChID})
	}
	return out
}

// liveAnnouncementFig wraps Fig0_19, refreshing its Announcements
// slice from the runtime registry immediately before each Fill — the
// one FIG whose content tracks live operator commands rather than the
// ensemble snapshot.
type liveAnnouncementFig struct {
	*fig.Fig0_19
	reg *announcementRegistry
}

func (f *liveAnnouncementFig) Fill(buf []byte, maxSize int) fig.FillStatus {
	f.Fig0_19.Announcements = f.reg.snapshot()
	return f.Fig0_19.Fill(buf, maxSize)
}
