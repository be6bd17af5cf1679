package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-dab/dabmux/pkg/database"
	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/logger"
)

// StatisticsSnapshot is the live operational counters the API and
// WebSocket hub expose, supplied by cmd/dabmux's metrics collector
// (spec.md §4.7 "get_statistics").
type StatisticsSnapshot struct {
	FrameCount      uint64 `json:"frame_count"`
	UndeliveredFIGs uint64 `json:"undelivered_figs"`
	InputUnderruns  uint64 `json:"input_underruns"`
}

// StatisticsProvider supplies the dashboard's live counters.
type StatisticsProvider interface {
	Statistics() StatisticsSnapshot
}

// EnsembleProvider supplies the current ensemble snapshot.
type EnsembleProvider interface {
	CurrentEnsemble() *ensemble.Ensemble
}

// API handles REST API endpoints for the live statistics dashboard
// (spec.md §2).
type API struct {
	logger    *logger.Logger
	stats     StatisticsProvider
	ensembles EnsembleProvider
	auditRepo *database.AuditRepository
}

// NewAPI creates a new API instance.
func NewAPI(log *logger.Logger) *API {
	return &API{logger: log}
}

// SetDeps provides runtime dependencies to the API after construction.
func (a *API) SetDeps(stats StatisticsProvider, ensembles EnsembleProvider) {
	a.stats = stats
	a.ensembles = ensembles
}

// SetAuditRepo sets the audit log repository for the /api/audit endpoint.
func (a *API) SetAuditRepo(repo *database.AuditRepository) {
	a.auditRepo = repo
}

// ServiceDTO is a lightweight response for one ensemble service.
type ServiceDTO struct {
	UID      string `json:"uid"`
	SId      uint32 `json:"sid"`
	Label    string `json:"label"`
	Short    string `json:"short_label"`
	PTy      uint8  `json:"pty"`
	Language uint8  `json:"language"`
}

// SubchannelDTO is a lightweight response for one ensemble subchannel.
type SubchannelDTO struct {
	UID          string `json:"uid"`
	SubChId      int    `json:"subch_id"`
	BitrateKbps  int    `json:"bitrate"`
	StartAddress int    `json:"start_address"`
	SizeCU       int    `json:"size_cu"`
}

// ComponentDTO is a lightweight response for one ensemble component.
type ComponentDTO struct {
	UID        string `json:"uid"`
	ServiceUID string `json:"service_uid"`
	SubchanUID string `json:"subchannel_uid"`
}

// EnsembleDTO is the dashboard's summary of the live ensemble.
type EnsembleDTO struct {
	EId         uint16          `json:"eid"`
	Label       string          `json:"label"`
	Services    []ServiceDTO    `json:"services"`
	Subchannels []SubchannelDTO `json:"subchannels"`
	Components  []ComponentDTO  `json:"components"`
}

// AuditEntryDTO is a lightweight response for one audit log entry.
type AuditEntryDTO struct {
	Timestamp int64  `json:"timestamp"`
	Command   string `json:"command"`
	Source    string `json:"source"`
	Client    string `json:"client"`
	Success   bool   `json:"success"`
}

// HandleStatus handles the /api/status endpoint.
func (a *API) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"status":  "running",
		"service": "dabmux",
		"version": "dev",
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		a.logger.Error("Failed to encode status response", logger.Error(err))
	}
}

// HandleStatistics handles the /api/statistics endpoint.
func (a *API) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	var snap StatisticsSnapshot
	if a.stats != nil {
		snap = a.stats.Statistics()
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		a.logger.Error("Failed to encode statistics response", logger.Error(err))
	}
}

// HandleEnsemble handles the /api/ensemble endpoint.
func (a *API) HandleEnsemble(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if a.ensembles == nil {
		if err := json.NewEncoder(w).Encode(EnsembleDTO{}); err != nil {
			a.logger.Error("Failed to encode ensemble response", logger.Error(err))
		}
		return
	}

	ens := a.ensembles.CurrentEnsemble()
	dto := EnsembleDTO{}
	if ens != nil {
		dto.EId = ens.EId
		dto.Label = ens.Label.Text
		for _, svc := range ens.Services {
			dto.Services = append(dto.Services, ServiceDTO{
				UID: svc.UID, SId: svc.SId, Label: svc.Label.Text, Short: svc.Label.Short,
				PTy: svc.PTy, Language: svc.Language,
			})
		}
		for _, sc := range ens.Subchannels {
			dto.Subchannels = append(dto.Subchannels, SubchannelDTO{
				UID: sc.UID, SubChId: sc.SubChId, BitrateKbps: sc.BitrateKbps,
				StartAddress: sc.StartAddress, SizeCU: sc.SizeCU(),
			})
		}
		for _, c := range ens.Components {
			dto.Components = append(dto.Components, ComponentDTO{
				UID: c.UID, ServiceUID: c.ServiceUID, SubchanUID: c.SubchanUID,
			})
		}
	}

	if err := json.NewEncoder(w).Encode(dto); err != nil {
		a.logger.Error("Failed to encode ensemble response", logger.Error(err))
	}
}

// HandleAudit handles the /api/audit endpoint.
func (a *API) HandleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if a.auditRepo == nil {
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode([]AuditEntryDTO{}); err != nil {
			a.logger.Error("Failed to encode audit response", logger.Error(err))
		}
		return
	}

	entries, err := a.auditRepo.GetRecent(50)
	if err != nil {
		a.logger.Error("Failed to get audit entries", logger.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	dtos := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, AuditEntryDTO{
			Timestamp: e.Timestamp.Unix(),
			Command:   e.Command,
			Source:    e.Source,
			Client:    e.Client,
			Success:   e.Success,
		})
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		a.logger.Error("Failed to encode audit response", logger.Error(err))
	}
}
