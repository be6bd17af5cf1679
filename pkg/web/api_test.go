package web

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-dab/dabmux/pkg/database"
	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/logger"
)

type fakeStatsProvider struct{ snap StatisticsSnapshot }

func (f fakeStatsProvider) Statistics() StatisticsSnapshot { return f.snap }

type fakeEnsembleProvider struct{ ens *ensemble.Ensemble }

func (f fakeEnsembleProvider) CurrentEnsemble() *ensemble.Ensemble { return f.ens }

func TestHandleStatus(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("GET", "/api/status", nil)
	w := httptest.NewRecorder()
	api.HandleStatus(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["service"] != "dabmux" {
		t.Errorf("expected service dabmux, got %v", resp["service"])
	}
}

func TestHandleStatistics_NoProvider(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("GET", "/api/statistics", nil)
	w := httptest.NewRecorder()
	api.HandleStatistics(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var snap StatisticsSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.FrameCount != 0 {
		t.Errorf("expected zero-value snapshot, got %+v", snap)
	}
}

func TestHandleStatistics_WithProvider(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)
	api.SetDeps(fakeStatsProvider{snap: StatisticsSnapshot{FrameCount: 42, UndeliveredFIGs: 1, InputUnderruns: 2}}, nil)

	req := httptest.NewRequest("GET", "/api/statistics", nil)
	w := httptest.NewRecorder()
	api.HandleStatistics(w, req)

	var snap StatisticsSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.FrameCount != 42 || snap.UndeliveredFIGs != 1 || snap.InputUnderruns != 2 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestHandleEnsemble_NoProvider(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("GET", "/api/ensemble", nil)
	w := httptest.NewRecorder()
	api.HandleEnsemble(w, req)

	var dto EnsembleDTO
	if err := json.NewDecoder(w.Body).Decode(&dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto.EId != 0 || len(dto.Services) != 0 {
		t.Errorf("expected empty DTO, got %+v", dto)
	}
}

func TestHandleEnsemble_WithProvider(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	ens := &ensemble.Ensemble{
		EId:   0x4fff,
		Label: ensemble.Label{Text: "Test Ensemble", Short: "TestEns"},
		Mode:  ensemble.TM_I,
		Services: []*ensemble.Service{
			{UID: "svc1", SId: 0xe1d1, Label: ensemble.Label{Text: "Service One"}, PTy: 5, Language: 9},
		},
		Subchannels: []*ensemble.Subchannel{
			{UID: "sub1", SubChId: 0, Type: ensemble.SubchannelDABPlusAudio, BitrateKbps: 64,
				Protection: ensemble.Protection{Form: ensemble.ProtectionUEP, Level: 2}},
		},
		Components: []*ensemble.Component{
			{UID: "comp1", ServiceUID: "svc1", SubchanUID: "sub1"},
		},
	}
	if err := ens.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	api.SetDeps(nil, fakeEnsembleProvider{ens: ens})

	req := httptest.NewRequest("GET", "/api/ensemble", nil)
	w := httptest.NewRecorder()
	api.HandleEnsemble(w, req)

	var dto EnsembleDTO
	if err := json.NewDecoder(w.Body).Decode(&dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto.EId != 0x4fff {
		t.Errorf("expected eid 0x4fff, got %x", dto.EId)
	}
	if len(dto.Services) != 1 || dto.Services[0].UID != "svc1" {
		t.Errorf("unexpected services: %+v", dto.Services)
	}
	if len(dto.Subchannels) != 1 || dto.Subchannels[0].SizeCU == 0 {
		t.Errorf("unexpected subchannels: %+v", dto.Subchannels)
	}
	if len(dto.Components) != 1 {
		t.Errorf("unexpected components: %+v", dto.Components)
	}
}

func TestHandleAudit_NoRepo(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("GET", "/api/audit", nil)
	w := httptest.NewRecorder()
	api.HandleAudit(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var dtos []AuditEntryDTO
	if err := json.NewDecoder(w.Body).Decode(&dtos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dtos) != 0 {
		t.Errorf("expected empty audit list, got %+v", dtos)
	}
}

func TestHandleAudit_WithRepo(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	dbPath := "/tmp/test_api_audit.db"
	defer os.Remove(dbPath)

	db, err := database.NewDB(database.Config{Path: dbPath}, log)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	repo := database.NewAuditRepository(db.GetDB())
	entry := &database.AuditEntry{
		Timestamp: time.Now(),
		Source:    "zmq",
		Client:    "127.0.0.1",
		Command:   "get_statistics",
		Success:   true,
	}
	if err := repo.Create(entry); err != nil {
		t.Fatalf("failed to create audit entry: %v", err)
	}

	api := NewAPI(log)
	api.SetAuditRepo(repo)

	req := httptest.NewRequest("GET", "/api/audit", nil)
	w := httptest.NewRecorder()
	api.HandleAudit(w, req)

	var dtos []AuditEntryDTO
	if err := json.NewDecoder(w.Body).Decode(&dtos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dtos) != 1 || dtos[0].Command != "get_statistics" {
		t.Errorf("unexpected audit entries: %+v", dtos)
	}
}

func TestHandleStatistics_MethodNotAllowed(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("POST", "/api/statistics", nil)
	w := httptest.NewRecorder()
	api.HandleStatistics(w, req)

	if w.Code != 405 {
		t.Errorf("expected 405, got %d", w.Code)
	}
}
