package database

import "time"

// AuditEntry is one durable row for an executed remote-control
// command (spec.md §4.7 "Audit log"). The equivalent structured log
// line is emitted through pkg/logger at the call site; this row is
// the durable half of the Python prototype's dual log+JSONL effect
// (SPEC_FULL.md §3 "Audit log persistence").
type AuditEntry struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Timestamp  time.Time `gorm:"index;not null" json:"timestamp"`
	Source     string    `gorm:"index;size:16;not null" json:"source"` // "zmq" or "telnet"
	Client     string    `gorm:"size:128" json:"client"`
	Command    string    `gorm:"index;size:64;not null" json:"command"`
	ArgsJSON   string    `gorm:"type:text" json:"args_json"` // sensitive fields already redacted
	Success    bool      `gorm:"index;not null" json:"success"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditEntry.
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// StatisticsSnapshot is a periodic rolling snapshot of multiplexer
// runtime state, persisted so a dashboard or remote-control client can
// query historical counters instead of only the live in-memory values
// (SPEC_FULL.md §2's live statistics dashboard, backing spec.md §4.7's
// get_statistics/get_input_status/get_carousel_stats commands).
type StatisticsSnapshot struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	Timestamp       time.Time `gorm:"index;not null" json:"timestamp"`
	FrameCount      uint64    `json:"frame_count"`
	UptimeSeconds   float64   `json:"uptime_seconds"`
	EnsembleID      string    `json:"ensemble_id"`
	NumServices     int       `json:"num_services"`
	NumSubchannels  int       `json:"num_subchannels"`
	UndeliveredFIGs uint64    `json:"undelivered_figs"`
	InputUnderruns  uint64    `json:"input_underruns"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name for StatisticsSnapshot.
func (StatisticsSnapshot) TableName() string {
	return "statistics_snapshots"
}
