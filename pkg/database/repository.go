package database

import (
	"time"

	"gorm.io/gorm"
)

// AuditRepository persists remote-control command audit entries
// (spec.md §4.7 "Audit log"), adapted from the teacher's
// TransmissionRepository shape.
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends a new audit entry.
func (r *AuditRepository) Create(e *AuditEntry) error {
	return r.db.Create(e).Error
}

// GetRecent retrieves the most recent N audit entries, newest first.
func (r *AuditRepository) GetRecent(limit int) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := r.db.Order("timestamp DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// GetByCommand retrieves recent entries for a specific command name.
func (r *AuditRepository) GetByCommand(command string, limit int) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := r.db.Where("command = ?", command).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// DeleteOlderThan prunes entries older than the given time.
func (r *AuditRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&AuditEntry{})
	return result.RowsAffected, result.Error
}

// StatisticsRepository persists rolling statistics snapshots
// (SPEC_FULL.md §2's live dashboard), adapted from the teacher's
// TransmissionRepository shape.
type StatisticsRepository struct {
	db *gorm.DB
}

// NewStatisticsRepository creates a new statistics repository.
func NewStatisticsRepository(db *gorm.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// Create appends a new statistics snapshot.
func (r *StatisticsRepository) Create(s *StatisticsSnapshot) error {
	return r.db.Create(s).Error
}

// GetRecent retrieves the most recent N snapshots, newest first.
func (r *StatisticsRepository) GetRecent(limit int) ([]StatisticsSnapshot, error) {
	var snapshots []StatisticsSnapshot
	err := r.db.Order("timestamp DESC").Limit(limit).Find(&snapshots).Error
	return snapshots, err
}

// GetLatest retrieves the single most recent snapshot.
func (r *StatisticsRepository) GetLatest() (*StatisticsSnapshot, error) {
	var s StatisticsSnapshot
	err := r.db.Order("timestamp DESC").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteOlderThan prunes snapshots older than the given time.
func (r *StatisticsRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&StatisticsSnapshot{})
	return result.RowsAffected, result.Error
}
