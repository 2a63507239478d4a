package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hrops/registry/internal/core/domain"
)

var (
	// ErrRowNotFound is returned when a row id from the snapshot no longer
	// addresses a live row (table mutated externally between scan and write).
	ErrRowNotFound = errors.New("row not found")

	// ErrBackupNotFound is returned when a backup handle no longer resolves.
	ErrBackupNotFound = errors.New("backup not found")
)

// FieldUpdates carries the per-row cell writes of one commit. Nil fields are
// left untouched; the pipeline only ever writes derived, classification and
// provenance columns.
type FieldUpdates struct {
	ExperienceYears   *float64
	Department        *domain.Department
	Designation       *domain.Designation
	SalaryBand        *domain.SalaryBand
	IsProcessed       *bool
	AIDecisionReason  *string
	ConfidenceScore   *float64
	LastProcessedOn   *time.Time
	ProcessingVersion *int
	RuleApplied       *string
}

// Empty reports whether the update would write nothing.
func (u *FieldUpdates) Empty() bool {
	return u.ExperienceYears == nil && u.Department == nil && u.Designation == nil &&
		u.SalaryBand == nil && u.IsProcessed == nil && u.AIDecisionReason == nil &&
		u.ConfidenceScore == nil && u.LastProcessedOn == nil &&
		u.ProcessingVersion == nil && u.RuleApplied == nil
}

// Apply copies the non-nil fields onto a record.
func (u *FieldUpdates) Apply(e *domain.Employee) {
	if u.ExperienceYears != nil {
		e.ExperienceYears = *u.ExperienceYears
	}
	if u.Department != nil {
		e.Department = *u.Department
	}
	if u.Designation != nil {
		e.Designation = *u.Designation
	}
	if u.SalaryBand != nil {
		e.SalaryBand = *u.SalaryBand
	}
	if u.IsProcessed != nil {
		e.IsProcessed = *u.IsProcessed
	}
	if u.AIDecisionReason != nil {
		e.AIDecisionReason = *u.AIDecisionReason
	}
	if u.ConfidenceScore != nil {
		e.ConfidenceScore = *u.ConfidenceScore
	}
	if u.LastProcessedOn != nil {
		t := *u.LastProcessedOn
		e.LastProcessedOn = &t
	}
	if u.ProcessingVersion != nil {
		e.ProcessingVersion = *u.ProcessingVersion
	}
	if u.RuleApplied != nil {
		e.RuleApplied = *u.RuleApplied
	}
}

// BackupHandle identifies one restorable full-table backup.
type BackupHandle struct {
	ID        string
	Location  string
	CreatedAt time.Time
}

// TableStore handles registry table storage operations.
type TableStore interface {
	// Load returns an id-ordered snapshot of the whole table.
	Load(ctx context.Context) ([]domain.Employee, error)

	// Write applies cell updates to one row. Returns ErrRowNotFound when the
	// id no longer addresses a live row.
	Write(ctx context.Context, id int64, updates FieldUpdates) error

	// Backup takes a full copy of the table and returns a restorable handle.
	Backup(ctx context.Context) (*BackupHandle, error)

	// Restore replaces the table contents with a previously taken backup.
	Restore(ctx context.Context, handle *BackupHandle) error

	// ResetProcessed clears the processed flag on every row so the next pass
	// reclassifies the whole table. Returns the number of rows touched.
	ResetProcessed(ctx context.Context) (int64, error)
}
