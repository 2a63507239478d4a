// Package plan decides which registry rows need a write. The scan always
// covers the full table: experience drifts continuously, so already-processed
// rows must still auto-promote when they cross a tier threshold.
package plan

import (
	"log/slog"
	"time"

	"github.com/hrops/registry/internal/core/domain"
	"github.com/hrops/registry/internal/core/rules"
	"github.com/hrops/registry/internal/pipeline/metrics"
)

// Reason explains why a record was queued.
type Reason string

const (
	ReasonMissingFields   Reason = "missing_fields"
	ReasonStaleExperience Reason = "stale_experience"
	ReasonPromotionDue    Reason = "promotion_due"
	ReasonInvalidPair     Reason = "invalid_pair"
	ReasonFlagMismatch    Reason = "flag_mismatch"
)

// Change is one record queued for synthesis, with the freshly recomputed
// experience attached.
type Change struct {
	Employee   domain.Employee
	Experience float64
	Reasons    []Reason
}

// Result is the outcome of one full-table scan.
type Result struct {
	Changes     []Change
	Skipped     int
	InvalidDate []int64
}

// Planner scans snapshots and queues records that need rewriting.
type Planner struct {
	thresholds rules.Thresholds
}

func New(thresholds rules.Thresholds) *Planner {
	return &Planner{thresholds: thresholds}
}

// Plan walks the snapshot and queues every record whose stored values no
// longer match what a commit at asOf would write. Re-running immediately
// after a clean pass queues nothing.
func (p *Planner) Plan(snapshot []domain.Employee, asOf time.Time) Result {
	var res Result
	for _, emp := range snapshot {
		metrics.RecordsScanned.Inc()

		years, err := rules.Experience(emp.JoinDate, asOf)
		if err != nil {
			slog.Warn("Skipping record with invalid join date",
				"id", emp.ID, "name", emp.Name, "error", err)
			res.InvalidDate = append(res.InvalidDate, emp.ID)
			continue
		}

		reasons := p.reasonsFor(&emp, years)
		if len(reasons) == 0 {
			res.Skipped++
			continue
		}

		slog.Debug("Queued record for classification",
			"id", emp.ID, "name", emp.Name, "reasons", reasons)
		res.Changes = append(res.Changes, Change{Employee: emp, Experience: years, Reasons: reasons})
	}
	return res
}

func (p *Planner) reasonsFor(emp *domain.Employee, years float64) []Reason {
	var reasons []Reason

	if !emp.ClassificationComplete() {
		reasons = append(reasons, ReasonMissingFields)
	}
	// The processed flag must track field completeness. A cleared flag on a
	// complete record (processed flags were reset) requeues it.
	if emp.IsProcessed != (emp.ClassificationComplete() && domain.ValidPair(emp.Designation, emp.SalaryBand)) {
		reasons = append(reasons, ReasonFlagMismatch)
	}
	if rules.Stale(emp.ExperienceYears, years) {
		reasons = append(reasons, ReasonStaleExperience)
	}
	if emp.Designation != "" {
		// Promotion is due when experience has crossed a tier boundary above
		// the stored designation. Tiers below the stored one never demote here;
		// a downward experience correction surfaces as stale experience and is
		// resolved during synthesis.
		if p.thresholds.DesignationFor(years).Rank() > emp.Designation.Rank() {
			reasons = append(reasons, ReasonPromotionDue)
		}
		if emp.SalaryBand != "" && p.thresholds.BandFor(emp.Designation, years) != emp.SalaryBand {
			reasons = append(reasons, ReasonInvalidPair)
		}
	}
	return reasons
}
