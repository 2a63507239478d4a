// Package synthesize produces a final, validated record for every planned
// change: it recomputes experience, consults the external decision provider,
// reconciles the answer against the rule baseline and the schema, and stamps
// provenance.
package synthesize

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrops/registry/internal/core/domain"
	"github.com/hrops/registry/internal/core/rules"
	"github.com/hrops/registry/internal/core/schema"
	"github.com/hrops/registry/internal/infra/decision"
	"github.com/hrops/registry/internal/infra/storage"
	"github.com/hrops/registry/internal/pipeline/plan"
)

const (
	// fallbackConfidence is stamped when the rule baseline substituted the
	// external decision.
	fallbackConfidence = 0.3

	// lowConfidenceCap bounds the confidence of answers that still deviate by
	// more than one tier from the baseline after a re-ask.
	lowConfidenceCap = 0.5

	// ruleExperienceThreshold names the deterministic rule recorded in the
	// rule_applied provenance column on baseline substitution.
	ruleExperienceThreshold = "experience_threshold"
)

// Result is the outcome of synthesizing one record. Only results in
// StateValidated may be committed.
type Result struct {
	ID       int64
	Employee domain.Employee
	Updates  storage.FieldUpdates
	State    domain.RecordState
	Err      error
}

// Synthesizer orchestrates per-record classification. It never sleeps or
// retries itself; attempt bounding and backoff live in the decision transport.
type Synthesizer struct {
	classifier decision.Classifier
	thresholds rules.Thresholds
	now        func() time.Time
}

func New(classifier decision.Classifier, thresholds rules.Thresholds) *Synthesizer {
	return &Synthesizer{
		classifier: classifier,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Run processes the planned changes, issuing classification calls
// concurrently up to the given bound. Results keep the input order so the
// commit phase stays deterministic. Cancellation aborts records that have not
// started; started records finish or surface their context error.
func (s *Synthesizer) Run(ctx context.Context, changes []plan.Change, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(changes))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, change := range changes {
		if err := ctx.Err(); err != nil {
			results[i] = Result{ID: change.Employee.ID, State: domain.StateUnscanned, Err: err}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, change plan.Change) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.Process(ctx, change)
		}(i, change)
	}

	wg.Wait()
	return results
}

// Process runs the state machine for one record:
// Unscanned -> Computed -> Classified -> Validated, escaping to Unresolvable
// on unrecoverable validation failure.
func (s *Synthesizer) Process(ctx context.Context, change plan.Change) Result {
	emp := change.Employee
	now := s.now()

	years, err := rules.Experience(emp.JoinDate, now)
	if err != nil {
		return Result{ID: emp.ID, State: domain.StateUnresolvable, Err: err}
	}

	dctx := decision.Context{
		Name:            emp.Name,
		Role:            emp.Role,
		Status:          emp.Status,
		ExperienceYears: years,
		Department:      emp.Department,
		Designation:     emp.Designation,
		SalaryBand:      emp.SalaryBand,
	}

	d, err := s.classify(ctx, dctx, years)
	if err != nil && ctx.Err() != nil {
		// Cancelled mid-flight: leave the record uncommitted rather than
		// substituting a baseline it never asked for.
		return Result{ID: emp.ID, State: domain.StateClassified, Err: ctx.Err()}
	}

	candidate := emp
	candidate.ExperienceYears = years

	useBaseline := err != nil
	if !useBaseline {
		candidate.Department = d.Department
		candidate.Designation = d.Designation
		candidate.SalaryBand = d.SalaryBand
		candidate.AIDecisionReason = d.Reason
		candidate.ConfidenceScore = clamp(d.Confidence)
		candidate.RuleApplied = ""
		// The band is bound to the accepted designation by the threshold table;
		// the planner re-queues any committed band that disagrees with it.
		if band := s.thresholds.BandFor(candidate.Designation, years); band != "" && band != candidate.SalaryBand {
			slog.Debug("Realigning provider band to threshold table",
				"id", emp.ID, "provider_band", candidate.SalaryBand, "band", band)
			candidate.SalaryBand = band
		}
		s.enforceMonotonic(&candidate, &emp, years)

		if !candidate.ClassificationComplete() {
			slog.Warn("External decision left fields empty, substituting baseline", "id", emp.ID)
			useBaseline = true
		} else if verr := schema.Validate(&candidate); verr != nil {
			slog.Warn("External decision failed validation, substituting baseline",
				"id", emp.ID, "error", verr)
			useBaseline = true
		}
	}

	if useBaseline {
		candidate = emp
		candidate.ExperienceYears = years
		designation, band := s.thresholds.Baseline(years)
		candidate.Department = rules.DepartmentForRole(emp.Role, emp.Department)
		candidate.Designation = designation
		candidate.SalaryBand = band
		candidate.AIDecisionReason = "rule baseline applied: external decision unavailable or invalid"
		candidate.ConfidenceScore = fallbackConfidence
		candidate.RuleApplied = ruleExperienceThreshold
		s.enforceMonotonic(&candidate, &emp, years)

		if verr := schema.Validate(&candidate); verr != nil {
			return Result{ID: emp.ID, State: domain.StateUnresolvable, Err: verr}
		}
	}

	candidate.LastProcessedOn = &now
	candidate.IsProcessed = candidate.ClassificationComplete() &&
		domain.ValidPair(candidate.Designation, candidate.SalaryBand)
	candidate.ProcessingVersion = emp.ProcessingVersion + 1

	return Result{
		ID:       emp.ID,
		Employee: candidate,
		Updates:  diff(&emp, &candidate),
		State:    domain.StateValidated,
	}
}

// classify asks the provider once and, when the answer deviates from the
// rule baseline by more than one tier, re-asks a single time with the
// baseline included as context. A persistently deviating answer is accepted
// but capped to low confidence.
func (s *Synthesizer) classify(ctx context.Context, dctx decision.Context, years float64) (*decision.Decision, error) {
	d, err := s.classifier.Classify(ctx, dctx)
	if err != nil {
		return nil, err
	}

	baselineDsg, baselineBand := s.thresholds.Baseline(years)
	if tierDeviation(d.Designation, baselineDsg) <= 1 {
		return d, nil
	}

	slog.Debug("Decision deviates from baseline, re-asking",
		"decision", d.Designation, "baseline", baselineDsg)
	dctx.BaselineDesignation = baselineDsg
	dctx.BaselineSalaryBand = baselineBand
	if second, err := s.classifier.Classify(ctx, dctx); err == nil {
		d = second
	} else if ctx.Err() != nil {
		return nil, err
	}

	if tierDeviation(d.Designation, baselineDsg) > 1 && d.Confidence > lowConfidenceCap {
		d.Confidence = lowConfidenceCap
	}
	return d, nil
}

// enforceMonotonic keeps a previously committed designation when the
// candidate would demote it, unless experience itself was corrected downward.
// The salary band is re-derived for the kept designation so the pair stays valid.
func (s *Synthesizer) enforceMonotonic(candidate, previous *domain.Employee, years float64) {
	if previous.Designation == "" {
		return
	}
	correctedDown := years < previous.ExperienceYears-rules.FreshnessTolerance
	if correctedDown {
		return
	}
	if candidate.Designation.Rank() < previous.Designation.Rank() {
		candidate.Designation = previous.Designation
		candidate.SalaryBand = s.thresholds.BandFor(previous.Designation, years)
	}
}

// diff builds the cell updates that turn previous into next.
func diff(previous, next *domain.Employee) storage.FieldUpdates {
	var u storage.FieldUpdates
	if previous.ExperienceYears != next.ExperienceYears {
		u.ExperienceYears = &next.ExperienceYears
	}
	if previous.Department != next.Department {
		u.Department = &next.Department
	}
	if previous.Designation != next.Designation {
		u.Designation = &next.Designation
	}
	if previous.SalaryBand != next.SalaryBand {
		u.SalaryBand = &next.SalaryBand
	}
	if previous.IsProcessed != next.IsProcessed {
		u.IsProcessed = &next.IsProcessed
	}
	if previous.AIDecisionReason != next.AIDecisionReason {
		u.AIDecisionReason = &next.AIDecisionReason
	}
	if previous.ConfidenceScore != next.ConfidenceScore {
		u.ConfidenceScore = &next.ConfidenceScore
	}
	u.LastProcessedOn = next.LastProcessedOn
	u.ProcessingVersion = &next.ProcessingVersion
	if previous.RuleApplied != next.RuleApplied {
		u.RuleApplied = &next.RuleApplied
	}
	return u
}

func tierDeviation(a, b domain.Designation) int {
	d := a.Rank() - b.Rank()
	if d < 0 {
		return -d
	}
	return d
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
