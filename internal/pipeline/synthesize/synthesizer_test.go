package synthesize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/hrops/registry/internal/core/domain"
	"github.com/hrops/registry/internal/core/rules"
	"github.com/hrops/registry/internal/infra/decision"
	"github.com/hrops/registry/internal/pipeline/plan"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type stubClassifier struct {
	mu       sync.Mutex
	answers  []*decision.Decision
	err      error
	calls    int
	contexts []decision.Context
}

func (s *stubClassifier) Classify(ctx context.Context, rec decision.Context) (*decision.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.contexts = append(s.contexts, rec)
	if s.err != nil {
		return nil, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.answers) {
		idx = len(s.answers) - 1
	}
	answer := *s.answers[idx]
	return &answer, nil
}

func newSynth(classifier decision.Classifier) *Synthesizer {
	s := New(classifier, rules.DefaultThresholds())
	s.now = func() time.Time { return now }
	return s
}

func unprocessed(id int64, yearsAgo float64) plan.Change {
	join := now.Add(-time.Duration(yearsAgo * rules.DaysPerYear * 24 * float64(time.Hour)))
	return plan.Change{
		Employee: domain.Employee{
			ID:       id,
			Name:     "Test Employee",
			JoinDate: join,
			Role:     "Backend Developer",
			Status:   domain.StatusActive,
		},
		Reasons: []plan.Reason{plan.ReasonMissingFields},
	}
}

func TestProcess_BaselineFallback(t *testing.T) {
	stub := &stubClassifier{err: fmt.Errorf("%w: connection refused", decision.ErrUnavailable)}
	s := newSynth(stub)

	res := s.Process(context.Background(), unprocessed(1, 6))
	if res.State != domain.StateValidated {
		t.Fatalf("state = %s, want %s (err: %v)", res.State, domain.StateValidated, res.Err)
	}

	emp := res.Employee
	if emp.Designation != domain.DesignationSenior || emp.SalaryBand != domain.BandL2 {
		t.Errorf("classified as %s/%s, want Senior/L2", emp.Designation, emp.SalaryBand)
	}
	if emp.Department != domain.DepartmentWeb {
		t.Errorf("department = %s, want Web (inferred from role)", emp.Department)
	}
	if emp.ConfidenceScore != 0.3 {
		t.Errorf("confidence = %v, want 0.3 on fallback", emp.ConfidenceScore)
	}
	if emp.RuleApplied != "experience_threshold" {
		t.Errorf("rule_applied = %q, want experience_threshold", emp.RuleApplied)
	}
	if !emp.IsProcessed {
		t.Error("record should be marked processed")
	}
	if emp.ProcessingVersion != 1 {
		t.Errorf("processing_version = %d, want 1", emp.ProcessingVersion)
	}

	if emp.LastProcessedOn == nil {
		t.Fatal("last_processed_on not stamped")
	}
	recomputed, err := rules.Experience(emp.JoinDate, *emp.LastProcessedOn)
	if err != nil {
		t.Fatalf("Experience failed: %v", err)
	}
	if math.Abs(emp.ExperienceYears-recomputed) > rules.FreshnessTolerance {
		t.Errorf("experience %v drifts from last_processed_on recompute %v", emp.ExperienceYears, recomputed)
	}
}

func TestProcess_InvalidAnswerSubstituted(t *testing.T) {
	stub := &stubClassifier{answers: []*decision.Decision{
		{Department: "Web", Designation: "Intern", SalaryBand: "L3", Reason: "confused", Confidence: 0.8},
	}}
	s := newSynth(stub)

	res := s.Process(context.Background(), unprocessed(1, 1))
	if res.State != domain.StateValidated {
		t.Fatalf("state = %s, want %s (err: %v)", res.State, domain.StateValidated, res.Err)
	}
	if res.Employee.Designation != domain.DesignationIntern || res.Employee.SalaryBand != domain.BandL1 {
		t.Errorf("classified as %s/%s, want baseline Intern/L1",
			res.Employee.Designation, res.Employee.SalaryBand)
	}
	if res.Employee.ConfidenceScore != 0.3 {
		t.Errorf("confidence = %v, want 0.3 after substitution", res.Employee.ConfidenceScore)
	}
	if res.Employee.RuleApplied == "" {
		t.Error("rule_applied should record the substitution")
	}
}

func TestProcess_BandRealignedToThresholds(t *testing.T) {
	// The provider picks a pair-valid but threshold-inconsistent band. The
	// committed band must be the one the threshold table derives, or the next
	// scan would queue the row again forever.
	stub := &stubClassifier{answers: []*decision.Decision{
		{Department: "Web", Designation: "Senior", SalaryBand: "L3", Reason: "generous", Confidence: 0.9},
	}}
	s := newSynth(stub)

	res := s.Process(context.Background(), unprocessed(1, 6))
	if res.State != domain.StateValidated {
		t.Fatalf("state = %s, want %s (err: %v)", res.State, domain.StateValidated, res.Err)
	}
	if stub.calls != 1 {
		t.Errorf("classifier calls = %d, want 1 (designation matches baseline)", stub.calls)
	}
	if res.Employee.Designation != domain.DesignationSenior {
		t.Errorf("designation = %s, want Senior", res.Employee.Designation)
	}
	if res.Employee.SalaryBand != domain.BandL2 {
		t.Errorf("salary band = %s, want L2 from the threshold table", res.Employee.SalaryBand)
	}
	if res.Employee.ConfidenceScore != 0.9 {
		t.Errorf("confidence = %v, want 0.9 (answer accepted, not substituted)", res.Employee.ConfidenceScore)
	}
	if res.Employee.RuleApplied != "" {
		t.Errorf("rule_applied = %q, want empty for an accepted answer", res.Employee.RuleApplied)
	}
}

func TestProcess_EmptyAnswerSubstituted(t *testing.T) {
	stub := &stubClassifier{answers: []*decision.Decision{
		{Department: "Web", Designation: "Intern", SalaryBand: "", Reason: "forgot the band", Confidence: 0.8},
	}}
	s := newSynth(stub)

	res := s.Process(context.Background(), unprocessed(1, 1))
	if res.State != domain.StateValidated {
		t.Fatalf("state = %s, want %s (err: %v)", res.State, domain.StateValidated, res.Err)
	}
	if !res.Employee.ClassificationComplete() {
		t.Error("committed record must have all classification fields")
	}
	if res.Employee.ConfidenceScore != 0.3 {
		t.Errorf("confidence = %v, want 0.3 after substitution", res.Employee.ConfidenceScore)
	}
}

func TestProcess_DeviationTriggersSingleReask(t *testing.T) {
	stub := &stubClassifier{answers: []*decision.Decision{
		{Department: "AI", Designation: "Lead", SalaryBand: "L3", Reason: "insists", Confidence: 0.95},
	}}
	s := newSynth(stub)

	// One year of experience: baseline says Intern, provider insists on Lead.
	res := s.Process(context.Background(), unprocessed(1, 1))
	if res.State != domain.StateValidated {
		t.Fatalf("state = %s, want %s (err: %v)", res.State, domain.StateValidated, res.Err)
	}
	if stub.calls != 2 {
		t.Fatalf("classifier calls = %d, want 2 (one re-ask)", stub.calls)
	}
	if stub.contexts[0].BaselineDesignation != "" {
		t.Error("first ask should not carry the baseline")
	}
	if stub.contexts[1].BaselineDesignation != domain.DesignationIntern {
		t.Errorf("re-ask baseline = %s, want Intern", stub.contexts[1].BaselineDesignation)
	}

	if res.Employee.Designation != domain.DesignationLead {
		t.Errorf("designation = %s, want Lead (persistent answer accepted)", res.Employee.Designation)
	}
	if res.Employee.ConfidenceScore != 0.5 {
		t.Errorf("confidence = %v, want capped at 0.5", res.Employee.ConfidenceScore)
	}
}

func TestProcess_ReaskConverges(t *testing.T) {
	stub := &stubClassifier{answers: []*decision.Decision{
		{Department: "Web", Designation: "Lead", SalaryBand: "L3", Reason: "first guess", Confidence: 0.95},
		{Department: "Web", Designation: "Intern", SalaryBand: "L1", Reason: "corrected", Confidence: 0.9},
	}}
	s := newSynth(stub)

	res := s.Process(context.Background(), unprocessed(1, 1))
	if res.State != domain.StateValidated {
		t.Fatalf("state = %s, want %s (err: %v)", res.State, domain.StateValidated, res.Err)
	}
	if stub.calls != 2 {
		t.Fatalf("classifier calls = %d, want 2", stub.calls)
	}
	if res.Employee.Designation != domain.DesignationIntern {
		t.Errorf("designation = %s, want Intern", res.Employee.Designation)
	}
	if res.Employee.ConfidenceScore != 0.9 {
		t.Errorf("confidence = %v, want 0.9 (no cap after convergence)", res.Employee.ConfidenceScore)
	}
}

func TestProcess_NoDemotionWithoutCorrection(t *testing.T) {
	stub := &stubClassifier{answers: []*decision.Decision{
		{Department: "Web", Designation: "Junior", SalaryBand: "L1", Reason: "lowball", Confidence: 0.8},
	}}
	s := newSynth(stub)

	change := unprocessed(1, 6)
	years, err := rules.Experience(change.Employee.JoinDate, now)
	if err != nil {
		t.Fatalf("Experience failed: %v", err)
	}
	change.Employee.ExperienceYears = years
	change.Employee.Department = domain.DepartmentWeb
	change.Employee.Designation = domain.DesignationSenior
	change.Employee.SalaryBand = domain.BandL2

	res := s.Process(context.Background(), change)
	if res.State != domain.StateValidated {
		t.Fatalf("state = %s, want %s (err: %v)", res.State, domain.StateValidated, res.Err)
	}
	if res.Employee.Designation != domain.DesignationSenior {
		t.Errorf("designation = %s, demoted without an experience correction", res.Employee.Designation)
	}
	if res.Employee.SalaryBand != domain.BandL2 {
		t.Errorf("salary band = %s, want L2 re-derived for kept designation", res.Employee.SalaryBand)
	}
}

func TestProcess_DemotionAllowedAfterCorrection(t *testing.T) {
	stub := &stubClassifier{answers: []*decision.Decision{
		{Department: "Web", Designation: "Intern", SalaryBand: "L1", Reason: "date fixed", Confidence: 0.85},
	}}
	s := newSynth(stub)

	// Stored experience was wildly high; the recomputed value corrects it down.
	change := unprocessed(1, 1)
	change.Employee.ExperienceYears = 12
	change.Employee.Department = domain.DepartmentWeb
	change.Employee.Designation = domain.DesignationLead
	change.Employee.SalaryBand = domain.BandL3

	res := s.Process(context.Background(), change)
	if res.State != domain.StateValidated {
		t.Fatalf("state = %s, want %s (err: %v)", res.State, domain.StateValidated, res.Err)
	}
	if res.Employee.Designation != domain.DesignationIntern {
		t.Errorf("designation = %s, want Intern after downward correction", res.Employee.Designation)
	}
}

func TestProcess_InvalidJoinDate(t *testing.T) {
	s := newSynth(&stubClassifier{})
	change := unprocessed(1, 1)
	change.Employee.JoinDate = time.Time{}

	res := s.Process(context.Background(), change)
	if res.State != domain.StateUnresolvable {
		t.Fatalf("state = %s, want %s", res.State, domain.StateUnresolvable)
	}
	var dateErr *rules.InvalidDateError
	if !errors.As(res.Err, &dateErr) {
		t.Errorf("err = %v, want InvalidDateError", res.Err)
	}
}

func TestRun_PreservesOrder(t *testing.T) {
	stub := &stubClassifier{err: fmt.Errorf("%w: down", decision.ErrUnavailable)}
	s := newSynth(stub)

	changes := []plan.Change{unprocessed(5, 1), unprocessed(2, 6), unprocessed(9, 10)}
	results := s.Run(context.Background(), changes, 2)
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, want := range []int64{5, 2, 9} {
		if results[i].ID != want {
			t.Errorf("results[%d].ID = %d, want %d", i, results[i].ID, want)
		}
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newSynth(&stubClassifier{})
	results := s.Run(ctx, []plan.Change{unprocessed(1, 1), unprocessed(2, 2)}, 1)
	for _, r := range results {
		if r.State != domain.StateUnscanned {
			t.Errorf("id %d state = %s, want %s", r.ID, r.State, domain.StateUnscanned)
		}
		if r.Err == nil {
			t.Errorf("id %d missing cancellation error", r.ID)
		}
	}
}
