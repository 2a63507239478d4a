package decision

import (
	"context"

	"github.com/hrops/registry/internal/core/rules"
)

// Baseline is a deterministic offline classifier derived purely from the
// threshold rules. It backs tests and runs without an API key.
type Baseline struct {
	thresholds rules.Thresholds
}

func NewBaseline(thresholds rules.Thresholds) *Baseline {
	return &Baseline{thresholds: thresholds}
}

func (b *Baseline) Classify(ctx context.Context, rec Context) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	designation, band := b.thresholds.Baseline(rec.ExperienceYears)
	return &Decision{
		Department:  rules.DepartmentForRole(rec.Role, rec.Department),
		Designation: designation,
		SalaryBand:  band,
		Reason:      "rule-based classification from experience thresholds",
		Confidence:  0.9,
	}, nil
}
