// Package decision defines the pluggable classification backend the pipeline
// consults for each record, plus the provider implementations.
package decision

import (
	"context"
	"errors"

	"github.com/hrops/registry/internal/core/domain"
)

// ErrUnavailable is returned when the decision provider cannot be reached or
// did not produce usable output within its timeout.
var ErrUnavailable = errors.New("decision provider unavailable")

// Decision is one classification answer with provenance.
type Decision struct {
	Department  domain.Department  `json:"department"`
	Designation domain.Designation `json:"designation"`
	SalaryBand  domain.SalaryBand  `json:"salary_band"`
	Reason      string             `json:"reason"`
	Confidence  float64            `json:"confidence"`
}

// Context is the record context sent to the provider. Existing classification
// fields are included so the provider can confirm instead of re-deriving.
// Baseline fields are only set on a re-ask after an implausible first answer.
type Context struct {
	Name            string             `json:"name"`
	Role            string             `json:"role"`
	Status          domain.Status      `json:"status"`
	ExperienceYears float64            `json:"experience_years"`
	Department      domain.Department  `json:"department,omitempty"`
	Designation     domain.Designation `json:"designation,omitempty"`
	SalaryBand      domain.SalaryBand  `json:"salary_band,omitempty"`

	BaselineDesignation domain.Designation `json:"-"`
	BaselineSalaryBand  domain.SalaryBand  `json:"-"`
}

// Classifier is the single-method capability the synthesizer consumes. No
// ordering is assumed between concurrent calls.
type Classifier interface {
	Classify(ctx context.Context, rec Context) (*Decision, error)
}
