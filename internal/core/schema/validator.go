// Package schema enforces the closed vocabularies and field-level constraints
// a record must satisfy before it may be committed.
package schema

import (
	"fmt"

	"github.com/hrops/registry/internal/core/domain"
)

// ValidationError pins a violation to a single field with a human-readable
// reason, so callers can decide between baseline substitution and aborting
// the record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Validate accepts or rejects a record. It never mutates.
func Validate(emp *domain.Employee) error {
	if emp.ExperienceYears < 0 {
		return &ValidationError{Field: "experience_years", Reason: "must be non-negative"}
	}
	if emp.ConfidenceScore < 0 || emp.ConfidenceScore > 1 {
		return &ValidationError{Field: "confidence_score", Reason: "must be within [0, 1]"}
	}
	if emp.Status != "" && !contains(domain.Statuses, emp.Status) {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not in the allowed set", emp.Status)}
	}
	if emp.Department != "" && !contains(domain.Departments, emp.Department) {
		return &ValidationError{Field: "department", Reason: fmt.Sprintf("%q is not in the allowed set", emp.Department)}
	}
	if emp.Designation != "" && !contains(domain.Designations, emp.Designation) {
		return &ValidationError{Field: "designation", Reason: fmt.Sprintf("%q is not in the allowed set", emp.Designation)}
	}
	if emp.SalaryBand != "" && !contains(domain.SalaryBands, emp.SalaryBand) {
		return &ValidationError{Field: "salary_band", Reason: fmt.Sprintf("%q is not in the allowed set", emp.SalaryBand)}
	}
	if emp.Designation != "" && emp.SalaryBand != "" && !domain.ValidPair(emp.Designation, emp.SalaryBand) {
		return &ValidationError{
			Field:  "salary_band",
			Reason: fmt.Sprintf("band %s is not allowed for designation %s", emp.SalaryBand, emp.Designation),
		}
	}
	return nil
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
