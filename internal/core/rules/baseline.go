package rules

import (
	"strings"

	"github.com/hrops/registry/internal/core/domain"
)

// DesignationThresholds holds the experience boundaries (in years) for each
// seniority tier.
type DesignationThresholds struct {
	InternMaxYears float64 `yaml:"intern_max_years"`
	JuniorMaxYears float64 `yaml:"junior_max_years"`
	SeniorMaxYears float64 `yaml:"senior_max_years"`
	LeadMinYears   float64 `yaml:"lead_min_years"`
}

// SalaryBandThresholds holds the experience boundaries (in years) for the
// compensation bands.
type SalaryBandThresholds struct {
	L1MaxYears float64 `yaml:"l1_max_years"`
	L2MaxYears float64 `yaml:"l2_max_years"`
	L3MinYears float64 `yaml:"l3_min_years"`
}

// Thresholds bundles the deterministic classification rules. Values are
// loaded from configuration and treated as constants for a run.
type Thresholds struct {
	Designation DesignationThresholds `yaml:"designation"`
	SalaryBand  SalaryBandThresholds  `yaml:"salary_band"`
}

// DefaultThresholds returns the standard tier table:
// Intern <2, Junior 2-4, Senior 5-7, Lead >=8.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Designation: DesignationThresholds{
			InternMaxYears: 2,
			JuniorMaxYears: 4,
			SeniorMaxYears: 7,
			LeadMinYears:   8,
		},
		SalaryBand: SalaryBandThresholds{
			L1MaxYears: 3,
			L2MaxYears: 6,
			L3MinYears: 7,
		},
	}
}

// DesignationFor maps non-negative experience to exactly one tier.
func (t Thresholds) DesignationFor(years float64) domain.Designation {
	switch {
	case years < t.Designation.InternMaxYears:
		return domain.DesignationIntern
	case years < t.Designation.JuniorMaxYears+1:
		return domain.DesignationJunior
	case years < t.Designation.LeadMinYears:
		return domain.DesignationSenior
	default:
		return domain.DesignationLead
	}
}

// BandFor returns the salary band consistent with a designation at the given
// experience. Junior splits at L1MaxYears, Senior at L3MinYears.
func (t Thresholds) BandFor(d domain.Designation, years float64) domain.SalaryBand {
	switch d {
	case domain.DesignationIntern:
		return domain.BandL1
	case domain.DesignationJunior:
		if years < t.SalaryBand.L1MaxYears {
			return domain.BandL1
		}
		return domain.BandL2
	case domain.DesignationSenior:
		if years < t.SalaryBand.L3MinYears {
			return domain.BandL2
		}
		return domain.BandL3
	case domain.DesignationLead:
		return domain.BandL3
	default:
		return ""
	}
}

// Baseline returns the deterministic (designation, salary band) pair for the
// given experience. Total over years >= 0; there is no error path.
func (t Thresholds) Baseline(years float64) (domain.Designation, domain.SalaryBand) {
	d := t.DesignationFor(years)
	return d, t.BandFor(d, years)
}

// departmentKeywords maps role substrings to departments for the rule-based
// fallback. First match wins; order is from most to least specific.
var departmentKeywords = []struct {
	keyword    string
	department domain.Department
}{
	{"machine learning", domain.DepartmentAI},
	{"data scien", domain.DepartmentAI},
	{"ml ", domain.DepartmentAI},
	{"ai ", domain.DepartmentAI},
	{"recruit", domain.DepartmentHR},
	{"people", domain.DepartmentHR},
	{"hr ", domain.DepartmentHR},
	{"account", domain.DepartmentFinance},
	{"financ", domain.DepartmentFinance},
	{"payroll", domain.DepartmentFinance},
	{"frontend", domain.DepartmentWeb},
	{"backend", domain.DepartmentWeb},
	{"fullstack", domain.DepartmentWeb},
	{"full stack", domain.DepartmentWeb},
	{"web", domain.DepartmentWeb},
	{"developer", domain.DepartmentWeb},
	{"engineer", domain.DepartmentWeb},
}

// DepartmentForRole infers a department from a free-text role. An existing
// assignment always wins; with no signal at all it falls back to Operations so
// the baseline stays total.
func DepartmentForRole(role string, existing domain.Department) domain.Department {
	if existing != "" {
		return existing
	}
	normalized := strings.ToLower(role) + " "
	for _, k := range departmentKeywords {
		if strings.Contains(normalized, k.keyword) {
			return k.department
		}
	}
	return domain.DepartmentOperations
}
