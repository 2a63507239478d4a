package domain

import "time"

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

type Department string

const (
	DepartmentWeb        Department = "Web"
	DepartmentAI         Department = "AI"
	DepartmentHR         Department = "HR"
	DepartmentFinance    Department = "Finance"
	DepartmentOperations Department = "Operations"
)

type Designation string

const (
	DesignationIntern Designation = "Intern"
	DesignationJunior Designation = "Junior"
	DesignationSenior Designation = "Senior"
	DesignationLead   Designation = "Lead"
)

type SalaryBand string

const (
	BandL1 SalaryBand = "L1"
	BandL2 SalaryBand = "L2"
	BandL3 SalaryBand = "L3"
)

// Closed vocabularies for the classification columns. The underlying table
// enforces the same sets via CHECK constraints.
var (
	Statuses     = []Status{StatusActive, StatusInactive}
	Departments  = []Department{DepartmentWeb, DepartmentAI, DepartmentHR, DepartmentFinance, DepartmentOperations}
	Designations = []Designation{DesignationIntern, DesignationJunior, DesignationSenior, DesignationLead}
	SalaryBands  = []SalaryBand{BandL1, BandL2, BandL3}
)

// Rank orders designations by seniority. Unknown or empty values rank -1.
func (d Designation) Rank() int {
	switch d {
	case DesignationIntern:
		return 0
	case DesignationJunior:
		return 1
	case DesignationSenior:
		return 2
	case DesignationLead:
		return 3
	default:
		return -1
	}
}

// validPairs is the set of (designation, salary band) combinations a committed
// record may carry. Junior spans L1/L2 and Senior spans L2/L3 depending on
// experience; the exact band for a given experience comes from the rules package.
var validPairs = map[Designation]map[SalaryBand]bool{
	DesignationIntern: {BandL1: true},
	DesignationJunior: {BandL1: true, BandL2: true},
	DesignationSenior: {BandL2: true, BandL3: true},
	DesignationLead:   {BandL3: true},
}

// ValidPair reports whether the designation/salary band combination is allowed.
func ValidPair(d Designation, b SalaryBand) bool {
	return validPairs[d][b]
}

// Employee represents one row of the registry table.
type Employee struct {
	ID                int64       `db:"id"`
	Name              string      `db:"name"`
	JoinDate          time.Time   `db:"join_date"`
	ExperienceYears   float64     `db:"experience_years"`
	Role              string      `db:"role"`
	Status            Status      `db:"status"`
	Department        Department  `db:"department"`
	Designation       Designation `db:"designation"`
	SalaryBand        SalaryBand  `db:"salary_band"`
	IsProcessed       bool        `db:"is_processed"`
	AIDecisionReason  string      `db:"ai_decision_reason"`
	ConfidenceScore   float64     `db:"confidence_score"`
	LastProcessedOn   *time.Time  `db:"last_processed_on"`
	ProcessingVersion int         `db:"processing_version"`
	RuleApplied       string      `db:"rule_applied"`
}

// ClassificationComplete reports whether all three classification fields hold values.
func (e *Employee) ClassificationComplete() bool {
	return e.Department != "" && e.Designation != "" && e.SalaryBand != ""
}
