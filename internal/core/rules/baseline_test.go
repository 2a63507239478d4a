package rules

import (
	"testing"

	"github.com/hrops/registry/internal/core/domain"
)

func TestBaseline(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		years    float64
		wantDsg  domain.Designation
		wantBand domain.SalaryBand
	}{
		{0, domain.DesignationIntern, domain.BandL1},
		{1.9, domain.DesignationIntern, domain.BandL1},
		{2, domain.DesignationJunior, domain.BandL1},
		{2.9, domain.DesignationJunior, domain.BandL1},
		{3, domain.DesignationJunior, domain.BandL2},
		{4.5, domain.DesignationJunior, domain.BandL2},
		{5, domain.DesignationSenior, domain.BandL2},
		{6, domain.DesignationSenior, domain.BandL2},
		{7, domain.DesignationSenior, domain.BandL3},
		{7.9, domain.DesignationSenior, domain.BandL3},
		{8, domain.DesignationLead, domain.BandL3},
		{25, domain.DesignationLead, domain.BandL3},
	}

	for _, tt := range tests {
		dsg, band := th.Baseline(tt.years)
		if dsg != tt.wantDsg || band != tt.wantBand {
			t.Errorf("Baseline(%v) = (%s, %s), want (%s, %s)",
				tt.years, dsg, band, tt.wantDsg, tt.wantBand)
		}
		if !domain.ValidPair(dsg, band) {
			t.Errorf("Baseline(%v) produced invalid pair (%s, %s)", tt.years, dsg, band)
		}
	}
}

func TestBandFor_KeptDesignation(t *testing.T) {
	th := DefaultThresholds()

	// A designation above the experience-implied tier must still map to an
	// allowed band for that designation.
	if got := th.BandFor(domain.DesignationSenior, 3); got != domain.BandL2 {
		t.Errorf("BandFor(Senior, 3) = %s, want L2", got)
	}
	if got := th.BandFor(domain.DesignationLead, 5); got != domain.BandL3 {
		t.Errorf("BandFor(Lead, 5) = %s, want L3", got)
	}
}

func TestDepartmentForRole(t *testing.T) {
	tests := []struct {
		role     string
		existing domain.Department
		want     domain.Department
	}{
		{"Backend Developer", "", domain.DepartmentWeb},
		{"Machine Learning Engineer", "", domain.DepartmentAI},
		{"HR Manager", "", domain.DepartmentHR},
		{"Senior Accountant", "", domain.DepartmentFinance},
		{"Office Coordinator", "", domain.DepartmentOperations},
		{"Backend Developer", domain.DepartmentFinance, domain.DepartmentFinance},
	}

	for _, tt := range tests {
		if got := DepartmentForRole(tt.role, tt.existing); got != tt.want {
			t.Errorf("DepartmentForRole(%q, %q) = %s, want %s", tt.role, tt.existing, got, tt.want)
		}
	}
}
