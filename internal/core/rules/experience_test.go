package rules

import (
	"errors"
	"math"
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestExperience(t *testing.T) {
	asOf := date(2026, 1, 1)

	tests := []struct {
		name     string
		joinDate time.Time
		want     float64
	}{
		{"same day", asOf, 0},
		{"one year", date(2025, 1, 1), 365.0 / DaysPerYear},
		{"four years with leap", date(2022, 1, 1), 1461.0 / DaysPerYear},
		{"decade", date(2016, 1, 1), 3653.0 / DaysPerYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Experience(tt.joinDate, asOf)
			if err != nil {
				t.Fatalf("Experience failed: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Experience = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExperience_InvalidDate(t *testing.T) {
	asOf := date(2026, 1, 1)

	tests := []struct {
		name     string
		joinDate time.Time
	}{
		{"zero date", time.Time{}},
		{"future date", date(2027, 6, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Experience(tt.joinDate, asOf)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var invalid *InvalidDateError
			if !errors.As(err, &invalid) {
				t.Errorf("expected InvalidDateError, got %T", err)
			}
		})
	}
}

func TestStale(t *testing.T) {
	if Stale(5.0, 5.0+FreshnessTolerance/2) {
		t.Error("drift within tolerance reported stale")
	}
	if !Stale(5.0, 5.001) {
		t.Error("drift beyond tolerance not reported stale")
	}
	if !Stale(5.001, 5.0) {
		t.Error("downward drift beyond tolerance not reported stale")
	}
}
