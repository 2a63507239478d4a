package rules

import (
	"fmt"
	"math"
	"time"
)

// DaysPerYear converts elapsed days to years, accounting for leap years.
const DaysPerYear = 365.25

// FreshnessTolerance is the maximum drift (in years) between a stored
// experience value and a freshly recomputed one before the stored value is
// considered stale.
const FreshnessTolerance = 1e-4

// InvalidDateError is returned when a join date cannot produce a non-negative
// experience value.
type InvalidDateError struct {
	JoinDate time.Time
	AsOf     time.Time
	Reason   string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid join date %s: %s", e.JoinDate.Format("2006-01-02"), e.Reason)
}

// Experience computes elapsed years between joinDate and asOf. It is pure:
// asOf is always explicit so callers control the clock.
func Experience(joinDate, asOf time.Time) (float64, error) {
	if joinDate.IsZero() {
		return 0, &InvalidDateError{JoinDate: joinDate, AsOf: asOf, Reason: "join date is not set"}
	}
	if joinDate.After(asOf) {
		return 0, &InvalidDateError{JoinDate: joinDate, AsOf: asOf, Reason: "join date is in the future"}
	}
	days := asOf.Sub(joinDate).Hours() / 24
	return days / DaysPerYear, nil
}

// Stale reports whether a stored experience value has drifted from the
// recomputed one beyond the freshness tolerance.
func Stale(stored, recomputed float64) bool {
	return math.Abs(stored-recomputed) > FreshnessTolerance
}
