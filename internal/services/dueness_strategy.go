// Package services turns recurring income sources into actual income
// transactions.
//
// Dueness checking uses one strategy per frequency so each recurrence rule
// stays small and testable on its own.
package services

import (
	"fmt"
	"time"

	"bilancio/internal/core"
)

// DuenessChecker decides whether a recurring income source should produce a
// transaction now, given when it last did.
type DuenessChecker interface {
	IsDue(lastRun, now time.Time) bool
}

// DailyChecker fires once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastRun, now time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Format(core.DateLayout) != now.Format(core.DateLayout)
}

// WeeklyChecker fires when 7 or more days have passed since the last run.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastRun, now time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return now.Sub(lastRun).Hours()/24 >= 7
}

// MonthlyChecker fires once per calendar month.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastRun, now time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Year() != now.Year() || lastRun.Month() != now.Month()
}

// YearlyChecker fires once per calendar year.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastRun, now time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Year() != now.Year()
}

var duenessStrategies = map[string]DuenessChecker{
	core.FrequencyDaily:   DailyChecker{},
	core.FrequencyWeekly:  WeeklyChecker{},
	core.FrequencyMonthly: MonthlyChecker{},
	core.FrequencyYearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency. An empty frequency
// defaults to monthly, the common case for salaries.
func GetDuenessChecker(frequency string) (DuenessChecker, error) {
	if frequency == "" {
		frequency = core.FrequencyMonthly
	}
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}
