package services

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestDailyChecker(t *testing.T) {
	checker := DailyChecker{}
	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"never run", time.Time{}, date(2026, time.March, 10), true},
		{"same day", date(2026, time.March, 10), date(2026, time.March, 10), false},
		{"next day", date(2026, time.March, 10), date(2026, time.March, 11), true},
		{"same day different hour", date(2026, time.March, 10), time.Date(2026, time.March, 10, 23, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker(t *testing.T) {
	checker := WeeklyChecker{}
	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"never run", time.Time{}, date(2026, time.March, 10), true},
		{"six days later", date(2026, time.March, 3), date(2026, time.March, 9), false},
		{"exactly seven days", date(2026, time.March, 3), date(2026, time.March, 10), true},
		{"two weeks later", date(2026, time.March, 3), date(2026, time.March, 17), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker(t *testing.T) {
	checker := MonthlyChecker{}
	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"never run", time.Time{}, date(2026, time.March, 10), true},
		{"same month", date(2026, time.March, 1), date(2026, time.March, 31), false},
		{"next month", date(2026, time.March, 31), date(2026, time.April, 1), true},
		{"same month next year", date(2025, time.March, 10), date(2026, time.March, 10), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker(t *testing.T) {
	checker := YearlyChecker{}
	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"never run", time.Time{}, date(2026, time.January, 2), true},
		{"same year", date(2026, time.January, 2), date(2026, time.December, 30), false},
		{"next year", date(2026, time.December, 30), date(2027, time.January, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		frequency string
		wantType  DuenessChecker
		wantErr   bool
	}{
		{"daily", DailyChecker{}, false},
		{"weekly", WeeklyChecker{}, false},
		{"monthly", MonthlyChecker{}, false},
		{"yearly", YearlyChecker{}, false},
		{"", MonthlyChecker{}, false},
		{"fortnightly", nil, true},
	}
	for _, tt := range tests {
		t.Run("frequency "+tt.frequency, func(t *testing.T) {
			got, err := GetDuenessChecker(tt.frequency)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetDuenessChecker(%q) error = %v, wantErr %v", tt.frequency, err, tt.wantErr)
			}
			if got != tt.wantType {
				t.Errorf("GetDuenessChecker(%q) = %T, want %T", tt.frequency, got, tt.wantType)
			}
		})
	}
}
