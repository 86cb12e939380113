// Package calendar converts Gregorian dates into the Ethiopian calendar
// representation printed on national ID cards.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	monthDays       = 30
	regularMonths   = 12
	daysInRegular   = monthDays * regularMonths
	newYearMonth    = time.September
	newYearDay      = 11
	newYearLeapDay  = 12
	yearOffsetAfter = 7
	yearOffsetUntil = 8
)

// IsLeap reports whether year is a leap year under the 4/100/400 rule.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// ParseGregorian parses a YYYY/MM/DD string into a calendar date.
// Segment counts other than three, non-numeric segments and dates that do
// not exist (2023/02/30) are rejected.
func ParseGregorian(s string) (time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("expected YYYY/MM/DD, got %q", s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date segment %q: %w", p, err)
		}
		nums[i] = n
	}

	year, month, day := nums[0], nums[1], nums[2]
	if year < 1 || year > 9999 {
		return time.Time{}, fmt.Errorf("year out of range: %d", year)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("date does not exist: %s", s)
	}
	return t, nil
}

// NewYear returns the Gregorian date on which the Ethiopian year starting in
// gYear begins.
func NewYear(gYear int) time.Time {
	day := newYearDay
	if IsLeap(gYear) {
		day = newYearLeapDay
	}
	return time.Date(gYear, newYearMonth, day, 0, 0, 0, 0, time.UTC)
}

// ToEthiopian converts a Gregorian date to Ethiopian year, month and day.
// Months 1-12 have 30 days; the remainder of the year falls in month 13.
func ToEthiopian(g time.Time) (year, month, day int) {
	g = time.Date(g.Year(), g.Month(), g.Day(), 0, 0, 0, 0, time.UTC)
	ny := NewYear(g.Year())

	var dayOfYear int
	if g.Before(ny) {
		year = g.Year() - yearOffsetUntil
		total := 365
		if IsLeap(year) {
			total = 366
		}
		dayOfYear = total - daysBetween(g, ny)
	} else {
		year = g.Year() - yearOffsetAfter
		dayOfYear = daysBetween(ny, g) + 1
	}

	if dayOfYear <= daysInRegular {
		month = (dayOfYear-1)/monthDays + 1
		day = (dayOfYear-1)%monthDays + 1
	} else {
		month = regularMonths + 1
		day = dayOfYear - daysInRegular
	}
	return year, month, day
}

// GregorianToEthiopian converts a YYYY/MM/DD Gregorian string to the
// zero-padded YYYY/MM/DD Ethiopian form. ok is false for malformed input.
func GregorianToEthiopian(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	g, err := ParseGregorian(s)
	if err != nil {
		return "", false
	}
	y, m, d := ToEthiopian(g)
	return fmt.Sprintf("%04d/%02d/%02d", y, m, d), true
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
