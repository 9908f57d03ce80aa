// Package persiandate implements the shared date-parsing rule used by
// every date-accepting conversation step: inputs may be Gregorian
// (YYYY-MM-DD) or Persian (YYYY/MM/DD), possibly typed with
// Persian-script digits, and are always canonicalized to a Gregorian
// date with a cached Persian rendering.
package persiandate

import (
	"errors"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

type Calendar int

const (
	Gregorian Calendar = iota
	Persian
)

// Years in this range with plausible month/day values are read as
// Persian dates. The range is a heuristic: a year like 1400 could in
// principle be Gregorian, so callers should echo the interpretation
// back to the user.
const (
	persianYearMin = 1200
	persianYearMax = 1500
)

var ErrInvalidDate = errors.New("invalid date")

// Parse applies the shared parsing rule and returns the canonical
// Gregorian date (UTC midnight) together with the calendar the input
// was interpreted in.
func Parse(input string) (time.Time, Calendar, error) {
	year, month, day, err := splitComponents(input)
	if err != nil {
		return time.Time{}, Gregorian, err
	}

	if isPlausiblePersian(year, month, day) {
		date, err := persianToGregorian(year, month, day)
		if err != nil {
			return time.Time{}, Persian, err
		}
		return date, Persian, nil
	}

	date, err := gregorianDate(year, month, day)
	if err != nil {
		return time.Time{}, Gregorian, err
	}
	return date, Gregorian, nil
}

// ToPersian renders a Gregorian date as the Persian YYYY/MM/DD string
// cached on birthday records.
func ToPersian(date time.Time) string {
	return ptime.New(atNoon(date)).Format("yyyy/MM/dd")
}

// MonthName returns the Persian month name for a Gregorian date.
func MonthName(date time.Time) string {
	return ptime.New(atNoon(date)).Month().String()
}

func splitComponents(input string) (year, month, day int, err error) {
	normalized := normalizeDigits(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, "-", "/")

	parts := strings.Split(normalized, "/")
	if len(parts) != 3 {
		return 0, 0, 0, ErrInvalidDate
	}
	numbers := make([]int, 3)
	for i, part := range parts {
		value, convErr := strconv.Atoi(strings.TrimSpace(part))
		if convErr != nil || value <= 0 {
			return 0, 0, 0, ErrInvalidDate
		}
		numbers[i] = value
	}
	return numbers[0], numbers[1], numbers[2], nil
}

func isPlausiblePersian(year, month, day int) bool {
	return year >= persianYearMin && year <= persianYearMax &&
		month >= 1 && month <= 12 &&
		day >= 1 && day <= 31
}

func persianToGregorian(year, month, day int) (time.Time, error) {
	pt := ptime.Date(year, ptime.Month(month), day, 12, 0, 0, 0, ptime.Iran())
	// ptime.Date normalizes overflow (e.g. Esfand 31), so an impossible
	// day-of-month only shows up as a component mismatch.
	if pt.Year() != year || int(pt.Month()) != month || pt.Day() != day {
		return time.Time{}, ErrInvalidDate
	}
	gt := pt.Time()
	return time.Date(gt.Year(), gt.Month(), gt.Day(), 0, 0, 0, 0, time.UTC), nil
}

func gregorianDate(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, ErrInvalidDate
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// normalizeDigits maps Persian and Arabic-Indic digits to ASCII.
func normalizeDigits(input string) string {
	var sb strings.Builder
	sb.Grow(len(input))
	for _, r := range input {
		switch {
		case r >= '۰' && r <= '۹':
			sb.WriteRune('0' + (r - '۰'))
		case r >= '٠' && r <= '٩':
			sb.WriteRune('0' + (r - '٠'))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func atNoon(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
}
