// Package validation holds the date conversions and business rules applied to
// values scanned during receiving.
package validation

import (
	"fmt"
	"strconv"
	"time"
)

// Date layouts used on the handhelds and in storage
const (
	GregorianLayout = "01022006" // MMDDYYYY
	StorageLayout   = "20060102" // YYYYMMDD, sorts lexically
)

// DateResult is the outcome of a date conversion. Fallback is set when the
// input could not be read and Value was derived from the supplied "now".
type DateResult struct {
	Value    string
	Fallback bool
}

// ToJulian converts MMDDYYYY to YYYYDDD. Malformed input converts now instead
// and reports Fallback.
func ToJulian(mmddyyyy string, now time.Time) DateResult {
	t, err := ParseGregorian(mmddyyyy)
	if err != nil {
		return DateResult{Value: FormatJulian(now), Fallback: true}
	}
	return DateResult{Value: FormatJulian(t)}
}

// ToGregorian converts YYYYDDD to MMDDYYYY. Malformed input converts now
// instead and reports Fallback.
func ToGregorian(yyyyddd string, now time.Time) DateResult {
	t, err := ParseJulian(yyyyddd)
	if err != nil {
		return DateResult{Value: now.Format(GregorianLayout), Fallback: true}
	}
	return DateResult{Value: t.Format(GregorianLayout)}
}

// ParseGregorian strictly parses an 8 digit MMDDYYYY date
func ParseGregorian(s string) (time.Time, error) {
	if len(s) != 8 || !allDigits(s) {
		return time.Time{}, fmt.Errorf("date %q is not MMDDYYYY", s)
	}
	t, err := time.Parse(GregorianLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not a calendar date", s)
	}
	return t, nil
}

// ParseJulian strictly parses a 7 digit YYYYDDD date
func ParseJulian(s string) (time.Time, error) {
	if len(s) != 7 || !allDigits(s) {
		return time.Time{}, fmt.Errorf("julian date %q is not YYYYDDD", s)
	}
	year, _ := strconv.Atoi(s[:4])
	day, _ := strconv.Atoi(s[4:])
	if year < 1 || day < 1 || day > daysIn(year) {
		return time.Time{}, fmt.Errorf("julian date %q is out of range", s)
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1), nil
}

// FormatJulian renders t as YYYYDDD
func FormatJulian(t time.Time) string {
	return fmt.Sprintf("%04d%03d", t.Year(), t.YearDay())
}

// ParseStored parses a YYYYMMDD storage date
func ParseStored(s string) (time.Time, error) {
	if len(s) != 8 || !allDigits(s) {
		return time.Time{}, fmt.Errorf("stored date %q is not YYYYMMDD", s)
	}
	return time.Parse(StorageLayout, s)
}

// FormatStored renders t as YYYYMMDD
func FormatStored(t time.Time) string {
	return t.Format(StorageLayout)
}

func daysIn(year int) int {
	if time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366 {
		return 366
	}
	return 365
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
