package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// excelEpoch is day zero of the 1900 date system (accounting for the
// spreadsheet leap-year bug, serial 1 is 1899-12-31).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate normalizes the date encodings the exports mix freely: ISO
// "2006-01-02", compact "20060102", and raw spreadsheet serial numbers.
// An empty cell yields the zero time; anything else unparseable is an
// error, because every downstream matcher keys on the canonical date.
func ParseDate(cell string) (time.Time, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, nil
	}

	if strings.Contains(s, "-") {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
		}
		return t, nil
	}

	if len(s) == 8 && isDigits(s) {
		t, err := time.Parse("20060102", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
		}
		return t, nil
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: not ISO, compact or serial", s)
	}
	return FromSerial(serial), nil
}

// FromSerial converts a spreadsheet serial day number to a UTC date.
func FromSerial(serial float64) time.Time {
	return excelEpoch.AddDate(0, 0, int(serial))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
