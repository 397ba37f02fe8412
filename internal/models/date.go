package models

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidDate is returned when a performed-on value is not DD-MM-YYYY.
var ErrInvalidDate = errors.New("invalid DD-MM-YYYY date")

// PerformedDate is a calendar date in the diary's DD-MM-YYYY wire format.
// It intentionally carries no timezone; entries record a farm day, not an
// instant.
type PerformedDate struct {
	Day   int
	Month int
	Year  int
}

// ParsePerformedDate parses a DD-MM-YYYY string positionally. The format is
// fixed by the diary server, so each segment is converted directly rather
// than going through a locale-aware parser (which would happily read
// 05-06-2024 as June 5th or May 6th depending on locale).
func ParsePerformedDate(s string) (PerformedDate, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return PerformedDate{}, ErrInvalidDate
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return PerformedDate{}, ErrInvalidDate
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return PerformedDate{}, ErrInvalidDate
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return PerformedDate{}, ErrInvalidDate
	}
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1 {
		return PerformedDate{}, ErrInvalidDate
	}
	return PerformedDate{Day: day, Month: month, Year: year}, nil
}

// sortKey collapses the date into one comparable integer. Unparseable dates
// map to zero so they sort after every valid date in descending order.
func sortKey(s string) int {
	d, err := ParsePerformedDate(s)
	if err != nil {
		return 0
	}
	return d.Year*10000 + d.Month*100 + d.Day
}

// SortEntriesByDateDesc orders entries newest-first by their performed-on
// date. Entries with equal dates keep their relative input order.
func SortEntriesByDateDesc(entries []TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return sortKey(entries[i].PerformedOn) > sortKey(entries[j].PerformedOn)
	})
}
