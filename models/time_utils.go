package models

import (
	"fmt"
	"strings"
	"time"
)

// dayFirstLayouts are tried in order. Day comes before month in every
// ambiguous layout; ISO dates are unambiguous and accepted as well.
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"2006-01-02",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
}

// ParseDayFirst parses a date written day-first (e.g. 13/02/2024).
func ParseDayFirst(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// Season returns the season key a date belongs to.
func Season(t time.Time) int {
	return t.Year()
}
