package registrar

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// jpBracketPrefixes lists the JP-registry "[Created on]"/"[Expires on]"
// bracket labels some WHOIS responses embed directly in the value rather
// than the key; ParseFlexibleDate strips them.
var jpBracketPrefixes = []string{"[Created on]", "[Expires on]"}

// ParseFlexibleDate normalizes a WHOIS/RDAP date string to midnight UTC on
// the parsed calendar day, trying a prioritized list of explicit layouts
// before falling back to araddon/dateparse's permissive parser. Returns nil
// if no layout matches.
func ParseFlexibleDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	for _, prefix := range jpBracketPrefixes {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02",
		"2006/01/02",
		"02/01/2006",
		"02.01.2006",
		"02-Jan-2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"2006.01.02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return normalizeMidnightUTC(t)
		}
	}

	if t, err := dateparse.ParseAny(s); err == nil {
		return normalizeMidnightUTC(t)
	}
	return nil
}

func normalizeMidnightUTC(t time.Time) *time.Time {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &midnight
}

// AgeDays returns the whole number of days between t and now.
func AgeDays(t time.Time, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}

// AgeYears returns the age in years to one decimal place, divisor 365.25
// per spec.md §4.2.
func AgeYears(t time.Time, now time.Time) float64 {
	days := now.Sub(t).Hours() / 24
	years := days / 365.25
	return roundTo1Decimal(years)
}

func roundTo1Decimal(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
