package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	twoDigitRe    = regexp.MustCompile(`^\d{2}$`)
	fourDigitRe   = regexp.MustCompile(`^\d{4}$`)
	leadingPairRe = regexp.MustCompile(`^(\d{2})`)
)

// ParseDateCode extracts a 2-digit manufacturing year from free-text date
// code markings and reports whether the format is ambiguous.
//
// Common formats:
//   - "2217"  year 22, week 17
//   - "25"    year 25
//   - "22+"   year 22 or newer (could be fresher than it reads)
//   - "2022"  could be calendar year 2022 or year 20 / week 22
func ParseDateCode(text string) (*int, bool) {
	raw := strings.ToUpper(strings.TrimSpace(text))
	if raw == "" {
		return nil, false
	}

	hasPlus := strings.Contains(raw, "+")
	dc := strings.ReplaceAll(raw, "+", "")

	if twoDigitRe.MatchString(dc) {
		year, _ := strconv.Atoi(dc)
		return &year, hasPlus
	}

	if fourDigitRe.MatchString(dc) {
		num, _ := strconv.Atoi(dc)
		year, _ := strconv.Atoi(dc[:2])
		// A value in the current decade reads equally well as a plain
		// calendar year or as year+week ("2022" vs 20/22). "2318" cannot be
		// a year, so it is clearly year 23 week 18.
		if num >= 2020 && num <= 2029 {
			return &year, true
		}
		return &year, hasPlus
	}

	if m := leadingPairRe.FindStringSubmatch(dc); m != nil {
		year, _ := strconv.Atoi(m[1])
		return &year, hasPlus
	}

	return nil, false
}

// Freshness classifies a parsed date code against a rolling window ending at
// the current 2-digit year. A year at or above the cutoff is fresh even when
// ambiguous: the minimum possible age is already inside the window. An
// ambiguous year below the cutoff could still be fresher than it appears, so
// it stays unknown rather than old.
func Freshness(year *int, ambiguous bool, currentYear2 int, windowYears int) FreshnessClass {
	if year == nil {
		return FreshnessUnknown
	}

	cutoff := (currentYear2 - windowYears) % 100
	if cutoff < 0 {
		cutoff += 100
	}

	switch {
	case *year >= cutoff:
		return FreshnessFresh
	case ambiguous:
		return FreshnessUnknown
	default:
		return FreshnessOld
	}
}
