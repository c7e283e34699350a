package extract

import (
	"regexp"
	"sort"
	"strconv"
)

const (
	minGraduationYear = 1950
	maxYearRangeSpan  = 50
)

var (
	yearRangeRe = regexp.MustCompile(`\b(19[5-9][0-9]|20[0-9]{2})\s*(?:-|–|to)\s*(19[5-9][0-9]|20[0-9]{2})\b`)
	absYearRe   = regexp.MustCompile(`\b(19[5-9][0-9]|20[0-9]{2})\b`)
	// Two-digit "batch/passout" forms: "09 passout", "'98 batch",
	// "batch of 05". Word boundaries keep the two digits from matching
	// inside a four-digit year.
	passoutRe = regexp.MustCompile(`\b([0-9]{2})\s+(?:passout|pass out|passouts|batch)\b`)
	batchOfRe = regexp.MustCompile(`\b(?:batch of|class of)\s*'?([0-9]{2})\b`)
)

func extractYears(lower string, currentYear int) ([]int, []string) {
	found := make(map[int]struct{}, 4)
	var patterns []string

	for _, m := range yearRangeRe.FindAllStringSubmatch(lower, -1) {
		from, _ := strconv.Atoi(m[1])
		to, _ := strconv.Atoi(m[2])
		if from > to || to-from > maxYearRangeSpan {
			continue
		}
		added := false
		for y := from; y <= to; y++ {
			if validGraduationYear(y, currentYear) {
				found[y] = struct{}{}
				added = true
			}
		}
		if added {
			patterns = appendUnique(patterns, "year:range")
		}
	}

	for _, m := range absYearRe.FindAllStringSubmatch(lower, -1) {
		y, _ := strconv.Atoi(m[1])
		if validGraduationYear(y, currentYear) {
			found[y] = struct{}{}
			patterns = appendUnique(patterns, "year:absolute")
		}
	}

	for _, re := range []*regexp.Regexp{passoutRe, batchOfRe} {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			n, _ := strconv.Atoi(m[1])
			y, ok := normalizeTwoDigitYear(n)
			if !ok {
				continue
			}
			if validGraduationYear(y, currentYear) {
				found[y] = struct{}{}
				patterns = appendUnique(patterns, "year:two_digit")
			}
		}
	}

	if len(found) == 0 {
		return nil, nil
	}
	years := make([]int, 0, len(found))
	for y := range found {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, patterns
}

// normalizeTwoDigitYear maps 00-30 to the 2000s and 50-99 to the 1900s;
// 31-49 is ambiguous and rejected.
func normalizeTwoDigitYear(n int) (int, bool) {
	switch {
	case n >= 0 && n <= 30:
		return 2000 + n, true
	case n >= 50 && n <= 99:
		return 1900 + n, true
	default:
		return 0, false
	}
}

func validGraduationYear(year, currentYear int) bool {
	return year >= minGraduationYear && year <= currentYear
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
