package extract

import (
	"regexp"
	"strings"
)

type degreeMatcher struct {
	strictLabels map[string]string
	looseLabels  map[string]string
	strictRe     *regexp.Regexp
	looseRe      *regexp.Regexp
}

func newDegreeMatcher(entries []DegreeEntry) *degreeMatcher {
	strict := make(map[string]string)
	loose := make(map[string]string)
	for _, entry := range entries {
		for _, abbr := range entry.Strict {
			strict[abbr] = entry.Label
		}
		for _, term := range entry.Loose {
			loose[strings.ToLower(term)] = entry.Label
		}
	}

	m := &degreeMatcher{strictLabels: strict, looseLabels: loose}
	if len(strict) > 0 {
		// Case-sensitive: short abbreviations like "BE" must not match
		// the English word "be".
		m.strictRe = regexp.MustCompile(`\b(` + alternation(termsLongestFirst(strict)) + `)\b`)
	}
	if len(loose) > 0 {
		m.looseRe = regexp.MustCompile(`\b(` + alternation(termsLongestFirst(loose)) + `)\b`)
	}
	return m
}

// match checks abbreviations against the raw query before full-word forms
// against the lowered query, avoiding partial-word false positives.
func (m *degreeMatcher) match(raw, lower string) (string, string) {
	if m.strictRe != nil {
		if g := m.strictRe.FindStringSubmatch(raw); g != nil {
			return m.strictLabels[g[1]], "degree:abbreviation"
		}
	}
	if m.looseRe != nil {
		if g := m.looseRe.FindStringSubmatch(lower); g != nil {
			return m.looseLabels[g[1]], "degree:keyword"
		}
	}
	return "", ""
}
