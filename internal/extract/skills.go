package extract

import (
	"regexp"
	"strings"
)

const (
	minFreeTextSkill = 3
	maxFreeTextSkill = 50
)

type skillMatcher struct {
	canon   map[string]string
	terms   []string
	vocabRe *regexp.Regexp
	// surface patterns, capture groups hold the candidate span
	skillPhraseRe   *regexp.Regexp
	servicePhraseRe *regexp.Regexp
	companyRe       *regexp.Regexp
	roleRe          *regexp.Regexp
}

func newSkillMatcher(entries []SkillEntry) *skillMatcher {
	canon := make(map[string]string, len(entries)*3)
	for _, entry := range entries {
		for _, syn := range entry.Synonyms {
			canon[strings.ToLower(syn)] = entry.Canonical
		}
	}
	terms := termsLongestFirst(canon)
	alt := alternation(terms)

	const span = `([a-z0-9][a-z0-9 /+.#&-]{1,59})`
	return &skillMatcher{
		canon:           canon,
		terms:           terms,
		vocabRe:         regexp.MustCompile(`\b(` + alt + `)\b`),
		skillPhraseRe:   regexp.MustCompile(`(?:skilled in|skills? in|expert in|expertise in|experienced in|specializ(?:es|ing) in|good at|knows)\s+` + span),
		servicePhraseRe: regexp.MustCompile(`(?:provides?|providing|offers?|offering|does|doing|works? on|working on)\s+` + span),
		companyRe:       regexp.MustCompile(span + `\s+(?:company|agency|firm|studio|consultancy|startup)\b`),
		roleRe:          regexp.MustCompile(`\b(` + alt + `)\s+(?:developer|engineer|consultant|expert|freelancer|specialist|professional)s?\b`),
	}
}

// match returns known-vocabulary skills, service spans, and the pattern
// labels that fired. Free-text spans outside the vocabulary are kept only
// when their length is within a sane bound.
func (m *skillMatcher) match(lower string) (skills, services, patterns []string) {
	addSkill := newDeduper()
	addService := newDeduper()

	for _, g := range m.skillPhraseRe.FindAllStringSubmatch(lower, -1) {
		span := cleanSpan(g[1])
		if canonical, ok := m.resolveSpan(span); ok {
			if addSkill.add(canonical) {
				patterns = appendUnique(patterns, "skill:phrase")
			}
		} else if freeTextOK(span) {
			if addSkill.add(span) {
				patterns = appendUnique(patterns, "skill:freetext")
			}
		}
	}

	for _, g := range m.roleRe.FindAllStringSubmatch(lower, -1) {
		if canonical, ok := m.resolveSpan(g[1]); ok {
			if addSkill.add(canonical) {
				patterns = appendUnique(patterns, "skill:role")
			}
		}
	}

	for _, g := range m.servicePhraseRe.FindAllStringSubmatch(lower, -1) {
		span := cleanSpan(g[1])
		if canonical, ok := m.resolveSpan(span); ok {
			if addService.add(canonical) {
				patterns = appendUnique(patterns, "service:phrase")
			}
		} else if freeTextOK(span) {
			if addService.add(span) {
				patterns = appendUnique(patterns, "service:freetext")
			}
		}
	}

	for _, g := range m.companyRe.FindAllStringSubmatch(lower, -1) {
		span := cleanSpan(g[1])
		if canonical, ok := m.resolveSpan(span); ok {
			if addService.add(canonical) {
				patterns = appendUnique(patterns, "service:company")
			}
		} else if freeTextOK(span) {
			if addService.add(span) {
				patterns = appendUnique(patterns, "service:company")
			}
		}
	}

	// Fallback: bare vocabulary mentions anywhere in the query.
	for _, g := range m.vocabRe.FindAllStringSubmatch(lower, -1) {
		if canonical, ok := m.canon[g[1]]; ok {
			if addSkill.add(canonical) {
				patterns = appendUnique(patterns, "skill:vocabulary")
			}
		}
	}

	return addSkill.values, addService.values, patterns
}

// resolveSpan accepts a span as a known skill when it overlaps a
// vocabulary entry on word boundaries ("provides tax filing" overlaps
// the "tax filing" synonym).
func (m *skillMatcher) resolveSpan(span string) (string, bool) {
	if canonical, ok := m.canon[span]; ok {
		return canonical, true
	}
	for _, term := range m.terms {
		if containsPhrase(span, term) {
			return m.canon[term], true
		}
		if len(span) >= minFreeTextSkill && containsPhrase(term, span) {
			return m.canon[term], true
		}
	}
	return "", false
}

func containsPhrase(haystack, phrase string) bool {
	return strings.Contains(" "+haystack+" ", " "+phrase+" ")
}

var spanStopTokens = map[string]struct{}{
	"in": {}, "at": {}, "from": {}, "for": {}, "who": {}, "and": {},
	"or": {}, "with": {}, "near": {}, "around": {}, "based": {},
	"batch": {}, "passout": {}, "passouts": {}, "either": {}, "neither": {},
}

// cleanSpan keeps the span's leading tokens up to the first stop word or
// number, which trims trailing qualifiers the surface patterns drag in.
func cleanSpan(span string) string {
	tokens := strings.Fields(span)
	kept := tokens[:0]
	for _, token := range tokens {
		trimmed := strings.Trim(token, ".,-/")
		if _, stop := spanStopTokens[trimmed]; stop {
			break
		}
		if isNumberToken(trimmed) {
			break
		}
		kept = append(kept, token)
	}
	return strings.Trim(strings.Join(kept, " "), " .,-/")
}

func isNumberToken(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func freeTextOK(span string) bool {
	return len(span) >= minFreeTextSkill && len(span) <= maxFreeTextSkill
}

type deduper struct {
	seen   map[string]struct{}
	values []string
}

func newDeduper() *deduper {
	return &deduper{seen: make(map[string]struct{})}
}

func (d *deduper) add(value string) bool {
	if value == "" {
		return false
	}
	if _, ok := d.seen[value]; ok {
		return false
	}
	d.seen[value] = struct{}{}
	d.values = append(d.values, value)
	return true
}
