package extract

import (
	"regexp"
	"strings"
)

type locationMatcher struct {
	canon    map[string]string
	prepRe   *regexp.Regexp
	suffixRe *regexp.Regexp
	bareRe   *regexp.Regexp
}

func newLocationMatcher(entries []LocationEntry) *locationMatcher {
	canon := make(map[string]string, len(entries)*2)
	for _, entry := range entries {
		canon[strings.ToLower(entry.Name)] = entry.Name
		for _, alias := range entry.Aliases {
			canon[strings.ToLower(alias)] = entry.Name
		}
	}

	alt := alternation(termsLongestFirst(canon))
	return &locationMatcher{
		canon:    canon,
		prepRe:   regexp.MustCompile(`\b(?:in|from|at|near|around)\s+(` + alt + `)\b`),
		suffixRe: regexp.MustCompile(`\b(` + alt + `)(?:\s+|-)based\b`),
		bareRe:   regexp.MustCompile(`\b(` + alt + `)\b`),
	}
}

// match tries the three pattern tiers in priority order; the first tier
// that matches wins.
func (m *locationMatcher) match(lower string) (string, string) {
	if g := m.prepRe.FindStringSubmatch(lower); g != nil {
		return m.normalize(g[1]), "location:preposition"
	}
	if g := m.suffixRe.FindStringSubmatch(lower); g != nil {
		return m.normalize(g[1]), "location:suffix"
	}
	if g := m.bareRe.FindStringSubmatch(lower); g != nil {
		return m.normalize(g[1]), "location:bare"
	}
	return "", ""
}

func (m *locationMatcher) normalize(term string) string {
	if name, ok := m.canon[strings.ToLower(term)]; ok {
		return name
	}
	return titleCase(term)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
