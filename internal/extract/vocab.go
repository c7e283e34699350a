package extract

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocab.yaml
var defaultVocabYAML []byte

// Vocabulary holds the closed gazetteer and keyword dictionaries the
// extractor matches against. The default set ships embedded so the fast
// path never touches the filesystem at query time.
type Vocabulary struct {
	Locations []LocationEntry `yaml:"locations"`
	Degrees   []DegreeEntry   `yaml:"degrees"`
	Skills    []SkillEntry    `yaml:"skills"`
}

type LocationEntry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type DegreeEntry struct {
	Label string `yaml:"label"`
	// Strict abbreviations match case-sensitively (2-4 uppercase letters)
	// so tokens like "BE" do not collide with the English word "be".
	Strict []string `yaml:"strict"`
	Loose  []string `yaml:"loose"`
}

type SkillEntry struct {
	Canonical string   `yaml:"canonical"`
	Synonyms  []string `yaml:"synonyms"`
}

func DefaultVocabulary() (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(defaultVocabYAML, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse embedded vocabulary: %w", err)
	}
	return v, nil
}

func (v Vocabulary) validate() error {
	if len(v.Locations) == 0 {
		return fmt.Errorf("vocabulary has no locations")
	}
	if len(v.Degrees) == 0 {
		return fmt.Errorf("vocabulary has no degrees")
	}
	if len(v.Skills) == 0 {
		return fmt.Errorf("vocabulary has no skills")
	}
	return nil
}

// termsLongestFirst returns the terms sorted by descending length so
// alternation regexes prefer the most specific match ("new delhi" before
// "delhi").
func termsLongestFirst(terms map[string]string) []string {
	out := make([]string, 0, len(terms))
	for term := range terms {
		out = append(out, term)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

func alternation(terms []string) string {
	escaped := make([]string, 0, len(terms))
	for _, t := range terms {
		escaped = append(escaped, escapeTerm(t))
	}
	return strings.Join(escaped, "|")
}

func escapeTerm(term string) string {
	var b strings.Builder
	for _, r := range term {
		switch r {
		case '.', '+', '*', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
