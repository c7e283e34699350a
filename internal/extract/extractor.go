package extract

import (
	"strings"
	"time"

	"github.com/connectbase/member-search/internal/core/domain"
)

const (
	shortQueryChars  = 15
	shortQueryTokens = 3
	baseCategoryStep = 0.25
	baseCategoryCap  = 0.75
	yearBonus        = 0.10
	locationBonus    = 0.05
	degreeBonus      = 0.10
	shortPenalty     = 0.10
	fallbackFloor    = 0.5
)

// Extractor is the deterministic fast path: dictionary and regex driven,
// no I/O, identical input always yields identical output.
type Extractor struct {
	locations *locationMatcher
	degrees   *degreeMatcher
	skills    *skillMatcher
	now       func() time.Time
}

func NewExtractor() (*Extractor, error) {
	vocab, err := DefaultVocabulary()
	if err != nil {
		return nil, err
	}
	return newExtractor(vocab, time.Now)
}

func newExtractor(vocab Vocabulary, now func() time.Time) (*Extractor, error) {
	if err := vocab.validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		locations: newLocationMatcher(vocab.Locations),
		degrees:   newDegreeMatcher(vocab.Degrees),
		skills:    newSkillMatcher(vocab.Skills),
		now:       now,
	}, nil
}

func (e *Extractor) Extract(query string) domain.Extraction {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)

	var entities domain.ExtractedEntities
	var patterns []string

	years, yearPatterns := extractYears(lower, e.now().Year())
	if len(years) > 0 {
		entities.GraduationYears = years
		patterns = append(patterns, yearPatterns...)
	}

	if location, pattern := e.locations.match(lower); location != "" {
		entities.Location = location
		patterns = append(patterns, pattern)
	}

	if degree, pattern := e.degrees.match(trimmed, lower); degree != "" {
		entities.Degree = degree
		patterns = append(patterns, pattern)
	}

	skills, services, skillPatterns := e.skills.match(lower)
	if len(skills) > 0 {
		entities.Skills = skills
	}
	if len(services) > 0 {
		entities.Services = services
	}
	patterns = append(patterns, skillPatterns...)

	categories := countCategories(entities)
	confidence := scoreConfidence(entities, categories, trimmed)

	return domain.Extraction{
		Entities:                 entities,
		Confidence:               confidence,
		MatchedPatterns:          patterns,
		NeedsDeeperUnderstanding: needsDeeperUnderstanding(lower, confidence, categories),
	}
}

func countCategories(entities domain.ExtractedEntities) int {
	categories := 0
	if len(entities.GraduationYears) > 0 {
		categories++
	}
	if entities.Location != "" {
		categories++
	}
	if entities.Degree != "" {
		categories++
	}
	if len(entities.Skills) > 0 {
		categories++
	}
	if len(entities.Services) > 0 {
		categories++
	}
	return categories
}

func scoreConfidence(entities domain.ExtractedEntities, categories int, query string) float64 {
	score := baseCategoryStep * float64(categories)
	if score > baseCategoryCap {
		score = baseCategoryCap
	}
	if len(entities.GraduationYears) > 0 {
		score += yearBonus
	}
	if entities.Location != "" {
		score += locationBonus
	}
	if entities.Degree != "" {
		score += degreeBonus
	}
	if len([]rune(query)) < shortQueryChars {
		score -= shortPenalty
	}
	if len(strings.Fields(query)) < shortQueryTokens {
		score -= shortPenalty
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

var conversationalMarkers = []string{
	"can you", "could you", "please", "i need", "i want",
	"i am looking", "i'm looking", "looking for", "recommend",
	"suggest", "help me", "find me", "who can", "anyone who",
	"is there",
}

var comparisonMarkers = []string{
	"compare", "versus", "vs.", "better than", "difference between",
}

var booleanConnectors = []string{"or", "either", "neither", "and/or", "vs"}

// needsDeeperUnderstanding applies the fallback conditions in order; any
// one is sufficient to route the query to the language model.
func needsDeeperUnderstanding(lower string, confidence float64, categories int) bool {
	if confidence < fallbackFloor {
		return true
	}
	if categories == 0 {
		return true
	}
	for _, marker := range conversationalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, marker := range comparisonMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, connector := range booleanConnectors {
		if containsWord(lower, connector) {
			return true
		}
	}
	return false
}

func containsWord(lower, word string) bool {
	for _, token := range strings.Fields(lower) {
		if strings.Trim(token, ".,!?;:()\"'") == word {
			return true
		}
	}
	return false
}
