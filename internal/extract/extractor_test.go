package extract

import (
	"reflect"
	"testing"
	"time"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	vocab, err := DefaultVocabulary()
	if err != nil {
		t.Fatalf("DefaultVocabulary() error = %v", err)
	}
	fixed := func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	e, err := newExtractor(vocab, fixed)
	if err != nil {
		t.Fatalf("newExtractor() error = %v", err)
	}
	return e
}

func TestExtractAbsoluteYear(t *testing.T) {
	e := newTestExtractor(t)
	cases := []struct {
		query string
		want  []int
	}{
		{"graduated in 2010 from delhi", []int{2010}},
		{"1995 batch mechanical engineers", []int{1995}},
		{"batch 2005-2008 reunion contacts", []int{2005, 2006, 2007, 2008}},
		{"2005 to 2007 passouts", []int{2005, 2006, 2007}},
	}
	for _, tc := range cases {
		got := e.Extract(tc.query)
		if !reflect.DeepEqual(got.Entities.GraduationYears, tc.want) {
			t.Fatalf("Extract(%q) years = %v, want %v", tc.query, got.Entities.GraduationYears, tc.want)
		}
	}
}

func TestExtractTwoDigitYearNormalization(t *testing.T) {
	e := newTestExtractor(t)
	cases := []struct {
		query string
		want  []int
	}{
		{"09 passout from pune", []int{2009}},
		{"98 batch alumni", []int{1998}},
		{"batch of 05", []int{2005}},
		{"00 passout", []int{2000}},
		{"30 passout", []int{2030}}, // rejected: beyond current year
		{"45 passout", nil},         // 31-49 is ambiguous
	}
	for _, tc := range cases {
		got := e.Extract(tc.query)
		if tc.query == "30 passout" {
			if len(got.Entities.GraduationYears) != 0 {
				t.Fatalf("Extract(%q) years = %v, want none (future year)", tc.query, got.Entities.GraduationYears)
			}
			continue
		}
		if !reflect.DeepEqual(got.Entities.GraduationYears, tc.want) {
			t.Fatalf("Extract(%q) years = %v, want %v", tc.query, got.Entities.GraduationYears, tc.want)
		}
	}
}

func TestExtractLocationTiers(t *testing.T) {
	e := newTestExtractor(t)
	cases := []struct {
		query       string
		wantCity    string
		wantPattern string
	}{
		{"developers in chennai", "Chennai", "location:preposition"},
		{"mumbai based designers", "Mumbai", "location:suffix"},
		{"bangalore web developers", "Bangalore", "location:bare"},
		{"folks from madras", "Chennai", "location:preposition"},
		{"bengaluru startups", "Bangalore", "location:bare"},
	}
	for _, tc := range cases {
		got := e.Extract(tc.query)
		if got.Entities.Location != tc.wantCity {
			t.Fatalf("Extract(%q) location = %q, want %q", tc.query, got.Entities.Location, tc.wantCity)
		}
		if !containsString(got.MatchedPatterns, tc.wantPattern) {
			t.Fatalf("Extract(%q) patterns = %v, want %s", tc.query, got.MatchedPatterns, tc.wantPattern)
		}
	}
}

func TestExtractDegree(t *testing.T) {
	e := newTestExtractor(t)
	cases := []struct {
		query string
		want  string
	}{
		{"BE graduates 2010 batch", "B.Tech"},
		{"btech from nagpur", "B.Tech"},
		{"mba finance folks", "MBA"},
		{"bachelor of technology 2012", "B.Tech"},
		{"chartered accountant in jaipur", "CA"},
	}
	for _, tc := range cases {
		got := e.Extract(tc.query)
		if got.Entities.Degree != tc.want {
			t.Fatalf("Extract(%q) degree = %q, want %q", tc.query, got.Entities.Degree, tc.want)
		}
	}
}

func TestExtractDegreeAbbreviationIsCaseSensitive(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("someone to be a mentor in pune 2012 batch")
	if got.Entities.Degree != "" {
		t.Fatalf("lowercase 'be' must not match a degree, got %q", got.Entities.Degree)
	}
}

func TestExtractSkillsVocabularyAndFreeText(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Extract("expert in machine learning from hyderabad")
	if !containsString(got.Entities.Skills, "machine learning") {
		t.Fatalf("expected machine learning skill, got %v", got.Entities.Skills)
	}

	got = e.Extract("skilled in carnatic flute 2012 batch chennai")
	if !containsString(got.Entities.Skills, "carnatic flute") {
		t.Fatalf("expected free-text skill, got %v", got.Entities.Skills)
	}

	got = e.Extract("skilled in ab")
	if len(got.Entities.Skills) != 0 {
		t.Fatalf("span under length bound must be rejected, got %v", got.Entities.Skills)
	}
}

func TestExtractServicePhrases(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Extract("provides tax filing 2008 batch delhi")
	if !containsString(got.Entities.Services, "finance") {
		t.Fatalf("expected finance service from vocabulary overlap, got %v", got.Entities.Services)
	}

	got = e.Extract("runs a web development company in pune")
	if !containsString(got.Entities.Services, "web development") {
		t.Fatalf("expected web development service, got %v", got.Entities.Services)
	}
}

func TestExtractConfidenceIsDeterministic(t *testing.T) {
	e := newTestExtractor(t)
	const query = "machine learning 2018 passout bangalore"
	first := e.Extract(query)
	second := e.Extract(query)
	if first.Confidence != second.Confidence {
		t.Fatalf("confidence not deterministic: %v vs %v", first.Confidence, second.Confidence)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not deterministic: %+v vs %+v", first, second)
	}
}

func TestExtractScenarioFastPath(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("machine learning 2018 passout Bangalore")

	if !containsString(got.Entities.Skills, "machine learning") {
		t.Fatalf("expected machine learning skill, got %v", got.Entities.Skills)
	}
	if !reflect.DeepEqual(got.Entities.GraduationYears, []int{2018}) {
		t.Fatalf("expected [2018], got %v", got.Entities.GraduationYears)
	}
	if got.Entities.Location != "Bangalore" {
		t.Fatalf("expected Bangalore, got %q", got.Entities.Location)
	}
	if got.NeedsDeeperUnderstanding {
		t.Fatalf("expected fast path, confidence=%v patterns=%v", got.Confidence, got.MatchedPatterns)
	}
}

func TestExtractScenarioConversationalFallback(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("can you find me someone who does either security or networking")
	if !got.NeedsDeeperUnderstanding {
		t.Fatalf("conversational marker plus boolean connector must trigger deeper understanding")
	}
}

func TestExtractComparisonTriggersFallback(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("compare mba consultants in mumbai with delhi 2010 batch")
	if !got.NeedsDeeperUnderstanding {
		t.Fatalf("comparison language must trigger deeper understanding")
	}
}

func TestExtractShortQueryPenalty(t *testing.T) {
	e := newTestExtractor(t)
	long := e.Extract("experienced mba graduates working around chennai since 2011")
	short := e.Extract("mba chennai")
	if short.Confidence >= long.Confidence {
		t.Fatalf("short query should score lower: short=%v long=%v", short.Confidence, long.Confidence)
	}
}

func TestExtractNoMatchHasNoEmptyFields(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("zzz qqq xyzzy")
	if !got.Entities.IsEmpty() {
		t.Fatalf("expected empty entities, got %+v", got.Entities)
	}
	if !got.NeedsDeeperUnderstanding {
		t.Fatalf("zero categories must trigger deeper understanding")
	}
	if got.Entities.Location != "" || got.Entities.Degree != "" {
		t.Fatalf("unmatched fields must stay absent")
	}
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
