package domain

type Intent string

const (
	IntentFindMember  Intent = "find_member"
	IntentFindService Intent = "find_service"
	IntentCompare     Intent = "compare"
	IntentClarify     Intent = "clarify_needed"
	IntentOther       Intent = "other"
)

func (i Intent) Valid() bool {
	switch i {
	case IntentFindMember, IntentFindService, IntentCompare, IntentClarify, IntentOther:
		return true
	default:
		return false
	}
}

type UnderstandingSource string

const (
	SourceRegex UnderstandingSource = "regex"
	SourceLLM   UnderstandingSource = "llm"
)

// ExtractedEntities is usually partial: an absent field means the pattern
// did not match, never an empty placeholder.
type ExtractedEntities struct {
	GraduationYears []int    `json:"graduation_years,omitempty"`
	Location        string   `json:"location,omitempty"`
	Degree          string   `json:"degree,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Services        []string `json:"services,omitempty"`
}

func (e ExtractedEntities) IsEmpty() bool {
	return len(e.GraduationYears) == 0 &&
		e.Location == "" &&
		e.Degree == "" &&
		len(e.Skills) == 0 &&
		len(e.Services) == 0
}

// Extraction is the deterministic extractor's output for one query.
type Extraction struct {
	Entities                 ExtractedEntities `json:"entities"`
	Confidence               float64           `json:"confidence"`
	MatchedPatterns          []string          `json:"matched_patterns,omitempty"`
	NeedsDeeperUnderstanding bool              `json:"needs_deeper_understanding"`
}

type UnderstandingResult struct {
	Intent          Intent              `json:"intent"`
	Entities        ExtractedEntities   `json:"entities"`
	Confidence      float64             `json:"confidence"`
	NormalizedQuery string              `json:"normalized_query"`
	Source          UnderstandingSource `json:"source"`
}
