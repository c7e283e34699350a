package domain

// Query is one incoming directory-search request. Immutable once received.
type Query struct {
	Text     string        `json:"text"`
	Identity string        `json:"identity"`
	Options  SearchOptions `json:"options"`
	Filter   SearchFilter  `json:"filter"`
	Page     Page          `json:"page"`
}

type SearchOptions struct {
	MaxResults         int  `json:"max_results"`
	IncludeResponse    bool `json:"include_response"`
	IncludeSuggestions bool `json:"include_suggestions"`
}

// SearchFilter narrows a candidate set after scoring; it never widens
// or re-ranks.
type SearchFilter struct {
	Location        string   `json:"location,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	GraduationYears []int    `json:"graduation_years,omitempty"`
}

func (f SearchFilter) IsZero() bool {
	return f.Location == "" && len(f.Skills) == 0 && len(f.GraduationYears) == 0
}

type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
}

func (p Page) Normalize(defaultSize int) Page {
	out := p
	if out.Number <= 0 {
		out.Number = 1
	}
	if out.Size <= 0 {
		out.Size = defaultSize
	}
	return out
}

type PageInfo struct {
	Page         int  `json:"page"`
	PageSize     int  `json:"page_size"`
	TotalPages   int  `json:"total_pages"`
	TotalResults int  `json:"total_results"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

type ResponsePayload struct {
	Results            []ScoredCandidate   `json:"results"`
	Message            string              `json:"message,omitempty"`
	Suggestions        []string            `json:"suggestions,omitempty"`
	NeedsClarification bool                `json:"needs_clarification"`
	PageInfo           PageInfo            `json:"page_info"`
	Understanding      UnderstandingResult `json:"understanding"`
	// Degraded names the retrieval path that was skipped, empty for a
	// full hybrid search.
	Degraded string `json:"degraded,omitempty"`
}
