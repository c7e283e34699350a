package domain

// EmbeddingVector is comparable only within one model family; the Model tag
// lets the search engine reject comparisons after a provider switch.
type EmbeddingVector struct {
	Values []float32 `json:"values"`
	Model  string    `json:"model"`
}

// VectorHit is one nearest-neighbor result. Distance is cosine distance
// in [0,2]; the relevance engine converts it to a similarity score.
type VectorHit struct {
	MembershipID string
	Distance     float64
}

// LexicalHit carries the raw full-text rank; normalization to [0,1]
// happens in the relevance engine.
type LexicalHit struct {
	MembershipID string
	Rank         float64
}

// ScoredCandidate is recomputed per query and never persisted.
type ScoredCandidate struct {
	MembershipID    string         `json:"membership_id"`
	SemanticScore   float64        `json:"semantic_score"`
	LexicalScore    float64        `json:"lexical_score"`
	ExactMatchBoost float64        `json:"exact_match_boost,omitempty"`
	CombinedScore   float64        `json:"combined_score"`
	Profile         *MemberProfile `json:"profile,omitempty"`
}

type SearchResult struct {
	Candidates []ScoredCandidate `json:"candidates"`
	TotalCount int               `json:"total_count"`
	// Degraded names the retrieval path that was skipped ("semantic" or
	// "lexical"), empty when both paths contributed.
	Degraded string `json:"degraded,omitempty"`
}

type MemberProfile struct {
	MembershipID   string   `json:"membership_id"`
	CommunityID    string   `json:"community_id"`
	Name           string   `json:"name"`
	Email          string   `json:"email,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Location       string   `json:"location,omitempty"`
	Degree         string   `json:"degree,omitempty"`
	GraduationYear int      `json:"graduation_year,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Services       []string `json:"services,omitempty"`
	ProfileText    string   `json:"profile_text,omitempty"`
	SkillsText     string   `json:"skills_text,omitempty"`
}
