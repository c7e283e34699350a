package usecase

import (
	"sort"
	"strings"

	"github.com/connectbase/member-search/internal/core/domain"
)

// mergeHits combines the two retrieval paths into one candidate set.
// A candidate seen by both paths gets the weighted sum; a candidate seen
// by only one path keeps that path's score alone, not zero-filled for
// the missing half.
func mergeHits(vectorHits []domain.VectorHit, lexicalHits []domain.LexicalHit, weights SearchWeights) []domain.ScoredCandidate {
	type pathScores struct {
		semantic    float64
		lexical     float64
		hasSemantic bool
		hasLexical  bool
	}

	acc := make(map[string]pathScores, len(vectorHits)+len(lexicalHits))
	order := make([]string, 0, len(vectorHits)+len(lexicalHits))

	for _, hit := range vectorHits {
		entry, seen := acc[hit.MembershipID]
		entry.semantic = clampScore(1 - hit.Distance)
		entry.hasSemantic = true
		acc[hit.MembershipID] = entry
		if !seen {
			order = append(order, hit.MembershipID)
		}
	}

	maxRank := 0.0
	for _, hit := range lexicalHits {
		if hit.Rank > maxRank {
			maxRank = hit.Rank
		}
	}
	for _, hit := range lexicalHits {
		entry, seen := acc[hit.MembershipID]
		if maxRank > 0 {
			entry.lexical = clampScore(hit.Rank / maxRank)
		}
		entry.hasLexical = true
		acc[hit.MembershipID] = entry
		if !seen {
			order = append(order, hit.MembershipID)
		}
	}

	out := make([]domain.ScoredCandidate, 0, len(acc))
	for _, id := range order {
		entry := acc[id]
		combined := 0.0
		switch {
		case entry.hasSemantic && entry.hasLexical:
			combined = weights.Semantic*entry.semantic + weights.Lexical*entry.lexical
		case entry.hasSemantic:
			combined = entry.semantic
		default:
			combined = entry.lexical
		}
		out = append(out, domain.ScoredCandidate{
			MembershipID:  id,
			SemanticScore: entry.semantic,
			LexicalScore:  entry.lexical,
			CombinedScore: combined,
		})
	}
	return out
}

// applyExactMatchBoost pins candidates whose name, email or phone equals
// the normalized query. This protects "find person X" queries from
// vector noise: an exact identity match outranks any similarity score.
func applyExactMatchBoost(candidates []domain.ScoredCandidate, normalizedQuery string, boost float64) {
	needle := strings.TrimSpace(normalizedQuery)
	if needle == "" {
		return
	}
	for i := range candidates {
		profile := candidates[i].Profile
		if profile == nil {
			continue
		}
		if strings.EqualFold(profile.Name, needle) ||
			strings.EqualFold(profile.Email, needle) ||
			strings.EqualFold(profile.Phone, needle) {
			candidates[i].ExactMatchBoost = boost
		}
	}
}

// applyFilter removes candidates that fail the structured filter.
// Filters only narrow; they never re-rank or resurrect candidates.
func applyFilter(candidates []domain.ScoredCandidate, filter domain.SearchFilter) []domain.ScoredCandidate {
	if filter.IsZero() {
		return candidates
	}

	out := candidates[:0]
	for _, c := range candidates {
		if c.Profile == nil {
			continue
		}
		if filter.Location != "" && !strings.EqualFold(c.Profile.Location, filter.Location) {
			continue
		}
		if len(filter.GraduationYears) > 0 && !containsInt(filter.GraduationYears, c.Profile.GraduationYear) {
			continue
		}
		if !hasAllSkills(c.Profile, filter.Skills) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// sortCandidates orders boosted candidates first, then by combined score
// descending, ties broken by membership id ascending for reproducibility.
func sortCandidates(candidates []domain.ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].ExactMatchBoost != candidates[j].ExactMatchBoost {
			return candidates[i].ExactMatchBoost > candidates[j].ExactMatchBoost
		}
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		return candidates[i].MembershipID < candidates[j].MembershipID
	})
}

func paginate(candidates []domain.ScoredCandidate, page domain.Page) []domain.ScoredCandidate {
	start := (page.Number - 1) * page.Size
	if start >= len(candidates) {
		return nil
	}
	end := start + page.Size
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[start:end]
}

func hasAllSkills(profile *domain.MemberProfile, skills []string) bool {
	for _, wanted := range skills {
		found := false
		for _, have := range profile.Skills {
			if strings.EqualFold(have, wanted) {
				found = true
				break
			}
		}
		if !found {
			for _, have := range profile.Services {
				if strings.EqualFold(have, wanted) {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsInt(values []int, value int) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
