package usecase

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/core/ports"
)

// SearchWeights holds the relevance tuning knobs. Defaults reflect the
// values the directory has been running with; they are injected, not
// asserted as correct.
type SearchWeights struct {
	Semantic        float64
	Lexical         float64
	ExactMatchBoost float64
	TopK            int
	DefaultPageSize int
}

func (w SearchWeights) normalize() SearchWeights {
	if w.Semantic <= 0 {
		w.Semantic = 0.7
	}
	if w.Lexical <= 0 {
		w.Lexical = 0.3
	}
	if w.ExactMatchBoost <= 0 {
		w.ExactMatchBoost = 1.0
	}
	if w.TopK <= 0 {
		w.TopK = 50
	}
	if w.DefaultPageSize <= 0 {
		w.DefaultPageSize = 10
	}
	return w
}

// SearchUseCase runs hybrid retrieval: semantic nearest-neighbor and
// lexical full-text in parallel, a weighted merge, exact-match boosting,
// post-filters, then deterministic ordering and pagination.
type SearchUseCase struct {
	embedder ports.Embedder
	vectors  ports.VectorIndex
	lexical  ports.LexicalIndex
	members  ports.MemberStore
	weights  SearchWeights
	logger   *slog.Logger
}

func NewSearchUseCase(
	embedder ports.Embedder,
	vectors ports.VectorIndex,
	lexical ports.LexicalIndex,
	members ports.MemberStore,
	weights SearchWeights,
	logger *slog.Logger,
) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		embedder: embedder,
		vectors:  vectors,
		lexical:  lexical,
		members:  members,
		weights:  weights.normalize(),
		logger:   logger,
	}
}

func (uc *SearchUseCase) Search(
	ctx context.Context,
	understanding domain.UnderstandingResult,
	filter domain.SearchFilter,
	page domain.Page,
) (domain.SearchResult, error) {
	page = page.Normalize(uc.weights.DefaultPageSize)

	var (
		vectorHits  []domain.VectorHit
		lexicalHits []domain.LexicalHit
		semanticErr error
		lexicalErr  error
	)

	// Both paths run concurrently and record their own failure; one
	// failing path degrades the search instead of canceling the other.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		vector, err := uc.embedder.EmbedQuery(groupCtx, understanding.NormalizedQuery)
		if err != nil {
			semanticErr = err
			return nil
		}
		hits, err := uc.vectors.Search(groupCtx, vector, uc.weights.TopK)
		if err != nil {
			semanticErr = err
			return nil
		}
		vectorHits = hits
		return nil
	})
	group.Go(func() error {
		hits, err := uc.lexical.SearchLexical(groupCtx, understanding.NormalizedQuery, uc.weights.TopK)
		if err != nil {
			lexicalErr = err
			return nil
		}
		lexicalHits = hits
		return nil
	})
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return domain.SearchResult{}, err
	}
	if semanticErr != nil && lexicalErr != nil {
		return domain.SearchResult{}, domain.WrapError(
			domain.ErrStoreUnavailable, "search", errors.Join(semanticErr, lexicalErr))
	}

	degraded := ""
	if semanticErr != nil {
		degraded = "semantic"
		uc.logger.Warn("search_degraded", "reason", "semantic_path_unavailable", "error", semanticErr)
	}
	if lexicalErr != nil {
		degraded = "lexical"
		uc.logger.Warn("search_degraded", "reason", "lexical_path_unavailable", "error", lexicalErr)
	}

	candidates := mergeHits(vectorHits, lexicalHits, uc.weights)
	candidates, err := uc.attachProfiles(ctx, candidates)
	if err != nil {
		return domain.SearchResult{}, err
	}

	applyExactMatchBoost(candidates, understanding.NormalizedQuery, uc.weights.ExactMatchBoost)
	candidates = applyFilter(candidates, filter)
	sortCandidates(candidates)

	total := len(candidates)
	return domain.SearchResult{
		Candidates: paginate(candidates, page),
		TotalCount: total,
		Degraded:   degraded,
	}, nil
}

// attachProfiles loads profile records for every candidate and drops
// candidates whose profile no longer exists (stale index rows).
func (uc *SearchUseCase) attachProfiles(ctx context.Context, candidates []domain.ScoredCandidate) ([]domain.ScoredCandidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.MembershipID)
	}
	profiles, err := uc.members.GetProfiles(ctx, ids)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "load profiles", err)
	}

	byID := make(map[string]domain.MemberProfile, len(profiles))
	for _, p := range profiles {
		byID[p.MembershipID] = p
	}

	out := candidates[:0]
	for _, c := range candidates {
		profile, ok := byID[c.MembershipID]
		if !ok {
			uc.logger.Warn("candidate_profile_missing", "membership_id", c.MembershipID)
			continue
		}
		c.Profile = &profile
		out = append(out, c)
	}
	return out, nil
}
