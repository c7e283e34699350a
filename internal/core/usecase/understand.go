package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/core/ports"
)

// UnderstandUseCase turns raw query text into a canonical understanding.
// The deterministic extractor always runs first; the language model is
// only consulted when the extractor asks for deeper understanding, and a
// total provider outage degrades back to the extractor's result instead
// of failing the query.
type UnderstandUseCase struct {
	extractor ports.EntityExtractor
	gateway   ports.LanguageUnderstander
	sessions  ports.SessionStore
	logger    *slog.Logger
}

func NewUnderstandUseCase(
	extractor ports.EntityExtractor,
	gateway ports.LanguageUnderstander,
	sessions ports.SessionStore,
	logger *slog.Logger,
) *UnderstandUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnderstandUseCase{
		extractor: extractor,
		gateway:   gateway,
		sessions:  sessions,
		logger:    logger,
	}
}

func (uc *UnderstandUseCase) Understand(ctx context.Context, query, identity string) (domain.UnderstandingResult, error) {
	extraction := uc.extractor.Extract(query)
	regexResult := resultFromExtraction(query, extraction)

	if !extraction.NeedsDeeperUnderstanding {
		uc.logger.Info("understanding_fast_path",
			"reason", "extractor_confident",
			"confidence", extraction.Confidence,
			"patterns", extraction.MatchedPatterns,
		)
		return regexResult, nil
	}

	var summary *domain.ContextSummary
	if uc.sessions != nil && identity != "" {
		summary = uc.sessions.BuildContext(identity)
	}

	result, err := uc.gateway.Understand(ctx, query, summary)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.UnderstandingResult{}, err
		}
		// The two degraded reasons are distinct on purpose: "extractor
		// confident" above is healthy, this one means providers are down.
		uc.logger.Warn("understanding_degraded",
			"reason", "providers_unavailable",
			"confidence", regexResult.Confidence,
			"error", err,
		)
		return regexResult, nil
	}
	return result, nil
}

// resultFromExtraction builds the regex-sourced understanding. Intent is
// derived from entity shape: service-style entities mean the caller is
// looking for someone who offers something, not a specific person.
func resultFromExtraction(query string, extraction domain.Extraction) domain.UnderstandingResult {
	intent := domain.IntentFindMember
	if len(extraction.Entities.Services) > 0 {
		intent = domain.IntentFindService
	}
	return domain.UnderstandingResult{
		Intent:          intent,
		Entities:        extraction.Entities,
		Confidence:      extraction.Confidence,
		NormalizedQuery: strings.ToLower(strings.TrimSpace(query)),
		Source:          domain.SourceRegex,
	}
}
