package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/core/ports"
)

const maxQueryLength = 512

// QueryService is the end-to-end handler: understand, search, compose,
// then record the turn. Each query is handled independently; no global
// lock serializes requests.
type QueryService struct {
	understander ports.QueryUnderstander
	searcher     ports.MemberSearcher
	composer     *Composer
	sessions     ports.SessionStore
	logger       *slog.Logger
	now          func() time.Time
}

func NewQueryService(
	understander ports.QueryUnderstander,
	searcher ports.MemberSearcher,
	composer *Composer,
	sessions ports.SessionStore,
	logger *slog.Logger,
) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		understander: understander,
		searcher:     searcher,
		composer:     composer,
		sessions:     sessions,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *QueryService) HandleQuery(ctx context.Context, query domain.Query) (domain.ResponsePayload, error) {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return domain.ResponsePayload{}, domain.WrapError(
			domain.ErrInvalidInput, "handle query", errors.New("empty query text"))
	}
	if len(text) > maxQueryLength {
		return domain.ResponsePayload{}, domain.WrapError(
			domain.ErrInvalidInput, "handle query",
			fmt.Errorf("query length %d exceeds limit %d", len(text), maxQueryLength))
	}
	if strings.TrimSpace(query.Identity) == "" {
		return domain.ResponsePayload{}, domain.WrapError(
			domain.ErrInvalidInput, "handle query", errors.New("missing caller identity"))
	}

	understanding, err := s.understander.Understand(ctx, text, query.Identity)
	if err != nil {
		return domain.ResponsePayload{}, err
	}

	var payload domain.ResponsePayload
	if s.composer.NeedsClarification(understanding) {
		// Skip retrieval entirely, but still record the turn so a
		// clarified follow-up can resolve against this one.
		payload = s.composer.Clarify(understanding, query.Page)
	} else {
		result, err := s.searcher.Search(ctx, understanding, query.Filter, effectivePage(query))
		if err != nil {
			return domain.ResponsePayload{}, err
		}
		payload = s.composer.Compose(understanding, result, query.Options, effectivePage(query))
	}

	s.recordTurn(query, payload)
	return payload, nil
}

func (s *QueryService) recordTurn(query domain.Query, payload domain.ResponsePayload) {
	if s.sessions == nil {
		return
	}
	turn := turnFromResponse(query, payload)
	turn.Timestamp = s.now()
	s.sessions.Append(query.Identity, turn)
}

// effectivePage caps the page size at the per-request result limit when
// the caller set one.
func effectivePage(query domain.Query) domain.Page {
	page := query.Page
	if query.Options.MaxResults > 0 && (page.Size <= 0 || page.Size > query.Options.MaxResults) {
		page.Size = query.Options.MaxResults
	}
	return page
}
