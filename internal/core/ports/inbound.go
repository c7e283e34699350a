package ports

import (
	"context"

	"github.com/connectbase/member-search/internal/core/domain"
)

// QueryUnderstander is the inbound contract for query understanding.
type QueryUnderstander interface {
	Understand(ctx context.Context, query, identity string) (domain.UnderstandingResult, error)
}

// MemberSearcher is the inbound contract for hybrid relevance search.
type MemberSearcher interface {
	Search(ctx context.Context, understanding domain.UnderstandingResult, filter domain.SearchFilter, page domain.Page) (domain.SearchResult, error)
}

// DirectoryQueryService handles a full query end to end: understand,
// search, compose, record the conversation turn.
type DirectoryQueryService interface {
	HandleQuery(ctx context.Context, query domain.Query) (domain.ResponsePayload, error)
}

// ProfileIndexer rebuilds the relevance store rows for one membership.
type ProfileIndexer interface {
	IndexByMembershipID(ctx context.Context, membershipID string) error
}
