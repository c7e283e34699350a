package ports

import (
	"context"

	"github.com/connectbase/member-search/internal/core/domain"
)

// EntityExtractor is the deterministic fast path: pure, no I/O.
type EntityExtractor interface {
	Extract(query string) domain.Extraction
}

// LanguageUnderstander turns a query plus optional prior-turn context into a
// structured understanding using an external language model.
type LanguageUnderstander interface {
	Understand(ctx context.Context, query string, summary *domain.ContextSummary) (domain.UnderstandingResult, error)
}

// Embedder builds model-tagged vectors for query and profile text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) (domain.EmbeddingVector, error)
	EmbedTexts(ctx context.Context, texts []string) ([]domain.EmbeddingVector, error)
}

// VectorIndex is the semantic half of the relevance store.
type VectorIndex interface {
	Search(ctx context.Context, vector domain.EmbeddingVector, topK int) ([]domain.VectorHit, error)
	UpsertProfile(ctx context.Context, profile domain.MemberProfile, vector domain.EmbeddingVector) error
}

// LexicalIndex is the full-text half of the relevance store.
type LexicalIndex interface {
	SearchLexical(ctx context.Context, queryText string, limit int) ([]domain.LexicalHit, error)
}

// MemberStore reads member profile records by membership id.
type MemberStore interface {
	GetProfile(ctx context.Context, membershipID string) (*domain.MemberProfile, error)
	GetProfiles(ctx context.Context, membershipIDs []string) ([]domain.MemberProfile, error)
	UpsertSearchDocument(ctx context.Context, profile domain.MemberProfile) error
}

// SessionStore keeps per-identity conversation history. Sessions are created
// lazily, bounded, and idle-expire; an expired session reads as no context.
type SessionStore interface {
	Append(identity string, turn domain.ConversationTurn)
	BuildContext(identity string) *domain.ContextSummary
}

// MemberEventQueue delivers membership-changed events to the indexer.
type MemberEventQueue interface {
	PublishMemberUpdated(ctx context.Context, membershipID string) error
	SubscribeMemberUpdated(ctx context.Context, handler func(context.Context, string) error) error
}
