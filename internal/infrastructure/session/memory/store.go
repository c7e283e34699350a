package memory

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/connectbase/member-search/internal/core/domain"
)

// Store keeps conversation sessions in process memory. Sessions are
// created lazily on first contact, hold a bounded most-recent history,
// and idle-expire; an expired session reads identically to no context.
type Store struct {
	sessions *gocache.Cache
	maxTurns int

	createMu sync.Mutex
}

type session struct {
	mu    sync.Mutex
	turns []domain.ConversationTurn
}

func NewStore(idleTTL time.Duration, maxTurns int) *Store {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &Store{
		sessions: gocache.New(idleTTL, idleTTL),
		maxTurns: maxTurns,
	}
}

// Append records a completed turn. Appends for the same identity are
// serialized by the session lock; different identities do not contend.
func (s *Store) Append(identity string, turn domain.ConversationTurn) {
	if identity == "" {
		return
	}
	sess := s.getOrCreate(identity)

	sess.mu.Lock()
	sess.turns = append(sess.turns, turn)
	if len(sess.turns) > s.maxTurns {
		sess.turns = sess.turns[len(sess.turns)-s.maxTurns:]
	}
	sess.mu.Unlock()

	// Re-set to push the idle expiry forward.
	s.sessions.SetDefault(identity, sess)
}

// BuildContext returns the prior-turn summary, or nil when the identity
// has no live session.
func (s *Store) BuildContext(identity string) *domain.ContextSummary {
	cached, ok := s.sessions.Get(identity)
	if !ok {
		return nil
	}
	sess := cached.(*session)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if len(sess.turns) == 0 {
		return nil
	}

	last := sess.turns[len(sess.turns)-1]
	return &domain.ContextSummary{
		LastQuery:    last.Query,
		LastIntent:   last.Intent,
		LastEntities: last.Entities,
		TurnCount:    len(sess.turns),
	}
}

func (s *Store) getOrCreate(identity string) *session {
	if cached, ok := s.sessions.Get(identity); ok {
		return cached.(*session)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()
	if cached, ok := s.sessions.Get(identity); ok {
		return cached.(*session)
	}
	sess := &session{}
	s.sessions.SetDefault(identity, sess)
	return sess
}
