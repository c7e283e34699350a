package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/connectbase/member-search/internal/core/domain"
)

type fakeUnderstander struct {
	result domain.UnderstandingResult
	err    error
}

func (f *fakeUnderstander) Understand(context.Context, string, string) (domain.UnderstandingResult, error) {
	return f.result, f.err
}

type fakeSearcher struct {
	calls  int
	result domain.SearchResult
	err    error
}

func (f *fakeSearcher) Search(context.Context, domain.UnderstandingResult, domain.SearchFilter, domain.Page) (domain.SearchResult, error) {
	f.calls++
	return f.result, f.err
}

func newQueryService(understander *fakeUnderstander, searcher *fakeSearcher, sessions *fakeSessions) *QueryService {
	return NewQueryService(understander, searcher, NewComposer(0.3, 10), sessions, nil)
}

func TestHandleQueryRejectsEmptyText(t *testing.T) {
	svc := newQueryService(&fakeUnderstander{}, &fakeSearcher{}, &fakeSessions{})

	_, err := svc.HandleQuery(context.Background(), domain.Query{Text: "   ", Identity: "user-1"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input, got %v", err)
	}
}

func TestHandleQueryRejectsOversizedText(t *testing.T) {
	svc := newQueryService(&fakeUnderstander{}, &fakeSearcher{}, &fakeSessions{})

	_, err := svc.HandleQuery(context.Background(), domain.Query{
		Text:     strings.Repeat("x", maxQueryLength+1),
		Identity: "user-1",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input, got %v", err)
	}
}

func TestHandleQueryRejectsMissingIdentity(t *testing.T) {
	svc := newQueryService(&fakeUnderstander{}, &fakeSearcher{}, &fakeSessions{})

	_, err := svc.HandleQuery(context.Background(), domain.Query{Text: "golang devs"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input, got %v", err)
	}
}

func TestHandleQueryLowConfidenceClarifiesAndRecordsTurn(t *testing.T) {
	understander := &fakeUnderstander{result: domain.UnderstandingResult{
		Intent:     domain.IntentOther,
		Confidence: 0.2,
		Source:     domain.SourceRegex,
	}}
	searcher := &fakeSearcher{}
	sessions := &fakeSessions{}
	svc := newQueryService(understander, searcher, sessions)

	payload, err := svc.HandleQuery(context.Background(), domain.Query{Text: "hmm", Identity: "user-1"})
	if err != nil {
		t.Fatalf("HandleQuery() error = %v", err)
	}
	if !payload.NeedsClarification {
		t.Fatalf("expected clarification payload")
	}
	if searcher.calls != 0 {
		t.Fatalf("low confidence must skip the search, got %d calls", searcher.calls)
	}
	if len(sessions.turns) != 1 {
		t.Fatalf("clarified turn must still be recorded, got %d turns", len(sessions.turns))
	}
	if sessions.turns[0].ResultCount != 0 {
		t.Fatalf("clarification turn records zero results, got %d", sessions.turns[0].ResultCount)
	}
	if sessions.turns[0].Timestamp.IsZero() {
		t.Fatalf("turn timestamp must be set")
	}
}

func TestHandleQuerySearchesAndRecordsTurn(t *testing.T) {
	understander := &fakeUnderstander{result: domain.UnderstandingResult{
		Intent:     domain.IntentFindMember,
		Confidence: 0.9,
		Entities:   domain.ExtractedEntities{Location: "Bangalore"},
		Source:     domain.SourceRegex,
	}}
	searcher := &fakeSearcher{result: domain.SearchResult{
		Candidates: []domain.ScoredCandidate{{MembershipID: "m1"}},
		TotalCount: 7,
	}}
	sessions := &fakeSessions{}
	svc := newQueryService(understander, searcher, sessions)

	payload, err := svc.HandleQuery(context.Background(), domain.Query{
		Text:     "ml folks in Bangalore",
		Identity: "user-1",
	})
	if err != nil {
		t.Fatalf("HandleQuery() error = %v", err)
	}
	if payload.NeedsClarification {
		t.Fatalf("confident query must not clarify")
	}
	if searcher.calls != 1 {
		t.Fatalf("expected one search, got %d", searcher.calls)
	}
	if len(sessions.turns) != 1 || sessions.turns[0].ResultCount != 7 {
		t.Fatalf("turn must record the total result count, got %+v", sessions.turns)
	}
	if sessions.turns[0].Entities.Location != "Bangalore" {
		t.Fatalf("turn must carry the understood entities")
	}
}

func TestHandleQueryPropagatesStoreFailure(t *testing.T) {
	understander := &fakeUnderstander{result: domain.UnderstandingResult{Confidence: 0.9}}
	searcher := &fakeSearcher{err: domain.WrapError(
		domain.ErrStoreUnavailable, "search", errors.New("both paths down"))}
	sessions := &fakeSessions{}
	svc := newQueryService(understander, searcher, sessions)

	_, err := svc.HandleQuery(context.Background(), domain.Query{Text: "golang", Identity: "user-1"})
	if !domain.IsKind(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store-unavailable, got %v", err)
	}
	if len(sessions.turns) != 0 {
		t.Fatalf("failed queries must not pollute conversation history")
	}
}

func TestEffectivePageCapsSizeAtMaxResults(t *testing.T) {
	page := effectivePage(domain.Query{
		Options: domain.SearchOptions{MaxResults: 5},
		Page:    domain.Page{Number: 1, Size: 50},
	})
	if page.Size != 5 {
		t.Fatalf("page size must be capped at max results, got %d", page.Size)
	}
}
