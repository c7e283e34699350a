package failover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/infrastructure/resilience"
)

type fakeProvider struct {
	name       string
	embedCalls int
	chatCalls  int
	err        error
	intent     domain.Intent
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) EmbedModelID() string { return f.name + "/embed-model" }

func (f *fakeProvider) EmbedTexts(_ context.Context, texts []string) ([]domain.EmbeddingVector, error) {
	f.embedCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.EmbeddingVector, len(texts))
	for i := range texts {
		out[i] = domain.EmbeddingVector{Values: []float32{0.1, 0.2}, Model: f.EmbedModelID()}
	}
	return out, nil
}

func (f *fakeProvider) Understand(context.Context, string, *domain.ContextSummary) (domain.UnderstandingResult, error) {
	f.chatCalls++
	if f.err != nil {
		return domain.UnderstandingResult{}, f.err
	}
	return domain.UnderstandingResult{
		Intent: f.intent, Confidence: 0.9, Source: domain.SourceLLM,
	}, nil
}

func newTestExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
}

func TestEmbedderFailsOverToSecondary(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: domain.WrapError(domain.ErrTemporary, "embed", errors.New("503"))}
	fallback := &fakeProvider{name: "fallback"}
	embedder := NewEmbedder(newTestExecutor(), nil, primary, fallback)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if vectors[0].Model != "fallback/embed-model" {
		t.Fatalf("expected fallback model tag, got %s", vectors[0].Model)
	}
	if primary.embedCalls != 1 || fallback.embedCalls != 1 {
		t.Fatalf("expected one call each, got primary=%d fallback=%d", primary.embedCalls, fallback.embedCalls)
	}
}

func TestEmbedderExhaustionIsTyped(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: domain.WrapError(domain.ErrTemporary, "embed", errors.New("down"))}
	fallback := &fakeProvider{name: "fallback", err: domain.WrapError(domain.ErrTemporary, "embed", errors.New("down"))}
	embedder := NewEmbedder(newTestExecutor(), nil, primary, fallback)

	_, err := embedder.EmbedTexts(context.Background(), []string{"hello"})
	if !domain.IsKind(err, domain.ErrAllProvidersUnavailable) {
		t.Fatalf("expected all-providers-unavailable, got %v", err)
	}
}

func TestEmbedderAllPermanentKeepsPermanentKind(t *testing.T) {
	rejected := domain.WrapError(domain.ErrProviderPermanent, "embed", errors.New("input too long"))
	primary := &fakeProvider{name: "primary", err: rejected}
	fallback := &fakeProvider{name: "fallback", err: rejected}
	embedder := NewEmbedder(newTestExecutor(), nil, primary, fallback)

	_, err := embedder.EmbedTexts(context.Background(), []string{"hello"})
	if !domain.IsKind(err, domain.ErrProviderPermanent) {
		t.Fatalf("expected permanent kind, got %v", err)
	}
	if domain.IsKind(err, domain.ErrAllProvidersUnavailable) {
		t.Fatalf("unanimous rejection must not read as unavailability: %v", err)
	}
}

func TestEmbedderSkipsOpenCircuit(t *testing.T) {
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})
	primary := &fakeProvider{name: "primary", err: domain.WrapError(domain.ErrTemporary, "embed", errors.New("down"))}
	fallback := &fakeProvider{name: "fallback"}
	embedder := NewEmbedder(exec, nil, primary, fallback)

	for i := 0; i < 2; i++ {
		if _, err := embedder.EmbedTexts(context.Background(), []string{"hello"}); err != nil {
			t.Fatalf("fallback should still serve request %d: %v", i, err)
		}
	}
	if !exec.CircuitOpen("embed.primary") {
		t.Fatalf("expected primary breaker to open after repeated failures")
	}

	callsBefore := primary.embedCalls
	if _, err := embedder.EmbedTexts(context.Background(), []string{"hello"}); err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if primary.embedCalls != callsBefore {
		t.Fatalf("open breaker must skip the provider, calls went %d -> %d", callsBefore, primary.embedCalls)
	}
}

func TestUnderstanderFailsOverToSecondary(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: domain.WrapError(domain.ErrTemporary, "understand", errors.New("timeout"))}
	fallback := &fakeProvider{name: "fallback", intent: domain.IntentFindMember}
	understander := NewUnderstander(newTestExecutor(), nil, primary, fallback)

	result, err := understander.Understand(context.Background(), "who knows golang?", nil)
	if err != nil {
		t.Fatalf("Understand() error = %v", err)
	}
	if result.Intent != domain.IntentFindMember {
		t.Fatalf("expected fallback result, got %+v", result)
	}
	if primary.chatCalls != 1 || fallback.chatCalls != 1 {
		t.Fatalf("expected one call each, got primary=%d fallback=%d", primary.chatCalls, fallback.chatCalls)
	}
}

func TestUnderstanderExhaustionIsTyped(t *testing.T) {
	down := domain.WrapError(domain.ErrTemporary, "understand", errors.New("down"))
	understander := NewUnderstander(newTestExecutor(), nil,
		&fakeProvider{name: "primary", err: down},
		&fakeProvider{name: "fallback", err: down},
	)

	_, err := understander.Understand(context.Background(), "anything", nil)
	if !domain.IsKind(err, domain.ErrAllProvidersUnavailable) {
		t.Fatalf("expected all-providers-unavailable, got %v", err)
	}
}

func TestUnderstanderCanceledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	primary := &fakeProvider{name: "primary", err: context.Canceled}
	fallback := &fakeProvider{name: "fallback"}
	understander := NewUnderstander(newTestExecutor(), nil, primary, fallback)

	_, err := understander.Understand(ctx, "anything", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fallback.chatCalls != 0 {
		t.Fatalf("cancellation must not fall through to the next provider")
	}
}
