package failover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/connectbase/member-search/internal/core/domain"
)

type fakeSource struct {
	models     []string
	queryCalls int
	batchCalls int
	model      string
	err        error
}

func (f *fakeSource) ModelIDs() []string { return f.models }

func (f *fakeSource) EmbedQuery(_ context.Context, _ string) (domain.EmbeddingVector, error) {
	f.queryCalls++
	if f.err != nil {
		return domain.EmbeddingVector{}, f.err
	}
	return domain.EmbeddingVector{Values: []float32{1, 2, 3}, Model: f.model}, nil
}

func (f *fakeSource) EmbedTexts(_ context.Context, texts []string) ([]domain.EmbeddingVector, error) {
	f.batchCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.EmbeddingVector, len(texts))
	for i := range texts {
		out[i] = domain.EmbeddingVector{Values: []float32{1, 2, 3}, Model: f.model}
	}
	return out, nil
}

func TestCachedEmbedderReusesVectorWithinTTL(t *testing.T) {
	source := &fakeSource{models: []string{"primary/embed-model"}, model: "primary/embed-model"}
	cached := NewCachedEmbedder(source, time.Minute)

	first, err := cached.EmbedQuery(context.Background(), "ml folks in bangalore")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	second, err := cached.EmbedQuery(context.Background(), "ml folks in bangalore")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if source.queryCalls != 1 {
		t.Fatalf("resubmission within TTL must not call the provider again, got %d calls", source.queryCalls)
	}
	if second.Model != first.Model {
		t.Fatalf("cached vector model changed: %s vs %s", first.Model, second.Model)
	}
}

func TestCachedEmbedderKeysByModel(t *testing.T) {
	source := &fakeSource{models: []string{"primary/embed-model"}, model: "primary/embed-model"}
	cached := NewCachedEmbedder(source, time.Minute)

	if _, err := cached.EmbedQuery(context.Background(), "golang devs"); err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}

	// Simulate a provider switch: the old model family left the chain,
	// so its cached vectors must not be served.
	source.models = []string{"fallback/embed-model"}
	source.model = "fallback/embed-model"
	vector, err := cached.EmbedQuery(context.Background(), "golang devs")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if source.queryCalls != 2 {
		t.Fatalf("model change must force a fresh embedding, got %d calls", source.queryCalls)
	}
	if vector.Model != "fallback/embed-model" {
		t.Fatalf("expected fresh model tag, got %s", vector.Model)
	}
}

func TestCachedEmbedderServesHitFromAnyConfiguredModel(t *testing.T) {
	source := &fakeSource{
		models: []string{"primary/embed-model", "fallback/embed-model"},
		model:  "fallback/embed-model",
	}
	cached := NewCachedEmbedder(source, time.Minute)

	// First call lands on the fallback model; the repeat must hit the
	// cache even though the primary model is probed first.
	if _, err := cached.EmbedQuery(context.Background(), "tax filing help"); err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if _, err := cached.EmbedQuery(context.Background(), "tax filing help"); err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if source.queryCalls != 1 {
		t.Fatalf("expected cache hit under fallback model, got %d calls", source.queryCalls)
	}
}

func TestCachedEmbedderDoesNotCacheFailures(t *testing.T) {
	source := &fakeSource{
		models: []string{"primary/embed-model"},
		err:    domain.WrapError(domain.ErrAllProvidersUnavailable, "embed", errors.New("down")),
	}
	cached := NewCachedEmbedder(source, time.Minute)

	if _, err := cached.EmbedQuery(context.Background(), "anything"); err == nil {
		t.Fatalf("expected error")
	}

	source.err = nil
	source.model = "primary/embed-model"
	if _, err := cached.EmbedQuery(context.Background(), "anything"); err != nil {
		t.Fatalf("recovered provider should serve, got %v", err)
	}
	if source.queryCalls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", source.queryCalls)
	}
}

func TestCachedEmbedderBatchPopulatesCache(t *testing.T) {
	source := &fakeSource{models: []string{"primary/embed-model"}, model: "primary/embed-model"}
	cached := NewCachedEmbedder(source, time.Minute)

	if _, err := cached.EmbedTexts(context.Background(), []string{"profile text"}); err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if _, err := cached.EmbedQuery(context.Background(), "profile text"); err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if source.queryCalls != 0 {
		t.Fatalf("batch result should satisfy the query path, got %d query calls", source.queryCalls)
	}
}
