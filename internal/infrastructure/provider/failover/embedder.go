package failover

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/infrastructure/resilience"
)

// EmbeddingProvider is one endpoint in the failover chain.
type EmbeddingProvider interface {
	Name() string
	EmbedModelID() string
	EmbedTexts(ctx context.Context, texts []string) ([]domain.EmbeddingVector, error)
}

// Embedder walks an ordered provider chain: the first provider that
// returns vectors wins. Providers whose breaker is open are skipped
// without an attempt, so an outage on the primary costs one breaker
// window, not one timeout per query.
type Embedder struct {
	providers []EmbeddingProvider
	exec      *resilience.Executor
	logger    *slog.Logger
	observe   func(provider, operation string, duration time.Duration, err error)
}

func NewEmbedder(exec *resilience.Executor, logger *slog.Logger, providers ...EmbeddingProvider) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{providers: providers, exec: exec, logger: logger}
}

// WithObserver registers a callback invoked once per attempted provider
// call with its duration and outcome.
func (e *Embedder) WithObserver(fn func(provider, operation string, duration time.Duration, err error)) *Embedder {
	e.observe = fn
	return e
}

// ModelIDs lists the model identities of the chain in failover order.
// The cache layer uses them to probe for hits across provider switches.
func (e *Embedder) ModelIDs() []string {
	ids := make([]string, 0, len(e.providers))
	for _, p := range e.providers {
		ids = append(ids, p.EmbedModelID())
	}
	return ids
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) (domain.EmbeddingVector, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingVector{}, err
	}
	return vectors[0], nil
}

func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([]domain.EmbeddingVector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var lastErr error
	allPermanent := true
	for _, p := range e.providers {
		operation := "embed." + p.Name()
		if e.exec.CircuitOpen(operation) {
			e.logger.Warn("embed_provider_skipped", "provider", p.Name(), "reason", "circuit_open")
			allPermanent = false
			continue
		}

		var vectors []domain.EmbeddingVector
		start := time.Now()
		err := e.exec.Execute(ctx, operation, func(ctx context.Context) error {
			result, err := p.EmbedTexts(ctx, texts)
			if err != nil {
				return err
			}
			vectors = result
			return nil
		}, classifyDomainError)
		if e.observe != nil {
			e.observe(p.Name(), "embed", time.Since(start), err)
		}
		if err == nil {
			return vectors, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		lastErr = err
		if !domain.IsKind(err, domain.ErrProviderPermanent) || resilience.IsCircuitOpen(err) {
			allPermanent = false
		}
		e.logger.Warn("embed_provider_failed", "provider", p.Name(), "error", err)
	}

	if lastErr == nil {
		return nil, domain.WrapError(domain.ErrAllProvidersUnavailable, "embed",
			errors.New("no embedding provider accepted the request"))
	}
	if allPermanent {
		// Every provider rejected the request itself; retrying elsewhere
		// or later will not help, so keep the permanent kind.
		return nil, lastErr
	}
	return nil, domain.WrapError(domain.ErrAllProvidersUnavailable, "embed", lastErr)
}
