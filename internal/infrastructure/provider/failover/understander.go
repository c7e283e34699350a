package failover

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/infrastructure/resilience"
)

// UnderstandingProvider is one language model endpoint in the chain.
type UnderstandingProvider interface {
	Name() string
	Understand(ctx context.Context, query string, summary *domain.ContextSummary) (domain.UnderstandingResult, error)
}

// Understander fails over across language model providers the same way
// Embedder does for vectors. Schema-invalid output counts as a permanent
// rejection of the request, not as provider unhealth.
type Understander struct {
	providers []UnderstandingProvider
	exec      *resilience.Executor
	logger    *slog.Logger
	observe   func(provider, operation string, duration time.Duration, err error)
}

func NewUnderstander(exec *resilience.Executor, logger *slog.Logger, providers ...UnderstandingProvider) *Understander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Understander{providers: providers, exec: exec, logger: logger}
}

// WithObserver registers a callback invoked once per attempted provider
// call with its duration and outcome.
func (u *Understander) WithObserver(fn func(provider, operation string, duration time.Duration, err error)) *Understander {
	u.observe = fn
	return u
}

func (u *Understander) Understand(ctx context.Context, query string, summary *domain.ContextSummary) (domain.UnderstandingResult, error) {
	var lastErr error
	allPermanent := true
	for _, p := range u.providers {
		operation := "understand." + p.Name()
		if u.exec.CircuitOpen(operation) {
			u.logger.Warn("understand_provider_skipped", "provider", p.Name(), "reason", "circuit_open")
			allPermanent = false
			continue
		}

		var result domain.UnderstandingResult
		start := time.Now()
		err := u.exec.Execute(ctx, operation, func(ctx context.Context) error {
			r, err := p.Understand(ctx, query, summary)
			if err != nil {
				return err
			}
			result = r
			return nil
		}, classifyDomainError)
		if u.observe != nil {
			u.observe(p.Name(), "understand", time.Since(start), err)
		}
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) {
			return domain.UnderstandingResult{}, err
		}

		lastErr = err
		if !domain.IsKind(err, domain.ErrProviderPermanent) || resilience.IsCircuitOpen(err) {
			allPermanent = false
		}
		u.logger.Warn("understand_provider_failed", "provider", p.Name(), "error", err)
	}

	if lastErr == nil {
		return domain.UnderstandingResult{}, domain.WrapError(domain.ErrAllProvidersUnavailable, "understand",
			errors.New("no language model provider accepted the request"))
	}
	if allPermanent {
		return domain.UnderstandingResult{}, lastErr
	}
	return domain.UnderstandingResult{}, domain.WrapError(domain.ErrAllProvidersUnavailable, "understand", lastErr)
}
