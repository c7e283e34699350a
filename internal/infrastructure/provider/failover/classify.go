package failover

import (
	"context"
	"errors"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/infrastructure/resilience"
)

// classifyDomainError translates the domain error taxonomy into executor
// directives. Permanent rejections must not count against a provider's
// breaker: a provider that correctly refuses bad input is healthy.
func classifyDomainError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case domain.IsKind(err, domain.ErrProviderPermanent):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case domain.IsKind(err, domain.ErrTemporary):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
}
