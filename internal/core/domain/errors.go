package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks queries rejected before any processing.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTemporary marks transient provider failures eligible for
	// retry and fallback.
	ErrTemporary = errors.New("temporary failure")
	// ErrProviderPermanent marks requests a provider rejected outright;
	// callers must not retry the same provider.
	ErrProviderPermanent = errors.New("provider rejected request")
	// ErrAllProvidersUnavailable means every configured provider was
	// exhausted; callers should degrade, not crash.
	ErrAllProvidersUnavailable = errors.New("all providers unavailable")
	// ErrStoreUnavailable means the relevance store could not serve
	// either retrieval path.
	ErrStoreUnavailable = errors.New("relevance store unavailable")
	// ErrModelMismatch means a query vector and the indexed vectors were
	// produced by different model families.
	ErrModelMismatch = errors.New("embedding model mismatch")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
