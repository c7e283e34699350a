package openai

import (
	"context"
	"errors"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/connectbase/member-search/internal/core/domain"
)

// classifyAPIError maps go-openai transport errors onto the domain error
// taxonomy: ErrTemporary feeds the retry/failover loop, ErrProviderPermanent
// stops retries against the same provider.
func classifyAPIError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return wrapByStatus(operation, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return wrapByStatus(operation, reqErr.HTTPStatusCode, err)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}

	// Unknown transport failure: assume transient so the fallback chain
	// gets a chance.
	return domain.WrapError(domain.ErrTemporary, operation, err)
}

func wrapByStatus(operation string, statusCode int, err error) error {
	if isRetryableHTTPStatus(statusCode) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return domain.WrapError(domain.ErrProviderPermanent, operation, err)
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
