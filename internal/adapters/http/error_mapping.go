package httpadapter

import (
	"net/http"

	"github.com/connectbase/member-search/internal/core/domain"
)

// mapErrorToHTTPStatus translates the domain taxonomy for the REST
// surface. Degraded understanding never reaches here; only hard
// failures do.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrAllProvidersUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
