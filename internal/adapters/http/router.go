package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/core/ports"
	"github.com/connectbase/member-search/internal/observability/metrics"
)

// Pinger is a dependency the health endpoint probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router is the thin REST surface over the query core. Routing and
// payload validation live here; everything else belongs to the use
// cases.
type Router struct {
	queries ports.DirectoryQueryService
	metrics *metrics.SearchMetrics
	service string
	pingers map[string]Pinger
}

func NewRouter(queries ports.DirectoryQueryService, searchMetrics *metrics.SearchMetrics, service string) *Router {
	return &Router{
		queries: queries,
		metrics: searchMetrics,
		service: service,
		pingers: make(map[string]Pinger),
	}
}

// WithHealthCheck registers a named dependency for /v1/healthz.
func (rt *Router) WithHealthCheck(name string, pinger Pinger) *Router {
	rt.pingers[name] = pinger
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(identityMiddleware(accessLogMiddleware(handler)))
}

type searchRequest struct {
	Query              string              `json:"query"`
	MaxResults         int                 `json:"max_results"`
	IncludeResponse    bool                `json:"include_response"`
	IncludeSuggestions bool                `json:"include_suggestions"`
	Filter             domain.SearchFilter `json:"filter"`
	Page               domain.Page         `json:"page"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	identity := identityFromContext(r.Context())
	if identity == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "caller identity is required"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	payload, err := rt.queries.HandleQuery(r.Context(), domain.Query{
		Text:     req.Query,
		Identity: identity,
		Options: domain.SearchOptions{
			MaxResults:         req.MaxResults,
			IncludeResponse:    req.IncludeResponse,
			IncludeSuggestions: req.IncludeSuggestions,
		},
		Filter: req.Filter,
		Page:   req.Page,
	})
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordSearch(rt.service,
			string(payload.Understanding.Source),
			string(payload.Understanding.Intent),
			payload.PageInfo.TotalResults,
			time.Since(start),
		)
		if payload.NeedsClarification {
			rt.metrics.RecordClarification(rt.service)
		}
		if payload.Degraded != "" {
			rt.metrics.RecordDegradedSearch(rt.service, payload.Degraded)
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(rt.pingers))
	healthy := true
	for name, pinger := range rt.pingers {
		if err := pinger.Ping(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": overall, "checks": checks})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
