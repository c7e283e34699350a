package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SearchMetrics holds the registry for the query-serving process: HTTP
// traffic plus the search pipeline's own counters.
type SearchMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchTotal          *prometheus.CounterVec
	searchDuration       *prometheus.HistogramVec
	searchDegradedTotal  *prometheus.CounterVec
	clarificationTotal   *prometheus.CounterVec
	providerRequests     *prometheus.CounterVec
	providerDuration     *prometheus.HistogramVec
	embedCacheTotal      *prometheus.CounterVec
	breakerTransitions   *prometheus.CounterVec
	searchResultsPerPage *prometheus.HistogramVec
}

func NewSearchMetrics(service string) *SearchMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cds",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cds",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cds",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cds",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total completed searches by understanding source.",
		},
		[]string{"service", "source", "intent"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cds",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "End-to-end query handling duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)
	searchDegradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cds",
			Subsystem: "search",
			Name:      "degraded_total",
			Help:      "Searches served with one retrieval path unavailable.",
		},
		[]string{"service", "path"},
	)
	clarificationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cds",
			Subsystem: "search",
			Name:      "clarifications_total",
			Help:      "Queries answered with a clarification request.",
		},
		[]string{"service"},
	)
	providerRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cds",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider calls by operation and outcome.",
		},
		[]string{"service", "provider", "operation", "status"},
	)
	providerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cds",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Provider call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "provider", "operation"},
	)
	embedCacheTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cds",
			Subsystem: "embed_cache",
			Name:      "lookups_total",
			Help:      "Embedding cache lookups by result.",
		},
		[]string{"service", "result"},
	)
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cds",
			Subsystem: "breaker",
			Name:      "transitions_total",
			Help:      "Circuit breaker state transitions by operation.",
		},
		[]string{"service", "operation", "from", "to"},
	)
	searchResultsPerPage := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cds",
			Subsystem: "search",
			Name:      "results_per_query",
			Help:      "Distribution of total matches per completed search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchTotal,
		searchDuration,
		searchDegradedTotal,
		clarificationTotal,
		providerRequests,
		providerDuration,
		embedCacheTotal,
		breakerTransitions,
		searchResultsPerPage,
	)

	return &SearchMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		searchTotal:          searchTotal,
		searchDuration:       searchDuration,
		searchDegradedTotal:  searchDegradedTotal,
		clarificationTotal:   clarificationTotal,
		providerRequests:     providerRequests,
		providerDuration:     providerDuration,
		embedCacheTotal:      embedCacheTotal,
		breakerTransitions:   breakerTransitions,
		searchResultsPerPage: searchResultsPerPage,
	}
}

func (m *SearchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SearchMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/members/"):
		return "/v1/members/{membership_id}"
	default:
		return path
	}
}

func (m *SearchMetrics) RecordSearch(service, source, intent string, totalResults int, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if intent == "" {
		intent = "unknown"
	}
	m.searchTotal.WithLabelValues(service, source, intent).Inc()
	m.searchDuration.WithLabelValues(service, source).Observe(duration.Seconds())
	m.searchResultsPerPage.WithLabelValues(service).Observe(float64(totalResults))
}

func (m *SearchMetrics) RecordDegradedSearch(service, path string) {
	if path == "" {
		return
	}
	m.searchDegradedTotal.WithLabelValues(service, path).Inc()
}

func (m *SearchMetrics) RecordClarification(service string) {
	m.clarificationTotal.WithLabelValues(service).Inc()
}

func (m *SearchMetrics) RecordProviderCall(service, provider, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.providerRequests.WithLabelValues(service, provider, operation, status).Inc()
	m.providerDuration.WithLabelValues(service, provider, operation).Observe(duration.Seconds())
}

func (m *SearchMetrics) RecordEmbedCacheLookup(service string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.embedCacheTotal.WithLabelValues(service, result).Inc()
}

func (m *SearchMetrics) RecordBreakerTransition(service, operation, from, to string) {
	m.breakerTransitions.WithLabelValues(service, operation, from, to).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
