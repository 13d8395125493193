package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the store service Prometheus collectors. It also implements
// domain.Recorder for the degraded-path counters.
type Metrics struct {
	requestCounter  *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	requestSummary  *prometheus.SummaryVec
	searchFallbacks *prometheus.CounterVec
	recentDegraded  *prometheus.CounterVec
	favoriteToggles *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_service_requests_total",
				Help: "Total number of requests to store service",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_service_request_duration_seconds",
				Help:    "Duration of store service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		// p50, p90, p95, p99
		requestSummary: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "store_service_request_duration_summary",
				Help: "Summary of request durations with percentiles (client-side quantiles)",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.95: 0.01,
					0.99: 0.001,
				},
				MaxAge: 10 * time.Minute,
			},
			[]string{"method", "endpoint"},
		),
		searchFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_search_fallback_total",
				Help: "Searches answered by collection scan instead of the search index",
			},
			[]string{"reason"},
		),
		recentDegraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_recent_degraded_total",
				Help: "Recently-viewed operations skipped because Redis was unavailable",
			},
			[]string{"op"},
		),
		favoriteToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_favorite_toggles_total",
				Help: "Favorite toggles by resulting state",
			},
			[]string{"state"},
		),
	}

	reg.MustRegister(
		m.requestCounter,
		m.requestLatency,
		m.requestSummary,
		m.searchFallbacks,
		m.recentDegraded,
		m.favoriteToggles,
	)
	return m
}

func (m *Metrics) SearchFallback(reason string) {
	m.searchFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecentDegraded(op string) {
	m.recentDegraded.WithLabelValues(op).Inc()
}

func (m *Metrics) FavoriteToggled(favorited bool) {
	state := "removed"
	if favorited {
		state = "added"
	}
	m.favoriteToggles.WithLabelValues(state).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps a handler with request metrics labelled by endpoint
func (m *Metrics) Middleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		m.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		m.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		m.requestSummary.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}
