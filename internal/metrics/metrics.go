// Package metrics defines the Prometheus instruments for the impact
// service: HTTP traffic, engine calculations, memoization cache, SSE
// streams, and NEO feed refreshes.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meteor_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meteor_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	calculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meteor_impact_calculations_total",
			Help: "Total impact calculations by outcome (computed, cached, invalid).",
		},
		[]string{"outcome"},
	)

	calculationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meteor_impact_calculation_duration_seconds",
			Help:    "Full impact calculation duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	entrySimulationSteps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meteor_entry_simulation_steps",
			Help:    "Integration steps per atmospheric entry simulation.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10),
		},
	)

	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meteor_result_cache_hits_total",
			Help: "Result cache hits.",
		},
	)

	cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meteor_result_cache_misses_total",
			Help: "Result cache misses.",
		},
	)

	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meteor_result_cache_entries",
			Help: "Current result cache entry count.",
		},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meteor_streams_active",
			Help: "Currently connected trajectory streams.",
		},
	)

	streamMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meteor_stream_messages_total",
			Help: "SSE messages sent.",
		},
	)

	streamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meteor_stream_errors_total",
			Help: "SSE errors by kind.",
		},
		[]string{"kind"},
	)

	neoFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meteor_neo_fetches_total",
			Help: "NEO feed fetch attempts by outcome (success, error, fallback).",
		},
		[]string{"outcome"},
	)

	neoDatasetAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meteor_neo_dataset_age_seconds",
			Help: "Age of the current NEO dataset.",
		},
	)

	neoObjectCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meteor_neo_objects",
			Help: "Objects in the current NEO dataset.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		calculationsTotal,
		calculationDuration,
		entrySimulationSteps,
		cacheHits,
		cacheMisses,
		cacheEntries,
		streamsActive,
		streamMessages,
		streamErrors,
		neoFetchesTotal,
		neoDatasetAge,
		neoObjectCount,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCalculation observes one full calculation.
func RecordCalculation(outcome string, d time.Duration) {
	calculationsTotal.WithLabelValues(outcome).Inc()
	if outcome == "computed" {
		calculationDuration.Observe(d.Seconds())
	}
}

// ObserveEntrySteps records the step count of one entry simulation.
func ObserveEntrySteps(n int) {
	entrySimulationSteps.Observe(float64(n))
}

// Cache instrumentation.
func IncCacheHits()         { cacheHits.Inc() }
func IncCacheMisses()       { cacheMisses.Inc() }
func SetCacheEntries(n int) { cacheEntries.Set(float64(n)) }

// Stream instrumentation.
func IncStreamsActive()           { streamsActive.Inc() }
func DecStreamsActive()           { streamsActive.Dec() }
func IncStreamMessages()          { streamMessages.Inc() }
func IncStreamErrors(kind string) { streamErrors.WithLabelValues(kind).Inc() }

// NEO feed instrumentation.
func IncNEOFetches(outcome string) { neoFetchesTotal.WithLabelValues(outcome).Inc() }
func SetNEODatasetAge(sec float64) { neoDatasetAge.Set(sec) }
func SetNEOObjectCount(n int)      { neoObjectCount.Set(float64(n)) }

// knownRoutes are the exact paths exported as metric labels.
var knownRoutes = map[string]bool{
	"/":                             true,
	"/healthz":                      true,
	"/readyz":                       true,
	"/metrics":                      true,
	"/api/v1/impact/calculate":      true,
	"/api/meteors/calculate-impact": true,
	"/api/v1/simulations/run":       true,
	"/api/simulations/run":          true,
	"/api/v1/simulations":           true,
	"/api/v1/comparison":            true,
	"/api/v1/cache/stats":           true,
	"/api/v1/cache/clear":           true,
	"/api/v1/neo/feed":              true,
	"/api/v1/tracking/iss":          true,
	"/api/v1/stream/trajectory":     true,
}

// normalizeRoute bounds metric label cardinality: parameterized routes
// collapse to a placeholder, unknown paths (bots, scanners) collapse to
// "other".
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/simulations/") {
		return "/api/v1/simulations/{id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the wrapped writer to http.ResponseController so
// streaming handlers keep flush and deadline control.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
