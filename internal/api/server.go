// Package api wires the HTTP surface: impact calculation, simulation
// history, comparisons, the NEO feed, ISS tracking, trajectory
// streaming, and operational endpoints.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/meteor/madness/internal/auth"
	"github.com/meteor/madness/internal/engine"
	"github.com/meteor/madness/internal/health"
	"github.com/meteor/madness/internal/metrics"
	"github.com/meteor/madness/internal/neo"
	"github.com/meteor/madness/internal/simstore"
	"github.com/meteor/madness/internal/stream"
	"github.com/meteor/madness/internal/tracking"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	engine  *engine.Engine
	neo     *neo.Service
	tracker *tracking.Tracker
	store   *simstore.Store
}

// NewServer creates a configured HTTP server. The tracker and store may
// be nil; their endpoints then report 503.
func NewServer(
	addr string,
	logger *slog.Logger,
	authCfg auth.Config,
	eng *engine.Engine,
	neoSvc *neo.Service,
	tracker *tracking.Tracker,
	store *simstore.Store,
	streamHandler *stream.Handler,
) *Server {
	s := &Server{
		logger:  logger,
		engine:  eng,
		neo:     neoSvc,
		tracker: tracker,
		store:   store,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/v1/impact/calculate", s.handleCalculate)
	// Alias kept for clients of the original route layout.
	mux.HandleFunc("POST /api/meteors/calculate-impact", s.handleCalculate)

	mux.HandleFunc("POST /api/v1/simulations/run", s.handleRunSimulation)
	mux.HandleFunc("POST /api/simulations/run", s.handleRunSimulation)
	mux.HandleFunc("GET /api/v1/simulations", s.handleListSimulations)
	mux.HandleFunc("GET /api/v1/simulations/{id}", s.handleGetSimulation)

	mux.HandleFunc("GET /api/v1/comparison", s.handleComparison)

	mux.HandleFunc("GET /api/v1/cache/stats", s.handleCacheStats)
	mux.HandleFunc("POST /api/v1/cache/clear", s.handleCacheClear)

	mux.HandleFunc("GET /api/v1/neo/feed", s.handleNEOFeed)
	mux.HandleFunc("GET /api/v1/tracking/iss", s.handleISS)

	mux.HandleFunc("GET /api/v1/stream/trajectory", streamHandler.HandleTrajectory)

	// Middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control
// (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the wrapped writer to http.ResponseController so
// streaming handlers keep flush and deadline control.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
