// Package stream implements Server-Sent Events playback of atmospheric
// entry trajectories. Clients connect via GET /api/v1/stream/trajectory
// with asteroid parameters in the query string and receive the descent
// replayed at a configurable time-compression factor.
//
// SSE message format:
//
//	data: {"type":"trajectory","points":[...]}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","totalPoints":5400,"entryDuration":270.1,...}\n\n
//
// A final message reports completion:
//
//	data: {"type":"complete","reachedGround":true,...}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/meteor/madness/internal/engine"
	"github.com/meteor/madness/internal/entry"
	"github.com/meteor/madness/internal/httputil"
	"github.com/meteor/madness/internal/material"
	"github.com/meteor/madness/internal/metrics"
)

// Playback bounds for the speed query parameter (simulated seconds per
// wall second).
const (
	minSpeed     = 1
	maxSpeed     = 100_000
	defaultSpeed = 10

	tickInterval = 100 * time.Millisecond
)

// Config holds streaming settings.
type Config struct {
	MaxConcurrentPerIP int           // default 10
	KeepaliveInterval  time.Duration // default 30s
	TrustProxy         bool
}

// Handler serves trajectory playback streams.
type Handler struct {
	engine  *engine.Engine
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a streaming handler on top of the calculation
// engine.
func NewHandler(eng *engine.Engine, config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		engine:  eng,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger.With("component", "stream"),
	}
}

type metadataMessage struct {
	Type          string  `json:"type"`
	TotalPoints   int     `json:"totalPoints"`
	EntryDuration float64 `json:"entryDuration"`
	Speed         float64 `json:"speed"`
	Fragmented    bool    `json:"fragmentationOccurred"`
}

type trajectoryMessage struct {
	Type   string                  `json:"type"`
	Points []entry.TrajectoryPoint `json:"points"`
}

type completeMessage struct {
	Type          string  `json:"type"`
	ReachedGround bool    `json:"reachedGround"`
	Incomplete    bool    `json:"incomplete"`
	FinalVelocity float64 `json:"finalVelocity"`
	FinalMass     float64 `json:"finalMass"`
}

// HandleTrajectory serves the SSE trajectory stream.
// GET /api/v1/stream/trajectory?diameter=20&velocity=19&angle=18&speed=10
func (h *Handler) HandleTrajectory(w http.ResponseWriter, r *http.Request) {
	params, speed, err := parseStreamParams(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Run the simulation up front; playback only replays the points.
	res, err := h.engine.SimulateEntry(params)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			writeJSONError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "simulation failed")
		return
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Retry-After", "30")
		writeJSONError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}

	metrics.IncStreamsActive()
	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"points", len(res.Trajectory),
		"speed", speed,
	)

	defer func() {
		h.limiter.release(ip)
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		metrics.IncStreamErrors("no_flush")
		h.logger.Warn("streaming not supported by connection", "remote_ip", ip, "error", err)
		return
	}

	// Clear the server's default WriteTimeout for this connection.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:      w,
		rc:     rc,
		ip:     ip,
		logger: h.logger,
	}

	// Jittered retry interval (3-7s) avoids reconnection storms after a
	// restart.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	rc.Flush()

	if err := c.sendJSON(metadataMessage{
		Type:          "metadata",
		TotalPoints:   len(res.Trajectory),
		EntryDuration: res.Duration,
		Speed:         speed,
		Fragmented:    res.Fragmented,
	}); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	var (
		next    int
		simTime float64
	)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			simTime += speed * tickInterval.Seconds()

			batchEnd := next
			for batchEnd < len(res.Trajectory) && res.Trajectory[batchEnd].Time <= simTime {
				batchEnd++
			}
			if batchEnd > next {
				if err := c.sendJSON(trajectoryMessage{
					Type:   "trajectory",
					Points: res.Trajectory[next:batchEnd],
				}); err != nil {
					metrics.IncStreamErrors("send_error")
					h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
					return
				}
				next = batchEnd
				keepaliveTicker.Reset(h.config.KeepaliveInterval)
			}

			if next >= len(res.Trajectory) {
				if err := c.sendJSON(completeMessage{
					Type:          "complete",
					ReachedGround: res.ReachedGround,
					Incomplete:    res.Incomplete,
					FinalVelocity: res.FinalVelocity,
					FinalMass:     res.FinalMass,
				}); err != nil {
					metrics.IncStreamErrors("send_error")
				}
				return
			}

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// parseStreamParams extracts asteroid parameters and the playback speed
// from the query string.
func parseStreamParams(r *http.Request) (engine.AsteroidParameters, float64, error) {
	q := r.URL.Query()

	parse := func(name string, required bool) (float64, error) {
		v := q.Get(name)
		if v == "" {
			if required {
				return 0, fmt.Errorf("missing required parameter %q", name)
			}
			return 0, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s parameter %q", name, v)
		}
		return f, nil
	}

	var params engine.AsteroidParameters
	var err error
	if params.Diameter, err = parse("diameter", true); err != nil {
		return params, 0, err
	}
	if params.Velocity, err = parse("velocity", true); err != nil {
		return params, 0, err
	}
	if params.Angle, err = parse("angle", true); err != nil {
		return params, 0, err
	}
	if params.Density, err = parse("density", false); err != nil {
		return params, 0, err
	}
	params.Composition = material.Composition(q.Get("composition"))

	speed := float64(defaultSpeed)
	if v := q.Get("speed"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < minSpeed || f > maxSpeed {
			return params, 0, fmt.Errorf("invalid speed parameter, must be %d-%d", minSpeed, maxSpeed)
		}
		speed = f
	}

	return params, speed, nil
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
