package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/meteor/madness/internal/engine"
	"github.com/meteor/madness/internal/histcomp"
	"github.com/meteor/madness/internal/simstore"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeParams reads asteroid parameters from the request body. Returns
// false after writing the error response.
func (s *Server) decodeParams(w http.ResponseWriter, r *http.Request) (engine.AsteroidParameters, bool) {
	var params engine.AsteroidParameters
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return params, false
	}
	return params, true
}

// calculate runs the engine and writes validation failures as a 400
// with the full problem list.
func (s *Server) calculate(w http.ResponseWriter, r *http.Request, params engine.AsteroidParameters) (*engine.ImpactResult, bool) {
	res, err := s.engine.Calculate(r.Context(), params)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":    "invalid parameters",
				"problems": verr.Problems,
			})
			return nil, false
		}
		s.logger.Error("calculation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "calculation failed")
		return nil, false
	}
	return res, true
}

// handleCalculate runs a calculation without persisting it.
// POST /api/v1/impact/calculate
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	params, ok := s.decodeParams(w, r)
	if !ok {
		return
	}
	res, ok := s.calculate(w, r, params)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRunSimulation runs a calculation and persists it to history.
// POST /api/v1/simulations/run
func (s *Server) handleRunSimulation(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "simulation history unavailable")
		return
	}
	params, ok := s.decodeParams(w, r)
	if !ok {
		return
	}
	res, ok := s.calculate(w, r, params)
	if !ok {
		return
	}

	rec, err := s.store.Save(r.Context(), params, res)
	if err != nil {
		s.logger.Error("failed to save simulation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save simulation")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleListSimulations returns recent runs, newest first.
// GET /api/v1/simulations?limit=50
func (s *Server) handleListSimulations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "simulation history unavailable")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter, must be 1-500")
			return
		}
		limit = n
	}

	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list simulations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list simulations")
		return
	}
	if list == nil {
		list = []simstore.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"simulations": list})
}

// handleGetSimulation returns one stored run.
// GET /api/v1/simulations/{id}
func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "simulation history unavailable")
		return
	}
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, simstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "simulation not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load simulation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load simulation")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleComparison relates an energy to the nearest historical event.
// GET /api/v1/comparison?megatons=12
// Without a megatons parameter it returns the reference event table.
func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("megatons")
	if v == "" {
		writeJSON(w, http.StatusOK, map[string]any{"events": histcomp.Events()})
		return
	}
	mt, err := strconv.ParseFloat(v, 64)
	if err != nil || mt < 0 {
		writeError(w, http.StatusBadRequest, "invalid megatons parameter")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Comparison(mt))
}

// handleCacheStats reports memoization counters.
// GET /api/v1/cache/stats
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.CacheStats())
}

// handleCacheClear drops all memoized results.
// POST /api/v1/cache/clear
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleNEOFeed returns the current near-Earth-object dataset.
// GET /api/v1/neo/feed
func (s *Server) handleNEOFeed(w http.ResponseWriter, r *http.Request) {
	ds := s.neo.Store().Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "NEO data not loaded")
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// handleISS returns the current ISS position, optionally with a ground
// track.
// GET /api/v1/tracking/iss?track_minutes=10
func (s *Server) handleISS(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "tracking unavailable")
		return
	}

	now := time.Now().UTC()
	pos, err := s.tracker.PositionAt(now)
	if err != nil {
		s.logger.Error("ISS propagation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "propagation failed")
		return
	}

	resp := map[string]any{"position": pos}
	if v := r.URL.Query().Get("track_minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 180 {
			writeError(w, http.StatusBadRequest, "invalid track_minutes parameter, must be 1-180")
			return
		}
		resp["track"] = s.tracker.GroundTrack(now, time.Duration(n)*time.Minute, time.Minute)
	}
	writeJSON(w, http.StatusOK, resp)
}
