// Package engine runs the full impact calculation pipeline: parameters
// to mass and energy, through atmospheric entry, then crater, blast,
// environmental, casualty, and economic stages, assembled into one
// immutable result. Results are memoized by a canonical serialization of
// the input parameters.
package engine

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meteor/madness/internal/blast"
	"github.com/meteor/madness/internal/casualty"
	"github.com/meteor/madness/internal/crater"
	"github.com/meteor/madness/internal/energy"
	"github.com/meteor/madness/internal/entry"
	"github.com/meteor/madness/internal/environ"
	"github.com/meteor/madness/internal/histcomp"
	"github.com/meteor/madness/internal/material"
	"github.com/meteor/madness/internal/metrics"
)

const (
	baseConfidence     = 0.85
	liveDataConfidence = 0.05

	// uncertaintyFraction bounds the reported energy range. The models
	// carry far more error than this; the range is presentational.
	uncertaintyFraction = 0.30

	// maxResultTrajectoryPoints bounds the trajectory embedded in a
	// result. The full-resolution trajectory stays available through
	// SimulateEntry.
	maxResultTrajectoryPoints = 600

	defaultCacheLimit = 1024
)

// Config holds engine settings.
type Config struct {
	Entry      entry.Config
	CacheLimit int // max memoized results, 0 selects the default
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	return Config{
		Entry:      entry.DefaultConfig(),
		CacheLimit: defaultCacheLimit,
	}
}

// UncertaintyRange is the reported energy bound in TNT megatons.
type UncertaintyRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ImpactResult is the assembled output of one calculation. It is
// immutable once produced; cached copies are shared between callers.
type ImpactResult struct {
	ImpactEnergy   float64 `json:"impactEnergy"` // joules
	EnergyMegatons float64 `json:"energyMegatons"`
	Mass           float64 `json:"mass"` // kg

	crater.Crater
	blast.Effects

	EnvironmentalEffects environ.Effects         `json:"environmentalEffects"`
	Casualties           casualty.Casualties     `json:"casualties"`
	EconomicDamage       casualty.EconomicDamage `json:"economicDamage"`
	HistoricalComparison histcomp.Comparison     `json:"historicalComparison"`

	Confidence       float64          `json:"confidence"`
	UncertaintyRange UncertaintyRange `json:"uncertaintyRange"`

	ImpactLocation *Location               `json:"impactLocation,omitempty"`
	Trajectory     []entry.TrajectoryPoint `json:"trajectory"`

	Fragmented    bool `json:"fragmentationOccurred"`
	ReachedGround bool `json:"reachedGround"`
	Incomplete    bool `json:"incomplete"`

	ComputedAt time.Time `json:"computedAt"`
}

// Stats reports cache behavior since startup or the last clear.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Engine runs calculations and memoizes results. Safe for concurrent
// use; concurrent calls with identical parameters compute at most once.
type Engine struct {
	log *slog.Logger
	cfg Config

	mu       sync.Mutex
	cache    map[string]*ImpactResult
	inflight map[string]chan struct{}

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates an engine with the given settings.
func New(log *slog.Logger, cfg Config) *Engine {
	if cfg.CacheLimit <= 0 {
		cfg.CacheLimit = defaultCacheLimit
	}
	if cfg.Entry.Step <= 0 {
		cfg.Entry = entry.DefaultConfig()
	}
	return &Engine{
		log:      log.With("component", "engine"),
		cfg:      cfg,
		cache:    make(map[string]*ImpactResult),
		inflight: make(map[string]chan struct{}),
	}
}

// Calculate runs the full pipeline for the given parameters, returning
// a cached result when an identical input was computed before. The
// returned result is shared; callers must not modify it.
func (e *Engine) Calculate(ctx context.Context, params AsteroidParameters) (*ImpactResult, error) {
	params.Normalize()
	if err := params.Validate(); err != nil {
		metrics.RecordCalculation("invalid", 0)
		return nil, err
	}

	key := params.cacheKey()

	for {
		e.mu.Lock()
		if res, ok := e.cache[key]; ok {
			e.mu.Unlock()
			e.hits.Add(1)
			metrics.IncCacheHits()
			metrics.RecordCalculation("cached", 0)
			return res, nil
		}
		if done, ok := e.inflight[key]; ok {
			// Another goroutine is computing this key; wait and re-check.
			e.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		done := make(chan struct{})
		e.inflight[key] = done
		e.mu.Unlock()

		e.misses.Add(1)
		metrics.IncCacheMisses()

		start := time.Now()
		res := e.compute(params)
		metrics.RecordCalculation("computed", time.Since(start))

		e.mu.Lock()
		if len(e.cache) >= e.cfg.CacheLimit {
			// Coarse eviction: drop arbitrary entries until under the limit.
			for k := range e.cache {
				delete(e.cache, k)
				if len(e.cache) < e.cfg.CacheLimit {
					break
				}
			}
		}
		e.cache[key] = res
		delete(e.inflight, key)
		entries := len(e.cache)
		e.mu.Unlock()
		close(done)

		metrics.SetCacheEntries(entries)
		e.log.Debug("calculation complete",
			"diameter", params.Diameter,
			"velocity", params.Velocity,
			"megatons", res.EnergyMegatons,
			"duration", time.Since(start),
		)
		return res, nil
	}
}

// SimulateEntry runs only the atmospheric entry stage at full trajectory
// resolution, for callers that want raw descent data.
func (e *Engine) SimulateEntry(params AsteroidParameters) (entry.Result, error) {
	params.Normalize()
	if err := params.Validate(); err != nil {
		return entry.Result{}, err
	}

	props, err := material.Lookup(params.Composition)
	if err != nil {
		return entry.Result{}, err
	}
	mass, err := energy.Mass(params.Diameter, params.Density)
	if err != nil {
		return entry.Result{}, err
	}

	res := entry.Simulate(e.cfg.Entry, entry.Input{
		Diameter: params.Diameter,
		Density:  params.Density,
		Mass:     mass,
		Velocity: params.Velocity * 1000,
		AngleDeg: params.Angle,
		Altitude: params.EntryAltitude * 1000,
		Material: props,
	})
	metrics.ObserveEntrySteps(len(res.Trajectory))
	return res, nil
}

// Comparison returns the nearest historical event for an energy in TNT
// megatons.
func (e *Engine) Comparison(megatons float64) histcomp.Comparison {
	return histcomp.Nearest(megatons)
}

// ClearCache drops every memoized result and resets the hit/miss
// counters.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]*ImpactResult)
	e.mu.Unlock()
	e.hits.Store(0)
	e.misses.Store(0)
	metrics.SetCacheEntries(0)
}

// CacheStats returns current cache counters.
func (e *Engine) CacheStats() Stats {
	e.mu.Lock()
	entries := len(e.cache)
	e.mu.Unlock()
	return Stats{
		Hits:    e.hits.Load(),
		Misses:  e.misses.Load(),
		Entries: entries,
	}
}

// compute runs the pipeline. Parameters are normalized and validated by
// the caller, so every stage here operates on trusted input.
func (e *Engine) compute(params AsteroidParameters) *ImpactResult {
	props, _ := material.Lookup(params.Composition)
	mass, _ := energy.Mass(params.Diameter, params.Density)
	totalEnergy, _ := energy.Kinetic(mass, params.Velocity*1000)
	megatons := energy.ToMegatons(totalEnergy)

	entryRes := entry.Simulate(e.cfg.Entry, entry.Input{
		Diameter: params.Diameter,
		Density:  params.Density,
		Mass:     mass,
		Velocity: params.Velocity * 1000,
		AngleDeg: params.Angle,
		Altitude: params.EntryAltitude * 1000,
		Material: props,
	})
	metrics.ObserveEntrySteps(len(entryRes.Trajectory))

	// Ground-coupled energy drives the crater and seismic stages; for an
	// airburst it is zero. The blast, thermal, and environmental stages
	// scale with the total released energy regardless of where in the
	// atmosphere it was deposited.
	var groundEnergy float64
	var cr crater.Crater
	if entryRes.ReachedGround {
		groundEnergy = 0.5 * entryRes.FinalMass * entryRes.FinalVelocity * entryRes.FinalVelocity
		cr = crater.Compute(entryRes.FinalVelocity, entryRes.FinalMass, params.Angle, params.Density, params.TargetDensity)
	}

	fx := blast.Compute(totalEnergy, groundEnergy)

	var lat float64
	hasLocation := params.Location != nil
	if hasLocation {
		lat = params.Location.Latitude
	}

	env := environ.Compute(totalEnergy, lat, hasLocation)

	rings := casualty.RingRadii{
		Lethal:   fx.BlastRadius.Lethal,
		Severe:   fx.BlastRadius.Severe,
		Moderate: fx.BlastRadius.Moderate,
		Light:    fx.BlastRadius.Light,
	}
	cas := casualty.Estimate(rings, params.PopulationDensity, lat, hasLocation)
	econ := casualty.EstimateEconomic(rings, cas, params.PopulationDensity, lat, hasLocation)

	confidence := baseConfidence
	if params.LiveData {
		confidence += liveDataConfidence
	}

	return &ImpactResult{
		ImpactEnergy:   totalEnergy,
		EnergyMegatons: megatons,
		Mass:           mass,

		Crater:  cr,
		Effects: fx,

		EnvironmentalEffects: env,
		Casualties:           cas,
		EconomicDamage:       econ,
		HistoricalComparison: histcomp.Nearest(megatons),

		Confidence: confidence,
		UncertaintyRange: UncertaintyRange{
			Min: megatons * (1 - uncertaintyFraction),
			Max: megatons * (1 + uncertaintyFraction),
		},

		ImpactLocation: params.Location,
		Trajectory:     decimate(entryRes.Trajectory, maxResultTrajectoryPoints),

		Fragmented:    entryRes.Fragmented,
		ReachedGround: entryRes.ReachedGround,
		Incomplete:    entryRes.Incomplete,

		ComputedAt: time.Now().UTC(),
	}
}

// decimate thins a trajectory to at most limit points by stride
// sampling, always keeping the first and last points. Order is
// preserved.
func decimate(pts []entry.TrajectoryPoint, limit int) []entry.TrajectoryPoint {
	if len(pts) <= limit || limit < 2 {
		return pts
	}
	stride := float64(len(pts)-1) / float64(limit-1)
	out := make([]entry.TrajectoryPoint, 0, limit)
	for i := 0; i < limit-1; i++ {
		out = append(out, pts[int(math.Round(float64(i)*stride))])
	}
	return append(out, pts[len(pts)-1])
}
