package neo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meteor/madness/internal/metrics"
)

// Service ties the fetcher, disk cache, and store together with the
// degrade-to-snapshot policy.
type Service struct {
	log     *slog.Logger
	fetcher *Fetcher
	cache   *Cache
	store   *Store
}

// NewService creates a Service around the given components.
func NewService(log *slog.Logger, fetcher *Fetcher, cache *Cache, store *Store) *Service {
	return &Service{
		log:     log.With("component", "neo"),
		fetcher: fetcher,
		cache:   cache,
		store:   store,
	}
}

// Store returns the dataset store for handlers and gauges.
func (s *Service) Store() *Store {
	return s.store
}

// LoadCached seeds the store from the newest disk snapshot, falling
// back to the built-in dataset when none exists. Called once at
// startup; after this the store is never empty.
func (s *Service) LoadCached() {
	data, ts, err := s.cache.LoadLatest()
	if err == nil {
		ds, perr := Parse(data, "cache")
		if perr == nil {
			ds.FetchedAt = ts
			s.store.Set(ds)
			metrics.SetNEOObjectCount(len(ds.Objects))
			s.log.Info("loaded NEO data from cache", "count", len(ds.Objects), "cached_at", ts.Format(time.RFC3339))
			return
		}
		s.log.Warn("failed to parse cached NEO data", "error", perr)
	} else {
		s.log.Info("no NEO cache found, using fallback dataset", "error", err)
	}

	fb := Fallback()
	s.store.Set(fb)
	metrics.IncNEOFetches("fallback")
	metrics.SetNEOObjectCount(len(fb.Objects))
}

// Refresh fetches today's feed, parses it, snapshots it to disk, and
// swaps the store. On any failure the current dataset stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	s.store.Lock()
	defer s.store.Unlock()

	today := time.Now().UTC().Format("2006-01-02")
	data, err := s.fetcher.Fetch(ctx, today, today)
	if err != nil {
		metrics.IncNEOFetches("error")
		return fmt.Errorf("refreshing NEO feed: %w", err)
	}

	ds, err := Parse(data, s.fetcher.BaseURL())
	if err != nil {
		metrics.IncNEOFetches("error")
		return fmt.Errorf("refreshing NEO feed: %w", err)
	}

	if err := s.cache.Write(data, ds.FetchedAt); err != nil {
		// Snapshot failure is not fatal; the in-memory dataset still
		// updates.
		s.log.Warn("failed to snapshot NEO feed", "error", err)
	}

	s.store.Set(ds)
	metrics.IncNEOFetches("success")
	metrics.SetNEOObjectCount(len(ds.Objects))
	s.log.Info("refreshed NEO feed", "count", len(ds.Objects))
	return nil
}
