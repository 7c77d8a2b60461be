package simstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/meteor/madness/internal/engine"
	"github.com/meteor/madness/internal/material"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testStore(t *testing.T, maxRows int) *Store {
	t.Helper()
	s, err := Open(testLogger(), Config{
		Path:    filepath.Join(t.TempDir(), "test.db"),
		MaxRows: maxRows,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(diameter float64) (engine.AsteroidParameters, *engine.ImpactResult) {
	params := engine.AsteroidParameters{
		Diameter:    diameter,
		Density:     3300,
		Velocity:    19,
		Angle:       45,
		Composition: material.Rocky,
	}
	result := &engine.ImpactResult{
		ImpactEnergy:   2.5e15,
		EnergyMegatons: 0.6,
		Mass:           1.4e7,
		ComputedAt:     time.Now().UTC(),
	}
	return params, result
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := testStore(t, 10)
	ctx := context.Background()

	params, result := testRun(20)
	rec, err := s.Save(ctx, params, result)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("empty record ID")
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Parameters.Diameter != 20 || got.Parameters.Composition != material.Rocky {
		t.Errorf("parameters round trip: %+v", got.Parameters)
	}
	if got.Result.EnergyMegatons != 0.6 {
		t.Errorf("result round trip: megatons = %g", got.Result.EnergyMegatons)
	}
}

func TestGetMissing(t *testing.T) {
	s := testStore(t, 10)
	if _, err := s.Get(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t, 10)
	ctx := context.Background()

	var lastID string
	for _, d := range []float64{10, 20, 30} {
		params, result := testRun(d)
		rec, err := s.Save(ctx, params, result)
		if err != nil {
			t.Fatal(err)
		}
		lastID = rec.ID
		time.Sleep(2 * time.Millisecond)
	}

	list, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d rows, want 2", len(list))
	}
	if list[0].ID != lastID {
		t.Error("list not newest-first")
	}
	if list[0].Diameter != 30 {
		t.Errorf("newest diameter = %g, want 30", list[0].Diameter)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	s := testStore(t, 2)
	ctx := context.Background()

	for _, d := range []float64{10, 20, 30, 40} {
		params, result := testRun(d)
		if _, err := s.Save(ctx, params, result); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	if err := s.Prune(ctx); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	list, err := s.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d rows after prune, want 2", len(list))
	}
	if list[0].Diameter != 40 || list[1].Diameter != 30 {
		t.Errorf("prune kept wrong rows: %+v", list)
	}
}
