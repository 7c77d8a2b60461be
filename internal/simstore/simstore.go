// Package simstore persists simulation runs to SQLite so past results
// can be listed and replayed. One writer connection; SQLite does not
// handle concurrent writes well.
package simstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/meteor/madness/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when no simulation exists with the given ID.
var ErrNotFound = errors.New("simulation not found")

// Config holds store settings.
type Config struct {
	Path    string // database file path
	MaxRows int    // newest rows kept by Prune, 0 selects the default
}

// DefaultConfig returns the standard store settings.
func DefaultConfig() Config {
	return Config{
		Path:    "/tmp/meteord/simulations.db",
		MaxRows: 1000,
	}
}

// Record is one persisted simulation run.
type Record struct {
	ID         string                    `json:"id"`
	CreatedAt  time.Time                 `json:"createdAt"`
	Parameters engine.AsteroidParameters `json:"parameters"`
	Result     *engine.ImpactResult      `json:"result"`
}

// Summary is the list-view projection of a run.
type Summary struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	Diameter       float64   `json:"diameter"`
	Velocity       float64   `json:"velocity"`
	EnergyMegatons float64   `json:"energyMegatons"`
}

// Store is a SQLite-backed simulation history.
type Store struct {
	log *slog.Logger
	db  *sql.DB
	cfg Config
}

// Open creates or opens the store at cfg.Path and ensures the schema
// exists.
func Open(log *slog.Logger, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultConfig().MaxRows
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{
		log: log.With("component", "simstore"),
		db:  db,
		cfg: cfg,
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a run and returns the stored record with its generated
// ID.
func (s *Store) Save(ctx context.Context, params engine.AsteroidParameters, result *engine.ImpactResult) (Record, error) {
	rec := Record{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Parameters: params,
		Result:     result,
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return Record{}, fmt.Errorf("encoding parameters: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return Record{}, fmt.Errorf("encoding result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO simulations (id, created_at, diameter, velocity, energy_megatons, parameters, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt, params.Diameter, params.Velocity, result.EnergyMegatons,
		string(paramsJSON), string(resultJSON),
	)
	if err != nil {
		return Record{}, fmt.Errorf("inserting simulation: %w", err)
	}

	s.log.Debug("saved simulation", "id", rec.ID, "megatons", result.EnergyMegatons)
	return rec, nil
}

// Get retrieves a run by ID.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	var (
		rec        Record
		paramsJSON string
		resultJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, parameters, result FROM simulations WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.CreatedAt, &paramsJSON, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("querying simulation: %w", err)
	}

	if err := json.Unmarshal([]byte(paramsJSON), &rec.Parameters); err != nil {
		return Record{}, fmt.Errorf("decoding parameters: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return Record{}, fmt.Errorf("decoding result: %w", err)
	}
	return rec, nil
}

// List returns the newest runs, most recent first, at most limit rows.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, diameter, velocity, energy_megatons
		 FROM simulations ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing simulations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &sum.Diameter, &sum.Velocity, &sum.EnergyMegatons); err != nil {
			return nil, fmt.Errorf("scanning simulation row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Prune deletes everything beyond the newest MaxRows runs.
func (s *Store) Prune(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM simulations WHERE id NOT IN (
			SELECT id FROM simulations ORDER BY created_at DESC LIMIT ?
		)`, s.cfg.MaxRows,
	)
	if err != nil {
		return fmt.Errorf("pruning simulations: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.log.Info("pruned simulation history", "deleted", n, "kept", s.cfg.MaxRows)
	}
	return nil
}
