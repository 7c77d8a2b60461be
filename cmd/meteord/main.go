package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/meteor/madness/internal/api"
	"github.com/meteor/madness/internal/auth"
	"github.com/meteor/madness/internal/engine"
	"github.com/meteor/madness/internal/entry"
	"github.com/meteor/madness/internal/metrics"
	"github.com/meteor/madness/internal/neo"
	"github.com/meteor/madness/internal/simstore"
	"github.com/meteor/madness/internal/stream"
	"github.com/meteor/madness/internal/tracking"
)

func main() {
	// A local .env is optional; environment variables win either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("METEOR_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	eng := engine.New(logger, loadEngineConfig(logger))

	neoCfg := loadNEOConfig(logger)
	neoSvc := neo.NewService(logger,
		neo.NewFetcher(neoCfg.BaseURL, neoCfg.APIKey),
		neo.NewCache(neoCfg.CacheDir, neoCfg.MaxFiles),
		neo.NewStore(),
	)
	neoSvc.LoadCached()

	tracker, err := loadTracker(logger)
	if err != nil {
		logger.Error("invalid TLE configuration", "error", err)
		os.Exit(1)
	}

	storeCfg := loadStoreConfig(logger)
	store, err := simstore.Open(logger, storeCfg)
	if err != nil {
		logger.Error("failed to open simulation store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	streamHandler := stream.NewHandler(eng, loadStreamConfig(logger), logger)

	srv := api.NewServer(addr, logger, authCfg, eng, neoSvc, tracker, store, streamHandler)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduled background work: NEO feed refresh and history pruning.
	sched := cron.New()
	if neoCfg.FetchEnabled {
		go func() {
			if err := neoSvc.Refresh(ctx); err != nil {
				logger.Warn("initial NEO refresh failed", "error", err)
			}
		}()
		if _, err := sched.AddFunc(neoCfg.RefreshSpec, func() {
			if err := neoSvc.Refresh(ctx); err != nil {
				logger.Warn("scheduled NEO refresh failed", "error", err)
			}
		}); err != nil {
			logger.Error("invalid NEO refresh schedule", "spec", neoCfg.RefreshSpec, "error", err)
			os.Exit(1)
		}
	}
	if _, err := sched.AddFunc("@daily", func() {
		if err := store.Prune(context.Background()); err != nil {
			logger.Warn("simulation history prune failed", "error", err)
		}
	}); err != nil {
		logger.Error("could not schedule history pruning", "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	// Keep the NEO dataset age gauge current.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := neoSvc.Store().AgeSeconds(); age >= 0 {
					metrics.SetNEODatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", addr,
			"auth_enabled", authCfg.Enabled,
			"neo_fetch_enabled", neoCfg.FetchEnabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	if v := os.Getenv("METEOR_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.New("METEOR_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("METEOR_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("METEOR_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadEngineConfig(logger *slog.Logger) engine.Config {
	cfg := engine.DefaultConfig()

	if v := os.Getenv("METEOR_ENTRY_STEP_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			logger.Warn("invalid METEOR_ENTRY_STEP_MS value, using default", "value", v, "default", 50)
		} else {
			cfg.Entry.Step = float64(n) / 1000
		}
	}

	if v := os.Getenv("METEOR_ENTRY_MAX_DURATION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 10 {
			logger.Warn("invalid METEOR_ENTRY_MAX_DURATION value, using default", "value", v, "default", int(entry.DefaultConfig().MaxDuration))
		} else {
			cfg.Entry.MaxDuration = float64(n)
		}
	}

	if v := os.Getenv("METEOR_CACHE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid METEOR_CACHE_LIMIT value, using default", "value", v, "default", cfg.CacheLimit)
		} else {
			cfg.CacheLimit = n
		}
	}

	logger.Info("engine config",
		"entry_step_seconds", cfg.Entry.Step,
		"entry_max_duration_seconds", cfg.Entry.MaxDuration,
		"cache_limit", cfg.CacheLimit,
	)

	return cfg
}

type neoConfig struct {
	BaseURL      string
	APIKey       string
	CacheDir     string
	MaxFiles     int
	FetchEnabled bool
	RefreshSpec  string
}

func loadNEOConfig(logger *slog.Logger) neoConfig {
	cfg := neoConfig{
		CacheDir:     "/tmp/meteord/neo",
		MaxFiles:     5,
		FetchEnabled: true,
		RefreshSpec:  "@every 6h",
	}

	cfg.BaseURL = os.Getenv("METEOR_NEO_BASE_URL")
	cfg.APIKey = os.Getenv("METEOR_NASA_API_KEY")

	if v := os.Getenv("METEOR_NEO_FETCH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid METEOR_NEO_FETCH_ENABLED value, defaulting to true", "value", v)
		} else {
			cfg.FetchEnabled = enabled
		}
	}

	if v := os.Getenv("METEOR_NEO_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("METEOR_NEO_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid METEOR_NEO_MAX_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	if v := os.Getenv("METEOR_NEO_REFRESH"); v != "" {
		cfg.RefreshSpec = v
	}

	logger.Info("NEO config",
		"cache_dir", cfg.CacheDir,
		"fetch_enabled", cfg.FetchEnabled,
		"refresh", cfg.RefreshSpec,
	)

	return cfg
}

// loadTracker builds the ISS tracker, honoring TLE overrides for fresher
// elements than the embedded set.
func loadTracker(logger *slog.Logger) (*tracking.Tracker, error) {
	line1 := os.Getenv("METEOR_ISS_TLE_LINE1")
	line2 := os.Getenv("METEOR_ISS_TLE_LINE2")
	if line1 != "" && line2 != "" {
		logger.Info("using ISS TLE from environment")
		return tracking.NewTracker("ISS", line1, line2, tracking.ISSNoradID)
	}
	return tracking.NewISSTracker()
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
	}

	if v := os.Getenv("METEOR_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid METEOR_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("METEOR_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid METEOR_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("METEOR_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid METEOR_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
		"trust_proxy", cfg.TrustProxy,
	)

	return cfg
}

func loadStoreConfig(logger *slog.Logger) simstore.Config {
	cfg := simstore.DefaultConfig()

	if v := os.Getenv("METEOR_DB_PATH"); v != "" {
		cfg.Path = v
	}

	if v := os.Getenv("METEOR_DB_MAX_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid METEOR_DB_MAX_ROWS value, using default", "value", v, "default", cfg.MaxRows)
		} else {
			cfg.MaxRows = n
		}
	}

	logger.Info("store config", "path", cfg.Path, "max_rows", cfg.MaxRows)

	return cfg
}
