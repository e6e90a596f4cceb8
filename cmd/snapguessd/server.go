package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	v1 "github.com/vmunix/snapguess/internal/api/v1"
	"github.com/vmunix/snapguess/internal/assets"
	"github.com/vmunix/snapguess/internal/catalog"
	"github.com/vmunix/snapguess/internal/config"
	"github.com/vmunix/snapguess/internal/events"
	"github.com/vmunix/snapguess/internal/importer"
	"github.com/vmunix/snapguess/internal/importjob"
	"github.com/vmunix/snapguess/internal/migrations"
	"github.com/vmunix/snapguess/internal/ratelimit"
	"github.com/vmunix/snapguess/internal/server"
	"github.com/vmunix/snapguess/pkg/rawg"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func runServer(configPath string) error {
	if configPath == "" {
		found, err := config.Discover()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		configPath = found
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return &config.ConfigError{Path: configPath, Errors: errs}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure data directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Assets.Root, 0755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// === Stores ===
	catalogStore := catalog.NewStore(db)
	jobStore := importjob.NewStore(db)

	// === Events ===
	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, logger.With("component", "bus"))
	reporter := events.NewImportReporter(bus)

	// === Provider client ===
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.MinDelay)
	client := rawg.New(cfg.RAWG.APIKey, limiter,
		rawg.WithBaseURL(cfg.RAWG.BaseURL),
		rawg.WithThrottleCooldown(cfg.RateLimit.Cooldown),
		rawg.WithLogger(logger.With("component", "rawg")),
	)
	fetcher := assets.New(assets.WithLogger(logger.With("component", "assets")))

	// === Import orchestrator ===
	importDefaults := importjob.Config{
		BatchSize:          cfg.Import.BatchSize,
		MinQuality:         cfg.Import.MinQuality,
		ScreenshotsPerGame: cfg.Import.ScreenshotsPerGame,
		TargetGames:        cfg.Import.TargetGames,
	}
	orch := importer.New(jobStore, catalogStore, client, fetcher, reporter,
		cfg.Assets.Root, logger.With("component", "importer"))
	defer orch.Close()

	// A job left running by a crash is parked as paused so it can be
	// resumed over the API.
	if _, err := orch.Recover(); err != nil {
		return fmt.Errorf("recover import state: %w", err)
	}

	// === HTTP ===
	apiV1, err := v1.New(v1.ServerDeps{
		Catalog:  catalogStore,
		Importer: orch,
		EventLog: eventLog,
		Provider: client,
		Defaults: importDefaults,
	})
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	mux := http.NewServeMux()
	apiV1.RegisterRoutes(mux)

	runner := server.NewRunner(logRequests(mux, logger), orch, bus, server.Config{
		Addr:            fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ScheduleEnabled: cfg.Schedule.Enabled,
		RefreshSpec:     cfg.Schedule.Refresh,
		ImportDefaults:  importDefaults,
	}, logger.With("component", "server"))

	logger.Info("snapguessd starting",
		"version", version,
		"database", cfg.Database.Path,
		"assets", cfg.Assets.Root,
		"schedule", cfg.Schedule.Enabled,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
