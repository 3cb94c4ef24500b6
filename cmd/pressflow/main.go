// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/pressflow/internal/ai"
	"github.com/olegiv/pressflow/internal/cache"
	"github.com/olegiv/pressflow/internal/config"
	"github.com/olegiv/pressflow/internal/handler"
	"github.com/olegiv/pressflow/internal/logging"
	"github.com/olegiv/pressflow/internal/middleware"
	"github.com/olegiv/pressflow/internal/scheduler"
	"github.com/olegiv/pressflow/internal/secrets"
	"github.com/olegiv/pressflow/internal/service"
	"github.com/olegiv/pressflow/internal/store"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "PressFlow - Content Marketing Automation Backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESSFLOW_APP_SECRET         Credential sealing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESSFLOW_DB_PATH            SQLite database path (default: ./data/pressflow.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESSFLOW_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESSFLOW_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESSFLOW_GEMINI_API_KEYS    Comma-separated Gemini key pool\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESSFLOW_OPENAI_API_KEYS    Comma-separated OpenAI key pool\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESSFLOW_SCHEDULER_ENABLED  Auto-publish due scheduled contents (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESSFLOW_SIMULATED_PUBLISH  Allow simulate=true publish requests (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESSFLOW_REDIS_URL          Redis URL for distributed caching (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("pressflow %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also record WARN and ERROR logs in the activity log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewActivityLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("activity log integration enabled", "min_level", "warn")

	sealer, err := secrets.New(cfg.AppSecret)
	if err != nil {
		return fmt.Errorf("initializing credential sealer: %w", err)
	}

	// Cache backend: Redis when configured, in-process memory otherwise
	cacher, err := cache.New(cache.Options{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacher.Close() }()
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	// Shared provider pools from the configured key rings; clients with
	// their own sealed key get a dedicated provider per request.
	geminiKeys := ai.NewKeyRing(cfg.GeminiAPIKeys)
	openaiKeys := ai.NewKeyRing(cfg.OpenAIAPIKeys)

	var textProvider ai.TextProvider = ai.NewGeminiClient(geminiKeys)
	if cfg.TextProvider == ai.ProviderOpenAI {
		textProvider = ai.NewOpenAIClient(openaiKeys)
	}
	var imageProvider ai.ImageProvider = ai.NewGeminiClient(geminiKeys)
	if cfg.ImageProvider == ai.ProviderOpenAI {
		imageProvider = ai.NewOpenAIClient(openaiKeys)
	}
	slog.Info("generation providers configured",
		"text", cfg.TextProvider, "image", cfg.ImageProvider,
		"gemini_keys", len(cfg.GeminiAPIKeys), "openai_keys", len(cfg.OpenAIAPIKeys))

	svc := service.New(service.Options{
		Queries: store.New(db),
		Config:  cfg,
		Sealer:  sealer,
		Logger:  logger,
		Text:    textProvider,
		Image:   imageProvider,
		Cache:   cacher,
	})

	if cfg.SchedulerEnabled {
		sched := scheduler.New(svc, logger)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
	} else {
		slog.Info("scheduler disabled; scheduled contents require manual publishing")
	}
	if cfg.SimulatedPublish {
		slog.Warn("simulated publishing enabled", "sentinel_post_id", cfg.SimulatedPostID)
	}

	// Router and middleware stack
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(5 * time.Minute)) // Generation requests are slow
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.NewRateLimiter(cfg.APIRateRPS, cfg.APIRateBurst).Middleware())

	handler.New(svc, db, logger).Routes(r)

	server := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
