package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pdfpress/internal/core"
	"pdfpress/internal/server/api"
	"pdfpress/internal/server/auth"
	"pdfpress/internal/server/config"
	"pdfpress/internal/server/database"
	"pdfpress/internal/server/service"
	"pdfpress/internal/server/storage"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/getsentry/sentry-go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg))
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"temp_dir", cfg.TempDir,
		"max_upload", humanize.IBytes(uint64(cfg.MaxUploadBytes())),
		"compress_timeout", cfg.CompressTimeout(),
		"session_lifetime", cfg.SessionLifetime(),
		"stats_enabled", cfg.StatsEnabled(),
	)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			slog.Error("failed to initialize sentry", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()

	// Job statistics are optional. The interfaces stay nil when disabled.
	var (
		jobs    service.JobStore
		pruner  storage.JobPruner
		checker api.HealthChecker
	)
	if cfg.StatsEnabled() {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		repo := database.NewRepository(db)
		jobs, pruner, checker = repo, repo, db
	}

	store := storage.NewOSTempStore(cfg.TempDir)
	if err := store.EnsureDir(); err != nil {
		slog.Error("failed to initialize temp directory", "error", err)
		os.Exit(1)
	}
	slog.Info("temp directory ready", "path", store.BasePath())

	gate, err := auth.NewGate(auth.Options{
		Password:     cfg.AppPassword,
		SigningKey:   cfg.SigningSecret(),
		Lifetime:     cfg.SessionLifetime(),
		SecureCookie: cfg.CookieSecure,
	})
	if err != nil {
		slog.Error("failed to initialize session gate", "error", err)
		os.Exit(1)
	}

	compressor := core.NewCompressor(cfg.GhostscriptPath, cfg.CompressTimeout())
	validator := core.NewValidator(cfg.MaxUploadBytes())
	svc := service.NewCompressService(validator, compressor, store, jobs)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	cleanup := storage.NewCleanupService(store, pruner, cfg.StaleAge(), cfg.CleanupInterval(), cfg.JobRetention())
	cleanup.Start(cleanupCtx)

	handler := api.NewHandler(svc, gate, checker, cfg.MaxUploadBytes())
	e := api.SetupRouter(handler, gate, cfg)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	cleanupCancel()
	cleanup.Wait()
	cleanup.Shutdown()

	slog.Info("server exited cleanly")
}

// newLogger builds the process logger: JSON for production, charmbracelet
// text output for local runs.
func newLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)

	if strings.EqualFold(cfg.LogFormat, "text") {
		handler := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           log.Level(level),
		})
		return slog.New(handler)
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
