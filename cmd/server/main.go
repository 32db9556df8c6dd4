// Package main is the entrypoint for the solarroi API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solarroi/solarroi/internal/api"
	"github.com/solarroi/solarroi/internal/api/handler"
	mw "github.com/solarroi/solarroi/internal/api/middleware"
	"github.com/solarroi/solarroi/internal/api/response"
	"github.com/solarroi/solarroi/internal/app"
	"github.com/solarroi/solarroi/internal/cache"
	"github.com/solarroi/solarroi/internal/config"
	"github.com/solarroi/solarroi/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	migrationsDir   = "migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("reading .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "cache", cfg.Cache.Backend, "auth", cfg.AuthEnabled())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sharedCache, err := app.NewCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer sharedCache.Close()

	var keyStore store.Store
	var auth *mw.Auth
	if cfg.AuthEnabled() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL, migrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		keyStore = store.NewPostgresStore(pool)
		auth = mw.NewAuth(keyStore)
	} else {
		slog.Warn("DATABASE_URL not set, API key authentication is disabled")
	}

	engine, err := app.NewEngine(cfg, sharedCache)
	if err != nil {
		return err
	}

	analyses := handler.NewAnalyses(engine.Catalog, engine.Detector, engine.Coordinator, sharedCache,
		handler.AnalysesConfig{
			OutputDir:       cfg.Batch.OutputDir,
			ResultTTL:       cfg.Cache.BatchTTL,
			MaxRequestBytes: 20*cfg.Vision.MaxBytes + 1<<20,
		})

	router := api.NewRouter(api.Dependencies{
		Auth:      auth,
		RateLimit: mw.NewRateLimit(sharedCache, cfg.Server.RateLimitPerMin),
		Metrics:   promhttp.Handler(),

		HealthHandler:        healthHandler(keyStore, sharedCache),
		CitiesHandler:        handler.NewCitiesHandler(engine.Catalog),
		PanelsHandler:        handler.NewPanelsHandler(engine.Catalog),
		CreateAnalysis:       analyses.Create,
		GetAnalysis:          analyses.Get,
		GetArtifact:          analyses.Artifact,
		InvalidateIrradiance: handler.NewInvalidateIrradianceHandler(engine.Irradiance),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 60 * time.Second,
		// Batches run inside the request.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks key store and cache connectivity. A nil store reports "disabled".
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "disabled",
			"cache":    "ok",
		}
		degraded := false

		if s != nil {
			checks["database"] = "ok"
			if err := s.Ping(r.Context()); err != nil {
				checks["database"] = "degraded"
				degraded = true
			}
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
			degraded = true
		}

		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
