// Package app assembles the analysis engine from configuration. The HTTP
// server and the CLI share it so both run identical pipelines.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solarroi/solarroi/internal/cache"
	"github.com/solarroi/solarroi/internal/catalog"
	"github.com/solarroi/solarroi/internal/config"
	"github.com/solarroi/solarroi/internal/irradiance"
	"github.com/solarroi/solarroi/internal/pipeline"
	"github.com/solarroi/solarroi/internal/solar"
	"github.com/solarroi/solarroi/internal/vision"
)

// Engine is everything needed to analyse a batch of rooftop images.
type Engine struct {
	Catalog     *catalog.Catalog
	Irradiance  *irradiance.Provider
	Detector    *vision.LocalDetector
	Coordinator *pipeline.Coordinator
}

// LoadCatalog returns the built-in catalog, or the YAML override at path when set.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	slog.Info("catalog loaded", "path", path, "version", cat.Version,
		"cities", len(cat.Cities), "panels", len(cat.Panels))
	return cat, nil
}

// NewCache opens the configured cache backend and checks it is reachable.
func NewCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Backend != config.CacheBackendRedis {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("create redis cache: %w", err)
	}
	if err := rc.Ping(ctx); err != nil {
		rc.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")
	return rc, nil
}

// NewEngine wires the catalog, irradiance provider, detector, calculators
// and batch coordinator. c backs the irradiance cache.
func NewEngine(cfg *config.Config, c cache.Cache) (*Engine, error) {
	cat, err := LoadCatalog(cfg.Economics.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	client := irradiance.NewHTTPClient(cfg.Irradiance.APIURL, cfg.Irradiance.APIKey, cfg.Irradiance.Timeout)
	provider := irradiance.NewProvider(cat, client,
		irradiance.NewCache(c, cfg.Irradiance.CacheTTL), cfg.Irradiance.Fallback)

	detector := vision.NewLocalDetector(vision.Config{
		MinWidth:      cfg.Vision.MinWidth,
		MinHeight:     cfg.Vision.MinHeight,
		MaxBytes:      cfg.Vision.MaxBytes,
		NominalAreaM2: cfg.Vision.NominalAreaM2,
	})

	calc := solar.NewCalculator(cat, solar.CalculatorParams{
		EnergyCapPerM2:      cfg.Economics.EnergyCapPerM2,
		SystemLoss:          cfg.Economics.SystemLoss,
		ReferenceIrradiance: cfg.Irradiance.Reference,
	})
	est := solar.NewEstimator(cat, solar.EstimatorParams{
		TariffRate:        cfg.Economics.TariffRate,
		CostPerWatt:       cfg.Economics.CostPerWatt,
		SubsidyPct:        cfg.Economics.SubsidyPct,
		PaybackFloorYears: cfg.Economics.PaybackFloorYears,
	})

	coord := pipeline.NewCoordinator(cat, detector, provider, calc, est, pipeline.Config{
		Concurrency: cfg.Batch.Concurrency,
		ScratchDir:  cfg.Batch.ScratchDir,
	})

	return &Engine{
		Catalog:     cat,
		Irradiance:  provider,
		Detector:    detector,
		Coordinator: coord,
	}, nil
}
