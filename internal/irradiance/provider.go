// Package irradiance resolves the irradiance used for a city's yield estimate:
// a fresh cached reading, a live API lookup, or the fixed fallback constant.
package irradiance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/solarroi/solarroi/internal/catalog"
	"github.com/solarroi/solarroi/internal/metrics"
	"github.com/solarroi/solarroi/pkg/models"
)

// Provider is safe for concurrent use. Lookups for the same city that miss
// the cache at the same time share a single API call.
type Provider struct {
	catalog  *catalog.Catalog
	client   Client
	cache    *Cache
	fallback float64
	group    singleflight.Group
	now      func() time.Time
}

// NewProvider builds a Provider. A nil client disables live lookups, so every
// cache miss is served the fallback value.
func NewProvider(cat *catalog.Catalog, client Client, c *Cache, fallback float64) *Provider {
	return &Provider{
		catalog:  cat,
		client:   client,
		cache:    c,
		fallback: fallback,
		now:      time.Now,
	}
}

// Fallback returns the constant served when no live value is available.
func (p *Provider) Fallback() float64 {
	return p.fallback
}

// GetIrradiance returns the reading for a supported city. The only error is
// catalog.ErrUnsupportedLocation; API failures degrade to the fallback reading.
func (p *Provider) GetIrradiance(ctx context.Context, cityName string) (models.IrradianceReading, error) {
	city, err := p.catalog.City(cityName)
	if err != nil {
		return models.IrradianceReading{}, err
	}

	if reading, ok := p.cached(ctx, city); ok {
		metrics.IrradianceLookupsTotal.WithLabelValues(string(models.SourceCached)).Inc()
		return reading, nil
	}

	v, _, _ := p.group.Do(city.Name, func() (any, error) {
		return p.lookup(ctx, city), nil
	})
	reading := v.(models.IrradianceReading)

	metrics.IrradianceLookupsTotal.WithLabelValues(string(reading.Source)).Inc()
	return reading, nil
}

// Invalidate drops the cached reading for a city.
func (p *Provider) Invalidate(ctx context.Context, cityName string) error {
	city, err := p.catalog.City(cityName)
	if err != nil {
		return err
	}
	if err := p.cache.Invalidate(ctx, city.Name); err != nil {
		return fmt.Errorf("invalidating irradiance for %s: %w", city.Name, err)
	}
	slog.Info("irradiance cache invalidated", "city", city.Name)
	return nil
}

func (p *Provider) cached(ctx context.Context, city models.City) (models.IrradianceReading, bool) {
	if p.cache == nil {
		return models.IrradianceReading{}, false
	}
	reading, ok, err := p.cache.Get(ctx, city.Name)
	if err != nil {
		slog.Warn("irradiance cache read failed", "city", city.Name, "error", err)
		return models.IrradianceReading{}, false
	}
	if !ok {
		return models.IrradianceReading{}, false
	}
	reading.Source = models.SourceCached
	return reading, true
}

func (p *Provider) lookup(ctx context.Context, city models.City) models.IrradianceReading {
	watts, err := p.fetch(ctx, city)
	if err != nil {
		slog.Warn("irradiance lookup failed, using fallback",
			"city", city.Name,
			"fallback_w_m2", p.fallback,
			"error", err,
		)
		return models.IrradianceReading{
			City:       city.Name,
			WattsPerM2: p.fallback,
			Source:     models.SourceFallback,
			FetchedAt:  p.now().UTC(),
		}
	}

	reading := models.IrradianceReading{
		City:       city.Name,
		WattsPerM2: watts,
		Source:     models.SourceLive,
		FetchedAt:  p.now().UTC(),
	}
	if p.cache != nil {
		if err := p.cache.Put(ctx, reading); err != nil {
			slog.Warn("irradiance cache write failed", "city", city.Name, "error", err)
		}
	}
	return reading
}

func (p *Provider) fetch(ctx context.Context, city models.City) (float64, error) {
	if p.client == nil {
		return 0, ErrClientDisabled
	}

	start := time.Now()
	watts, err := p.client.DailyIrradiance(ctx, city.Latitude, city.Longitude)
	metrics.IrradianceAPILatency.Observe(time.Since(start).Seconds())

	if err == nil && watts <= 0 {
		err = fmt.Errorf("%w: non-positive irradiance %v", ErrMalformedPayload, watts)
	}
	if err != nil {
		if !errors.Is(err, ErrExternalAPIFailure) {
			err = fmt.Errorf("%w: %v", ErrExternalAPIFailure, err)
		}
		metrics.IrradianceAPICallsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.IrradianceAPICallsTotal.WithLabelValues("ok").Inc()
	return watts, nil
}
