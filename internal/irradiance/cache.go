package irradiance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/solarroi/solarroi/internal/cache"
	"github.com/solarroi/solarroi/pkg/models"
)

// Cache stores live readings per city on top of a cache.Cache backend.
// Entries are written whole; a zero ttl keeps them until Invalidate or restart.
type Cache struct {
	backend cache.Cache
	ttl     time.Duration
}

func NewCache(backend cache.Cache, ttl time.Duration) *Cache {
	return &Cache{backend: backend, ttl: ttl}
}

// Get returns the stored reading for city. Unreadable or non-positive
// entries are reported as a miss.
func (c *Cache) Get(ctx context.Context, city string) (models.IrradianceReading, bool, error) {
	data, ok, err := c.backend.Get(ctx, cache.IrradianceKey(city))
	if err != nil || !ok {
		return models.IrradianceReading{}, false, err
	}

	var reading models.IrradianceReading
	if err := json.Unmarshal(data, &reading); err != nil {
		slog.Warn("discarding unreadable irradiance cache entry", "city", city, "error", err)
		return models.IrradianceReading{}, false, nil
	}
	if reading.WattsPerM2 <= 0 {
		slog.Warn("discarding non-positive irradiance cache entry", "city", city, "watts_per_m2", reading.WattsPerM2)
		return models.IrradianceReading{}, false, nil
	}
	return reading, true, nil
}

func (c *Cache) Put(ctx context.Context, reading models.IrradianceReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("encoding irradiance reading: %w", err)
	}
	return c.backend.Set(ctx, cache.IrradianceKey(reading.City), data, c.ttl)
}

func (c *Cache) Invalidate(ctx context.Context, city string) error {
	return c.backend.Delete(ctx, cache.IrradianceKey(city))
}
