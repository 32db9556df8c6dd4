package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the solarroi server and CLI.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Irradiance IrradianceConfig
	Economics  EconomicsConfig
	Vision     VisionConfig
	Batch      BatchConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	RateLimitPerMin int
}

// DatabaseConfig is optional. When URL is empty the API runs without key authentication.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type CacheConfig struct {
	Backend  string
	RedisURL string
	BatchTTL time.Duration
}

type IrradianceConfig struct {
	APIURL    string
	APIKey    string
	Timeout   time.Duration
	CacheTTL  time.Duration
	Fallback  float64
	Reference float64
}

// EconomicsConfig carries the tunable constants of the yield and ROI model.
type EconomicsConfig struct {
	CatalogFile       string
	TariffRate        float64
	CostPerWatt       float64
	SubsidyPct        float64
	EnergyCapPerM2    float64
	PaybackFloorYears float64
	SystemLoss        float64
}

type VisionConfig struct {
	MinWidth      int
	MinHeight     int
	MaxBytes      int64
	NominalAreaM2 float64
}

type BatchConfig struct {
	Concurrency int
	ScratchDir  string
	OutputDir   string
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// DefaultIrradianceAPIURL is the Open-Meteo forecast endpoint.
const DefaultIrradianceAPIURL = "https://api.open-meteo.com"

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("SOLARROI_PORT", 8080),
			Env:             envString("SOLARROI_ENV", "development"),
			RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Cache: CacheConfig{
			Backend:  envString("CACHE_BACKEND", CacheBackendMemory),
			RedisURL: os.Getenv("REDIS_URL"),
			BatchTTL: envDuration("BATCH_RESULT_TTL", 24*time.Hour),
		},
		Irradiance: IrradianceConfig{
			APIURL:    envString("IRRADIANCE_API_URL", DefaultIrradianceAPIURL),
			APIKey:    os.Getenv("IRRADIANCE_API_KEY"),
			Timeout:   envDuration("IRRADIANCE_API_TIMEOUT", 5*time.Second),
			CacheTTL:  envDuration("IRRADIANCE_CACHE_TTL", 0),
			Fallback:  envFloat("IRRADIANCE_FALLBACK_W_M2", 600),
			Reference: envFloat("IRRADIANCE_REFERENCE_W_M2", 600),
		},
		Economics: EconomicsConfig{
			CatalogFile:       os.Getenv("CATALOG_FILE"),
			TariffRate:        envFloat("SOLAR_TARIFF_RATE", 7.8),
			CostPerWatt:       envFloat("SOLAR_COST_PER_WATT", 0),
			SubsidyPct:        envFloat("SOLAR_SUBSIDY_PCT", 0),
			EnergyCapPerM2:    envFloat("SOLAR_ENERGY_CAP_PER_M2", 100),
			PaybackFloorYears: envFloat("SOLAR_PAYBACK_FLOOR_YEARS", 4.0),
			SystemLoss:        envFloat("SOLAR_SYSTEM_LOSS", 0.14),
		},
		Vision: VisionConfig{
			MinWidth:      envInt("VISION_MIN_WIDTH", 100),
			MinHeight:     envInt("VISION_MIN_HEIGHT", 100),
			MaxBytes:      int64(envInt("VISION_MAX_BYTES", 10*1024*1024)),
			NominalAreaM2: envFloat("VISION_NOMINAL_AREA_M2", 100),
		},
		Batch: BatchConfig{
			Concurrency: envInt("BATCH_CONCURRENCY", 4),
			ScratchDir:  envString("SCRATCH_DIR", "temp"),
			OutputDir:   envString("OUTPUT_DIR", "outputs"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND is redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, redis; got %q", c.Cache.Backend)
	}

	if c.Irradiance.APIURL != "" &&
		!strings.HasPrefix(c.Irradiance.APIURL, "http://") && !strings.HasPrefix(c.Irradiance.APIURL, "https://") {
		return fmt.Errorf("IRRADIANCE_API_URL must start with http:// or https://, got %q", c.Irradiance.APIURL)
	}
	e := c.Economics
	for _, f := range []struct {
		key string
		val float64
	}{
		{"IRRADIANCE_FALLBACK_W_M2", c.Irradiance.Fallback},
		{"IRRADIANCE_REFERENCE_W_M2", c.Irradiance.Reference},
		{"SOLAR_TARIFF_RATE", e.TariffRate},
		{"SOLAR_COST_PER_WATT", e.CostPerWatt},
		{"SOLAR_SUBSIDY_PCT", e.SubsidyPct},
		{"SOLAR_ENERGY_CAP_PER_M2", e.EnergyCapPerM2},
		{"SOLAR_PAYBACK_FLOOR_YEARS", e.PaybackFloorYears},
		{"SOLAR_SYSTEM_LOSS", e.SystemLoss},
		{"VISION_NOMINAL_AREA_M2", c.Vision.NominalAreaM2},
	} {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) {
			return fmt.Errorf("%s must be a finite number, got %v", f.key, f.val)
		}
	}

	if c.Irradiance.Timeout <= 0 {
		return fmt.Errorf("IRRADIANCE_API_TIMEOUT must be positive")
	}
	if c.Irradiance.CacheTTL < 0 {
		return fmt.Errorf("IRRADIANCE_CACHE_TTL must not be negative")
	}
	if c.Irradiance.Fallback <= 0 {
		return fmt.Errorf("IRRADIANCE_FALLBACK_W_M2 must be positive")
	}
	if c.Irradiance.Reference <= 0 {
		return fmt.Errorf("IRRADIANCE_REFERENCE_W_M2 must be positive")
	}

	if e.TariffRate <= 0 {
		return fmt.Errorf("SOLAR_TARIFF_RATE must be positive")
	}
	if e.CostPerWatt < 0 {
		return fmt.Errorf("SOLAR_COST_PER_WATT must not be negative")
	}
	if e.SubsidyPct < 0 || e.SubsidyPct > 1 {
		return fmt.Errorf("SOLAR_SUBSIDY_PCT must be a fraction between 0 and 1, got %v", e.SubsidyPct)
	}
	if e.EnergyCapPerM2 <= 0 {
		return fmt.Errorf("SOLAR_ENERGY_CAP_PER_M2 must be positive")
	}
	if e.PaybackFloorYears < 0 {
		return fmt.Errorf("SOLAR_PAYBACK_FLOOR_YEARS must not be negative")
	}
	if e.SystemLoss < 0 || e.SystemLoss >= 1 {
		return fmt.Errorf("SOLAR_SYSTEM_LOSS must be in [0, 1), got %v", e.SystemLoss)
	}

	if c.Vision.MinWidth <= 0 || c.Vision.MinHeight <= 0 {
		return fmt.Errorf("VISION_MIN_WIDTH and VISION_MIN_HEIGHT must be positive")
	}
	if c.Vision.NominalAreaM2 <= 0 {
		return fmt.Errorf("VISION_NOMINAL_AREA_M2 must be positive")
	}

	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive")
	}

	return nil
}

// AuthEnabled reports whether a key store is configured.
func (c *Config) AuthEnabled() bool {
	return c.Database.URL != ""
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
