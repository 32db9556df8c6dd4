package models

import "time"

// IrradianceSource records where an irradiance value came from.
type IrradianceSource string

const (
	SourceLive     IrradianceSource = "live"
	SourceCached   IrradianceSource = "cached"
	SourceFallback IrradianceSource = "fallback"
)

// IrradianceReading is the mean daytime irradiance resolved for a city.
type IrradianceReading struct {
	City       string           `json:"city"`
	WattsPerM2 float64          `json:"watts_per_m2"`
	Source     IrradianceSource `json:"source"`
	FetchedAt  time.Time        `json:"fetched_at"`
}
