// Package solar turns a rooftop observation and an irradiance reading into
// energy yield and financial return figures.
package solar

import (
	"fmt"
	"math"
	"time"

	"github.com/solarroi/solarroi/internal/catalog"
	"github.com/solarroi/solarroi/pkg/models"
)

const daysPerYear = 365

// CalculatorParams are the tunable constants of the yield model.
type CalculatorParams struct {
	EnergyCapPerM2      float64 // kWh per m² per year
	SystemLoss          float64 // fraction lost to wiring, inverter, soiling
	ReferenceIrradiance float64 // W/m² at which a city's default peak sun hours apply
}

// Calculator computes annual and monthly yield. It holds no mutable state.
type Calculator struct {
	catalog *catalog.Catalog
	params  CalculatorParams
}

func NewCalculator(cat *catalog.Catalog, params CalculatorParams) *Calculator {
	return &Calculator{catalog: cat, params: params}
}

// PeakSunHours scales a city's default peak sun hours by how the reading
// compares to the reference irradiance.
func (c *Calculator) PeakSunHours(city models.City, reading models.IrradianceReading) float64 {
	return city.PeakSunHours * reading.WattsPerM2 / c.params.ReferenceIrradiance
}

// CalculatePotential returns the capped annual yield and its monthly split.
func (c *Calculator) CalculatePotential(obs models.RooftopObservation, reading models.IrradianceReading, city models.City, panel models.PanelType) (models.SolarPotentialResult, error) {
	start := time.Now()

	if !(obs.AreaM2 > 0) || math.IsInf(obs.AreaM2, 0) {
		return models.SolarPotentialResult{}, fmt.Errorf("%w: area must be positive, got %v", ErrInvalidObservation, obs.AreaM2)
	}
	orientation, ok := c.catalog.OrientationFactor(obs.Orientation)
	if !ok {
		return models.SolarPotentialResult{}, fmt.Errorf("%w: unknown orientation %q", ErrInvalidObservation, obs.Orientation)
	}
	surface, ok := c.catalog.SurfaceFactor(obs.SurfaceType)
	if !ok {
		return models.SolarPotentialResult{}, fmt.Errorf("%w: unknown surface type %q", ErrInvalidObservation, obs.SurfaceType)
	}
	if !(reading.WattsPerM2 > 0) || math.IsInf(reading.WattsPerM2, 0) {
		return models.SolarPotentialResult{}, fmt.Errorf("%w: %v W/m² for %s", ErrInvalidIrradiance, reading.WattsPerM2, reading.City)
	}

	psh := c.PeakSunHours(city, reading)
	raw := obs.AreaM2 * panel.Efficiency * psh * daysPerYear * orientation * surface * (1 - c.params.SystemLoss)
	limit := c.params.EnergyCapPerM2 * obs.AreaM2

	annual, capped := raw, false
	if raw > limit {
		annual, capped = limit, true
	}

	return models.SolarPotentialResult{
		AnnualEnergyKWh:    annual,
		RawAnnualEnergyKWh: raw,
		Capped:             capped,
		MonthlyEnergyKWh:   Distribute(annual, c.catalog.MonthlyWeights),
		PeakSunHours:       psh,
		Irradiance:         reading,
		Latency:            time.Since(start),
	}, nil
}

// Distribute splits total across the months by weight. Each month is rounded
// to cents and the rounding residual is added to the heaviest month, so the
// parts add back up to total.
func Distribute(total float64, weights [models.MonthsPerYear]float64) [models.MonthsPerYear]float64 {
	var out [models.MonthsPerYear]float64
	var sum float64
	heaviest := 0
	for i, w := range weights {
		out[i] = roundCents(total * w)
		sum += out[i]
		if w > weights[heaviest] {
			heaviest = i
		}
	}
	out[heaviest] += total - sum
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
