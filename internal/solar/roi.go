package solar

import (
	"fmt"
	"math"

	"github.com/solarroi/solarroi/internal/catalog"
	"github.com/solarroi/solarroi/pkg/models"
)

// EstimatorParams are the tunable constants of the financial model.
type EstimatorParams struct {
	TariffRate        float64 // currency per kWh
	CostPerWatt       float64 // overrides the panel's cost per watt when > 0
	SubsidyPct        float64 // fraction of gross cost, on top of the per-kW slab
	PaybackFloorYears float64
}

// Estimator derives system size, cost and payback from a yield estimate.
type Estimator struct {
	catalog *catalog.Catalog
	params  EstimatorParams
}

func NewEstimator(cat *catalog.Catalog, params EstimatorParams) *Estimator {
	return &Estimator{catalog: cat, params: params}
}

// EstimateROI prices the system that produces potential. When the system
// saves nothing the result carries PaybackUndefined and ErrDivisionGuard.
func (e *Estimator) EstimateROI(potential models.SolarPotentialResult, panel models.PanelType) (models.ROIResult, error) {
	if !(potential.PeakSunHours > 0) {
		return models.ROIResult{}, fmt.Errorf("%w: peak sun hours %v", ErrInvalidIrradiance, potential.PeakSunHours)
	}

	size := potential.AnnualEnergyKWh / (potential.PeakSunHours * daysPerYear)

	cpw := panel.CostPerWatt
	if e.params.CostPerWatt > 0 {
		cpw = e.params.CostPerWatt
	}
	gross := size*1000*cpw + e.catalog.InstallationCost
	subsidy := size*panel.SubsidyPerKW + gross*e.params.SubsidyPct
	total := math.Max(0, gross-subsidy)

	savings := potential.AnnualEnergyKWh * e.params.TariffRate

	result := models.ROIResult{
		SystemSizeKW:    size,
		GrossCost:       gross,
		SubsidyAmount:   subsidy,
		TotalCost:       total,
		AnnualSavings:   savings,
		MonthlySavings:  Distribute(savings, e.catalog.MonthlyWeights),
		RawPaybackYears: models.PaybackUndefined,
		PaybackYears:    models.PaybackUndefined,
	}
	if !(savings > 0) {
		return result, fmt.Errorf("%w: got %v", ErrDivisionGuard, savings)
	}

	result.RawPaybackYears = total / savings
	result.PaybackYears = math.Max(result.RawPaybackYears, e.params.PaybackFloorYears)
	return result, nil
}
