package models

import (
	"time"

	"github.com/google/uuid"
)

// MonthsPerYear is the length of every monthly breakdown.
const MonthsPerYear = 12

// PaybackUndefined marks a payback period that could not be computed because
// the system produces no savings.
const PaybackUndefined = -1.0

// SolarPotentialResult is the energy yield for one rooftop. It is derived per
// request and never persisted.
type SolarPotentialResult struct {
	AnnualEnergyKWh    float64                `json:"annual_energy_kwh"`
	RawAnnualEnergyKWh float64                `json:"-"`
	Capped             bool                   `json:"capped"`
	MonthlyEnergyKWh   [MonthsPerYear]float64 `json:"monthly_energy_kwh"`
	PeakSunHours       float64                `json:"peak_sun_hours"`
	Irradiance         IrradianceReading      `json:"irradiance"`
	Latency            time.Duration          `json:"latency_ns"`
}

// ROIResult is the financial estimate derived from a SolarPotentialResult.
type ROIResult struct {
	SystemSizeKW    float64                `json:"system_size_kw"`
	GrossCost       float64                `json:"gross_cost"`
	SubsidyAmount   float64                `json:"subsidy_amount"`
	TotalCost       float64                `json:"total_cost"`
	AnnualSavings   float64                `json:"annual_savings"`
	MonthlySavings  [MonthsPerYear]float64 `json:"monthly_savings"`
	RawPaybackYears float64                `json:"raw_payback_years"`
	PaybackYears    float64                `json:"payback_period_years"`
}

// PaybackDefined reports whether PaybackYears holds a real figure.
func (r ROIResult) PaybackDefined() bool {
	return r.PaybackYears != PaybackUndefined
}

// AnalysisRun ties one rooftop image to the city and panel type it is analysed for.
// RunID is unique across concurrent runs and names any scratch files the run creates.
type AnalysisRun struct {
	RunID       string             `json:"run_id"`
	BatchID     uuid.UUID          `json:"batch_id"`
	Index       int                `json:"index"`
	ImageName   string             `json:"image_name"`
	City        City               `json:"city"`
	PanelType   PanelType          `json:"panel_type"`
	Observation RooftopObservation `json:"observation"`
	StartedAt   time.Time          `json:"started_at"`
}
