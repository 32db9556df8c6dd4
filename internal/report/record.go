// Package report turns batch results into presentation records, chart
// series, recommendations, and the PDF, CSV, Excel and JSON exports.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solarroi/solarroi/internal/pipeline"
	"github.com/solarroi/solarroi/pkg/models"
)

const retryAdvice = "Check image quality or input data and retry."

// Record is the flat, export-ready view of one batch item. Every exporter
// writes exactly the fields listed by Columns.
type Record struct {
	RooftopID          int       `json:"rooftop_id"`
	RunID              string    `json:"run_id"`
	ImageName          string    `json:"image_name"`
	City               string    `json:"city"`
	PanelType          string    `json:"panel_type"`
	AreaM2             float64   `json:"area_m2"`
	Orientation        string    `json:"orientation"`
	Obstructions       string    `json:"obstructions"`
	SurfaceType        string    `json:"surface_type"`
	Suitability        int       `json:"suitability"`
	IrradianceWM2      float64   `json:"irradiance_w_m2"`
	IrradianceSource   string    `json:"irradiance_source"`
	PeakSunHours       float64   `json:"peak_sun_hours"`
	AnnualEnergyKWh    float64   `json:"annual_energy_kwh"`
	EnergyCapped       bool      `json:"energy_capped"`
	MonthlyEnergyKWh   []float64 `json:"monthly_energy_kwh"`
	SystemSizeKW       float64   `json:"system_size_kw"`
	GrossCostINR       float64   `json:"gross_cost_inr"`
	SubsidyINR         float64   `json:"subsidy_inr"`
	TotalCostINR       float64   `json:"total_cost_inr"`
	AnnualSavingsINR   float64   `json:"annual_savings_inr"`
	MonthlySavingsINR  []float64 `json:"monthly_savings_inr"`
	PaybackPeriodYears float64   `json:"payback_period_years"`
	Recommendations    []string  `json:"recommendations"`
	Error              string    `json:"error"`
}

// Failed reports whether the record describes a failed item.
func (r Record) Failed() bool {
	return r.Error != ""
}

// NewRecord builds the record for one item result.
func NewRecord(res pipeline.ItemResult) Record {
	run := res.Run
	rec := Record{
		RooftopID:         run.Index + 1,
		RunID:             run.RunID,
		ImageName:         run.ImageName,
		City:              run.City.Name,
		PanelType:         run.PanelType.Name,
		MonthlyEnergyKWh:  []float64{},
		MonthlySavingsINR: []float64{},
		Recommendations:   []string{},
	}

	obs := run.Observation
	if obs.AreaM2 > 0 {
		rec.AreaM2 = obs.AreaM2
		rec.Orientation = obs.Orientation.Title()
		rec.Obstructions = obs.Obstructions
		rec.SurfaceType = obs.SurfaceType.Title()
		rec.Suitability = obs.Suitability
	}

	if p := res.Potential; p != nil {
		rec.IrradianceWM2 = p.Irradiance.WattsPerM2
		rec.IrradianceSource = string(p.Irradiance.Source)
		rec.PeakSunHours = p.PeakSunHours
		rec.AnnualEnergyKWh = p.AnnualEnergyKWh
		rec.EnergyCapped = p.Capped
		rec.MonthlyEnergyKWh = p.MonthlyEnergyKWh[:]
	}

	if roi := res.ROI; roi != nil {
		rec.SystemSizeKW = roi.SystemSizeKW
		rec.GrossCostINR = roi.GrossCost
		rec.SubsidyINR = roi.SubsidyAmount
		rec.TotalCostINR = roi.TotalCost
		rec.AnnualSavingsINR = roi.AnnualSavings
		rec.MonthlySavingsINR = roi.MonthlySavings[:]
		rec.PaybackPeriodYears = roi.PaybackYears
	}

	if res.Err != nil {
		rec.Error = "Analysis failed: " + res.Err.Error()
		rec.Recommendations = []string{retryAdvice}
		return rec
	}

	rec.Recommendations = Recommendations(obs, run.PanelType, run.City)
	return rec
}

// NewRecords builds records for a whole batch, keeping submission order.
func NewRecords(batch pipeline.BatchResult) []Record {
	out := make([]Record, len(batch.Items))
	for i, item := range batch.Items {
		out[i] = NewRecord(item)
	}
	return out
}

type field struct {
	name  string
	value any
}

// fields lists a record's values in column order. It is the single source
// for every tabular exporter.
func (r Record) fields() []field {
	return []field{
		{"rooftop_id", r.RooftopID},
		{"run_id", r.RunID},
		{"image_name", r.ImageName},
		{"city", r.City},
		{"panel_type", r.PanelType},
		{"area_m2", r.AreaM2},
		{"orientation", r.Orientation},
		{"obstructions", r.Obstructions},
		{"surface_type", r.SurfaceType},
		{"suitability", r.Suitability},
		{"irradiance_w_m2", r.IrradianceWM2},
		{"irradiance_source", r.IrradianceSource},
		{"peak_sun_hours", r.PeakSunHours},
		{"annual_energy_kwh", r.AnnualEnergyKWh},
		{"energy_capped", r.EnergyCapped},
		{"monthly_energy_kwh", joinFloats(r.MonthlyEnergyKWh)},
		{"system_size_kw", r.SystemSizeKW},
		{"gross_cost_inr", r.GrossCostINR},
		{"subsidy_inr", r.SubsidyINR},
		{"total_cost_inr", r.TotalCostINR},
		{"annual_savings_inr", r.AnnualSavingsINR},
		{"monthly_savings_inr", joinFloats(r.MonthlySavingsINR)},
		{"payback_period_years", r.PaybackPeriodYears},
		{"recommendations", strings.Join(r.Recommendations, "; ")},
		{"error", r.Error},
	}
}

// Columns returns the export column names in order.
func Columns() []string {
	fs := Record{}.fields()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.name
	}
	return out
}

// Values returns the record's typed cell values in column order.
func (r Record) Values() []any {
	fs := r.fields()
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f.value
	}
	return out
}

// Row returns the record's values formatted as text in column order.
func (r Record) Row() []string {
	fs := r.fields()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = formatValue(f.value)
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strings.Join(parts, ", ")
}

// monthNames labels the monthly series.
var monthNames = [models.MonthsPerYear]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
